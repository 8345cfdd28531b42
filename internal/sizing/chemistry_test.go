package sizing

import (
	"errors"
	"testing"
)

func TestParseChemistry(t *testing.T) {
	tests := []struct {
		in   string
		want Chemistry
	}{
		{"lithium", ChemistryLithium},
		{"Lithium", ChemistryLithium},
		{"LiFePO4", ChemistryLithium},
		{"li-ion", ChemistryLithium},
		{"Lead-acid", ChemistryLeadAcid},
		{"lead acid", ChemistryLeadAcid},
		{"AGM", ChemistryLeadAcid},
		{" tubular ", ChemistryTubular},
		{"Nickel Iron", Chemistry("nickel_iron")},
	}

	for _, tt := range tests {
		got, err := ParseChemistry(tt.in)
		if err != nil {
			t.Fatalf("ParseChemistry(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseChemistry(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseChemistryEmpty(t *testing.T) {
	for _, in := range []string{"", "   "} {
		_, err := ParseChemistry(in)
		if !errors.Is(err, ErrUnknownChemistry) {
			t.Fatalf("ParseChemistry(%q): expected ErrUnknownChemistry, got %v", in, err)
		}
	}
}

func TestChemistryParamsValidate(t *testing.T) {
	tests := []struct {
		name string
		p    ChemistryParams
		want error
	}{
		{"ok", ChemistryParams{DepthOfDischarge: 0.8, RoundTripEfficiency: 0.9}, nil},
		{"full", ChemistryParams{DepthOfDischarge: 1, RoundTripEfficiency: 1}, nil},
		{"zero dod", ChemistryParams{DepthOfDischarge: 0, RoundTripEfficiency: 0.9}, ErrNonPositive},
		{"dod above one", ChemistryParams{DepthOfDischarge: 1.1, RoundTripEfficiency: 0.9}, ErrOutOfRange},
		{"negative efficiency", ChemistryParams{DepthOfDischarge: 0.5, RoundTripEfficiency: -0.2}, ErrNonPositive},
		{"efficiency above one", ChemistryParams{DepthOfDischarge: 0.5, RoundTripEfficiency: 1.01}, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) || !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestChemistryTableLookup(t *testing.T) {
	table := DefaultChemistryTable()

	p, err := table.Lookup(ChemistryLeadAcid)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p.DepthOfDischarge != 0.5 || p.RoundTripEfficiency != 0.8 {
		t.Fatalf("unexpected lead-acid params: %+v", p)
	}

	_, err = table.Lookup("unobtanium")
	var cve *ConfigValidationError
	if !errors.As(err, &cve) || cve.Field != "chemistry" {
		t.Fatalf("expected chemistry ConfigValidationError, got %v", err)
	}
}

func TestChemistryTableNamesSorted(t *testing.T) {
	got := DefaultChemistryTable().Names()
	want := []Chemistry{ChemistryLeadAcid, ChemistryLithium, ChemistryTubular}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestChemistryTableWithDoesNotMutate(t *testing.T) {
	base := DefaultChemistryTable()
	ext := base.With("nickel_iron", ChemistryParams{DepthOfDischarge: 0.8, RoundTripEfficiency: 0.65})

	if _, ok := base["nickel_iron"]; ok {
		t.Fatal("With mutated the receiver")
	}
	if _, ok := ext["nickel_iron"]; !ok {
		t.Fatal("With did not add the entry")
	}

	var empty ChemistryTable
	if got := empty.With(ChemistryLithium, ChemistryParams{DepthOfDischarge: 1, RoundTripEfficiency: 1}); len(got) != 1 {
		t.Fatalf("With on nil table = %v", got)
	}
}

func TestChemistryTableValidateNamesEntry(t *testing.T) {
	table := DefaultChemistryTable().With("broken", ChemistryParams{})
	err := table.Validate()
	if !errors.Is(err, ErrNonPositive) {
		t.Fatalf("expected ErrNonPositive, got %v", err)
	}
	if want := `chemistry "broken"`; len(err.Error()) < len(want) || err.Error()[:len(want)] != want {
		t.Fatalf("error should name the entry, got %q", err.Error())
	}
}
