package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{"Item", "Model", "Qty (Full)", "Qty (Critical)", "Notes"}

// WriteCSV writes the bill of materials with sanitised cells.
func WriteCSV(w io.Writer, bom BillOfMaterials) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range bom.Rows {
		rec := []string{
			Sanitize(r.Item),
			Sanitize(r.Model),
			strconv.Itoa(r.QtyFull),
			strconv.Itoa(r.QtyCritical),
			Sanitize(r.Notes),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
