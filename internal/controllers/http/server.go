package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Agrid-Dev/solarsizer/internal/controllers"
	"github.com/Agrid-Dev/solarsizer/internal/ports"
	"github.com/Agrid-Dev/solarsizer/internal/report"
)

// maxBodyBytes bounds a project upload.
const maxBodyBytes = 1 << 20

type Server struct {
	svc ports.PlannerService
	srv *http.Server
	log *zap.Logger
}

// New returns a runnable server.
func New(svc ports.PlannerService, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()
	s := &Server{svc: svc, log: log}

	// Read
	mux.HandleFunc("GET /v1/defaults", s.handleDefaults)
	mux.HandleFunc("GET /v1/chemistries", s.handleChemistries)

	// Compute
	mux.HandleFunc("POST /v1/size", s.handleSize)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           logRequests(log, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- Handlers ----

func (s *Server) handleDefaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, controllers.ToSystemDTO(s.svc.Defaults()))
}

func (s *Server) handleChemistries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, controllers.ToChemistryDTOs(s.svc.Chemistries()))
}

// handleSize accepts a project as JSON and answers with the plan.
// ?format=csv returns the bill of materials, ?format=text the terminal report.
func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "csv", "text":
	default:
		writeErr(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeErr(w, status, fmt.Errorf("read body: %w", err))
		return
	}
	proj, err := controllers.DecodeProject(body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	plan, err := s.svc.Plan(proj)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="solar_bom.csv"`)
		if err := report.WriteCSV(w, plan.BOM); err != nil {
			s.log.Warn("write csv", zap.Error(err))
		}
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := report.WriteText(w, plan.Document()); err != nil {
			s.log.Warn("write text", zap.Error(err))
		}
	default:
		writeJSON(w, http.StatusOK, controllers.ToPlanDTO(plan))
	}
}

// ---- generic helpers ----

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, controllers.NewErrorDTO(err))
}
