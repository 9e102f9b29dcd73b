package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/arenvio/heatshell/internal/audit"
	"github.com/arenvio/heatshell/internal/ports"
)

type Server struct {
	svc    ports.EnvelopeService
	srv    *http.Server
	siteID string
}

// New returns a runnable server.
func New(svc ports.EnvelopeService, addr string, siteID string) *Server {
	mux := http.NewServeMux()
	s := &Server{svc: svc, siteID: siteID}

	// Read
	mux.HandleFunc("GET /v1", s.handleGet)

	// Write: one endpoint per variable
	mux.HandleFunc("POST /v1/temperature_inside", s.handlePostInside)
	mux.HandleFunc("POST /v1/temperature_outside", s.handlePostOutside)
	mux.HandleFunc("POST /v1/temperature_underground", s.handlePostUnderground)
	mux.HandleFunc("POST /v1/width", s.handlePostWidth)
	mux.HandleFunc("POST /v1/length", s.handlePostLength)
	mux.HandleFunc("POST /v1/side_height", s.handlePostSideHeight)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
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

// ---- DTOs ----

type snapshotDTO struct {
	SiteID                 string  `json:"site_id"`
	InsideTemperature      float64 `json:"temperature_inside"`
	OutsideTemperature     float64 `json:"temperature_outside"`
	UndergroundTemperature float64 `json:"temperature_underground"`
	Width                  float64 `json:"width"`
	Length                 float64 `json:"length"`
	SideHeight             float64 `json:"side_height"`
	RoofFlux               float64 `json:"roof_flux"`
	SideFlux               float64 `json:"side_flux"`
	FloorFlux              float64 `json:"floor_flux"`
	TotalFlux              float64 `json:"total_flux"`
}

func toDTO(s audit.Snapshot) snapshotDTO {
	return snapshotDTO{
		InsideTemperature:      s.InsideTemperature,
		OutsideTemperature:     s.OutsideTemperature,
		UndergroundTemperature: s.UndergroundTemperature,
		Width:                  s.Width,
		Length:                 s.Length,
		SideHeight:             s.SideHeight,
		RoofFlux:               s.RoofFlux,
		SideFlux:               s.SideFlux,
		FloorFlux:              s.FloorFlux,
		TotalFlux:              s.TotalFlux,
	}
}

// ---- Handlers ----

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request) {
	s.respondSnapshot(w)
}

func (s *Server) handlePostInside(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v float64) error {
		s.svc.SetInsideTemperature(v)
		return nil
	})
}

func (s *Server) handlePostOutside(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v float64) error {
		s.svc.SetOutsideTemperature(v)
		return nil
	})
}

func (s *Server) handlePostUnderground(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v float64) error {
		s.svc.SetUndergroundTemperature(v)
		return nil
	})
}

func (s *Server) handlePostWidth(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v float64) error {
		cur, err := s.svc.Get()
		if err != nil {
			return err
		}
		return s.svc.SetDimensions(v, cur.Length)
	})
}

func (s *Server) handlePostLength(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v float64) error {
		cur, err := s.svc.Get()
		if err != nil {
			return err
		}
		return s.svc.SetDimensions(cur.Width, v)
	})
}

func (s *Server) handlePostSideHeight(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v float64) error {
		return s.svc.SetSideHeight(v)
	})
}

// ---- generic helpers ----

func (s *Server) respondSnapshot(w http.ResponseWriter) {
	snap, err := s.svc.Get()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	dto := toDTO(snap)
	dto.SiteID = s.siteID
	writeJSON(w, http.StatusOK, dto)
}

func postValue[T any](s *Server, w http.ResponseWriter, r *http.Request, apply func(T) error) {
	dec := json.NewDecoder(r.Body)
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return
	}

	if err := apply(*req.Value); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondSnapshot(w)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
