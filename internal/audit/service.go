// Package audit wraps a single envelope.Building behind a mutex and exposes
// its heat-loss figures as snapshots. The envelope tree itself is not safe
// for concurrent use; this service is the concurrency boundary controllers
// talk to.
package audit

import (
	"fmt"
	"math"
	"sync"

	"github.com/arenvio/heatshell/internal/envelope"
)

// Temperatures are the boundary conditions of a flux computation, in °C.
type Temperatures struct {
	Inside      float64
	Outside     float64
	Underground float64
}

// DefaultTemperatures returns the design-reference boundary conditions.
func DefaultTemperatures() Temperatures {
	return Temperatures{
		Inside:      envelope.DefaultInsideTemperature,
		Outside:     envelope.DefaultOutsideTemperature,
		Underground: envelope.DefaultUndergroundTemperature,
	}
}

// Snapshot is a consistent view of the building configuration and its
// computed heat fluxes in W.
type Snapshot struct {
	InsideTemperature      float64
	OutsideTemperature     float64
	UndergroundTemperature float64

	Width      float64
	Length     float64
	SideHeight float64

	RoofFlux  float64
	SideFlux  float64
	FloorFlux float64
	TotalFlux float64
}

type Service struct {
	mu       sync.Mutex // flux computation writes derived surfaces
	building *envelope.Building
	temps    Temperatures
}

// New validates that the building is complete enough to compute a flux and
// returns the service.
func New(building *envelope.Building, temps Temperatures) (*Service, error) {
	s := &Service{building: building, temps: temps}
	if _, err := s.Get(); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	return s, nil
}

// Get recomputes the fluxes under the current configuration. Surface
// derivation is deterministic, so repeated calls agree.
func (s *Service) Get() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() (Snapshot, error) {
	b := s.building
	if b.Roof() == nil {
		return Snapshot{}, envelope.ErrNoRoof
	}
	if b.Side() == nil {
		return Snapshot{}, envelope.ErrNoSide
	}
	if b.Floor() == nil {
		return Snapshot{}, envelope.ErrNoFloor
	}

	deltaAir := math.Abs(s.temps.Inside - s.temps.Outside)
	deltaGround := math.Abs(s.temps.Inside - s.temps.Underground)

	roofFlux, err := b.Roof().Flux(deltaAir)
	if err != nil {
		return Snapshot{}, fmt.Errorf("roof: %w", err)
	}
	sideFlux, err := b.Side().Flux(deltaAir)
	if err != nil {
		return Snapshot{}, fmt.Errorf("side: %w", err)
	}
	floorFlux, err := b.Floor().Flux(deltaGround)
	if err != nil {
		return Snapshot{}, fmt.Errorf("floor: %w", err)
	}

	return Snapshot{
		InsideTemperature:      s.temps.Inside,
		OutsideTemperature:     s.temps.Outside,
		UndergroundTemperature: s.temps.Underground,
		Width:                  b.Width(),
		Length:                 b.Length(),
		SideHeight:             b.Side().Height(),
		RoofFlux:               roofFlux,
		SideFlux:               sideFlux,
		FloorFlux:              floorFlux,
		TotalFlux:              roofFlux + sideFlux + floorFlux,
	}, nil
}

func (s *Service) SetInsideTemperature(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temps.Inside = v
}

func (s *Service) SetOutsideTemperature(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temps.Outside = v
}

func (s *Service) SetUndergroundTemperature(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temps.Underground = v
}

func (s *Service) SetDimensions(width, length float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.building.SetDimensions(width, length)
}

func (s *Service) SetSideHeight(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	side := s.building.Side()
	if side == nil {
		return envelope.ErrNoSide
	}
	return side.SetHeight(v)
}
