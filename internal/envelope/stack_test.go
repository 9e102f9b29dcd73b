package envelope

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestStackConductiveInsulanceAdditivity(t *testing.T) {
	var s Stack
	if err := s.Add(mustMaterial(t, 0.5, 0.1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(mustMaterial(t, 1.0, 0.05)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got := s.ConductiveInsulance(); !almostEqual(got, 0.25) {
		t.Fatalf("ConductiveInsulance() = %v, want 0.25", got)
	}
}

func TestEmptyStack(t *testing.T) {
	var s Stack

	if got := s.ConductiveInsulance(); got != 0 {
		t.Fatalf("empty ConductiveInsulance() = %v, want 0", got)
	}
	if got := s.ThermalInsulance(); !almostEqual(got, 0.1125) {
		t.Fatalf("empty ThermalInsulance() = %v, want 0.1125", got)
	}
}

func TestStackThermalInsulance(t *testing.T) {
	var s Stack
	if err := s.Add(mustMaterial(t, 0.5, 0.1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(mustMaterial(t, 1.0, 0.05)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// 0.25 conductive + 0.1 inside + 0.0125 outside convection.
	if got := s.ThermalInsulance(); !almostEqual(got, 0.3625) {
		t.Fatalf("ThermalInsulance() = %v, want 0.3625", got)
	}
}

func TestStackFlux(t *testing.T) {
	var s Stack
	if err := s.Add(mustMaterial(t, 0.5, 0.1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(mustMaterial(t, 1.0, 0.05)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.setSurface(10)

	wantDensity := 10 / 0.3625
	if got := s.FluxPerSurface(10); !almostEqual(got, wantDensity) {
		t.Fatalf("FluxPerSurface(10) = %v, want %v", got, wantDensity)
	}

	got, err := s.Flux(10)
	if err != nil {
		t.Fatalf("Flux: %v", err)
	}
	if !almostEqual(got, wantDensity*10) {
		t.Fatalf("Flux(10) = %v, want %v", got, wantDensity*10)
	}
}

func TestStackFluxUnsetSurface(t *testing.T) {
	var s Stack
	if _, err := s.Flux(10); err != ErrSurfaceUnset {
		t.Fatalf("Flux with unset surface = %v, want %v", err, ErrSurfaceUnset)
	}
}

func TestStackZeroDeltaT(t *testing.T) {
	var s Stack
	if err := s.Add(mustMaterial(t, 0.5, 0.1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.setSurface(10)

	got, err := s.Flux(0)
	if err != nil {
		t.Fatalf("Flux: %v", err)
	}
	if got != 0 {
		t.Fatalf("Flux(0) = %v, want 0", got)
	}
}

func TestStackAddRemovePairing(t *testing.T) {
	var s Stack
	first := mustMaterial(t, 0.5, 0.1)
	second := mustMaterial(t, 1.0, 0.05)

	if err := s.Add(first); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(second); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if first.Owner() != &s || second.Owner() != &s {
		t.Fatalf("expected both materials owned by the stack")
	}
	layers := s.Materials()
	if len(layers) != 2 || layers[0] != first || layers[1] != second {
		t.Fatalf("expected insertion order [first, second], got %v", layers)
	}

	if err := s.Remove(first); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if first.Owner() != nil {
		t.Fatalf("removed material still owned")
	}
	if layers := s.Materials(); len(layers) != 1 || layers[0] != second {
		t.Fatalf("expected [second] after removal, got %v", layers)
	}
}

func TestStackAddOwnedMaterial(t *testing.T) {
	var a, b Stack
	m := mustMaterial(t, 0.5, 0.1)
	if err := a.Add(m); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := b.Add(m); err != ErrAlreadyAttached {
		t.Fatalf("Add of owned material = %v, want %v", err, ErrAlreadyAttached)
	}
	if err := a.Add(m); err != ErrAlreadyAttached {
		t.Fatalf("re-Add to same stack = %v, want %v", err, ErrAlreadyAttached)
	}
}

func TestStackRemoveNonMember(t *testing.T) {
	var s Stack
	m := mustMaterial(t, 0.5, 0.1)

	if err := s.Remove(m); err != ErrNotAttached {
		t.Fatalf("Remove of non-member = %v, want %v", err, ErrNotAttached)
	}
}
