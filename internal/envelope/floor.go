package envelope

// Floor exchanges heat with the ground rather than ambient air, so the
// outside convective term does not apply to its insulance.
type Floor struct {
	Stack
	building *Building
}

func NewFloor() *Floor { return &Floor{} }

// Building returns the owning building, or nil.
func (f *Floor) Building() *Building { return f.building }

// ThermalInsulance keeps only the inside convective boundary term.
func (f *Floor) ThermalInsulance() float64 {
	return f.ConductiveInsulance() + InsideConvectiveInsulance
}

func (f *Floor) FluxPerSurface(deltaT float64) float64 {
	return deltaT / f.ThermalInsulance()
}

// Flux derives the surface from the owning building's footprint and applies
// the ground-boundary insulance.
func (f *Floor) Flux(deltaT float64) (float64, error) {
	if f.building == nil {
		return 0, ErrDetached
	}
	f.setSurface(f.building.width * f.building.length)
	return f.FluxPerSurface(deltaT) * f.surface, nil
}
