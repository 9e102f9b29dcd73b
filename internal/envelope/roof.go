package envelope

// Roof caps the building; its surface is the whole footprint.
type Roof struct {
	Stack
	building *Building
}

func NewRoof() *Roof { return &Roof{} }

// Building returns the owning building, or nil.
func (r *Roof) Building() *Building { return r.building }

// Flux derives the surface from the owning building's footprint before
// delegating to the stack formula.
func (r *Roof) Flux(deltaT float64) (float64, error) {
	if r.building == nil {
		return 0, ErrDetached
	}
	r.setSurface(r.building.width * r.building.length)
	return r.Stack.Flux(deltaT)
}
