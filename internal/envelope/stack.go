package envelope

// Convective surface resistances in m²·K/W.
const (
	InsideConvectiveInsulance  = 1.0 / 10
	OutsideConvectiveInsulance = 1.0 / 80
)

// Design-reference temperatures in °C, for callers with no site data.
const (
	DefaultInsideTemperature      = 20.0
	DefaultOutsideTemperature     = 10.0
	DefaultUndergroundTemperature = 15.0
)

// Stack is an ordered collection of overlaid materials sharing one surface.
// Layer order does not change the insulance sum but is preserved for
// inspection and editing.
type Stack struct {
	materials  []*Material
	surface    float64
	surfaceSet bool
}

// Add appends m to the stack and takes ownership of it. A material already
// owned by a stack is refused.
func (s *Stack) Add(m *Material) error {
	if m.owner != nil {
		return ErrAlreadyAttached
	}
	s.materials = append(s.materials, m)
	m.owner = s
	return nil
}

// Remove detaches m from the stack and clears its ownership.
func (s *Stack) Remove(m *Material) error {
	for i, cur := range s.materials {
		if cur == m {
			s.materials = append(s.materials[:i], s.materials[i+1:]...)
			m.owner = nil
			return nil
		}
	}
	return ErrNotAttached
}

// Materials returns the layers in insertion order.
func (s *Stack) Materials() []*Material {
	out := make([]*Material, len(s.materials))
	copy(out, s.materials)
	return out
}

// Surface returns the current surface in m² and whether it has been resolved.
// Derived stacks (wall, roof, floor) resolve it on flux computation.
func (s *Stack) Surface() (float64, bool) { return s.surface, s.surfaceSet }

func (s *Stack) setSurface(v float64) {
	s.surface = v
	s.surfaceSet = true
}

// ConductiveInsulance sums the conductive insulances of the layers.
// An empty stack yields 0.
func (s *Stack) ConductiveInsulance() float64 {
	total := 0.0
	for _, m := range s.materials {
		total += m.ConductiveInsulance()
	}
	return total
}

// ThermalInsulance adds the inside and outside convective boundary terms to
// the conductive insulance.
func (s *Stack) ThermalInsulance() float64 {
	return s.ConductiveInsulance() + InsideConvectiveInsulance + OutsideConvectiveInsulance
}

// FluxPerSurface returns the heat flux density in W/m² for an absolute
// temperature difference in K.
func (s *Stack) FluxPerSurface(deltaT float64) float64 {
	return deltaT / s.ThermalInsulance()
}

// Flux returns the heat flux in W through the stack's surface.
func (s *Stack) Flux(deltaT float64) (float64, error) {
	if !s.surfaceSet {
		return 0, ErrSurfaceUnset
	}
	return s.FluxPerSurface(deltaT) * s.surface, nil
}
