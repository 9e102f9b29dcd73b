// Package envelope models the steady-state thermal behavior of a rectangular
// building envelope: layered materials stacked into walls, roof, floor and
// openings, aggregated into sides and a building. Every composite keeps a
// back-reference to its owner, used to derive surfaces from the owner's
// dimensions. The tree is not safe for concurrent use; callers needing shared
// access wrap it (see internal/audit).
package envelope

// Material is a single homogeneous layer of a stack.
type Material struct {
	owner        *Stack
	conductivity float64 // W/(m·K)
	thickness    float64 // m
}

func NewMaterial(conductivity, thickness float64) (*Material, error) {
	m := &Material{}
	if err := m.SetConductivity(conductivity); err != nil {
		return nil, err
	}
	if err := m.SetThickness(thickness); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Material) Conductivity() float64 { return m.conductivity }
func (m *Material) Thickness() float64    { return m.thickness }

// Owner returns the stack the material belongs to, or nil.
func (m *Material) Owner() *Stack { return m.owner }

func (m *Material) SetConductivity(v float64) error {
	if v <= 0 {
		return ErrNonPositiveConductivity
	}
	m.conductivity = v
	return nil
}

func (m *Material) SetThickness(v float64) error {
	if v <= 0 {
		return ErrNonPositiveThickness
	}
	m.thickness = v
	return nil
}

// ConductiveInsulance returns thickness/conductivity in m²·K/W.
func (m *Material) ConductiveInsulance() float64 {
	return m.thickness / m.conductivity
}
