package envelope

// Opening is a stack whose surface is supplied by the caller, such as a
// window or a door.
type Opening struct {
	Stack
	side *Side
}

func NewOpening(surface float64) (*Opening, error) {
	o := &Opening{}
	if err := o.SetSurface(surface); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Opening) SetSurface(v float64) error {
	if v <= 0 {
		return ErrNonPositiveSurface
	}
	o.setSurface(v)
	return nil
}

// Side returns the owning side, or nil.
func (o *Opening) Side() *Side { return o.side }
