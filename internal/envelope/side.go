package envelope

// Side aggregates the wall and the openings of the building's facades.
type Side struct {
	building *Building
	height   float64
	wall     *Wall
	openings []*Opening
}

func NewSide(height float64) (*Side, error) {
	s := &Side{}
	if err := s.SetHeight(height); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Side) SetHeight(v float64) error {
	if v <= 0 {
		return ErrNonPositiveHeight
	}
	s.height = v
	return nil
}

func (s *Side) Height() float64 { return s.height }

// Building returns the owning building, or nil.
func (s *Side) Building() *Building { return s.building }

// Wall returns the wall slot occupant, or nil.
func (s *Side) Wall() *Wall { return s.wall }

// Openings returns the openings in insertion order.
func (s *Side) Openings() []*Opening {
	out := make([]*Opening, len(s.openings))
	copy(out, s.openings)
	return out
}

// SetWall puts w in the wall slot, detaching any previous occupant. A wall
// already owned by a side is refused.
func (s *Side) SetWall(w *Wall) error {
	if w.side != nil {
		return ErrAlreadyAttached
	}
	if s.wall != nil {
		s.wall.side = nil
	}
	s.wall = w
	w.side = s
	return nil
}

// ClearWall empties the wall slot. Clearing an empty slot is a no-op.
func (s *Side) ClearWall() {
	if s.wall == nil {
		return
	}
	s.wall.side = nil
	s.wall = nil
}

// AddOpening appends o to the side and takes ownership of it.
func (s *Side) AddOpening(o *Opening) error {
	if o.side != nil {
		return ErrAlreadyAttached
	}
	s.openings = append(s.openings, o)
	o.side = s
	return nil
}

// RemoveOpening detaches o from the side and clears its ownership.
func (s *Side) RemoveOpening(o *Opening) error {
	for i, cur := range s.openings {
		if cur == o {
			s.openings = append(s.openings[:i], s.openings[i+1:]...)
			o.side = nil
			return nil
		}
	}
	return ErrNotAttached
}

// Flux recomputes the wall's net surface from the owning building's footprint
// and the side height, then sums the wall flux and the opening fluxes.
//
// The wall surface contract is 2*height*(width+length) minus the opening
// surfaces: the combined area of the facades around the full perimeter.
func (s *Side) Flux(deltaT float64) (float64, error) {
	if s.building == nil {
		return 0, ErrDetached
	}
	if s.wall == nil {
		return 0, ErrNoWall
	}

	var openingArea float64
	for _, o := range s.openings {
		surface, _ := o.Surface()
		openingArea += surface
	}
	s.wall.setSurface(2*s.height*(s.building.width+s.building.length) - openingArea)

	total, err := s.wall.Flux(deltaT)
	if err != nil {
		return 0, err
	}
	for _, o := range s.openings {
		f, err := o.Flux(deltaT)
		if err != nil {
			return 0, err
		}
		total += f
	}
	return total, nil
}
