package envelope

import (
	"fmt"
	"math"
)

// Building is the root of the envelope: a rectangular footprint with one
// roof, one side and one floor.
type Building struct {
	width  float64 // m
	length float64 // m

	roof  *Roof
	side  *Side
	floor *Floor
}

func NewBuilding(width, length float64) (*Building, error) {
	b := &Building{}
	if err := b.SetDimensions(width, length); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Building) SetDimensions(width, length float64) error {
	if width <= 0 || length <= 0 {
		return ErrNonPositiveDimension
	}
	b.width = width
	b.length = length
	return nil
}

func (b *Building) Width() float64  { return b.width }
func (b *Building) Length() float64 { return b.length }

func (b *Building) Roof() *Roof   { return b.roof }
func (b *Building) Side() *Side   { return b.side }
func (b *Building) Floor() *Floor { return b.floor }

// SetRoof puts r in the roof slot, detaching any previous occupant. A roof
// already owned by a building is refused. The other slots behave the same.
func (b *Building) SetRoof(r *Roof) error {
	if r.building != nil {
		return ErrAlreadyAttached
	}
	if b.roof != nil {
		b.roof.building = nil
	}
	b.roof = r
	r.building = b
	return nil
}

// ClearRoof empties the roof slot. Clearing an empty slot is a no-op.
func (b *Building) ClearRoof() {
	if b.roof == nil {
		return
	}
	b.roof.building = nil
	b.roof = nil
}

func (b *Building) SetSide(s *Side) error {
	if s.building != nil {
		return ErrAlreadyAttached
	}
	if b.side != nil {
		b.side.building = nil
	}
	b.side = s
	s.building = b
	return nil
}

func (b *Building) ClearSide() {
	if b.side == nil {
		return
	}
	b.side.building = nil
	b.side = nil
}

func (b *Building) SetFloor(f *Floor) error {
	if f.building != nil {
		return ErrAlreadyAttached
	}
	if b.floor != nil {
		b.floor.building = nil
	}
	b.floor = f
	f.building = b
	return nil
}

func (b *Building) ClearFloor() {
	if b.floor == nil {
		return
	}
	b.floor.building = nil
	b.floor = nil
}

// Flux returns the total heat flux in W for the given temperatures in °C.
// Roof and side see |inside-outside|, the floor sees |inside-underground|.
func (b *Building) Flux(inside, outside, underground float64) (float64, error) {
	if b.roof == nil {
		return 0, ErrNoRoof
	}
	if b.side == nil {
		return 0, ErrNoSide
	}
	if b.floor == nil {
		return 0, ErrNoFloor
	}

	deltaAir := math.Abs(inside - outside)
	deltaGround := math.Abs(inside - underground)

	roofFlux, err := b.roof.Flux(deltaAir)
	if err != nil {
		return 0, fmt.Errorf("roof: %w", err)
	}
	sideFlux, err := b.side.Flux(deltaAir)
	if err != nil {
		return 0, fmt.Errorf("side: %w", err)
	}
	floorFlux, err := b.floor.Flux(deltaGround)
	if err != nil {
		return 0, fmt.Errorf("floor: %w", err)
	}
	return roofFlux + sideFlux + floorFlux, nil
}
