package envelope

import "errors"

var (
	ErrNonPositiveConductivity = errors.New("thermal conductivity must be strictly positive")
	ErrNonPositiveThickness    = errors.New("thickness must be strictly positive")
	ErrNonPositiveSurface      = errors.New("surface must be strictly positive")
	ErrNonPositiveHeight       = errors.New("height must be strictly positive")
	ErrNonPositiveDimension    = errors.New("width and length must be strictly positive")
	ErrAlreadyAttached         = errors.New("child is already attached to a parent")
	ErrNotAttached             = errors.New("child is not attached to this parent")
	ErrSurfaceUnset            = errors.New("surface has not been set")
	ErrDetached                = errors.New("component is not attached to its parent")
	ErrNoWall                  = errors.New("side has no wall")
	ErrNoRoof                  = errors.New("building has no roof")
	ErrNoSide                  = errors.New("building has no side")
	ErrNoFloor                 = errors.New("building has no floor")
)
