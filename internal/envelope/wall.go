package envelope

// Wall is the opaque part of a side. Its surface is never set directly: the
// owning side writes the net facade surface on every flux computation.
type Wall struct {
	Stack
	side *Side
}

func NewWall() *Wall { return &Wall{} }

// Side returns the owning side, or nil.
func (w *Wall) Side() *Side { return w.side }
