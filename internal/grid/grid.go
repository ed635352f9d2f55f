// Package grid holds the ghost-padded temperature blocks a worker iterates
// on.
//
// A Buffer of a bx×by block stores (bx+2)×(by+2) cells row-major. Interior
// cells live at x in 1..bx and y in 1..by; x=0, x=bx+1, y=0 and y=by+1 are
// the ghost border written from neighbor data.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// ErrAllocation is returned when a buffer of the requested size cannot exist.
var ErrAllocation = errors.New("grid buffer allocation failed")

// Offset returns the flat index of padded cell (x, y) in a buffer whose block
// width is bx. x must be in 0..bx+1; y is not bounded here because the
// height is not known.
func Offset(x, y, bx int) int {
	if x < 0 || x > bx+1 || y < 0 {
		panic(fmt.Sprintf("grid: cell (%d,%d) outside padded width %d", x, y, bx+2))
	}
	return y*(bx+2) + x
}

// Buffer is one ghost-padded block.
type Buffer struct {
	bx    int
	by    int
	cells []float64
}

// New allocates a zeroed buffer for a bx×by block.
func New(bx, by int) (*Buffer, error) {
	if bx <= 0 || by <= 0 {
		return nil, fmt.Errorf("%w: block %dx%d must be positive", ErrAllocation, bx, by)
	}
	if bx+2 > math.MaxInt/(by+2) {
		return nil, fmt.Errorf("%w: block %dx%d overflows", ErrAllocation, bx, by)
	}
	return &Buffer{bx: bx, by: by, cells: make([]float64, (bx+2)*(by+2))}, nil
}

// BX returns the interior width.
func (b *Buffer) BX() int { return b.bx }

// BY returns the interior height.
func (b *Buffer) BY() int { return b.by }

// Index returns the flat offset of padded cell (x, y), panicking when the
// cell is outside the padded block.
func (b *Buffer) Index(x, y int) int {
	if y > b.by+1 {
		panic(fmt.Sprintf("grid: cell (%d,%d) outside padded height %d", x, y, b.by+2))
	}
	return Offset(x, y, b.bx)
}

// At returns the value of padded cell (x, y).
func (b *Buffer) At(x, y int) float64 {
	return b.cells[b.Index(x, y)]
}

// Set writes the value of padded cell (x, y).
func (b *Buffer) Set(x, y int, v float64) {
	b.cells[b.Index(x, y)] = v
}

// Cells exposes the raw padded storage.
func (b *Buffer) Cells() []float64 {
	return b.cells
}

// Interior copies the bx×by real cells out, indexed [y][x] from zero.
func (b *Buffer) Interior() [][]float64 {
	rows := make([][]float64, b.by)
	for y := 1; y <= b.by; y++ {
		start := b.Index(1, y)
		rows[y-1] = append([]float64(nil), b.cells[start:start+b.bx]...)
	}
	return rows
}

// Role names a slot of a Pair by what it is used for this iteration.
type Role int

const (
	Active Role = iota // read by exchange and stencil, receives the halo
	Next               // written by the stencil
)

// Pair is a tagged double buffer. Swap flips which slot plays which role;
// neither slot is ever reallocated, so Next keeps the values it held two
// iterations ago.
type Pair struct {
	slots  [2]*Buffer
	active int
}

// NewPair allocates both slots for a bx×by block.
func NewPair(bx, by int) (*Pair, error) {
	a, err := New(bx, by)
	if err != nil {
		return nil, err
	}
	b, err := New(bx, by)
	if err != nil {
		return nil, err
	}
	return &Pair{slots: [2]*Buffer{a, b}}, nil
}

// Get returns the buffer currently playing role r.
func (p *Pair) Get(r Role) *Buffer {
	if r == Active {
		return p.slots[p.active]
	}
	return p.slots[1-p.active]
}

// Active returns the buffer holding the current state.
func (p *Pair) Active() *Buffer { return p.Get(Active) }

// Next returns the buffer the next state is written into.
func (p *Pair) Next() *Buffer { return p.Get(Next) }

// Swap exchanges the roles of the two slots.
func (p *Pair) Swap() {
	p.active = 1 - p.active
}
