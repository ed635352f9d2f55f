package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// ErrInvalid marks configuration that can never produce a run.
var ErrInvalid = errors.New("invalid configuration")

// Sink names understood by the output block.
const (
	SinkNone     = "none"
	SinkConsole  = "console"
	SinkSocketIO = "socketio"
	SinkHTTP     = "http"
)

// Model is the unified, format-agnostic representation of a run.
type Model struct {
	Grid    Grid
	Mesh    Mesh
	Sources []Source
	Output  Output
}

// Grid is the `grid` block.
type Grid struct {
	Size       int
	Energy     float64
	Iterations int
	// InitialTemperature is an optional expression of x, y and n. Nil means
	// the grid starts cold.
	InitialTemperature hcl.Expression
}

// Mesh is the `mesh` block.
type Mesh struct {
	PX        int
	PY        int
	PeriodicX bool
	PeriodicY bool
}

// Source is one `source` block: global coordinates as expressions of n.
type Source struct {
	X hcl.Expression
	Y hcl.Expression
}

// Output is the `output` block.
type Output struct {
	Every     int
	Sink      string
	URL       string
	Namespace string
	Event     string
}

// Default returns the built-in configuration: the three standard heat
// sources, no snapshot sink, output cadence 1000.
func Default() *Model {
	return &Model{
		Grid: Grid{Energy: 1},
		Mesh: Mesh{PX: 1, PY: 1},
		Sources: []Source{
			MustSource("n / 2", "n / 2"),
			MustSource("n / 3", "n / 3"),
			MustSource("n * 4 / 5", "n * 8 / 9"),
		},
		Output: Output{
			Every:     1000,
			Sink:      SinkNone,
			Namespace: "/",
			Event:     "frame",
		},
	}
}

// MustSource builds a Source from two expression strings. It panics on a
// syntax error and is meant for built-in defaults and tests.
func MustSource(x, y string) Source {
	return Source{X: MustExpr(x), Y: MustExpr(y)}
}

// MustExpr parses an expression string, panicking on a syntax error.
func MustExpr(src string) hcl.Expression {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<default>", hcl.InitialPos)
	if diags.HasErrors() {
		panic(fmt.Sprintf("config: invalid built-in expression %q: %s", src, diags.Error()))
	}
	return expr
}

// Overrides are values given on the command line. Nil fields leave the
// model untouched.
type Overrides struct {
	Size       *int
	Energy     *float64
	Iterations *int
	PX         *int
	PY         *int
	PeriodicX  *bool
	PeriodicY  *bool
	Every      *int
	Sink       *string
	URL        *string
}

// Apply writes every set override into m.
func (m *Model) Apply(o Overrides) {
	setIf(&m.Grid.Size, o.Size)
	setIf(&m.Grid.Energy, o.Energy)
	setIf(&m.Grid.Iterations, o.Iterations)
	setIf(&m.Mesh.PX, o.PX)
	setIf(&m.Mesh.PY, o.PY)
	setIf(&m.Mesh.PeriodicX, o.PeriodicX)
	setIf(&m.Mesh.PeriodicY, o.PeriodicY)
	setIf(&m.Output.Every, o.Every)
	setIf(&m.Output.Sink, o.Sink)
	setIf(&m.Output.URL, o.URL)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate rejects values no run can use. Mesh/grid divisibility is left to
// the mesh and decomposition checks, which report it with their own errors.
func (m *Model) Validate() error {
	var errs []error
	if m.Grid.Size <= 0 {
		errs = append(errs, fmt.Errorf("grid size must be positive, got %d", m.Grid.Size))
	}
	if m.Grid.Iterations < 0 {
		errs = append(errs, fmt.Errorf("iterations must not be negative, got %d", m.Grid.Iterations))
	}
	if m.Mesh.PX <= 0 || m.Mesh.PY <= 0 {
		errs = append(errs, fmt.Errorf("mesh dimensions must be positive, got %dx%d", m.Mesh.PX, m.Mesh.PY))
	}
	if m.Output.Every < 0 {
		errs = append(errs, fmt.Errorf("output interval must not be negative, got %d", m.Output.Every))
	}
	switch m.Output.Sink {
	case SinkNone, SinkConsole:
	case SinkSocketIO, SinkHTTP:
		if m.Output.URL == "" {
			errs = append(errs, fmt.Errorf("sink %q needs a url", m.Output.Sink))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink %q", m.Output.Sink))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
