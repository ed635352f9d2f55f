package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileSchema lists the top-level blocks of a run file.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "grid"},
		{Type: "mesh"},
		{Type: "source"},
		{Type: "output"},
	},
}

// gridBlock is the `grid` block. Pointer fields stay nil when the attribute
// is absent so the value from the layer below survives.
type gridBlock struct {
	Size               *int           `hcl:"size,optional"`
	Energy             *float64       `hcl:"energy,optional"`
	Iterations         *int           `hcl:"iterations,optional"`
	InitialTemperature *hcl.Attribute `hcl:"initial_temperature,optional"`
}

type meshBlock struct {
	PX        *int  `hcl:"px,optional"`
	PY        *int  `hcl:"py,optional"`
	PeriodicX *bool `hcl:"periodic_x,optional"`
	PeriodicY *bool `hcl:"periodic_y,optional"`
}

// sourceSchema is the `source` block. Both coordinates are expressions of n,
// evaluated once the grid size is final.
var sourceSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "x", Required: true},
		{Name: "y", Required: true},
	},
}

type outputBlock struct {
	Every     *int    `hcl:"every,optional"`
	Sink      *string `hcl:"sink,optional"`
	URL       *string `hcl:"url,optional"`
	Namespace *string `hcl:"namespace,optional"`
	Event     *string `hcl:"event,optional"`
}
