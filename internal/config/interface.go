package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads run files from the given paths on top of base and returns
	// the merged model and a matching Converter. Missing paths are not an
	// error.
	Load(ctx context.Context, base *Model, paths ...string) (*Model, Converter, error)
}

// Converter evaluates the expressions a Model carries.
type Converter interface {
	// Number evaluates expr with the given variables to a float64.
	Number(ctx context.Context, expr hcl.Expression, vars map[string]cty.Value) (float64, error)
	// Int evaluates expr like Number and truncates the result toward zero.
	Int(ctx context.Context, expr hcl.Expression, vars map[string]cty.Value) (int, error)
}
