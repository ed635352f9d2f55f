package hcl

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Converter is the HCL-specific implementation of the config.Converter
// interface.
type Converter struct {
	functions map[string]function.Function
}

// NewConverter creates a new HCL converter with the numeric functions run
// files may call.
func NewConverter() *Converter {
	return &Converter{
		functions: map[string]function.Function{
			"abs":   stdlib.AbsoluteFunc,
			"ceil":  stdlib.CeilFunc,
			"floor": stdlib.FloorFunc,
			"int":   stdlib.IntFunc,
			"max":   stdlib.MaxFunc,
			"min":   stdlib.MinFunc,
			"pow":   stdlib.PowFunc,
		},
	}
}

// Number evaluates expr to a finite float64.
func (c *Converter) Number(ctx context.Context, expr hcl.Expression, vars map[string]cty.Value) (float64, error) {
	val, err := c.eval(ctx, expr, vars)
	if err != nil {
		return 0, err
	}
	f, _ := val.AsBigFloat().Float64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %s is out of range", val.AsBigFloat().String())
	}
	return f, nil
}

// Int evaluates expr and truncates the result toward zero.
func (c *Converter) Int(ctx context.Context, expr hcl.Expression, vars map[string]cty.Value) (int, error) {
	val, err := c.eval(ctx, expr, vars)
	if err != nil {
		return 0, err
	}
	bf := val.AsBigFloat()
	if !bf.IsInt() {
		ctxlog.FromContext(ctx).Debug("Truncating fractional value.", "value", bf.String())
	}
	i, _ := bf.Int64()
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, fmt.Errorf("value %d is out of range", i)
	}
	return int(i), nil
}

func (c *Converter) eval(ctx context.Context, expr hcl.Expression, vars map[string]cty.Value) (cty.Value, error) {
	if expr == nil {
		return cty.NilVal, errors.New("missing expression")
	}
	evalCtx := &hcl.EvalContext{Variables: vars, Functions: c.functions}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %s to number: %w", val.Type().FriendlyName(), err)
	}
	if num.IsNull() || !num.IsKnown() {
		return cty.NilVal, errors.New("expression has no value")
	}
	return num, nil
}
