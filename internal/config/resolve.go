package config

import (
	"context"
	"fmt"

	"github.com/vk/heatgrid/internal/sources"
	"github.com/zclconf/go-cty/cty"
)

// ResolveSources evaluates every source block for the configured grid size.
func (m *Model) ResolveSources(ctx context.Context, conv Converter) ([]sources.Point, error) {
	vars := map[string]cty.Value{"n": cty.NumberIntVal(int64(m.Grid.Size))}

	points := make([]sources.Point, 0, len(m.Sources))
	for i, s := range m.Sources {
		x, err := conv.Int(ctx, s.X, vars)
		if err != nil {
			return nil, fmt.Errorf("%w: source %d x: %w", ErrInvalid, i, err)
		}
		y, err := conv.Int(ctx, s.Y, vars)
		if err != nil {
			return nil, fmt.Errorf("%w: source %d y: %w", ErrInvalid, i, err)
		}
		points = append(points, sources.Point{X: x, Y: y})
	}
	return points, nil
}

// InitialField evaluates the initial temperature expression over the whole
// grid once and returns a lookup by global cell. It returns nil when no
// expression is configured.
func (m *Model) InitialField(ctx context.Context, conv Converter) (func(gx, gy int) float64, error) {
	expr := m.Grid.InitialTemperature
	if expr == nil {
		return nil, nil
	}

	n := m.Grid.Size
	field := make([]float64, n*n)
	nv := cty.NumberIntVal(int64(n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v, err := conv.Number(ctx, expr, map[string]cty.Value{
				"n": nv,
				"x": cty.NumberIntVal(int64(x)),
				"y": cty.NumberIntVal(int64(y)),
			})
			if err != nil {
				return nil, fmt.Errorf("%w: initial_temperature at (%d,%d): %w", ErrInvalid, x, y, err)
			}
			field[y*n+x] = v
		}
	}

	return func(gx, gy int) float64 {
		return field[gy*n+gx]
	}, nil
}
