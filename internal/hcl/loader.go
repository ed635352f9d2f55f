package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/fsutil"
	"github.com/vk/heatgrid/internal/hclutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every run file under paths, in order, on top of base. Later
// files override earlier ones attribute by attribute. Source blocks from all
// files are collected; when there is at least one, they replace the sources
// of base.
func (l *Loader) Load(ctx context.Context, base *config.Model, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := *base
	model.Sources = append([]config.Source(nil), base.Sources...)

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var srcs []config.Source

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("%w: failed to parse HCL file %s: %w", config.ErrInvalid, file, diags)
		}

		fileSources, diags := decodeFile(hclFile.Body, &model)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("%w: failed to decode HCL file %s: %w", config.ErrInvalid, file, diags)
		}
		srcs = append(srcs, fileSources...)
		logger.Debug("Run file applied.", "file", file, "sources", len(fileSources))
	}

	if len(srcs) > 0 {
		model.Sources = srcs
	}

	logger.Debug("HCL loading complete.", "files", len(files), "sources", len(model.Sources))
	return &model, NewConverter(), nil
}

// decodeFile applies one file's blocks to model and returns its sources.
func decodeFile(body hcl.Body, model *config.Model) ([]config.Source, hcl.Diagnostics) {
	content, diags := body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	grid, blockDiags := hclutil.FindUniqueBlock(content.Blocks, "grid")
	diags = append(diags, blockDiags...)
	if grid != nil {
		diags = append(diags, applyGrid(grid, &model.Grid)...)
	}

	mesh, blockDiags := hclutil.FindUniqueBlock(content.Blocks, "mesh")
	diags = append(diags, blockDiags...)
	if mesh != nil {
		var m meshBlock
		diags = append(diags, gohcl.DecodeBody(mesh.Body, nil, &m)...)
		setIf(&model.Mesh.PX, m.PX)
		setIf(&model.Mesh.PY, m.PY)
		setIf(&model.Mesh.PeriodicX, m.PeriodicX)
		setIf(&model.Mesh.PeriodicY, m.PeriodicY)
	}

	output, blockDiags := hclutil.FindUniqueBlock(content.Blocks, "output")
	diags = append(diags, blockDiags...)
	if output != nil {
		var o outputBlock
		diags = append(diags, gohcl.DecodeBody(output.Body, nil, &o)...)
		setIf(&model.Output.Every, o.Every)
		setIf(&model.Output.Sink, o.Sink)
		setIf(&model.Output.URL, o.URL)
		setIf(&model.Output.Namespace, o.Namespace)
		setIf(&model.Output.Event, o.Event)
	}

	var srcs []config.Source
	for _, block := range content.Blocks.OfType("source") {
		src, srcDiags := block.Body.Content(sourceSchema)
		if srcDiags.HasErrors() {
			diags = append(diags, srcDiags...)
			continue
		}
		x, y := src.Attributes["x"].Expr, src.Attributes["y"].Expr
		diags = append(diags, hclutil.CheckVariables(x, "n")...)
		diags = append(diags, hclutil.CheckVariables(y, "n")...)
		srcs = append(srcs, config.Source{X: x, Y: y})
	}

	return srcs, diags
}

func applyGrid(block *hcl.Block, grid *config.Grid) hcl.Diagnostics {
	var g gridBlock
	diags := gohcl.DecodeBody(block.Body, nil, &g)
	if diags.HasErrors() {
		return diags
	}
	setIf(&grid.Size, g.Size)
	setIf(&grid.Energy, g.Energy)
	setIf(&grid.Iterations, g.Iterations)
	if g.InitialTemperature != nil {
		diags = append(diags, hclutil.CheckVariables(g.InitialTemperature.Expr, "n", "x", "y")...)
		grid.InitialTemperature = g.InitialTemperature.Expr
	}
	return diags
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
