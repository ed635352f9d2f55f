// Package hclutil holds small helpers over hashicorp/hcl shared by the run
// file loader.
package hclutil

import (
	"github.com/hashicorp/hcl/v2"
)

// FindUniqueBlock returns the block of the given type, or nil when there is
// none. Every repeat after the first yields an error diagnostic pointing at
// the repeat and naming where the first one was declared; the last block
// found is returned so that decoding can still proceed.
func FindUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var first, found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks.OfType(name) {
		if first == nil {
			first = block
		} else {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate \"" + name + "\" block",
				Detail:   "Only one \"" + name + "\" block is allowed per file; the first one is at " + first.DefRange.String() + ".",
				Subject:  block.DefRange.Ptr(),
			})
		}
		found = block
	}

	return found, diags
}
