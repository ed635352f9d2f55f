package hclutil

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// TraversalKey generates a stable, canonical string representation for an
// hcl.Traversal, suitable for use as a map key or in messages.
func TraversalKey(t hcl.Traversal) string {
	// e.g., n or grid.size
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// CheckVariables reports an error diagnostic for every variable expr
// references that is not in allowed.
func CheckVariables(expr hcl.Expression, allowed ...string) hcl.Diagnostics {
	ok := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		ok[name] = struct{}{}
	}

	var diags hcl.Diagnostics
	for _, t := range expr.Variables() {
		if _, known := ok[t.RootName()]; known {
			continue
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unknown variable",
			Detail:   fmt.Sprintf("%q is not available here; allowed variables are %v.", TraversalKey(t), allowed),
			Subject:  t.SourceRange().Ptr(),
		})
	}
	return diags
}
