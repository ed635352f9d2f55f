// Package hcl provides the concrete HCL implementation for the configuration
// loading and expression evaluation interfaces defined in the `config`
// package. It is responsible for run file discovery, parsing, block
// decoding, and cty evaluation of the expressions a run file carries.
package hcl
