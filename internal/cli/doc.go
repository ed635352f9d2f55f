// Package cli turns the command line into an app.Config and maps the errors
// of a run onto process exit codes.
package cli
