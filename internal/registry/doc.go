// Package registry provides the central "glue" for the module system.
//
// The Registry maps the sink names used in run files (e.g., "console") to the
// compiled Go factories that build them. Modules add themselves during
// application startup, and the registry is then validated so that every sink
// name a run file may use has an implementation.
package registry
