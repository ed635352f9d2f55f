// Package config defines the format-agnostic run configuration, along with
// the core interfaces (Loader, Converter) for loading it and evaluating the
// expressions it carries.
//
// Configuration is layered: Default() first, then whatever a Loader reads
// from run files, then command-line Overrides. Concrete loaders, such as the
// HCL one, are provided in separate packages.
package config
