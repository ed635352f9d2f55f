package app

import (
	"errors"
	"fmt"

	"github.com/vk/heatgrid/internal/config"
)

// Transport names accepted by Config.Transport.
const (
	TransportLocal = "local"
	TransportWS    = "ws"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // hcl file or directory, optional

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	Transport string
	// Workers is the group size for local runs. Zero means one per mesh
	// cell.
	Workers int
	Rank    int      // ws only
	Peers   []string // ws only, one host:port per rank

	Overrides config.Overrides
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Transport == "" {
		cfg.Transport = TransportLocal
	}

	var errs []error
	switch cfg.Transport {
	case TransportLocal:
		if cfg.Workers < 0 {
			errs = append(errs, fmt.Errorf("workers must not be negative, got %d", cfg.Workers))
		}
	case TransportWS:
		if len(cfg.Peers) == 0 {
			errs = append(errs, errors.New("the ws transport needs peers"))
		} else if cfg.Rank < 0 || cfg.Rank >= len(cfg.Peers) {
			errs = append(errs, fmt.Errorf("rank %d is outside the %d peers", cfg.Rank, len(cfg.Peers)))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", cfg.Transport))
	}
	if cfg.HealthcheckPort < 0 {
		errs = append(errs, fmt.Errorf("healthcheck port must not be negative, got %d", cfg.HealthcheckPort))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, errors.Join(errs...))
	}
	return &cfg, nil
}
