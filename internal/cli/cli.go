package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vk/heatgrid/internal/app"
	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/decomp"
	"github.com/vk/heatgrid/internal/mesh"
)

// Exit codes. Codes 1 to 3 are the startup checks every worker performs.
const (
	ExitOK             = 0
	ExitShapeMismatch  = 1
	ExitNotDivisibleX  = 2
	ExitNotDivisibleY  = 3
	ExitUsage          = 64
	ExitRuntimeFailure = 70
)

const positionalArgsCount = 5

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode maps an error returned by the application to a process exit code.
func ExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, mesh.ErrShapeMismatch):
		return ExitShapeMismatch
	case errors.Is(err, decomp.ErrNotDivisibleX):
		return ExitNotDivisibleX
	case errors.Is(err, decomp.ErrNotDivisibleY):
		return ExitNotDivisibleY
	case errors.Is(err, config.ErrInvalid):
		return ExitUsage
	default:
		return ExitRuntimeFailure
	}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("heatgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
heatgrid - 2D heat diffusion over a process mesh with halo exchange.

Usage:
  heatgrid [options] n energy niters px py
  heatgrid [options] -config PATH [n energy niters px py]

Arguments:
  n        Grid side length. Must be divisible by px and py.
  energy   Heat injected at every source each iteration.
  niters   Number of iterations.
  px, py   Mesh dimensions. px*py must equal the number of workers.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to a run file or a directory of .hcl run files.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	transportFlag := flagSet.String("transport", app.TransportLocal, "Worker transport. Options: 'local' (goroutines) or 'ws' (one process per rank).")
	workersFlag := flagSet.Int("workers", 0, "Number of local workers. 0 means px*py.")
	rankFlag := flagSet.Int("rank", 0, "Rank of this process (ws transport).")
	peersFlag := flagSet.String("peers", "", "Comma-separated host:port of every rank, in rank order (ws transport).")
	periodicXFlag := flagSet.Bool("periodic-x", false, "Wrap the mesh around along X.")
	periodicYFlag := flagSet.Bool("periodic-y", false, "Wrap the mesh around along Y.")
	outFreqFlag := flagSet.Int("out-freq", config.Default().Output.Every, "Snapshot interval in iterations. 0 publishes only the last iteration.")
	sinkFlag := flagSet.String("sink", config.SinkNone, "Snapshot sink. Options: 'none', 'console', 'socketio', 'http'.")
	sinkURLFlag := flagSet.String("sink-url", "", "Endpoint of the socketio or http sink.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var overrides config.Overrides
	switch n := flagSet.NArg(); {
	case n == positionalArgsCount:
		if err := parsePositional(flagSet.Args(), &overrides); err != nil {
			return nil, false, err
		}
	case *configFlag == "" && n < positionalArgsCount:
		slog.Debug("Positional arguments missing, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	case n > 0:
		return nil, false, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("expected %d arguments, got %d", positionalArgsCount, n)}
	}

	// Flags override the run file only when given explicitly.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "periodic-x":
			overrides.PeriodicX = periodicXFlag
		case "periodic-y":
			overrides.PeriodicY = periodicYFlag
		case "out-freq":
			overrides.Every = outFreqFlag
		case "sink":
			overrides.Sink = sinkFlag
		case "sink-url":
			overrides.URL = sinkURLFlag
		}
	})

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var peers []string
	if *peersFlag != "" {
		for _, p := range strings.Split(*peersFlag, ",") {
			peers = append(peers, strings.TrimSpace(p))
		}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		ConfigPath:      *configFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		Transport:       strings.ToLower(*transportFlag),
		Workers:         *workersFlag,
		Rank:            *rankFlag,
		Peers:           peers,
		Overrides:       overrides,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

// parsePositional reads n energy niters px py.
func parsePositional(args []string, o *config.Overrides) error {
	var err error
	if o.Size, err = atoi("n", args[0]); err != nil {
		return err
	}
	energy, perr := strconv.ParseFloat(args[1], 64)
	if perr != nil {
		return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("invalid energy %q: must be a number", args[1])}
	}
	o.Energy = &energy
	if o.Iterations, err = atoi("niters", args[2]); err != nil {
		return err
	}
	if o.PX, err = atoi("px", args[3]); err != nil {
		return err
	}
	if o.PY, err = atoi("py", args[4]); err != nil {
		return err
	}
	return nil
}

func atoi(name, s string) (*int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("invalid %s %q: must be an integer", name, s)}
	}
	return &v, nil
}
