package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ndntg/namepush/admin"
	"github.com/ndntg/namepush/cfg"
	"github.com/ndntg/namepush/engine"
	"github.com/ndntg/namepush/face"
	"github.com/ndntg/namepush/telemetry"
)

const exitConfigError = 2

// logDirEnv redirects textual logging to a file inside the named folder
const logDirEnv = "NAMEPUSH_LOG_DIR"

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: namepush [options] <traffic-pattern-file>

Publish signed data objects under the prefixes configured in the
traffic-pattern file. Multiple patterns can be configured, each with its
own generation cadence.

Set the environment variable %s to redirect output to a log file.

Options:
`, logDirEnv)
	flag.PrintDefaults()
}

func main() {
	var (
		count      int64
		delayUsec  int64
		quiet      bool
		configPath string
	)

	flag.Int64Var(&count, "count", 0, "maximum number of data objects to publish (0 = report configuration and exit)")
	flag.Int64Var(&count, "c", 0, "shorthand for -count")
	flag.Int64Var(&delayUsec, "delay", 0, "wait this amount of microseconds before each publication")
	flag.Int64Var(&delayUsec, "d", 0, "shorthand for -delay")
	flag.BoolVar(&quiet, "quiet", false, "suppress per-pattern ids on publish logs")
	flag.BoolVar(&quiet, "q", false, "shorthand for -quiet")
	flag.StringVar(&configPath, "config", "namepush.toml", "path to agent configuration file")
	flag.Usage = usage
	flag.Parse()

	if count < 0 {
		fmt.Fprintln(os.Stderr, "ERROR: the argument for option '-count' cannot be negative")
		os.Exit(exitConfigError)
	}
	if delayUsec < 0 {
		fmt.Fprintln(os.Stderr, "ERROR: the argument for option '-delay' cannot be negative")
		os.Exit(exitConfigError)
	}
	if flag.NArg() != 1 {
		flag.CommandLine.SetOutput(os.Stderr)
		usage()
		os.Exit(exitConfigError)
	}
	patternFile := flag.Arg(0)

	if err := cfg.Load(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(exitConfigError)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: invalid configuration: %v\n", err)
		os.Exit(exitConfigError)
	}

	// Setup logging
	var writer io.Writer = zerolog.NewConsoleWriter()
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stdout
	}
	reportOut := io.Writer(os.Stdout)
	if dir := os.Getenv(logDirEnv); dir != "" {
		path := filepath.Join(dir, fmt.Sprintf("namepush-%d.log", cfg.Config.InstanceID))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: cannot open log file %s: %v\n", path, err)
			os.Exit(exitConfigError)
		}
		defer f.Close()
		writer = f
		reportOut = f
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Uint64("instance_id", cfg.Config.InstanceID).
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}

	log.Debug().Msg("Initializing telemetry")
	telemetry.InitializeTelemetry()

	filter, err := cfg.NewPatternFilter(cfg.Config.Patterns.Include)
	if err != nil {
		log.Error().Err(err).Msg("Invalid pattern include filter")
		os.Exit(exitConfigError)
	}

	patterns, err := cfg.LoadPatterns(patternFile, filter)
	if err != nil {
		log.Error().Err(err).Str("path", patternFile).Msg("Failed to load traffic patterns")
		os.Exit(exitConfigError)
	}
	log.Info().Int("patterns", len(patterns)).Msg("Traffic configuration file processing completed")

	// Report-only runs never touch the network, so the face is only
	// built when a cap was requested.
	var netFace face.Face
	if count > 0 {
		netFace, err = buildFace(patterns, reportOut)
		if err != nil {
			os.Exit(engine.ExitFault)
		}
	}

	eng := engine.New(patterns, netFace, engine.Options{
		MaxCount: uint64(count),
		Delay:    time.Duration(delayUsec) * time.Microsecond,
		Quiet:    quiet,
		ReportTo: reportOut,
	}, log.Logger)

	if cfg.Config.Prometheus.Enabled {
		srv := admin.NewServer(eng.Stats())
		go srv.Serve(admin.Addr(cfg.Config.Prometheus.Address, cfg.Config.Prometheus.Port))
	}

	os.Exit(eng.Run())
}

// buildFace creates the configured face. A transport that cannot be
// built is a runtime fault, so the zero-count statistics report is still
// emitted before the caller exits.
func buildFace(patterns []cfg.Pattern, reportOut io.Writer) (face.Face, error) {
	f, err := face.New(cfg.Config.Face)
	if err != nil {
		log.Error().Err(err).Str("transport", cfg.Config.Face.Transport).Msg("Failed to create face")
		engine.NewStats(patterns, reportOut).Report()
		return nil, err
	}
	return f, nil
}
