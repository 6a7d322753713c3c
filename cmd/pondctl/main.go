// Command pondctl validates and analyzes pond payloads from the command line
// using the same pipeline as the API server, without storing results.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"aquaculture-platform/internal/analysis"
	"aquaculture-platform/internal/config"
	"aquaculture-platform/internal/handlers"
	"aquaculture-platform/internal/models"
	"aquaculture-platform/internal/services"
	"aquaculture-platform/internal/weather"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

// errInvalid marks a payload that failed validation; problems are already printed
var errInvalid = errors.New("pond parameters are invalid")

// runtimeEnv carries process dependencies into command Run methods
type runtimeEnv struct {
	stdin  io.Reader
	stdout io.Writer
	now    func() time.Time
	logger *logging.StructuredLogger
	// provider overrides the configured weather provider when set
	provider weather.Provider
}

type cli struct {
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"error" enum:"debug,info,warn,error"`

	Validate validateCmd `cmd:"" help:"Validate a pond payload and list every problem."`
	Analyze  analyzeCmd  `cmd:"" help:"Analyze a pond payload and print the report as JSON."`
}

type validateCmd struct {
	File string `short:"f" help:"JSON payload file; '-' reads stdin." default:"-"`
}

func (c *validateCmd) Run(env *runtimeEnv) error {
	params, err := readParameters(c.File, env.stdin)
	if err != nil {
		return err
	}

	problems := analysis.Validate(params, env.now())
	if len(problems) == 0 {
		fmt.Fprintln(env.stdout, "OK")
		return nil
	}

	for _, problem := range problems {
		fmt.Fprintf(env.stdout, "- %s\n", problem)
	}
	return errInvalid
}

type analyzeCmd struct {
	File      string `short:"f" help:"JSON payload file; '-' reads stdin." default:"-"`
	NoWeather bool   `help:"Skip the weather lookup."`
	Location  string `help:"Location when the payload has none; defaults to DEFAULT_LOCATION."`
}

func (c *analyzeCmd) Run(ctx context.Context, env *runtimeEnv) error {
	params, err := readParameters(c.File, env.stdin)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector("pondctl", prometheus.NewRegistry())

	var cfg *config.Config
	if c.Location == "" || (env.provider == nil && !c.NoWeather) {
		cfg, err = config.LoadConfig()
		if err != nil {
			return err
		}
	}

	location := c.Location
	if location == "" {
		location = cfg.Analysis.DefaultLocation
	}

	provider := env.provider
	if provider == nil {
		provider = configuredProvider(cfg, c.NoWeather, env.logger, collector)
	}

	svc := services.NewAnalysisService(nil, provider, env.logger, collector).
		WithDefaultLocation(location).
		WithClock(env.now)

	report, _, err := svc.Evaluate(ctx, params)
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		for _, problem := range validationErr.Problems {
			fmt.Fprintf(env.stdout, "- %s\n", problem)
		}
		return errInvalid
	}
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(env.stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// configuredProvider builds the weather client from the service configuration
func configuredProvider(cfg *config.Config, disabled bool, logger *logging.StructuredLogger, collector *metrics.Collector) weather.Provider {
	if disabled || cfg.Weather.APIKey == "" {
		return weather.NewDisabled(collector)
	}

	return weather.NewClient(weather.Config{
		APIKey:          cfg.Weather.APIKey,
		BaseURL:         cfg.Weather.BaseURL,
		Timeout:         cfg.Weather.Timeout,
		MaxRetryElapsed: cfg.Weather.MaxRetryElapsed,
	}, logger, collector)
}

func readParameters(path string, stdin io.Reader) (models.PondParameters, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.PondParameters{}, fmt.Errorf("failed to read payload: %w", err)
	}

	var req handlers.AnalyzePondRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.PondParameters{}, fmt.Errorf("failed to parse payload: %w", err)
	}

	return req.ToParameters()
}

func newParser(c *cli, env *runtimeEnv, stdout, stderr io.Writer, exit func(int)) *kong.Kong {
	return kong.Must(c,
		kong.Name("pondctl"),
		kong.Description("Validate and analyze shrimp pond measurements."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(exit),
		kong.Bind(env),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
}

func main() {
	var c cli
	env := &runtimeEnv{stdin: os.Stdin, stdout: os.Stdout, now: time.Now}

	parser := newParser(&c, env, os.Stdout, os.Stderr, os.Exit)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	env.logger = logging.NewStructuredLogger("pondctl", "1.0.0", logging.ParseLevel(c.LogLevel))
	env.logger.SetOutput(os.Stderr)

	if err := kctx.Run(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "pondctl: %v\n", err)
		}
		os.Exit(1)
	}
}
