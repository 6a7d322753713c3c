package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"aquaculture-platform/internal/models"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

// Provider looks up current conditions for a location.
// A nil reading means weather is unavailable; callers carry on without it.
type Provider interface {
	Fetch(ctx context.Context, location string) *models.WeatherReading
}

// Disabled is the provider used when no API key is configured
type Disabled struct {
	metrics *metrics.Collector
}

// NewDisabled returns a provider that never has weather
func NewDisabled(metricsCollector *metrics.Collector) *Disabled {
	return &Disabled{metrics: metricsCollector}
}

// Fetch always returns nil
func (d *Disabled) Fetch(ctx context.Context, location string) *models.WeatherReading {
	if d.metrics != nil {
		d.metrics.RecordWeatherRequest("disabled")
	}
	return nil
}

// Config configures the WeatherAPI.com client
type Config struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	MaxRetryElapsed time.Duration
	InitialInterval time.Duration
}

// Client fetches current conditions from WeatherAPI.com
type Client struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	maxRetryElapsed time.Duration
	initialInterval time.Duration
	now             func() time.Time
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
}

// NewClient creates a WeatherAPI.com client
func NewClient(cfg Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	initial := cfg.InitialInterval
	if initial <= 0 {
		initial = backoff.DefaultInitialInterval
	}
	// zero would retry forever
	maxElapsed := cfg.MaxRetryElapsed
	if maxElapsed <= 0 {
		maxElapsed = 15 * time.Second
	}

	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:      &http.Client{Timeout: timeout},
		maxRetryElapsed: maxElapsed,
		initialInterval: initial,
		now:             time.Now,
		logger:          logger,
		metrics:         metricsCollector,
	}
}

// WithClock overrides the clock used to stamp readings
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

type currentResponse struct {
	Current *struct {
		TempC     float64 `json:"temp_c"`
		WindKph   float64 `json:"wind_kph"`
		PrecipMm  float64 `json:"precip_mm"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// errRetryable marks responses worth another attempt
var errRetryable = errors.New("retryable weather response")

// Fetch returns current conditions for location, or nil on any failure
func (c *Client) Fetch(ctx context.Context, location string) *models.WeatherReading {
	timer := c.metrics.NewTimer(c.metrics.WeatherRequestDuration)
	defer timer.ObserveDuration()

	reading, err := c.fetch(ctx, location)
	if err != nil {
		c.metrics.RecordWeatherRequest("unavailable")
		c.logger.Warn(ctx, "[WEATHER_UNAVAILABLE] Weather lookup failed, continuing without weather", logging.Fields{
			"location": location,
			"error":    err.Error(),
		})
		return nil
	}

	c.metrics.RecordWeatherRequest("ok")
	c.logger.Debug(ctx, "[WEATHER_FETCHED] Current conditions retrieved", logging.Fields{
		"location":    location,
		"temperature": reading.TemperatureCelsius,
		"condition":   reading.Condition,
	})
	return reading
}

func (c *Client) fetch(ctx context.Context, location string) (*models.WeatherReading, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("q", location)
	endpoint := c.baseURL + "/v1/current.json?" + query.Encode()

	var body []byte
	attempts := 0
	operation := func() error {
		attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch current: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("fetch current: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxElapsedTime = c.maxRetryElapsed

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("after %d attempt(s): %w", attempts, err)
	}

	var data currentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if data.Current == nil {
		return nil, errors.New("decode response: missing current conditions")
	}

	return &models.WeatherReading{
		TemperatureCelsius: data.Current.TempC,
		Condition:          data.Current.Condition.Text,
		WindSpeedKph:       data.Current.WindKph,
		PrecipitationMm:    data.Current.PrecipMm,
		CapturedAt:         c.now().UTC(),
	}, nil
}
