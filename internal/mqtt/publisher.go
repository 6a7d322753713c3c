package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"aquaculture-platform/internal/models"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

// ReportMessage is the payload published for every stored analysis
type ReportMessage struct {
	ID          string                `json:"_id"`
	Location    string                `json:"location"`
	Report      models.AnalysisReport `json:"analysis_result"`
	PublishedAt time.Time             `json:"timestamp"`
}

// PublisherConfig holds configuration for the report publisher
type PublisherConfig struct {
	ReportTopic string // e.g. "aquaculture/ponds/{location}/analysis"
	QoS         byte
	Timeout     time.Duration
	QueueSize   int
}

// Publisher sends reports to the broker from a buffered queue so that
// request handling never waits on the network.
type Publisher struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
	queue   chan ReportMessage
	now     func() time.Time

	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	wg sync.WaitGroup
}

// NewPublisher creates a publisher; call Start to begin draining the queue
func NewPublisher(client mqtt.Client, config PublisherConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Publisher {
	size := config.QueueSize
	if size <= 0 {
		size = 64
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Publisher{
		client:  client,
		topic:   config.ReportTopic,
		qos:     config.QoS,
		timeout: timeout,
		queue:   make(chan ReportMessage, size),
		now:     time.Now,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Start publishes queued reports until ctx is cancelled. Reports already
// queued at cancellation are still published before the goroutine exits.
func (p *Publisher) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		for {
			select {
			case <-ctx.Done():
				p.drain(ctx)
				return
			case msg := <-p.queue:
				p.handle(ctx, msg)
			}
		}
	}()
}

// drain publishes whatever is left in the queue without waiting for more
func (p *Publisher) drain(ctx context.Context) {
	remaining := len(p.queue)
	if remaining > 0 {
		p.logger.Info(ctx, "[MQTT_DRAIN] Publishing queued reports before shutdown", logging.Fields{
			"queued": remaining,
		})
	}

	for {
		select {
		case msg := <-p.queue:
			p.handle(ctx, msg)
		default:
			return
		}
	}
}

func (p *Publisher) handle(ctx context.Context, msg ReportMessage) {
	if err := p.publish(msg); err != nil {
		p.metrics.RecordPublish("error")
		p.logger.Error(ctx, "[MQTT_PUBLISH_ERROR] Failed to publish analysis report", logging.Fields{
			"analysis_id": msg.ID,
			"location":    msg.Location,
		}, err)
		return
	}
	p.metrics.RecordPublish("ok")
}

// Wait blocks until the publishing goroutine has exited
func (p *Publisher) Wait() {
	p.wg.Wait()
}

// PublishReport enqueues a report. It never blocks: when the queue is
// full the report is dropped and counted.
func (p *Publisher) PublishReport(ctx context.Context, id string, params models.PondParameters, report models.AnalysisReport) {
	msg := ReportMessage{
		ID:          id,
		Location:    params.Location,
		Report:      report,
		PublishedAt: p.now().UTC(),
	}

	select {
	case p.queue <- msg:
	default:
		p.metrics.RecordPublish("dropped")
		p.logger.Warn(ctx, "[MQTT_QUEUE_FULL] Publish queue full, dropping analysis report", logging.Fields{
			"analysis_id": id,
			"location":    params.Location,
		})
	}
}

func (p *Publisher) publish(msg ReportMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis report: %w", err)
	}

	topic := formatTopic(p.topic, msg.Location)

	token := p.client.Publish(topic, p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s timed out after %s", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debug(context.Background(), "[MQTT_PUBLISHED] Analysis report published", logging.Fields{
		"analysis_id": msg.ID,
		"topic":       topic,
	})
	return nil
}

// formatTopic substitutes {location} with a topic-safe slug
func formatTopic(topicPattern, location string) string {
	return strings.ReplaceAll(topicPattern, "{location}", topicSegment(location))
}

// topicSegment lowercases the location and joins its words with '-'.
// '/', '+' and '#' never survive, so a location is always one topic level.
func topicSegment(location string) string {
	words := strings.FieldsFunc(strings.ToLower(location), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return "unknown"
	}
	return strings.Join(words, "-")
}
