package rabbitmq

import (
	"context"
	"strconv"
	"sync"
	"time"

	"civicreport/metrics"
	"civicreport/models"

	"github.com/apex/log"
)

const (
	forwardQueueSize = 128
	publishTimeout   = 30 * time.Second
)

// MessagePublisher is the part of Publisher the forwarder uses.
type MessagePublisher interface {
	Publish(ctx context.Context, msg Message) error
}

// ReportMessage is the analysis payload. The image stays in the database.
type ReportMessage struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Email       string    `json:"email"`
	Severity    string    `json:"severity"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Forwarder publishes created reports to RabbitMQ from a background worker.
// PublishReport only enqueues; a full queue drops the report.
type Forwarder struct {
	publisher MessagePublisher
	queue     chan models.Report
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewForwarder starts the worker goroutine
func NewForwarder(publisher MessagePublisher) *Forwarder {
	f := &Forwarder{
		publisher: publisher,
		queue:     make(chan models.Report, forwardQueueSize),
	}
	f.wg.Add(1)
	go f.run()
	return f
}

// PublishReport enqueues the report for publishing
func (f *Forwarder) PublishReport(report models.Report) {
	select {
	case f.queue <- report:
	default:
		metrics.AMQPPublishTotal.WithLabelValues("dropped").Inc()
		log.WithField("id", report.ID).Warn("RabbitMQ forward queue full, dropping report")
	}
}

// Close drains the queue and stops the worker. PublishReport must not be called afterwards.
func (f *Forwarder) Close() {
	f.closeOnce.Do(func() { close(f.queue) })
	f.wg.Wait()
}

func (f *Forwarder) run() {
	defer f.wg.Done()
	for report := range f.queue {
		msg := ReportMessage{
			ID:          report.ID,
			Title:       report.Title,
			Description: report.Description,
			Email:       report.Email,
			Severity:    report.Severity,
			Lat:         report.Lat,
			Lng:         report.Lng,
			Status:      report.Status,
			CreatedAt:   report.CreatedAt,
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := f.publisher.Publish(ctx, Message{
			ID:   strconv.FormatInt(report.ID, 10),
			Type: models.EventNewReport,
			Body: msg,
		})
		cancel()
		if err != nil {
			metrics.AMQPPublishTotal.WithLabelValues("error").Inc()
			log.WithError(err).Errorf("Failed to publish report %d to RabbitMQ", report.ID)
			continue
		}
		metrics.AMQPPublishTotal.WithLabelValues("published").Inc()
		log.Debugf("Published report %d to RabbitMQ", report.ID)
	}
}
