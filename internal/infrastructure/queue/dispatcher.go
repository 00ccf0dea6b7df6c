package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/api/metrics"
	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher drains the notification outbox with a fixed set of workers,
// sharded by tracking id so notifications for one shipment are sent in
// order. Delivery failures are logged and dropped; they never propagate
// back into the state change that produced them.
type Dispatcher struct {
	workers  []chan domain.Notification
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.Notification, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a notification to the worker responsible for its
// shipment. When the worker's buffer is full the notification is dropped
// with a log line rather than blocking the request path.
func (d *Dispatcher) Enqueue(n domain.Notification) {
	ch := d.workers[d.shardIndex(n.TrackingID)]
	select {
	case ch <- n:
	default:
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "dropped").Inc()
		d.log.Warn().
			Str("tracking_id", n.TrackingID).
			Str("kind", string(n.Kind)).
			Msg("notification dropped, worker buffer full")
	}
}

// shardIndex maps a tracking id deterministically to a worker index.
func (d *Dispatcher) shardIndex(trackingID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(trackingID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	workerLabel := strconv.Itoa(id)
	for {
		metrics.NotificationQueueDepth.WithLabelValues(workerLabel).Set(float64(len(ch)))
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			d.deliver(ctx, id, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, workerID int, n domain.Notification) {
	var err error
	switch n.Kind {
	case domain.NotifySMS:
		err = d.notifier.SendSMS(ctx, n.To, n.TrackingID, n.Status)
	default:
		err = d.notifier.SendEmail(ctx, n.To, n.Subject, n.Body)
	}
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "failed").Inc()
		d.log.Error().Err(err).
			Str("tracking_id", n.TrackingID).
			Str("kind", string(n.Kind)).
			Int("worker_id", workerID).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "sent").Inc()
}
