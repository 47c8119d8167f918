package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/mmodel"
)

// Publisher is the Event Bus Adapter surface the Dispatcher depends on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event mmodel.DomainEvent) error
}

// NotifyChannel is the Postgres LISTEN/NOTIFY channel writers notify on
// after inserting an outbox row; it is the dispatcher's fast path.
const NotifyChannel = "outbox_events"

// pollInterval is the correctness fallback: even if every NOTIFY is
// missed, a drain happens at least this often.
const pollInterval = 2 * time.Second

// Dispatcher drains PENDING outbox rows FIFO per writer and publishes them,
// committing each row's terminal state independently so a crash mid-drain
// never loses or double-marks an adjacent row.
type Dispatcher struct {
	store     *Store
	publisher Publisher
	pool      *pgxpool.Pool
	logger    mlog.Logger
}

// NewDispatcher builds a Dispatcher bound to store and publisher. pool is
// used only to open the LISTEN connection; all row reads/writes go
// through store.
func NewDispatcher(pool *pgxpool.Pool, store *Store, publisher Publisher, logger mlog.Logger) *Dispatcher {
	return &Dispatcher{store: store, publisher: publisher, pool: pool, logger: logger}
}

// Run drains all PENDING rows on startup, then blocks alternating between
// the LISTEN/NOTIFY fast path and the polling fallback until ctx is
// cancelled. It never returns an error; transport failures are logged and
// retried on the next tick.
func (d *Dispatcher) Run(ctx context.Context) {
	d.drain(ctx)

	notify := make(chan struct{}, 1)
	go d.listen(ctx, notify)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain(ctx)
		case <-notify:
			d.drain(ctx)
		}
	}
}

// listen blocks on Postgres LISTEN and signals notify whenever a writer
// sends NOTIFY outbox_events. It reconnects with backoff on error; the
// polling ticker in Run is the correctness backstop while it does.
func (d *Dispatcher) listen(ctx context.Context, notify chan<- struct{}) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := d.pool.Acquire(ctx)
		if err != nil {
			d.logger.Warnf("outbox: listen acquire failed: %v", err)
			time.Sleep(backoff)

			continue
		}

		if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
			d.logger.Warnf("outbox: LISTEN failed: %v", err)
			conn.Release()
			time.Sleep(backoff)

			continue
		}

		for {
			_, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				conn.Release()
				break
			}

			select {
			case notify <- struct{}{}:
			default:
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// drain publishes every PENDING row, marking each SENT or FAILED on its
// own — never batched — per the per-row commit contract.
func (d *Dispatcher) drain(ctx context.Context) {
	records, err := d.store.ListPending(ctx)
	if err != nil {
		d.logger.Errorf("outbox: failed to list pending records: %v", err)
		return
	}

	for _, r := range records {
		var event mmodel.DomainEvent
		if err := unmarshalEvent(r.Payload, &event); err != nil {
			d.logger.Errorf("outbox: unparseable payload for record %s: %v", r.ID, err)

			if err := d.store.MarkFailed(ctx, r.ID, "unparseable payload: "+err.Error()); err != nil {
				d.logger.Errorf("outbox: failed to mark record %s failed: %v", r.ID, err)
			}

			continue
		}

		publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := d.publisher.Publish(publishCtx, r.Topic, event)
		cancel()

		if err != nil {
			// Transport failure: leave PENDING, retry on next drain. Never
			// mark FAILED solely due to transport.
			d.logger.Warnf("outbox: publish failed for record %s, leaving pending: %v", r.ID, err)
			continue
		}

		if err := d.store.MarkSent(ctx, r.ID); err != nil {
			d.logger.Errorf("outbox: failed to mark record %s sent: %v", r.ID, err)
		}
	}
}
