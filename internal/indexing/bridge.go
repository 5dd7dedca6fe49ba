// Package indexing pushes projected record state to the search index after
// every committed change.
package indexing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/metrics"
	"github.com/gosuda/crvs/internal/projection"
	redisstore "github.com/gosuda/crvs/internal/store/redis"
)

// SearchIndex stores record documents and fans out change events.
type SearchIndex interface {
	PutDocument(ctx context.Context, id uuid.UUID, doc []byte) error
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ChangeEvent is published on the change feed for every indexed record.
type ChangeEvent struct {
	Type     string            `json:"type"`
	RecordID uuid.UUID         `json:"recordId"`
	Status   domain.RegStatus  `json:"status"`
	State    *projection.State `json:"state"`
}

const defaultTimeout = 5 * time.Second

// Bridge implements events.Indexer.
type Bridge struct {
	index   SearchIndex
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewBridge(index SearchIndex, m *metrics.Metrics) *Bridge {
	return &Bridge{index: index, metrics: m, timeout: defaultTimeout}
}

// Index writes the record's projected state and publishes a change event.
// It never fails the caller: errors are logged and counted. The write runs
// detached from the caller's cancellation since the change is already
// committed.
func (b *Bridge) Index(ctx context.Context, r *domain.Record) {
	if b == nil || b.index == nil || r == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()

	state := projection.Project(r)
	doc, err := json.Marshal(state)
	if err != nil {
		b.fail(r.ID, "marshal document", err)
		return
	}

	if err := b.index.PutDocument(ctx, r.ID, doc); err != nil {
		b.fail(r.ID, "put document", err)
		return
	}

	payload, err := json.Marshal(ChangeEvent{
		Type:     "record.updated",
		RecordID: r.ID,
		Status:   state.Status,
		State:    state,
	})
	if err != nil {
		b.fail(r.ID, "marshal event", err)
		return
	}

	for _, ch := range []string{redisstore.RecordsChannel(), redisstore.RecordChannel(r.ID)} {
		if err := b.index.Publish(ctx, ch, payload); err != nil {
			b.fail(r.ID, "publish "+ch, err)
			return
		}
	}
}

func (b *Bridge) fail(recordID uuid.UUID, step string, err error) {
	b.metrics.IncrementIndexFailure()
	log.Error().Err(err).Str("record_id", recordID.String()).Str("step", step).Msg("indexing: failed to index record")
}
