// Package analyticsjournal keeps an append-only journal of analytics events.
package analyticsjournal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/bondi/internal/analytics"
)

const (
	DefaultDir   = "./wal/analytics"
	segmentLimit = 1000
	maxSegments  = 10

	keyPrefix = "analytics_"
)

// Record is a journaled event with its WAL index.
type Record struct {
	Index uint64
	Event analytics.Event
}

// WALStore persists analytics events in a WAL. It implements analytics.Sink.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed journal under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "analytics_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init analytics WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Report appends the event to the journal.
func (s *WALStore) Report(_ context.Context, event analytics.Event) error {
	if s == nil || s.wal == nil {
		return errors.New("analytics journal is not initialized")
	}
	if event == nil {
		return fmt.Errorf("analytics event is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal analytics event")
	}

	key := fmt.Sprintf("%s%s", keyPrefix, event.Type())

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all events written after the provided WAL index.
func (s *WALStore) EventsAfter(index uint64) ([]Record, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("analytics journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]Record, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}

		event, err := decode(analytics.EventType(strings.TrimPrefix(key, keyPrefix)), payload)
		if err != nil {
			return nil, errors.Wrapf(err, "decode analytics event at %d", idx)
		}
		records = append(records, Record{Index: idx, Event: event})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("analytics journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

func decode(t analytics.EventType, payload []byte) (analytics.Event, error) {
	switch t {
	case analytics.EventBondSubmitted:
		return unmarshal[analytics.BondSubmitted](payload)
	case analytics.EventBondDeclined:
		return unmarshal[analytics.BondDeclined](payload)
	case analytics.EventApprovalSubmitted:
		return unmarshal[analytics.ApprovalSubmitted](payload)
	case analytics.EventSubmissionFailed:
		return unmarshal[analytics.SubmissionFailed](payload)
	case analytics.EventValidationFailed:
		return unmarshal[analytics.ValidationFailed](payload)
	default:
		return nil, fmt.Errorf("unknown analytics event type %q", t)
	}
}

func unmarshal[T analytics.Event](payload []byte) (analytics.Event, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return event, nil
}
