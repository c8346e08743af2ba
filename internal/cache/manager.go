package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/fundlens/internal/classify"
	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/internal/validate"
	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/logger"
)

// Manager marshals domain payloads through the Store's envelope. It owns the
// wire format for series so format changes are absorbed here: missing
// distribution fields on read backfill to zero, and a missing adjusted flag
// is inferred from the recorded source name.
type Manager struct {
	store Store
	log   *logger.Logger
}

// NewManager creates a Manager over the given store.
func NewManager(store Store, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{store: store, log: log.WithComponent("cache")}
}

// Store exposes the underlying store for maintenance commands.
func (m *Manager) Store() Store { return m.store }

// storedRecord is the wire form of one daily record. Distribution fields are
// omitted when zero; absent fields read back as zero.
type storedRecord struct {
	Date        date.Date `json:"date"`
	Price       float64   `json:"price"`
	Dividend    float64   `json:"dividend,omitempty"`
	CapitalGain float64   `json:"capital_gain,omitempty"`
}

// storedSeries is the wire form of a price series. Adjusted is a pointer so
// entries written before the flag existed are distinguishable from an
// explicit false.
type storedSeries struct {
	Records  []storedRecord `json:"records"`
	Adjusted *bool          `json:"adjusted,omitempty"`
}

// GetSeries returns the cached series for the key, with the validation
// report recorded alongside it, or ErrMiss.
func (m *Manager) GetSeries(ctx context.Context, id string, kind Kind) (*series.Series, *validate.Report, error) {
	entry, err := m.store.Get(ctx, id, kind)
	if err != nil {
		return nil, nil, err
	}

	var stored storedSeries
	if err := json.Unmarshal(entry.Data, &stored); err != nil {
		m.log.WithError(err).WithField("id", id).Warn("corrupt series payload, treating as miss")
		return nil, nil, ErrMiss
	}

	records := make([]series.Record, len(stored.Records))
	for i, r := range stored.Records {
		records[i] = series.Record{
			Date:        r.Date,
			Price:       r.Price,
			Dividend:    r.Dividend,
			CapitalGain: r.CapitalGain,
		}
	}

	s := series.New(records)
	s.Source = entry.Source
	s.FetchedAt = entry.Timestamp

	adjusted := classify.AdjustedSource(entry.Source)
	if stored.Adjusted != nil {
		adjusted = *stored.Adjusted
	}
	if adjusted {
		s.MarkAdjusted()
	}

	return s, entry.Validation, nil
}

// PutSeries persists the series with its validation report.
func (m *Manager) PutSeries(ctx context.Context, id string, kind Kind, s *series.Series, report *validate.Report) error {
	stored := storedSeries{
		Records:  make([]storedRecord, s.Len()),
		Adjusted: &s.Adjusted,
	}
	for i, r := range s.Records {
		stored.Records[i] = storedRecord{
			Date:        r.Date,
			Price:       r.Price,
			Dividend:    r.Dividend,
			CapitalGain: r.CapitalGain,
		}
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}

	return m.store.Put(ctx, id, kind, &Entry{
		Data:       raw,
		Timestamp:  timestampFor(s),
		Source:     s.Source,
		Validation: report,
	})
}

// GetText returns a cached text payload (descriptions) and its source.
func (m *Manager) GetText(ctx context.Context, id string, kind Kind) (string, string, error) {
	entry, err := m.store.Get(ctx, id, kind)
	if err != nil {
		return "", "", err
	}

	var text string
	if err := json.Unmarshal(entry.Data, &text); err != nil {
		m.log.WithError(err).WithField("id", id).Warn("corrupt text payload, treating as miss")
		return "", "", ErrMiss
	}
	return text, entry.Source, nil
}

// PutText persists a text payload.
func (m *Manager) PutText(ctx context.Context, id string, kind Kind, text, source string) error {
	raw, err := json.Marshal(text)
	if err != nil {
		return fmt.Errorf("marshal text: %w", err)
	}
	return m.store.Put(ctx, id, kind, &Entry{Data: raw, Timestamp: time.Now(), Source: source})
}

// GetJSON decodes a cached structured payload (compositions, mappings) into v
// and returns its source.
func (m *Manager) GetJSON(ctx context.Context, id string, kind Kind, v interface{}) (string, error) {
	entry, err := m.store.Get(ctx, id, kind)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(entry.Data, v); err != nil {
		m.log.WithError(err).WithField("id", id).Warn("corrupt payload, treating as miss")
		return "", ErrMiss
	}
	return entry.Source, nil
}

// PutJSON persists a structured payload.
func (m *Manager) PutJSON(ctx context.Context, id string, kind Kind, v interface{}, source string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return m.store.Put(ctx, id, kind, &Entry{Data: raw, Timestamp: time.Now(), Source: source})
}

func timestampFor(s *series.Series) time.Time {
	if !s.FetchedAt.IsZero() {
		return s.FetchedAt
	}
	return time.Now()
}
