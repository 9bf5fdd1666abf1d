package observability

import (
	"context"
	"errors"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

// InstrumentedStore counts the operations of a domain.Store by outcome.
type InstrumentedStore struct {
	domain.Store
	metrics *Metrics
}

// InstrumentStore wraps s so every operation is counted.
func InstrumentStore(s domain.Store, m *Metrics) *InstrumentedStore {
	return &InstrumentedStore{Store: s, metrics: m}
}

func (s *InstrumentedStore) Load(ctx context.Context, c domain.Collection) ([]domain.SnowPit, error) {
	pits, err := s.Store.Load(ctx, c)
	s.count("load", outcome(err, "ok"))
	return pits, err
}

func (s *InstrumentedStore) Upsert(ctx context.Context, c domain.Collection, pit domain.SnowPit) (domain.Action, error) {
	action, err := s.Store.Upsert(ctx, c, pit)
	s.count("upsert", outcome(err, string(action)))
	return action, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, c domain.Collection, id string) (bool, error) {
	emptied, err := s.Store.Delete(ctx, c, id)
	s.count("delete", outcome(err, "ok"))
	return emptied, err
}

// Collections forwards to the wrapped store when it is a domain.Catalog.
func (s *InstrumentedStore) Collections(ctx context.Context) ([]domain.Collection, error) {
	cat, ok := s.Store.(domain.Catalog)
	if !ok {
		return nil, errors.New("store cannot list collections")
	}
	return cat.Collections(ctx)
}

func (s *InstrumentedStore) count(op, result string) {
	s.metrics.StoreOperations.WithLabelValues(op, result).Inc()
}

func outcome(err error, ok string) string {
	switch {
	case err == nil:
		return ok
	case errors.Is(err, domain.ErrPitNotFound):
		return "not_found"
	default:
		return "error"
	}
}
