package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

// SubmissionTransformer implements Transformer with domain.Accept.
type SubmissionTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a SubmissionTransformer.
func NewTransformer(logger *slog.Logger) *SubmissionTransformer {
	return &SubmissionTransformer{logger: logger}
}

func (t *SubmissionTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Outcome, error) {
	sub, err := domain.ParseSubmission(raw.Value)
	if err != nil {
		return domain.Outcome{}, err
	}
	if sub.ID == "" && len(raw.Key) > 0 {
		sub.ID = string(raw.Key)
	}
	outcome := domain.Accept(sub)
	if outcome.Accepted() {
		t.logger.Debug("submission accepted", "pit_id", outcome.Pit.ID, "collection", outcome.Collection.String())
	}
	return outcome, nil
}
