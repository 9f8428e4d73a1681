package opportunity

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultSummaryThreshold is the number of logged interactions above which a
// relationship summary is generated.
const DefaultSummaryThreshold = 3

// HistorySource reads the accumulated interaction history for an opportunity
// from the report. An empty opportunityID selects all entries.
type HistorySource interface {
	InteractionHistory(opportunityID string) (string, error)
}

// TextSummarizer turns an interaction history into a one-paragraph summary.
type TextSummarizer interface {
	Summarize(ctx context.Context, history string) string
}

// InteractionSummarizer attaches an AI-generated relationship summary to an
// opportunity once its interaction history is long enough.
//
// The history read here reflects only cycles committed before the current
// one: resolution runs before the current batch's interaction rows are
// written, so same-cycle interactions never count toward the threshold. That
// ordering is kept for compatibility with existing report files even though
// it arguably undercounts.
type InteractionSummarizer struct {
	history   HistorySource
	ai        TextSummarizer
	threshold int
	log       *logrus.Logger
}

// NewInteractionSummarizer creates a summarizer with the given threshold.
func NewInteractionSummarizer(history HistorySource, ai TextSummarizer, threshold int, log *logrus.Logger) *InteractionSummarizer {
	return &InteractionSummarizer{
		history:   history,
		ai:        ai,
		threshold: threshold,
		log:       log,
	}
}

// MaybeSummarize returns a relationship summary when the opportunity has more
// than threshold logged interactions, and an empty string otherwise.
func (s *InteractionSummarizer) MaybeSummarize(ctx context.Context, opportunityID string) string {
	history, err := s.history.InteractionHistory(opportunityID)
	if err != nil {
		s.log.Errorf("Failed to read interaction history for %s: %v", opportunityID, err)
		return ""
	}

	if history == "" || len(strings.Split(history, "\n")) <= s.threshold {
		return ""
	}

	return s.ai.Summarize(ctx, history)
}
