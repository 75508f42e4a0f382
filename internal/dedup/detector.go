package dedup

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mietwerk/rentledger/internal/domain"
)

// DefaultSuggestionThreshold is the minimum similarity score at which a
// probable duplicate is surfaced for human review.
const DefaultSuggestionThreshold = 0.75

// SkipKey identifies a candidate the caller explicitly decided to skip,
// independent of fingerprint matching.
type SkipKey struct {
	BookingDate string `json:"booking_date"` // YYYY-MM-DD
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// NewSkipKey builds the skip key for a transaction.
func NewSkipKey(t *domain.Transaction) SkipKey {
	return SkipKey{
		BookingDate: t.BookingDate.Format("2006-01-02"),
		Amount:      t.Amount.Round(2).String(),
		Description: t.Description,
	}
}

// Suggestion is a probable-but-not-exact duplicate surfaced for human
// adjudication. Suggestions never block an import.
type Suggestion struct {
	Candidate *domain.Transaction
	Existing  *domain.Transaction
	Score     float64
}

// SimilarityScorer finds the closest existing transaction for a candidate.
// The production implementation is pluggable; a nil match means no plausible
// duplicate was found.
type SimilarityScorer interface {
	BestMatch(ctx context.Context, candidate *domain.Transaction, existing []*domain.Transaction) (*domain.Transaction, float64, error)
}

// Result is the outcome of one dedup pass.
type Result struct {
	New         []*domain.Transaction
	Skipped     int
	Suggestions []Suggestion
}

// Detector filters candidate transactions against an account's history.
type Detector struct {
	scorer    SimilarityScorer
	threshold float64
	logger    zerolog.Logger
}

// NewDetector creates a Detector. scorer may be nil to disable the fuzzy
// advisory pass.
func NewDetector(scorer SimilarityScorer, threshold float64, logger zerolog.Logger) *Detector {
	if threshold <= 0 {
		threshold = DefaultSuggestionThreshold
	}

	return &Detector{
		scorer:    scorer,
		threshold: threshold,
		logger:    logger,
	}
}

// Filter removes exact duplicates and honored skips from candidates,
// preserving input order. Explicit skip decisions are applied before the
// fingerprint filter. Candidates already seen earlier in the same batch are
// also dropped, which keeps a double-pasted file idempotent.
//
// The fuzzy advisory pass runs after exact dedup; a scorer failure degrades
// to exact-only dedup and is logged, never returned.
func (d *Detector) Filter(ctx context.Context, candidates, existing []*domain.Transaction, forceSkip []SkipKey) *Result {
	skipSet := make(map[SkipKey]bool, len(forceSkip))
	for _, k := range forceSkip {
		skipSet[k] = true
	}

	seen := make(map[domain.Fingerprint]bool, len(existing))
	for _, t := range existing {
		seen[t.Fingerprint()] = true
	}

	result := &Result{}
	for _, c := range candidates {
		if skipSet[NewSkipKey(c)] {
			result.Skipped++
			continue
		}

		fp := c.Fingerprint()
		if seen[fp] {
			result.Skipped++
			continue
		}

		seen[fp] = true
		result.New = append(result.New, c)
	}

	if d.scorer == nil || len(result.New) == 0 || len(existing) == 0 {
		return result
	}

	for _, c := range result.New {
		match, score, err := d.scorer.BestMatch(ctx, c, existing)
		if err != nil {
			d.logger.Warn().Err(err).Msg("fuzzy duplicate check failed, continuing with exact dedup only")
			break
		}

		if match != nil && score >= d.threshold {
			result.Suggestions = append(result.Suggestions, Suggestion{
				Candidate: c,
				Existing:  match,
				Score:     score,
			})
		}
	}

	return result
}
