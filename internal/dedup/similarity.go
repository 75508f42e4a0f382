package dedup

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mietwerk/rentledger/internal/domain"
)

// HeuristicScorer is the default local SimilarityScorer: it screens existing
// transactions by a date and amount window and ranks survivors by trigram
// similarity of their text fields. Deterministic for a given input.
type HeuristicScorer struct {
	DateWindow      time.Duration
	AmountTolerance decimal.Decimal // relative, e.g. 0.01 = 1%
}

// NewHeuristicScorer creates a HeuristicScorer with default tolerances:
// bookings within 3 days and amounts within 1%.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{
		DateWindow:      72 * time.Hour,
		AmountTolerance: decimal.RequireFromString("0.01"),
	}
}

// BestMatch returns the most similar existing transaction inside the
// tolerance window, or nil when nothing plausible exists.
func (s *HeuristicScorer) BestMatch(ctx context.Context, candidate *domain.Transaction, existing []*domain.Transaction) (*domain.Transaction, float64, error) {
	var (
		best      *domain.Transaction
		bestScore float64
	)

	for _, e := range existing {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		if !s.withinWindow(candidate, e) {
			continue
		}

		score := s.score(candidate, e)
		if score > bestScore {
			best = e
			bestScore = score
		}
	}

	return best, bestScore, nil
}

func (s *HeuristicScorer) withinWindow(a, b *domain.Transaction) bool {
	diff := a.BookingDate.Sub(b.BookingDate)
	if diff < 0 {
		diff = -diff
	}

	if diff > s.DateWindow {
		return false
	}

	amountDiff := a.Amount.Sub(b.Amount).Abs()
	tolerance := decimal.Max(
		a.Amount.Abs().Mul(s.AmountTolerance),
		decimal.RequireFromString("0.01"),
	)

	return amountDiff.LessThanOrEqual(tolerance)
}

func (s *HeuristicScorer) score(a, b *domain.Transaction) float64 {
	text := trigramSimilarity(transactionText(a), transactionText(b))

	dateScore := 1.0
	diff := a.BookingDate.Sub(b.BookingDate)
	if diff < 0 {
		diff = -diff
	}
	if s.DateWindow > 0 {
		dateScore = 1.0 - float64(diff)/float64(s.DateWindow)
	}

	amountScore := 0.0
	if a.Amount.Equal(b.Amount) {
		amountScore = 1.0
	}

	return 0.6*text + 0.2*dateScore + 0.2*amountScore
}

func transactionText(t *domain.Transaction) string {
	return normalizeText(t.SenderReceiver + " " + t.Description + " " + t.Reference)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// trigramSimilarity computes the Jaccard similarity of rune trigram sets.
func trigramSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}

		return 1
	}

	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for g := range ta {
		if tb[g] {
			shared++
		}
	}

	union := len(ta) + len(tb) - shared

	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]bool {
	runes := []rune(s)
	grams := make(map[string]bool)

	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])] = true
	}

	return grams
}
