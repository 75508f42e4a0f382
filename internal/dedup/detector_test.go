package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mietwerk/rentledger/internal/domain"
)

func txn(date, amount, sender, description string) *domain.Transaction {
	d, _ := time.Parse("2006-01-02", date)

	return &domain.Transaction{
		AccountID:      "acc-1",
		BookingDate:    d,
		Amount:         decimal.RequireFromString(amount),
		SenderReceiver: sender,
		Description:    description,
	}
}

func TestDetector_Filter_ExactDedup(t *testing.T) {
	detector := NewDetector(nil, 0, zerolog.Nop())

	existing := []*domain.Transaction{
		txn("2024-03-01", "950.00", "John Doe", "Miete Maerz"),
	}

	candidates := []*domain.Transaction{
		txn("2024-03-01", "950.00", "John Doe", "Miete Maerz"),   // duplicate
		txn("2024-03-05", "-120.50", "Stadtwerke", "Abschlag"),   // new
		txn("2024-03-01", "950.00", "Jane Roe", "Miete Maerz"),   // different sender, new
	}

	result := detector.Filter(context.Background(), candidates, existing, nil)

	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if len(result.New) != 2 {
		t.Fatalf("new = %d, want 2", len(result.New))
	}

	// Input order must be preserved.
	if result.New[0].SenderReceiver != "Stadtwerke" || result.New[1].SenderReceiver != "Jane Roe" {
		t.Errorf("output order not preserved: %s, %s", result.New[0].SenderReceiver, result.New[1].SenderReceiver)
	}
}

func TestDetector_Filter_Idempotent(t *testing.T) {
	detector := NewDetector(nil, 0, zerolog.Nop())

	candidates := []*domain.Transaction{
		txn("2024-03-01", "950.00", "John Doe", "Miete Maerz"),
		txn("2024-03-05", "-120.50", "Stadtwerke", "Abschlag"),
	}

	first := detector.Filter(context.Background(), candidates, nil, nil)
	if len(first.New) != 2 {
		t.Fatalf("first run: new = %d, want 2", len(first.New))
	}

	// Importing the same file again yields zero new transactions.
	second := detector.Filter(context.Background(), candidates, first.New, nil)
	if len(second.New) != 0 || second.Skipped != 2 {
		t.Errorf("second run: new = %d skipped = %d, want 0/2", len(second.New), second.Skipped)
	}
}

func TestDetector_Filter_InFileDuplicates(t *testing.T) {
	detector := NewDetector(nil, 0, zerolog.Nop())

	candidates := []*domain.Transaction{
		txn("2024-03-01", "950.00", "John Doe", "Miete Maerz"),
		txn("2024-03-01", "950.00", "John Doe", "Miete Maerz"),
	}

	result := detector.Filter(context.Background(), candidates, nil, nil)

	if len(result.New) != 1 || result.Skipped != 1 {
		t.Errorf("new = %d skipped = %d, want 1/1", len(result.New), result.Skipped)
	}
}

func TestDetector_Filter_ForceSkip(t *testing.T) {
	detector := NewDetector(nil, 0, zerolog.Nop())

	keep := txn("2024-03-05", "-120.50", "Stadtwerke", "Abschlag")
	skip := txn("2024-03-01", "950.00", "John Doe", "Miete Maerz")

	result := detector.Filter(
		context.Background(),
		[]*domain.Transaction{skip, keep},
		nil,
		[]SkipKey{NewSkipKey(skip)},
	)

	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if len(result.New) != 1 || result.New[0] != keep {
		t.Errorf("expected only the non-skipped candidate to survive")
	}
}

type stubScorer struct {
	match *domain.Transaction
	score float64
	err   error
}

func (s *stubScorer) BestMatch(ctx context.Context, candidate *domain.Transaction, existing []*domain.Transaction) (*domain.Transaction, float64, error) {
	return s.match, s.score, s.err
}

func TestDetector_Filter_FuzzySuggestions(t *testing.T) {
	existing := []*domain.Transaction{
		txn("2024-03-01", "950.00", "John Doe", "Miete Maerz"),
	}
	candidate := txn("2024-03-02", "950.00", "J. Doe", "Miete Maerz")

	t.Run("suggestion above threshold surfaced", func(t *testing.T) {
		detector := NewDetector(&stubScorer{match: existing[0], score: 0.9}, 0.75, zerolog.Nop())

		result := detector.Filter(context.Background(), []*domain.Transaction{candidate}, existing, nil)

		if len(result.New) != 1 {
			t.Fatalf("fuzzy matches must not block import, new = %d", len(result.New))
		}
		if len(result.Suggestions) != 1 || result.Suggestions[0].Score != 0.9 {
			t.Fatalf("expected one suggestion with score 0.9, got %+v", result.Suggestions)
		}
	})

	t.Run("suggestion below threshold dropped", func(t *testing.T) {
		detector := NewDetector(&stubScorer{match: existing[0], score: 0.5}, 0.75, zerolog.Nop())

		result := detector.Filter(context.Background(), []*domain.Transaction{candidate}, existing, nil)

		if len(result.Suggestions) != 0 {
			t.Errorf("expected no suggestions, got %d", len(result.Suggestions))
		}
	})

	t.Run("scorer failure degrades gracefully", func(t *testing.T) {
		detector := NewDetector(&stubScorer{err: errors.New("service unavailable")}, 0.75, zerolog.Nop())

		result := detector.Filter(context.Background(), []*domain.Transaction{candidate}, existing, nil)

		if len(result.New) != 1 {
			t.Errorf("advisory failure must not block import, new = %d", len(result.New))
		}
		if len(result.Suggestions) != 0 {
			t.Errorf("expected no suggestions on failure")
		}
	})
}

func TestHeuristicScorer_BestMatch(t *testing.T) {
	scorer := NewHeuristicScorer()

	existing := []*domain.Transaction{
		txn("2024-03-01", "950.00", "John Doe", "Miete Maerz Whg 12"),
		txn("2024-02-01", "950.00", "John Doe", "Miete Februar Whg 12"),
		txn("2024-03-01", "120.00", "Stadtwerke", "Abschlag"),
	}

	t.Run("near-identical transaction found", func(t *testing.T) {
		candidate := txn("2024-03-02", "950.00", "John Doe", "Miete Maerz Whg 12")

		match, score, err := scorer.BestMatch(context.Background(), candidate, existing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if match == nil || match.Description != "Miete Maerz Whg 12" {
			t.Fatalf("expected march rent as best match, got %+v", match)
		}
		if score < DefaultSuggestionThreshold {
			t.Errorf("score = %f, want >= %f", score, DefaultSuggestionThreshold)
		}
	})

	t.Run("out-of-window transactions ignored", func(t *testing.T) {
		candidate := txn("2024-06-01", "950.00", "John Doe", "Miete Juni Whg 12")

		match, _, err := scorer.BestMatch(context.Background(), candidate, existing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if match != nil {
			t.Errorf("expected no match outside date window, got %+v", match)
		}
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		candidate := txn("2024-03-02", "950.00", "John Doe", "Miete Maerz Whg 12")

		_, first, _ := scorer.BestMatch(context.Background(), candidate, existing)
		_, second, _ := scorer.BestMatch(context.Background(), candidate, existing)

		if first != second {
			t.Errorf("scores differ between runs: %f vs %f", first, second)
		}
	})
}
