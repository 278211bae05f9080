package score

import (
	"math"
	"testing"
)

func TestScore_EvenOddsIsBase(t *testing.T) {
	s := NewScorer()
	if got := s.Score(0.5); math.Abs(got-600) > 1e-9 {
		t.Fatalf("Score(0.5) = %v, want 600", got)
	}
}

func TestScore_PDODoublesOdds(t *testing.T) {
	s := NewScorer()
	// Odds 1:1 -> 600 ; odds 1:2 (p=1/3) -> 620.
	if got := s.Score(1.0 / 3.0); math.Abs(got-620) > 1e-9 {
		t.Fatalf("Score(1/3) = %v, want 620", got)
	}
}

func TestScore_Clamped(t *testing.T) {
	s := NewScorer()
	if got := s.Score(1e-9); got != 850 {
		t.Fatalf("near-zero probability: got %v, want 850", got)
	}
	if got := s.Score(1 - 1e-9); got != 300 {
		t.Fatalf("near-one probability: got %v, want 300", got)
	}
	if got := s.Score(0); got != 850 {
		t.Fatalf("p=0: got %v, want 850", got)
	}
	if got := s.Score(1); got != 300 {
		t.Fatalf("p=1: got %v, want 300", got)
	}
}

func TestScoreAll_Monotone(t *testing.T) {
	s := NewScorer()
	got := s.ScoreAll([]float64{0.01, 0.1, 0.5, 0.9, 0.99})
	for i := 1; i < len(got); i++ {
		if got[i] > got[i-1] {
			t.Fatalf("score must decrease with risk: %v", got)
		}
	}
}
