// Package score convertit une probabilité de défaut en score de crédit borné.
package score

import "math"

// Scorer applique la transformation log-odds classique : un écart de PDO
// points double les chances. Les constantes sont explicites, pas calibrées ici.
type Scorer struct {
	PDO    float64 // points pour doubler les chances
	Offset float64 // score de base
	Min    float64
	Max    float64
}

// NewScorer retourne le barème courant : base 600, PDO 20, bornes 300-850.
func NewScorer() Scorer {
	return Scorer{PDO: 20, Offset: 600, Min: 300, Max: 850}
}

// Score convertit une probabilité de défaut p en score, borné à [Min, Max].
// p = 0 et p = 1 saturent naturellement sur les bornes.
func (s Scorer) Score(p float64) float64 {
	raw := s.Offset + s.PDO/math.Ln2*math.Log((1-p)/p)
	return math.Min(math.Max(raw, s.Min), s.Max)
}

// ScoreAll convertit une liste de probabilités.
func (s Scorer) ScoreAll(probabilities []float64) []float64 {
	out := make([]float64, len(probabilities))
	for i, p := range probabilities {
		out[i] = s.Score(p)
	}
	return out
}
