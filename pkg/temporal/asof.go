package temporal

import (
	"database/sql"
	"fmt"
	"time"
)

// Row est une ligne de chronologie prête à agréger : une entité, un
// horodatage, le rang assigné par Ranks, et la valeur à réduire. Une valeur
// invalide (Valid=false) est ignorée par les réductions, comme un NaN.
type Row struct {
	EntityID uint64
	At       time.Time
	Rank     int
	Value    sql.NullFloat64
}

// MeanAsOf calcule, pour chaque ligne, la moyenne des valeurs des lignes de la
// même entité de rang strictement inférieur. Résultat nul quand aucune valeur
// antérieure n'existe : "pas d'historique" n'est pas "moyenne nulle".
// L'entrée doit être triée par (entité, rang) croissant ; un seul passage.
func MeanAsOf(rows []Row) ([]sql.NullFloat64, error) {
	return scanAsOf(rows, aggMean)
}

// SumAsOf est l'équivalent de MeanAsOf pour la somme. Résultat nul sur
// historique vide ; l'appelant décide s'il remplit à zéro.
func SumAsOf(rows []Row) ([]sql.NullFloat64, error) {
	return scanAsOf(rows, aggSum)
}

// CountAsOf compte les valeurs valides strictement antérieures. Résultat nul
// seulement quand il n'existe aucune ligne antérieure ; des antérieurs tous
// invalides comptent pour zéro.
func CountAsOf(rows []Row) ([]sql.NullFloat64, error) {
	return scanAsOf(rows, aggCount)
}

type aggKind int

const (
	aggMean aggKind = iota
	aggSum
	aggCount
)

func scanAsOf(rows []Row, kind aggKind) ([]sql.NullFloat64, error) {
	if err := checkSorted(rows); err != nil {
		return nil, err
	}

	out := make([]sql.NullFloat64, len(rows))
	var (
		entity uint64
		seen   int // lignes antérieures de l'entité, valides ou non
		n      int // valeurs valides parmi elles
		sum    float64
	)
	for i, r := range rows {
		if i == 0 || r.EntityID != entity {
			entity, seen, n, sum = r.EntityID, 0, 0, 0
		}
		switch kind {
		case aggMean:
			if n > 0 {
				out[i] = sql.NullFloat64{Float64: sum / float64(n), Valid: true}
			}
		case aggSum:
			if n > 0 {
				out[i] = sql.NullFloat64{Float64: sum, Valid: true}
			}
		case aggCount:
			if seen > 0 {
				out[i] = sql.NullFloat64{Float64: float64(n), Valid: true}
			}
		}
		seen++
		if r.Value.Valid {
			n++
			sum += r.Value.Float64
		}
	}
	return out, nil
}

// MeanAsOfWithin restreint la moyenne as-of aux lignes antérieures dont l'âge
// en jours entiers, relatif à l'horodatage de la ligne cible, est strictement
// inférieur à horizonDays. Le filtre d'horizon s'ajoute au filtre de rang, il
// ne le remplace pas : un antérieur d'exactement horizonDays jours est exclu.
func MeanAsOfWithin(rows []Row, horizonDays int) ([]sql.NullFloat64, error) {
	if err := checkSorted(rows); err != nil {
		return nil, err
	}

	out := make([]sql.NullFloat64, len(rows))
	var (
		entity uint64
		lo     int // première ligne encore dans l'horizon
		n      int
		sum    float64
	)
	for i, r := range rows {
		if i == 0 || r.EntityID != entity {
			entity, lo, n, sum = r.EntityID, i, 0, 0
		}
		// Fenêtre glissante : les horodatages croissent avec le rang, donc la
		// borne basse ne recule jamais.
		for lo < i && WholeDays(r.At.Sub(rows[lo].At)) >= int64(horizonDays) {
			if rows[lo].Value.Valid {
				n--
				sum -= rows[lo].Value.Float64
			}
			lo++
		}
		if n == 0 {
			sum = 0 // évite la dérive flottante d'une fenêtre vidée
		}
		if n > 0 {
			out[i] = sql.NullFloat64{Float64: sum / float64(n), Valid: true}
		}
		if r.Value.Valid {
			n++
			sum += r.Value.Float64
		}
	}
	return out, nil
}

// checkSorted refuse une entrée qui n'est pas triée par (entité, rang)
// strictement croissant : le passage linéaire n'a de sens que dans cet ordre.
func checkSorted(rows []Row) error {
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if prev.EntityID == cur.EntityID {
			if cur.Rank <= prev.Rank {
				return fmt.Errorf("temporal: lignes non triées par rang (entité %d)", cur.EntityID)
			}
			if cur.At.Before(prev.At) {
				return fmt.Errorf("temporal: horodatage décroissant à rang croissant (entité %d)", cur.EntityID)
			}
		}
	}
	return nil
}
