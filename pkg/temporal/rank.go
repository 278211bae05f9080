// Package temporal fournit les primitives "as-of" du jeu d'entraînement :
// rang de séquence par entité et agrégats calculés uniquement sur les lignes
// strictement antérieures. C'est la garantie anti-fuite temporelle du dataset.
package temporal

import (
	"fmt"
	"sort"
	"time"
)

// Key identifie une ligne à ranger : une entité (client) et un horodatage.
type Key struct {
	EntityID uint64
	At       time.Time
}

// Ranks assigne un rang 1..n par entité, croissant avec l'horodatage.
// Le résultat est aligné sur l'ordre d'entrée. Les égalités d'horodatage sont
// départagées par la position d'origine (tri stable), donc le rang est un
// ordre total strict : une ligne ne voit jamais comme "passé" une ligne de
// même horodatage.
func Ranks(keys []Key) ([]int, error) {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka.EntityID != kb.EntityID {
			return ka.EntityID < kb.EntityID
		}
		return ka.At.Before(kb.At)
	})

	ranks := make([]int, len(keys))
	var prev uint64
	next := 0
	for _, idx := range order {
		if k := keys[idx].EntityID; next == 0 || k != prev {
			prev = k
			next = 1
		} else {
			next++
		}
		ranks[idx] = next
	}

	if err := checkStrict(keys, ranks); err != nil {
		return nil, err
	}
	return ranks, nil
}

// checkStrict vérifie l'invariant : au sein d'une entité, les rangs forment
// une bijection sur 1..n, croissante avec l'horodatage. Une violation est une
// erreur interne (rang ambigu), pas une anomalie de données.
func checkStrict(keys []Key, ranks []int) error {
	byEntity := map[uint64][]int{}
	for i := range keys {
		byEntity[keys[i].EntityID] = append(byEntity[keys[i].EntityID], i)
	}
	for entity, idxs := range byEntity {
		sort.Slice(idxs, func(a, b int) bool { return ranks[idxs[a]] < ranks[idxs[b]] })
		for pos, idx := range idxs {
			if ranks[idx] != pos+1 {
				return fmt.Errorf("temporal: rang ambigu pour entité %d", entity)
			}
			if pos > 0 && keys[idx].At.Before(keys[idxs[pos-1]].At) {
				return fmt.Errorf("temporal: rang non monotone pour entité %d", entity)
			}
		}
	}
	return nil
}

// WholeDays retourne la durée en jours entiers, arrondie vers le bas
// (même convention que timedelta.days : -12h donne -1 jour).
func WholeDays(d time.Duration) int64 {
	const day = 24 * time.Hour
	n := d / day
	if d%day < 0 {
		n--
	}
	return int64(n)
}
