package calculator

import (
	"database/sql"
	"time"

	"credit-dataset/pkg/models"
	"credit-dataset/pkg/temporal"
)

// FilterPlans restreint les plans à une configuration produit (nombre
// d'échéances) et à un marché. L'ordre d'entrée est préservé : il sert de
// clé secondaire stable pour le rang de séquence.
func FilterPlans(plans []models.InstalmentPlan, numInstalments int, country string) []models.InstalmentPlan {
	var out []models.InstalmentPlan
	for _, p := range plans {
		if p.NumInstalments == numInstalments && p.Country == country {
			out = append(out, p)
		}
	}
	return out
}

// InstalmentsByPlan regroupe les échéances par plan, dans l'ordre d'entrée.
func InstalmentsByPlan(instalments []models.Instalment) map[uint64][]models.Instalment {
	byPlan := make(map[uint64][]models.Instalment)
	for _, in := range instalments {
		byPlan[in.InstalmentPlanID] = append(byPlan[in.InstalmentPlanID], in)
	}
	return byPlan
}

// lastInstalment retourne l'échéance d'ordinal maximal du plan.
func lastInstalment(list []models.Instalment) (models.Instalment, bool) {
	if len(list) == 0 {
		return models.Instalment{}, false
	}
	last := list[0]
	for _, in := range list[1:] {
		if in.Order > last.Order {
			last = in
		}
	}
	return last, true
}

// MaturePlan est un plan éligible au calcul des cibles : sa dernière échéance
// a un statut terminal observable ("paid" ou "unpaid") à la date d'évaluation.
type MaturePlan struct {
	Plan       models.InstalmentPlan
	LastStatus string

	// Jours entre l'échéance de la dernière échéance et la date d'évaluation.
	DaysSinceScheduled int64
	// Jours entre échéance et règlement de la dernière échéance ; nul si
	// aucune date de règlement.
	DaysScheduledCompleted sql.NullInt64

	// Sommes sur TOUTES les échéances du plan au statut "unpaid".
	TotalUnpaidAmount float64
	TotalUnpaidTotal  float64

	// "unpaid" si TotalUnpaidAmount > 0, sinon "paid". C'est le statut qui
	// pilote les cibles, pas le statut brut de la dernière échéance.
	UnpaidStatus string
}

// SelectMature applique le filtre de maturité : dernière échéance au statut
// "paid" ou "unpaid". Les plans sans échéance ou encore en cours sont exclus,
// sans erreur. L'ordre des plans d'entrée est préservé.
func SelectMature(plans []models.InstalmentPlan, byPlan map[uint64][]models.Instalment, observation time.Time) []MaturePlan {
	var out []MaturePlan
	for _, p := range plans {
		last, ok := lastInstalment(byPlan[p.InstalmentPlanID])
		if !ok {
			continue
		}
		if last.Status != "paid" && last.Status != "unpaid" {
			continue
		}

		m := MaturePlan{
			Plan:               p,
			LastStatus:         last.Status,
			DaysSinceScheduled: temporal.WholeDays(observation.Sub(last.Scheduled)),
		}
		if last.Completed.Valid {
			m.DaysScheduledCompleted = sql.NullInt64{
				Int64: temporal.WholeDays(last.Completed.Time.Sub(last.Scheduled)),
				Valid: true,
			}
		}
		for _, in := range byPlan[p.InstalmentPlanID] {
			if in.Status == "unpaid" {
				m.TotalUnpaidAmount += in.Amount
				m.TotalUnpaidTotal += in.Total
			}
		}
		m.UnpaidStatus = "paid"
		if m.TotalUnpaidAmount > 0 {
			m.UnpaidStatus = "unpaid"
		}
		out = append(out, m)
	}
	return out
}
