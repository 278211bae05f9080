package calculator

import (
	"database/sql"
	"fmt"
	"time"

	"credit-dataset/pkg/labels"
	"credit-dataset/pkg/models"
	"credit-dataset/pkg/temporal"
)

// Summary compte les anomalies de contenu rencontrées pendant l'assemblage.
// Elles dégradent la ligne en nul, elles n'arrêtent pas le run.
type Summary struct {
	EligiblePlans         int
	UnmappedStatus        int // statut hors {paid, unpaid} au moment des cibles
	PaidWithoutCompletion int // réglé sans date de règlement : cibles nulles
	MissingBehaviour      int // pas de ligne comportementale pour le plan
	MissingCustomer       int // client inconnu de la table customers
}

// customerStatics sont les attributs statiques dérivés de la table customers :
// première date d'inscription (min des created) et date de naissance associée.
type customerStatics struct {
	firstJoined time.Time
	dateOfBirth sql.NullTime
}

func staticsByCustomer(customers []models.Customer) map[uint64]customerStatics {
	out := make(map[uint64]customerStatics, len(customers))
	for _, c := range customers {
		cur, ok := out[c.CustomerID]
		if !ok || c.Created.Before(cur.firstJoined) {
			out[c.CustomerID] = customerStatics{firstJoined: c.Created, dateOfBirth: c.DateOfBirth}
		}
	}
	return out
}

func itemsByOrder(cart []models.CartItem) map[uint64]int64 {
	out := make(map[uint64]int64, len(cart))
	for _, it := range cart {
		out[it.OrderID] += it.Qty
	}
	return out
}

// BuildRows assemble la table finale : une ligne par plan mature, jointures
// gauches sur le comportement (par plan), les statiques client (par client)
// et le panier (par commande). Une correspondance absente donne des colonnes
// nulles, jamais une ligne en moins ; une clé en double est fatale
// (violation de cardinalité en amont).
func BuildRows(mature []MaturePlan, behaviour map[uint64]BehaviourRow,
	customers []models.Customer, cart []models.CartItem) ([]models.FeatureRow, Summary, error) {

	statics := staticsByCustomer(customers)
	items := itemsByOrder(cart)

	var sum Summary
	sum.EligiblePlans = len(mature)

	seen := make(map[uint64]struct{}, len(mature))
	rows := make([]models.FeatureRow, 0, len(mature))
	for _, m := range mature {
		p := m.Plan
		if _, dup := seen[p.InstalmentPlanID]; dup {
			return nil, Summary{}, fmt.Errorf("join: plan %d présent deux fois dans la sélection mature", p.InstalmentPlanID)
		}
		seen[p.InstalmentPlanID] = struct{}{}

		row := models.FeatureRow{
			InstalmentPlanID:   p.InstalmentPlanID,
			CustomerID:         p.CustomerID,
			OrderID:            p.OrderID,
			Created:            p.Created,
			MerchantName:       p.MerchantName,
			DaysSinceScheduled: m.DaysSinceScheduled,
		}

		if qty, ok := items[p.OrderID]; ok {
			row.NrOfItems = sql.NullInt64{Int64: qty, Valid: true}
		}

		// is_returning : moins d'un jour entier entre l'inscription et le plan
		// vaut même session. Client inconnu : la comparaison d'origine échoue
		// et retombe sur "returning", on reproduit ce comportement.
		row.IsReturning = true
		if st, ok := statics[p.CustomerID]; ok {
			row.CustomerFirstJoined = sql.NullTime{Time: st.firstJoined, Valid: true}
			row.DateOfBirth = st.dateOfBirth
			if temporal.WholeDays(p.Created.Sub(st.firstJoined)) < 1 {
				row.IsReturning = false
			}
		} else {
			sum.MissingCustomer++
		}

		switch m.UnpaidStatus {
		case "paid":
			if !m.DaysScheduledCompleted.Valid {
				sum.PaidWithoutCompletion++
			}
		case "unpaid":
		default:
			sum.UnmappedStatus++
		}
		b := labels.Bucketize(m.UnpaidStatus, m.DaysScheduledCompleted,
			m.DaysSinceScheduled, p.TotalAmount, m.TotalUnpaidAmount)
		row.UnpaidAtDue, row.UnpaidAt5, row.UnpaidAt10 = b.AtDue, b.At5, b.At10
		row.UnpaidAt20, row.UnpaidAt30 = b.At20, b.At30
		row.UnpaidAt60, row.UnpaidAt90 = b.At60, b.At90

		if bh, ok := behaviour[p.InstalmentPlanID]; ok {
			row.TotalAmount = sql.NullFloat64{Float64: bh.TotalAmount, Valid: true}
			row.AvgOrderValue = bh.AvgOrderValue
			row.AvgFeesPerOrder30 = bh.AvgFees[0]
			row.AvgFeesPerOrder90 = bh.AvgFees[1]
			row.AvgFeesPerOrder180 = bh.AvgFees[2]
			row.AvgFeesPerOrder365 = bh.AvgFees[3]
			row.CountMerchants = sql.NullInt64{Int64: bh.CountMerchants, Valid: true}
			row.CurrentExposure = sql.NullFloat64{Float64: bh.CurrentExposure, Valid: true}
			row.SumPaidAmount = bh.SumPaidAmount
		} else {
			sum.MissingBehaviour++
		}

		rows = append(rows, row)
	}
	return rows, sum, nil
}
