package calculator

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"credit-dataset/pkg/models"
	"credit-dataset/pkg/temporal"
)

// feeHorizons sont les fenêtres glissantes (en jours) des moyennes de
// pénalités par commande.
var feeHorizons = [4]int{30, 90, 180, 365}

// BehaviourRow porte les variables comportementales d'un plan, calculées
// uniquement sur les plans antérieurs du même client.
type BehaviourRow struct {
	InstalmentPlanID uint64
	CustomerID       uint64

	TotalAmount float64

	AvgOrderValue sql.NullFloat64
	AvgFees       [4]sql.NullFloat64 // aligné sur feeHorizons

	// Comptage des plans antérieurs portant un nom de marchand ; zéro quand
	// l'historique est vide (remplissage explicite, cf. DESIGN.md).
	CountMerchants int64

	// Somme de l'encours "due" des plans antérieurs ; zéro quand l'historique
	// est vide (remplissage explicite).
	CurrentExposure float64

	// Somme des montants des plans antérieurs entièrement réglés. Renseigné
	// uniquement pour les plans eux-mêmes entièrement réglés, nul sinon.
	SumPaidAmount sql.NullFloat64
}

// planStats sont les pré-agrégats par plan dont dérivent les variables.
type planStats struct {
	feeSum      float64 // somme des pénalités de toutes les échéances
	outstanding float64 // somme des totaux des échéances "due"
	fullyPaid   bool    // au moins une échéance, toutes au statut "paid"
}

func statsFor(list []models.Instalment) planStats {
	s := planStats{fullyPaid: len(list) > 0}
	for _, in := range list {
		s.feeSum += in.PenaltyFee
		if in.Status == "due" {
			s.outstanding += in.Total
		}
		if in.Status != "paid" {
			s.fullyPaid = false
		}
	}
	return s
}

// ComputeBehaviour calcule les variables comportementales de chaque plan du
// périmètre filtré. Le calcul est indépendant par client : les partitions
// sont traitées en parallèle, chaque goroutine n'écrit que ses propres
// indices. progress est appelé une fois par client terminé.
func ComputeBehaviour(ctx context.Context, plans []models.InstalmentPlan,
	byPlan map[uint64][]models.Instalment, workers int, progress func(int)) (map[uint64]BehaviourRow, error) {

	// Partition par client, indices dans l'ordre d'entrée (clé de départage).
	perCustomer := make(map[uint64][]int)
	var customers []uint64
	for i, p := range plans {
		if _, ok := perCustomer[p.CustomerID]; !ok {
			customers = append(customers, p.CustomerID)
		}
		perCustomer[p.CustomerID] = append(perCustomer[p.CustomerID], i)
	}

	results := make([]BehaviourRow, len(plans))

	g, ctx := errgroup.WithContext(ctx)
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for _, cid := range customers {
		idxs := perCustomer[cid]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := customerBehaviour(plans, byPlan, idxs, results); err != nil {
				return err
			}
			if progress != nil {
				progress(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[uint64]BehaviourRow, len(plans))
	for _, r := range results {
		if _, dup := out[r.InstalmentPlanID]; dup {
			return nil, fmt.Errorf("behaviour: plan %d en double dans les plans filtrés", r.InstalmentPlanID)
		}
		out[r.InstalmentPlanID] = r
	}
	return out, nil
}

// customerBehaviour remplit results aux indices idxs pour un seul client.
func customerBehaviour(plans []models.InstalmentPlan, byPlan map[uint64][]models.Instalment,
	idxs []int, results []BehaviourRow) error {

	cid := plans[idxs[0]].CustomerID

	keys := make([]temporal.Key, len(idxs))
	for i, idx := range idxs {
		keys[i] = temporal.Key{EntityID: cid, At: plans[idx].Created}
	}
	ranks, err := temporal.Ranks(keys)
	if err != nil {
		return err
	}

	// Ordre de parcours trié par rang : l'ordre exigé par les agrégats as-of.
	order := make([]int, len(idxs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return ranks[order[a]] < ranks[order[b]] })

	stats := make([]planStats, len(idxs))
	for i, idx := range idxs {
		stats[i] = statsFor(byPlan[plans[idx].InstalmentPlanID])
	}

	mkRows := func(value func(i int) sql.NullFloat64) []temporal.Row {
		rows := make([]temporal.Row, len(order))
		for pos, i := range order {
			rows[pos] = temporal.Row{
				EntityID: cid,
				At:       plans[idxs[i]].Created,
				Rank:     ranks[i],
				Value:    value(i),
			}
		}
		return rows
	}
	valid := func(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

	aov, err := temporal.MeanAsOf(mkRows(func(i int) sql.NullFloat64 {
		return valid(plans[idxs[i]].TotalAmount)
	}))
	if err != nil {
		return err
	}

	feeRows := mkRows(func(i int) sql.NullFloat64 { return valid(stats[i].feeSum) })
	var fees [4][]sql.NullFloat64
	for h, horizon := range feeHorizons {
		if fees[h], err = temporal.MeanAsOfWithin(feeRows, horizon); err != nil {
			return err
		}
	}

	merch, err := temporal.CountAsOf(mkRows(func(i int) sql.NullFloat64 {
		if plans[idxs[i]].MerchantName.Valid {
			return valid(1)
		}
		return sql.NullFloat64{}
	}))
	if err != nil {
		return err
	}

	expo, err := temporal.SumAsOf(mkRows(func(i int) sql.NullFloat64 {
		return valid(stats[i].outstanding)
	}))
	if err != nil {
		return err
	}

	// Somme des plans antérieurs entièrement réglés : le curseur vit dans le
	// sous-ensemble des plans entièrement réglés, pas dans le périmètre entier.
	paidSum := make([]sql.NullFloat64, len(idxs))
	var (
		prefix float64
		seen   int
	)
	for _, i := range order {
		if !stats[i].fullyPaid {
			continue
		}
		if seen > 0 {
			paidSum[i] = valid(prefix)
		} else {
			paidSum[i] = valid(0) // sous-ensemble sans antérieur : zéro explicite
		}
		prefix += plans[idxs[i]].TotalAmount
		seen++
	}

	for pos, i := range order {
		idx := idxs[i]
		p := plans[idx]
		row := BehaviourRow{
			InstalmentPlanID: p.InstalmentPlanID,
			CustomerID:       cid,
			TotalAmount:      p.TotalAmount,
			AvgOrderValue:    aov[pos],
			SumPaidAmount:    paidSum[i],
		}
		for h := range feeHorizons {
			row.AvgFees[h] = fees[h][pos]
		}
		if merch[pos].Valid {
			row.CountMerchants = int64(merch[pos].Float64)
		}
		if expo[pos].Valid {
			row.CurrentExposure = expo[pos].Float64
		}
		results[idx] = row
	}
	return nil
}
