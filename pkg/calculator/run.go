// Package calculator orchestre le pipeline batch : sélection des plans,
// variables comportementales as-of, cibles d'impayé, jointure finale.
package calculator

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/schollz/progressbar/v3"

	"credit-dataset/pkg/database"
	"credit-dataset/pkg/models"
)

// Run exécute un run complet : contrôle de schéma, chargement des tables,
// calcul, assemblage. Tout se joue en mémoire après le chargement ; une
// erreur structurelle interrompt le run sans sortie partielle.
func Run(ctx context.Context, db *sql.DB, cfg models.Config) ([]models.FeatureRow, Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Summary{}, fmt.Errorf("config: %w", err)
	}

	// Contrôle de schéma avant toute agrégation.
	for table, cols := range database.RequiredColumns {
		if err := database.CheckColumns(ctx, db, table, cols); err != nil {
			return nil, Summary{}, err
		}
	}

	plans, err := database.LoadInstalmentPlans(ctx, db)
	if err != nil {
		return nil, Summary{}, err
	}
	instalments, err := database.LoadInstalments(ctx, db)
	if err != nil {
		return nil, Summary{}, err
	}
	customers, err := database.LoadCustomers(ctx, db)
	if err != nil {
		return nil, Summary{}, err
	}
	cart, err := database.LoadCart(ctx, db)
	if err != nil {
		return nil, Summary{}, err
	}
	refunds, err := database.LoadRefunds(ctx, db)
	if err != nil {
		return nil, Summary{}, err
	}
	if cfg.Verbose {
		log.Printf("[INFO] loaded plans=%d instalments=%d customers=%d cart=%d refunds=%d",
			len(plans), len(instalments), len(customers), len(cart), len(refunds))
	}

	filtered := FilterPlans(plans, cfg.NumInstalments, cfg.Country)
	byPlan := InstalmentsByPlan(instalments)
	// Restreint les échéances au périmètre filtré : mêmes jointures que la
	// sélection, mêmes entrées pour le comportement.
	scoped := make(map[uint64][]models.Instalment, len(filtered))
	for _, p := range filtered {
		if list, ok := byPlan[p.InstalmentPlanID]; ok {
			scoped[p.InstalmentPlanID] = list
		}
	}

	mature := SelectMature(filtered, scoped, cfg.Observation)
	if cfg.Verbose {
		log.Printf("[INFO] perimeter num_instalments=%d country=%s: plans=%d mature=%d",
			cfg.NumInstalments, cfg.Country, len(filtered), len(mature))
	}

	nCustomers := map[uint64]struct{}{}
	for _, p := range filtered {
		nCustomers[p.CustomerID] = struct{}{}
	}
	bar := progressbar.Default(int64(len(nCustomers)))
	var mu sync.Mutex
	progress := func(n int) {
		mu.Lock()
		_ = bar.Add(n)
		mu.Unlock()
	}

	behaviour, err := ComputeBehaviour(ctx, filtered, scoped, cfg.Workers, progress)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("behaviour: %w", err)
	}

	rows, sum, err := BuildRows(mature, behaviour, customers, cart)
	if err != nil {
		return nil, Summary{}, err
	}

	if cfg.Verbose {
		log.Printf("[INFO] rows=%d (eligible=%d)", len(rows), sum.EligiblePlans)
	}
	if n := sum.UnmappedStatus + sum.PaidWithoutCompletion + sum.MissingBehaviour + sum.MissingCustomer; n > 0 {
		log.Printf("[WARN] anomalies: unmapped_status=%d paid_without_completion=%d missing_behaviour=%d missing_customer=%d",
			sum.UnmappedStatus, sum.PaidWithoutCompletion, sum.MissingBehaviour, sum.MissingCustomer)
	}
	return rows, sum, nil
}
