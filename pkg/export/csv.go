// Package export écrit la table finale en CSV, une ligne par plan éligible.
// La liste de colonnes est un contrat : toute colonne hors liste est écartée
// avant émission.
package export

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"credit-dataset/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Columns est l'ordre exact des colonnes émises.
var Columns = []string{
	"instalment_plan_id",
	"customer_id",
	"order_id",
	"created",
	"merchant_name",
	"days_since_scheduled",
	"is_returning",
	"nr_of_items",
	"unpaid_at_due",
	"unpaid_at_5",
	"unpaid_at_10",
	"unpaid_at_20",
	"unpaid_at_30",
	"unpaid_at_60",
	"unpaid_at_90",
	"total_amount",
	"avg_order_value",
	"avg_fees_per_order_30d",
	"avg_fees_per_order_90d",
	"avg_fees_per_order_180d",
	"avg_fees_per_order_365d",
	"count_merchants_per_customer",
	"current_exposure",
	"sum_paid_amount",
	"customer_first_joined",
	"date_of_birth",
}

// Write émet l'en-tête puis les lignes. Une valeur nulle devient un champ
// vide, à distinguer d'un zéro par l'aval.
func Write(w io.Writer, rows []models.FeatureRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("write row plan=%d: %w", r.InstalmentPlanID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile matérialise le CSV en mémoire puis l'écrit en une fois : pas de
// fichier partiel si le run échoue en cours de route.
func WriteFile(path string, rows []models.FeatureRow) error {
	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func record(r models.FeatureRow) []string {
	return []string{
		strconv.FormatUint(r.InstalmentPlanID, 10),
		strconv.FormatUint(r.CustomerID, 10),
		strconv.FormatUint(r.OrderID, 10),
		r.Created.UTC().Format(timeLayout),
		nullString(r.MerchantName),
		strconv.FormatInt(r.DaysSinceScheduled, 10),
		strconv.FormatBool(r.IsReturning),
		nullInt(r.NrOfItems),
		nullFloat(r.UnpaidAtDue),
		nullFloat(r.UnpaidAt5),
		nullFloat(r.UnpaidAt10),
		nullFloat(r.UnpaidAt20),
		nullFloat(r.UnpaidAt30),
		nullFloat(r.UnpaidAt60),
		nullFloat(r.UnpaidAt90),
		nullFloat(r.TotalAmount),
		nullFloat(r.AvgOrderValue),
		nullFloat(r.AvgFeesPerOrder30),
		nullFloat(r.AvgFeesPerOrder90),
		nullFloat(r.AvgFeesPerOrder180),
		nullFloat(r.AvgFeesPerOrder365),
		nullInt(r.CountMerchants),
		nullFloat(r.CurrentExposure),
		nullFloat(r.SumPaidAmount),
		nullTime(r.CustomerFirstJoined),
		nullTime(r.DateOfBirth),
	}
}

func nullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullString(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

func nullTime(v sql.NullTime) string {
	if !v.Valid {
		return ""
	}
	return v.Time.UTC().Format(timeLayout)
}
