package calculator

import (
	"database/sql"
	"testing"
	"time"

	"credit-dataset/pkg/models"
)

func day(n int) time.Time {
	return time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func plan(id, customer uint64, created time.Time, amount float64) models.InstalmentPlan {
	return models.InstalmentPlan{
		InstalmentPlanID: id,
		CustomerID:       customer,
		OrderID:          id + 1000,
		Created:          created,
		TotalAmount:      amount,
		NumInstalments:   3,
		Country:          "AE",
	}
}

func inst(planID uint64, order int, scheduled time.Time, status string, amount float64) models.Instalment {
	return models.Instalment{
		InstalmentID:     planID*10 + uint64(order),
		InstalmentPlanID: planID,
		Order:            order,
		Scheduled:        scheduled,
		Status:           status,
		Amount:           amount,
		Total:            amount,
	}
}

func completed(in models.Instalment, at time.Time) models.Instalment {
	in.Completed = sql.NullTime{Time: at, Valid: true}
	return in
}

func TestFilterPlans(t *testing.T) {
	plans := []models.InstalmentPlan{
		plan(1, 1, day(0), 100),
		plan(2, 1, day(1), 100),
		plan(3, 2, day(2), 100),
	}
	plans[1].NumInstalments = 6
	plans[2].Country = "SA"

	got := FilterPlans(plans, 3, "AE")
	if len(got) != 1 || got[0].InstalmentPlanID != 1 {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}

func TestSelectMature_LastInstalmentDrivesEligibility(t *testing.T) {
	plans := []models.InstalmentPlan{
		plan(1, 1, day(0), 300), // last paid -> eligible
		plan(2, 1, day(1), 300), // last still due -> immature
		plan(3, 2, day(2), 300), // no instalments -> excluded
		plan(4, 2, day(3), 300), // last unpaid -> eligible
	}
	byPlan := InstalmentsByPlan([]models.Instalment{
		inst(1, 1, day(10), "paid", 100),
		inst(1, 2, day(40), "paid", 100),
		completed(inst(1, 3, day(70), "paid", 100), day(75)),
		inst(2, 1, day(11), "paid", 100),
		inst(2, 2, day(41), "due", 100),
		inst(2, 3, day(71), "due", 100),
		inst(4, 1, day(13), "paid", 100),
		inst(4, 2, day(43), "unpaid", 100),
		inst(4, 3, day(73), "unpaid", 100),
	})

	obs := day(100)
	got := SelectMature(plans, byPlan, obs)
	if len(got) != 2 {
		t.Fatalf("got %d mature plans, want 2", len(got))
	}

	first := got[0]
	if first.Plan.InstalmentPlanID != 1 || first.LastStatus != "paid" {
		t.Fatalf("unexpected first mature plan: %+v", first)
	}
	if first.DaysSinceScheduled != 30 {
		t.Fatalf("days_since_scheduled = %d, want 30", first.DaysSinceScheduled)
	}
	if !first.DaysScheduledCompleted.Valid || first.DaysScheduledCompleted.Int64 != 5 {
		t.Fatalf("days_scheduled_completed = %+v, want 5", first.DaysScheduledCompleted)
	}
	if first.UnpaidStatus != "paid" || first.TotalUnpaidAmount != 0 {
		t.Fatalf("unexpected unpaid state: %+v", first)
	}

	second := got[1]
	if second.Plan.InstalmentPlanID != 4 || second.LastStatus != "unpaid" {
		t.Fatalf("unexpected second mature plan: %+v", second)
	}
	// Unpaid sums cover every instalment of the plan, not just the last one.
	if second.TotalUnpaidAmount != 200 || second.TotalUnpaidTotal != 200 {
		t.Fatalf("unpaid sums = %v/%v, want 200/200", second.TotalUnpaidAmount, second.TotalUnpaidTotal)
	}
	if second.UnpaidStatus != "unpaid" {
		t.Fatalf("unpaid_status = %q, want unpaid", second.UnpaidStatus)
	}
	// The last unpaid instalment has no completion date.
	if second.DaysScheduledCompleted.Valid {
		t.Fatalf("unexpected completion days on unpaid plan: %+v", second.DaysScheduledCompleted)
	}
}

func TestSelectMature_LastIsMaxOrdinal(t *testing.T) {
	plans := []models.InstalmentPlan{plan(1, 1, day(0), 300)}
	// Out-of-order input: ordinal 3 is last even if listed first.
	byPlan := InstalmentsByPlan([]models.Instalment{
		completed(inst(1, 3, day(70), "paid", 100), day(70)),
		inst(1, 1, day(10), "unpaid", 100),
		inst(1, 2, day(40), "paid", 100),
	})
	got := SelectMature(plans, byPlan, day(100))
	if len(got) != 1 {
		t.Fatalf("got %d mature plans, want 1", len(got))
	}
	if got[0].LastStatus != "paid" || got[0].DaysSinceScheduled != 30 {
		t.Fatalf("wrong last instalment picked: %+v", got[0])
	}
	// Status of the whole plan is driven by its unpaid sums.
	if got[0].UnpaidStatus != "unpaid" || got[0].TotalUnpaidAmount != 100 {
		t.Fatalf("unexpected unpaid state: %+v", got[0])
	}
}
