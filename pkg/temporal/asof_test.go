package temporal

import (
	"database/sql"
	"testing"
	"time"
)

func valid(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func rowsFor(entity uint64, values []float64, at []time.Time) []Row {
	rows := make([]Row, len(values))
	for i := range values {
		rows[i] = Row{EntityID: entity, At: at[i], Rank: i + 1, Value: valid(values[i])}
	}
	return rows
}

func TestMeanAsOf_PrefixProperty(t *testing.T) {
	// The k-th plan (0-indexed) must see the mean of the first k amounts,
	// and nothing at all when k = 0.
	values := []float64{100, 200, 300, 400}
	at := []time.Time{day(0), day(10), day(20), day(30)}
	got, err := MeanAsOf(rowsFor(1, values, at))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Valid {
		t.Fatalf("k=0 must be null, got %v", got[0])
	}
	want := []float64{0, 100, 150, 200}
	for k := 1; k < len(values); k++ {
		if !got[k].Valid || got[k].Float64 != want[k] {
			t.Fatalf("k=%d: got %v, want %v", k, got[k], want[k])
		}
	}
}

func TestSumAsOf_EmptyHistoryIsNullNotZero(t *testing.T) {
	got, err := SumAsOf(rowsFor(1, []float64{50}, []time.Time{day(0)}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Valid {
		t.Fatalf("empty history must be null, got %v", got[0])
	}
}

func TestCountAsOf_InvalidValuesCountForZero(t *testing.T) {
	rows := []Row{
		{EntityID: 1, At: day(0), Rank: 1, Value: sql.NullFloat64{}},
		{EntityID: 1, At: day(1), Rank: 2, Value: sql.NullFloat64{}},
		{EntityID: 1, At: day(2), Rank: 3, Value: valid(1)},
	}
	got, err := CountAsOf(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Valid {
		t.Fatalf("no priors: want null, got %v", got[0])
	}
	// Priors exist but carry no value: the count is a valid zero.
	if !got[1].Valid || got[1].Float64 != 0 {
		t.Fatalf("want valid 0, got %v", got[1])
	}
	if !got[2].Valid || got[2].Float64 != 0 {
		t.Fatalf("want valid 0, got %v", got[2])
	}
}

func TestMeanAsOfWithin_HorizonBoundaryIsStrict(t *testing.T) {
	// A prior at exactly 30 whole days is excluded; one hour less is included.
	base := day(100)
	rows := []Row{
		{EntityID: 1, At: base.Add(-30 * 24 * time.Hour), Rank: 1, Value: valid(10)},
		{EntityID: 1, At: base.Add(-30*24*time.Hour + time.Hour), Rank: 2, Value: valid(20)},
		{EntityID: 1, At: base, Rank: 3, Value: valid(999)},
	}
	got, err := MeanAsOfWithin(rows, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[2].Valid || got[2].Float64 != 20 {
		t.Fatalf("want mean 20 (only the 29-day prior), got %v", got[2])
	}
}

func TestMeanAsOfWithin_RankFilterStillApplies(t *testing.T) {
	// Same-day sibling with a lower rank is a prior; the target itself never is.
	rows := []Row{
		{EntityID: 1, At: day(0), Rank: 1, Value: valid(10)},
		{EntityID: 1, At: day(0), Rank: 2, Value: valid(20)},
	}
	got, err := MeanAsOfWithin(rows, 365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Valid {
		t.Fatalf("rank 1 must see nothing, got %v", got[0])
	}
	if !got[1].Valid || got[1].Float64 != 10 {
		t.Fatalf("rank 2 must see only rank 1, got %v", got[1])
	}
}

func TestAsOf_RejectsUnsortedInput(t *testing.T) {
	rows := []Row{
		{EntityID: 1, At: day(1), Rank: 2, Value: valid(1)},
		{EntityID: 1, At: day(0), Rank: 1, Value: valid(2)},
	}
	if _, err := MeanAsOf(rows); err == nil {
		t.Fatal("expected error for unsorted input, got nil")
	}
}

// naive is the quadratic reference: filter the whole timeline for every row.
// The linear scan must produce identical results whatever the algorithm.
func naive(rows []Row, reduce string, horizon int) []sql.NullFloat64 {
	out := make([]sql.NullFloat64, len(rows))
	for i, target := range rows {
		var (
			seen int
			n    int
			sum  float64
		)
		for _, prior := range rows {
			if prior.EntityID != target.EntityID || prior.Rank >= target.Rank {
				continue
			}
			if horizon > 0 && WholeDays(target.At.Sub(prior.At)) >= int64(horizon) {
				continue
			}
			seen++
			if prior.Value.Valid {
				n++
				sum += prior.Value.Float64
			}
		}
		switch reduce {
		case "mean":
			if n > 0 {
				out[i] = valid(sum / float64(n))
			}
		case "sum":
			if n > 0 {
				out[i] = valid(sum)
			}
		case "count":
			if seen > 0 {
				out[i] = valid(float64(n))
			}
		}
	}
	return out
}

func TestAsOf_MatchesNaiveReference(t *testing.T) {
	// Deterministic pseudo-random timeline over three entities.
	var rows []Row
	seed := uint64(42)
	next := func() uint64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return seed >> 33
	}
	for _, entity := range []uint64{1, 2, 3} {
		n := int(next()%20) + 1
		at := day(0)
		for r := 1; r <= n; r++ {
			at = at.Add(time.Duration(next()%(90*24)) * time.Hour)
			v := sql.NullFloat64{}
			if next()%5 != 0 {
				v = valid(float64(next() % 1000))
			}
			rows = append(rows, Row{EntityID: entity, At: at, Rank: r, Value: v})
		}
	}

	check := func(name string, got []sql.NullFloat64, want []sql.NullFloat64) {
		t.Helper()
		for i := range want {
			if got[i].Valid != want[i].Valid {
				t.Fatalf("%s row %d: validity %v, want %v", name, i, got[i].Valid, want[i].Valid)
			}
			if got[i].Valid && !approxEqual(got[i].Float64, want[i].Float64) {
				t.Fatalf("%s row %d: got %v, want %v", name, i, got[i].Float64, want[i].Float64)
			}
		}
	}

	mean, err := MeanAsOf(rows)
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	check("mean", mean, naive(rows, "mean", 0))

	sum, err := SumAsOf(rows)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	check("sum", sum, naive(rows, "sum", 0))

	count, err := CountAsOf(rows)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	check("count", count, naive(rows, "count", 0))

	for _, h := range []int{30, 90, 180} {
		within, err := MeanAsOfWithin(rows, h)
		if err != nil {
			t.Fatalf("within %d: %v", h, err)
		}
		check("within", within, naive(rows, "mean", h))
	}
}

func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
