package theatre_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
	"pgregory.net/rapid"
)

func TestNormalizePerformanceDates(t *testing.T) {
	got, err := theatre.NormalizePerformanceDates([]string{"2024-06-02", " 2024-06-01 ,2024-06-02", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-01", "2024-06-02"}, got)

	_, err = theatre.NormalizePerformanceDates([]string{"2024-06-01", "2024-13-01"})
	assert.ErrorIs(t, err, theatre.ErrInvalidInput)

	var verr *theatre.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "performance_dates", verr.Field)
}

func genDate() *rapid.Generator[string] {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	return rapid.Custom(func(t *rapid.T) string {
		days := rapid.IntRange(0, 5000).Draw(t, "days")
		return start.AddDate(0, 0, days).Format(theatre.DateLayout)
	})
}

func TestNormalizePerformanceDates_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dates := rapid.SliceOf(genDate()).Draw(t, "dates")

		got, err := theatre.NormalizePerformanceDates(dates)
		if err != nil {
			t.Fatalf("valid dates rejected: %v", err)
		}
		if !slices.IsSorted(got) {
			t.Fatalf("not sorted: %v", got)
		}
		if len(slices.Compact(slices.Clone(got))) != len(got) {
			t.Fatalf("duplicates: %v", got)
		}
		for _, d := range dates {
			if !slices.Contains(got, d) {
				t.Fatalf("lost %s", d)
			}
		}
	})
}

// Projected dates are ascending and unique regardless of authoring order.
func TestProjectedDates_Property(t *testing.T) {
	env := setupTestService(t)
	ctx := editorCtx()

	rapid.Check(t, func(rt *rapid.T) {
		dates := rapid.SliceOfN(genDate(), 0, 12).Draw(rt, "dates")

		p, err := env.svc.CreateProduction(ctx, theatre.CreateProductionRequest{
			Title:            "Property",
			PerformanceDates: dates,
		})
		if err != nil {
			rt.Fatalf("create: %v", err)
		}
		view, err := env.svc.ProjectProduction(ctx, p.ID)
		if err != nil {
			rt.Fatalf("project: %v", err)
		}

		want := slices.Clone(dates)
		slices.Sort(want)
		want = slices.Compact(want)
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(want, view.PerformanceDates) {
			rt.Fatalf("got %v, want %v", view.PerformanceDates, want)
		}
	})
}

func TestProjectedDates_LenientRead(t *testing.T) {
	env := setupTestService(t)
	ctx := editorCtx()

	p, err := env.svc.CreateProduction(ctx, theatre.CreateProductionRequest{Title: "Legacy"})
	require.NoError(t, err)
	require.NoError(t, env.repo.SetMeta(context.Background(), p.ID, theatre.MetaPerformanceDates, "2024-02-01, garbage,2024-01-01,2024-02-01"))

	view, err := env.svc.ProjectProduction(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-02-01"}, view.PerformanceDates)
}
