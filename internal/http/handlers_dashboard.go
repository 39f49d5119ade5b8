package http

import (
	"net/http"
	"sort"
	"time"

	"habitual/internal/auth"
	"habitual/internal/core"
	"habitual/internal/storage"
)

const (
	recentEntryCount = 10
	chartDays        = 30
	projectionMonths = 12
)

type periodTotalsView struct {
	Daily   string `json:"daily"`
	Weekly  string `json:"weekly"`
	Monthly string `json:"monthly"`
	Yearly  string `json:"yearly"`
}

func toPeriodTotalsView(t core.PeriodTotals) periodTotalsView {
	return periodTotalsView{
		Daily:   t.Daily.String(),
		Weekly:  t.Weekly.String(),
		Monthly: t.Monthly.String(),
		Yearly:  t.Yearly.String(),
	}
}

type timeCostView struct {
	Hours     float64 `json:"hours"`
	Formatted string  `json:"formatted"`
}

type projectionView struct {
	Linear          string `json:"linear"`
	WithGrowth      string `json:"withGrowth"`
	OpportunityCost string `json:"opportunityCost,omitempty"`
}

type chartPointView struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type categoryBreakdownView struct {
	Category string `json:"category"`
	Color    string `json:"color"`
	Amount   string `json:"amount"`
}

type dashboardResponse struct {
	GeneratedAt    time.Time               `json:"generatedAt"`
	Totals         periodTotalsView        `json:"totals"`
	PreviousTotals periodTotalsView        `json:"previousTotals"`
	MonthlyTrend   core.Trend              `json:"monthlyTrend"`
	TimeCost       *timeCostView           `json:"timeCost,omitempty"`
	Projection     projectionView          `json:"projection"`
	Chart          []chartPointView        `json:"chart"`
	Categories     []categoryBreakdownView `json:"categories"`
	Goals          []goalView              `json:"goals"`
	RecentEntries  []entryView             `json:"recentEntries"`
	HabitCount     int                     `json:"habitCount"`
	EntryCount     int                     `json:"entryCount"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if cached, ok := s.dashboardCache.Get(user.ID); ok {
		s.metrics.cacheHits.Add(1)
		writeJSON(w, http.StatusOK, cached)
		return
	}
	s.metrics.cacheMisses.Add(1)

	resp, err := s.buildDashboard(r, user, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.dashboardCache.Set(user.ID, resp)
	writeJSON(w, http.StatusOK, resp)
}

// buildDashboard assembles the full overview from a single now so that every
// window and projection agrees on the reference instant.
func (s *Server) buildDashboard(r *http.Request, user core.User, now time.Time) (dashboardResponse, error) {
	ctx := r.Context()

	// One query covers the current and the previous instance of every window.
	since := time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, now.Location())
	entries, err := s.repo.ListEntries(ctx, user.ID, storage.EntryFilter{Since: since})
	if err != nil {
		return dashboardResponse{}, err
	}

	totals := core.Sums(entries, now)
	previous := previousTotals(entries, now)

	resp := dashboardResponse{
		GeneratedAt:    now,
		Totals:         toPeriodTotalsView(totals),
		PreviousTotals: toPeriodTotalsView(previous),
		MonthlyTrend:   core.TrendOf(totals.Monthly, previous.Monthly),
		Chart:          chartSeries(entries, now),
	}

	if user.HourlyWage.Cents > 0 {
		hours := core.TimeCost(totals.Monthly, user.HourlyWage)
		resp.TimeCost = &timeCostView{
			Hours:     hours,
			Formatted: core.FormatTimeCost(hours),
		}
	}

	linear := core.ProjectLinear(totals.Monthly, projectionMonths)
	withGrowth, err := core.ProjectWithGrowth(totals.Monthly, projectionMonths, core.DefaultAnnualReturn)
	if err != nil {
		return dashboardResponse{}, err
	}
	resp.Projection = projectionView{
		Linear:     linear.String(),
		WithGrowth: withGrowth.String(),
	}
	if label, ok := core.OpportunityCost(withGrowth); ok {
		resp.Projection.OpportunityCost = label
	}

	habits, err := s.repo.ListHabits(ctx, user.ID, true)
	if err != nil {
		return dashboardResponse{}, err
	}
	resp.Categories = categoryBreakdown(habits, entries, now)

	goals, err := s.repo.ListActiveGoals(ctx, user.ID)
	if err != nil {
		return dashboardResponse{}, err
	}
	resp.Goals = toGoalViews(goals)

	recent := entries
	if len(recent) > recentEntryCount {
		recent = recent[:recentEntryCount]
	}
	resp.RecentEntries = toEntryViews(recent)

	resp.HabitCount, err = s.repo.CountActiveHabits(ctx, user.ID)
	if err != nil {
		return dashboardResponse{}, err
	}
	resp.EntryCount, err = s.repo.CountEntries(ctx, user.ID)
	if err != nil {
		return dashboardResponse{}, err
	}
	return resp, nil
}

// previousTotals sums entries over the window immediately preceding each of
// the current calendar windows.
func previousTotals(entries []core.Entry, now time.Time) core.PeriodTotals {
	loc := now.Location()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
	monthStart := core.MonthStart(now)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)

	return core.PeriodTotals{
		Daily:   windowSum(entries, dayStart.AddDate(0, 0, -1), dayStart),
		Weekly:  windowSum(entries, weekStart.AddDate(0, 0, -7), weekStart),
		Monthly: windowSum(entries, monthStart.AddDate(0, -1, 0), monthStart),
		Yearly:  windowSum(entries, yearStart.AddDate(-1, 0, 0), yearStart),
	}
}

func windowSum(entries []core.Entry, from, to time.Time) core.Money {
	var sum core.Money
	for _, e := range entries {
		if !e.Date.Before(from) && e.Date.Before(to) {
			sum.Cents += e.Amount.Cents
		}
	}
	return sum
}

// chartSeries buckets the last 30 days into per-day totals, oldest first.
// Days without spending appear as explicit zeros.
func chartSeries(entries []core.Entry, now time.Time) []chartPointView {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -(chartDays - 1))

	byDay := make(map[string]int64, chartDays)
	for _, e := range entries {
		d := e.Date.In(loc)
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
		if day.Before(start) || day.After(today) {
			continue
		}
		byDay[day.Format("2006-01-02")] += e.Amount.Cents
	}

	series := make([]chartPointView, 0, chartDays)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		series = append(series, chartPointView{
			Date:   key,
			Amount: core.Money{Cents: byDay[key]}.String(),
		})
	}
	return series
}

// categoryBreakdown sums the current month's spend per habit category.
func categoryBreakdown(habits []core.Habit, entries []core.Entry, now time.Time) []categoryBreakdownView {
	categoryByHabit := make(map[string]core.Category, len(habits))
	for _, h := range habits {
		categoryByHabit[h.ID] = h.Category
	}

	monthStart := core.MonthStart(now)
	byCategory := make(map[core.Category]int64)
	for _, e := range entries {
		if e.Date.Before(monthStart) {
			continue
		}
		category, ok := categoryByHabit[e.HabitID]
		if !ok {
			category = core.CategoryOther
		}
		byCategory[category] += e.Amount.Cents
	}

	breakdown := make([]categoryBreakdownView, 0, len(byCategory))
	for category, cents := range byCategory {
		breakdown = append(breakdown, categoryBreakdownView{
			Category: string(category),
			Color:    core.CategoryColors[category],
			Amount:   core.Money{Cents: cents}.String(),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Category < breakdown[j].Category
	})
	return breakdown
}
