package sim

import (
	"testing"

	"housingmarket/internal/config"
	"housingmarket/internal/market"
	"housingmarket/internal/money"
	"housingmarket/internal/repo"
	"housingmarket/internal/simctx"
	"housingmarket/internal/worlddata"
	"housingmarket/internal/worldstate"
)

type fakeLedger struct {
	records []worldstate.SaleRecord
}

func (f *fakeLedger) Append(rec worldstate.SaleRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLedger) RecentByType(dwellingType worldstate.DwellingType, fromMonth, toMonth int) ([]worldstate.SaleRecord, error) {
	var out []worldstate.SaleRecord
	for _, r := range f.records {
		if r.DwellingType == dwellingType && r.Date.MonthsSinceEpoch() >= fromMonth && r.Date.MonthsSinceEpoch() < toMonth {
			out = append(out, r)
		}
	}
	return out, nil
}

func newSchedulerTestContext(t *testing.T, numHouseholds int) *simctx.Context {
	t.Helper()
	cfg := config.Default()
	cfg.NewDwellingsPerYear = 2
	repos := worldstate.NewRepositories()
	zones := worlddata.NewZoneTables(
		worldstate.NewZoneSystem([]int{0, 1, 2, 3, 4}),
		map[int]worldstate.LandUse{
			0: {Residential: 0.7, Commercial: 0.1, Open: 0.1, Industrial: 0.1},
			1: {Residential: 0.7, Commercial: 0.1, Open: 0.1, Industrial: 0.1},
		},
		map[int]worldstate.FloatData{0: 0.5, 1: 0.8},
		map[int]worldstate.FloatData{0: 1.0, 1: 1.2},
	)
	ctx := simctx.New(cfg, repos, zones, money.NewConverter(), &fakeLedger{}, "test-run")
	ctx.Now = money.Date{Year: 2024, Month: 0}

	for i := 0; i < numHouseholds; i++ {
		dwellingID := repos.Dwellings.AddNew(worldstate.Dwelling{
			Exists: true, Type: worldstate.Detached, Rooms: 3, Zone: i % 2,
			Value: money.New(200000, money.Date{Year: 2020, Month: 0}),
		})
		personID := repos.Persons.AddNew(worldstate.Person{
			Age: 40, Living: true,
			Jobs: []worldstate.Job{{Salary: money.New(60000, money.Date{Year: 2020, Month: 0})}},
		})
		famID := repos.Families.AddNew(worldstate.Family{PersonIDs: []repo.ID{personID}, LiquidAssets: 20000})
		houseID := repos.Households.AddNew(worldstate.Household{
			FamilyIDs: []repo.ID{famID}, Tenure: worldstate.Own, DwellingID: &dwellingID,
		})
		dwelling := repos.Dwellings.Get(dwellingID)
		dwelling.CurrentHousehold = &houseID
		repos.Dwellings.Set(dwellingID, dwelling)
	}
	return ctx
}

func TestRunRejectsEmptyPopulation(t *testing.T) {
	ctx := newSchedulerTestContext(t, 0)
	s := New()
	if err := s.Run(ctx, 2024, 1, nil); err == nil {
		t.Fatal("expected an error for an empty starting population")
	}
}

func TestRunSimulatesRequestedYearsAndInvokesHooks(t *testing.T) {
	ctx := newSchedulerTestContext(t, 20)
	s := New()

	var yearsSeen []int
	var monthlyCalls int
	s.BeforeYearlyExecute = func(_ *simctx.Context, year int) { yearsSeen = append(yearsSeen, year) }
	s.BeforeMonthlyExecute = func(_ *simctx.Context) { monthlyCalls++ }

	if err := s.Run(ctx, 2024, 2, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(yearsSeen) != 2 || yearsSeen[0] != 2024 || yearsSeen[1] != 2025 {
		t.Fatalf("yearsSeen = %v, want [2024 2025]", yearsSeen)
	}
	if monthlyCalls != 24 {
		t.Fatalf("monthlyCalls = %d, want 24", monthlyCalls)
	}
}

func TestRunHonorsStopAtMonthBoundary(t *testing.T) {
	ctx := newSchedulerTestContext(t, 10)
	s := New()
	stop := make(chan struct{})

	monthsRun := 0
	s.BeforeMonthlyExecute = func(_ *simctx.Context) {
		monthsRun++
		if monthsRun == 3 {
			close(stop)
		}
	}

	if err := s.Run(ctx, 2024, 5, stop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if monthsRun > 4 {
		t.Fatalf("scheduler ran %d months after stop was requested, expected to halt promptly", monthsRun)
	}
}

func TestCarryOverDropsBuyerAfterConsecutiveMisses(t *testing.T) {
	ctx := newSchedulerTestContext(t, 2)
	ctx.Config.ChoiceSetSize = 0 // no bids can ever be produced, so no buyer ever wins
	ctx.Config.CarryOverDropMonths = 2
	s := New()
	s.estimator = market.NewEstimator(ctx.Config.MonthlyTimeDecay)

	var firstHouseholdID repo.ID
	ctx.Repos.Households.Iter(func(id repo.ID, _ worldstate.Household) bool {
		firstHouseholdID = id
		return false
	})
	// Seed the carry set directly so the test is independent of the
	// participation logit's probabilistic opt-in.
	s.carryBuyers[firstHouseholdID] = &buyerCarry{entry: market.BuyerEntry{HouseholdID: firstHouseholdID, Persons: 1}}

	for month := 0; month < ctx.Config.CarryOverDropMonths; month++ {
		ctx.Now = money.Date{Year: 2024, Month: month}
		if _, err := s.runMonth(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, carried := s.carryBuyers[firstHouseholdID]; carried {
		t.Fatal("buyer should have been dropped after CarryOverDropMonths consecutive misses")
	}
}
