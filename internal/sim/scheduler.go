// Package sim drives the monthly and yearly lifecycle of the housing
// market core: once-a-year supply generation and a yearly summary, and
// once-a-month participation, estimation, and clearing — the scheduler
// loop component, grounded on the teacher's main.go run-loop shape
// (initialize collaborators, run, honor a signal-driven shutdown at the
// next safe boundary).
package sim

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"housingmarket/internal/logger"
	"housingmarket/internal/market"
	"housingmarket/internal/money"
	"housingmarket/internal/repo"
	"housingmarket/internal/simctx"
	"housingmarket/internal/simerr"
	"housingmarket/internal/worldstate"
)

// YearSummary is the line the scheduler emits at the end of every
// simulated year.
type YearSummary struct {
	Year                  int
	DwellingsSold         int
	HouseholdsRemaining   int
	DwellingsRemaining    int
	AverageSalePrice      float64
	AveragePersonalIncome float64
}

// buyerCarry tracks an opted-in buyer across months: it keeps shopping
// until it wins a sale or misses CarryOverDropMonths consecutive months.
type buyerCarry struct {
	entry  market.BuyerEntry
	misses int
}

// sellerCarry tracks a listed dwelling across months the same way.
type sellerCarry struct {
	dwellingID  repo.ID
	householdID repo.ID
	misses      int
}

// Scheduler drives BeforeFirstYear once, then BeforeYearlyExecute ->
// supply -> 12 monthly ticks -> AfterYearlyExecute for each simulated
// year. Monthly ticks run BeforeMonthlyExecute -> estimator refit ->
// participation -> auction clear -> AfterMonthlyExecute, the last of
// which drops carried buyers/sellers that have gone unmatched for
// Config.CarryOverDropMonths consecutive months.
type Scheduler struct {
	estimator     *market.Estimator
	engine        *market.Engine
	participation *market.Participation
	supply        *market.SupplyGenerator

	carryBuyers  map[repo.ID]*buyerCarry
	carrySellers map[repo.ID]*sellerCarry

	// Optional lifecycle hooks. Nil fields are no-ops; callers wire in
	// demographic/job-growth collaborators (out of the core's scope) by
	// setting these before calling Run.
	BeforeFirstYear      func(ctx *simctx.Context)
	BeforeYearlyExecute  func(ctx *simctx.Context, year int)
	AfterYearlyExecute   func(ctx *simctx.Context, summary YearSummary)
	BeforeMonthlyExecute func(ctx *simctx.Context)
	AfterMonthlyExecute  func(ctx *simctx.Context)
}

// New builds a Scheduler with fresh component instances.
func New() *Scheduler {
	return &Scheduler{
		estimator:     market.NewEstimator(0), // decay overridden from Config in Run
		engine:        market.NewEngine(),
		participation: market.NewParticipation(),
		supply:        market.NewSupplyGenerator(),
		carryBuyers:   make(map[repo.ID]*buyerCarry),
		carrySellers:  make(map[repo.ID]*sellerCarry),
	}
}

// Run simulates numYears years starting at startYear. stop, if non-nil, is
// checked at each monthly boundary; a closed/signalled stop channel ends
// the run after the in-flight month finishes, never mid-tick.
func (s *Scheduler) Run(ctx *simctx.Context, startYear, numYears int, stop <-chan struct{}) error {
	s.estimator = market.NewEstimator(ctx.Config.MonthlyTimeDecay)

	if ctx.Repos.Dwellings.Len() == 0 || ctx.Repos.Persons.Len() == 0 {
		return simerr.New("sim.Scheduler", startYear, 0, simerr.EmptyPopulation, nil)
	}

	if s.BeforeFirstYear != nil {
		s.BeforeFirstYear(ctx)
	}

	for y := 0; y < numYears; y++ {
		year := startYear + y
		if err := s.runYear(ctx, year, stop); err != nil {
			return err
		}
		select {
		case <-stopOrNever(stop):
			return nil
		default:
		}
	}
	return nil
}

func stopOrNever(stop <-chan struct{}) <-chan struct{} {
	if stop == nil {
		return nil
	}
	return stop
}

func (s *Scheduler) runYear(ctx *simctx.Context, year int, stop <-chan struct{}) error {
	if ctx.Repos.Dwellings.Len() == 0 || ctx.Repos.Persons.Len() == 0 {
		return simerr.New("sim.Scheduler", year, 0, simerr.EmptyPopulation, nil)
	}

	if s.BeforeYearlyExecute != nil {
		s.BeforeYearlyExecute(ctx, year)
	}

	built := s.supply.GenerateYearly(ctx, year)
	logger.Info("SCHEDULER", fmt.Sprintf("year %d: supply generator built %d dwellings", year, built))

	dwellingsSold := 0
	var totalSalePrice float64

	for month := 0; month < 12; month++ {
		ctx.Now = money.Date{Year: year, Month: month}

		if stop != nil {
			select {
			case <-stop:
				logger.Info("SCHEDULER", fmt.Sprintf("shutdown requested; stopping at (%d, %d)", year, month))
				return nil
			default:
			}
		}

		sales, err := s.runMonth(ctx)
		if err != nil {
			return fmt.Errorf("sim: month (%d, %d): %w", year, month, err)
		}
		dwellingsSold += len(sales)
		for _, sale := range sales {
			totalSalePrice += sale.Price
		}
	}

	avgPrice := 0.0
	if dwellingsSold > 0 {
		avgPrice = totalSalePrice / float64(dwellingsSold)
	}

	summary := YearSummary{
		Year:                  year,
		DwellingsSold:         dwellingsSold,
		HouseholdsRemaining:   ctx.Repos.Households.Len(),
		DwellingsRemaining:    ctx.Repos.Dwellings.Len(),
		AverageSalePrice:      avgPrice,
		AveragePersonalIncome: averagePersonalIncome(ctx),
	}
	s.logYearSummary(summary)

	if s.AfterYearlyExecute != nil {
		s.AfterYearlyExecute(ctx, summary)
	}
	return nil
}

func (s *Scheduler) runMonth(ctx *simctx.Context) ([]market.Sale, error) {
	if s.BeforeMonthlyExecute != nil {
		s.BeforeMonthlyExecute(ctx)
	}

	// Phases (i) and (ii): buyer opt-in and asking-price computation run
	// concurrently, joined by a single-count barrier before choice-set
	// construction (phase iii, inside engine.Clear) begins — the teacher's
	// scanner.go wg.Add(2)/two-goroutine shape, reused verbatim. Neither
	// side writes to shared repositories during the barrier, so the two
	// goroutines touch disjoint state: participation only reads, and the
	// seller-pricing goroutine only reads the carry set as it stood at the
	// start of the month.
	var newBuyers []market.BuyerEntry
	var autoSellers []repo.ID
	sellers := make([]market.SellerEntry, 0, len(s.carrySellers))
	sellerCategoryByDwelling := make(map[repo.ID]market.Category, len(s.carrySellers))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		newBuyers, autoSellers = s.participation.MonthlyTick(ctx)
	}()
	go func() {
		defer wg.Done()
		s.estimator.MonthlyTick(ctx)
		for did, c := range s.carrySellers {
			d, ok := ctx.Repos.Dwellings.TryGet(did)
			if !ok || !d.Exists || d.ListingDate == nil {
				continue
			}
			ask, minBid := s.estimator.GetPrice(ctx, d)
			cat := market.Category{Type: d.Type, Rooms: market.ClampRooms(d.Rooms, ctx.Config.MaxBedrooms)}
			sellerCategoryByDwelling[did] = cat
			sellers = append(sellers, market.SellerEntry{
				DwellingID:   did,
				HouseholdID:  c.householdID,
				Category:     cat,
				AskingPrice:  ask,
				MinimumPrice: minBid,
			})
		}
	}()
	wg.Wait()

	for _, b := range newBuyers {
		if existing, ok := s.carryBuyers[b.HouseholdID]; ok {
			// Opting in again refreshes the entry but does not reset the
			// consecutive-miss count: only a sale clears a carried buyer.
			existing.entry = b
		} else {
			s.carryBuyers[b.HouseholdID] = &buyerCarry{entry: b}
		}
	}
	for _, did := range autoSellers {
		if _, carried := s.carrySellers[did]; carried {
			continue
		}
		d, ok := ctx.Repos.Dwellings.TryGet(did)
		if !ok || d.ListingDate != nil {
			continue
		}
		now := ctx.Now
		d.ListingDate = &now
		ctx.Repos.Dwellings.Set(did, d)
		if d.CurrentHousehold == nil {
			continue
		}
		s.carrySellers[did] = &sellerCarry{dwellingID: did, householdID: *d.CurrentHousehold}

		// Price this newly-listed dwelling immediately so it is sellable
		// the same month it is enqueued, rather than waiting for next
		// month's concurrent seller-pricing pass above.
		ask, minBid := s.estimator.GetPrice(ctx, d)
		cat := market.Category{Type: d.Type, Rooms: market.ClampRooms(d.Rooms, ctx.Config.MaxBedrooms)}
		sellerCategoryByDwelling[did] = cat
		sellers = append(sellers, market.SellerEntry{
			DwellingID:   did,
			HouseholdID:  *d.CurrentHousehold,
			Category:     cat,
			AskingPrice:  ask,
			MinimumPrice: minBid,
		})
	}

	buyers := make([]market.BuyerEntry, 0, len(s.carryBuyers))
	for _, c := range s.carryBuyers {
		buyers = append(buyers, c.entry)
	}

	sales, err := s.engine.Clear(ctx, buyers, sellers)
	if err != nil {
		return sales, err
	}

	sold := make(map[repo.ID]bool, len(sales))
	soldDwellings := make(map[repo.ID]bool, len(sales))
	for _, sale := range sales {
		sold[sale.HouseholdID] = true
		soldDwellings[sale.DwellingID] = true
	}

	for id, c := range s.carryBuyers {
		if sold[id] {
			delete(s.carryBuyers, id)
			continue
		}
		c.misses++
		if c.misses >= ctx.Config.CarryOverDropMonths {
			delete(s.carryBuyers, id)
		}
	}
	for did, c := range s.carrySellers {
		if soldDwellings[did] {
			delete(s.carrySellers, did)
			continue
		}
		c.misses++
		if c.misses >= ctx.Config.CarryOverDropMonths {
			delete(s.carrySellers, did)
			if d, ok := ctx.Repos.Dwellings.TryGet(did); ok {
				d.ListingDate = nil
				ctx.Repos.Dwellings.Set(did, d)
			}
		}
	}

	if s.AfterMonthlyExecute != nil {
		s.AfterMonthlyExecute(ctx)
	}
	return sales, nil
}

func (s *Scheduler) logYearSummary(sum YearSummary) {
	logger.Section(fmt.Sprintf("Year %d summary", sum.Year))
	logger.Stats("Dwellings sold", sum.DwellingsSold)
	logger.Stats("Households remaining", sum.HouseholdsRemaining)
	logger.Stats("Dwellings remaining", sum.DwellingsRemaining)
	logger.Stats("Avg sale price", humanize.Commaf(sum.AverageSalePrice))
	logger.Stats("Avg personal income", humanize.Commaf(sum.AveragePersonalIncome))
}

func averagePersonalIncome(ctx *simctx.Context) float64 {
	total := 0.0
	count := 0
	ctx.Repos.Persons.Iter(func(_ repo.ID, p worldstate.Person) bool {
		count++
		for _, job := range p.Jobs {
			converted, err := ctx.Currency.Convert(job.Salary, ctx.Now)
			if err != nil {
				continue
			}
			total += float64(converted.Amount)
		}
		return true
	})
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
