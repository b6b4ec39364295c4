package market

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"housingmarket/internal/logger"
	"housingmarket/internal/money"
	"housingmarket/internal/rng"
	"housingmarket/internal/simctx"
	"housingmarket/internal/simerr"
	"housingmarket/internal/worldstate"
)

// win is one seller a buyer currently holds the top bid on, pending
// resolution.
type win struct {
	sellerIndex int32
	secondPrice float32
}

// sellerBidList is a seller's pending bids plus the mutex guarding it
// during the parallel phases.
type sellerBidList struct {
	mu      sync.Mutex
	bids    []Bid
	seller  SellerEntry
}

// Engine runs the monthly choice-set construction and iterative auction
// described in the market-clearing component.
type Engine struct {
	bidder *Bidder
}

// NewEngine builds an Engine.
func NewEngine() *Engine {
	return &Engine{bidder: NewBidder()}
}

// Clear runs one month's full clear: choice-set construction, the
// iterative auction, and sale finalization. Returns the sales made this
// month in the order they were resolved.
func (e *Engine) Clear(ctx *simctx.Context, buyers []BuyerEntry, sellers []SellerEntry) ([]Sale, error) {
	categories := groupSellersByCategory(sellers)
	lists := make([]*sellerBidList, len(sellers))
	for i, s := range sellers {
		lists[i] = &sellerBidList{seller: s}
	}

	if err := e.buildChoiceSets(ctx, buyers, sellers, categories, lists); err != nil {
		return nil, err
	}

	parallelFor(len(lists), func(i int) {
		list := lists[i]
		sort.Slice(list.bids, func(a, b int) bool { return list.bids[a].Less(list.bids[b]) })
	})

	return e.runIterativeAuction(ctx, buyers, sellers, lists)
}

func groupSellersByCategory(sellers []SellerEntry) map[Category][]int32 {
	out := make(map[Category][]int32)
	for i, s := range sellers {
		out[s.Category] = append(out[s.Category], int32(i))
	}
	return out
}

// buildChoiceSets is Phase 1: each buyer independently bids on up to
// ChoiceSetSize sellers per eligible category.
func (e *Engine) buildChoiceSets(ctx *simctx.Context, buyers []BuyerEntry, sellers []SellerEntry, categories map[Category][]int32, lists []*sellerBidList) error {
	choiceSetSize := ctx.Config.ChoiceSetSize
	maxBedrooms := ctx.Config.MaxBedrooms
	monthRoot := ctx.RNG.PerMonth(ctx.Now.Year, ctx.Now.Month)

	// Substreams are derived serially, in buyer order, before the parallel
	// fan-out below, so the sequence each buyer draws from is independent of
	// goroutine scheduling.
	substreams := make([]*rng.Substream, len(buyers))
	for i := range buyers {
		substreams[i] = monthRoot.Child()
	}

	var firstErr error
	var errMu sync.Mutex
	recordErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	parallelFor(len(buyers), func(bi int) {
		buyer := buyers[bi]
		household, ok := ctx.Repos.Households.TryGet(buyer.HouseholdID)
		if !ok {
			recordErr(simerr.New("market.Engine", ctx.Now.Year, ctx.Now.Month, simerr.IndexOutOfRange, nil))
			return
		}
		sub := substreams[bi]
		roomLo, roomHi := eligibleRooms(buyer.Persons, buyer.DemandsMoreSpace, maxBedrooms)

		for t := 0; t < worldstate.NumDwellingTypes; t++ {
			for _, rooms := range []int{roomLo, roomHi} {
				cat := Category{Type: worldstate.DwellingType(t), Rooms: rooms}
				candidates := categories[cat]
				if len(candidates) < choiceSetSize {
					for _, sellerIdx := range candidates {
						if err := e.bidOn(ctx, household, int32(bi), sellerIdx, sellers, lists); err != nil {
							recordErr(err)
							return
						}
					}
					break
				}
				accepted := 0
				attempts := 0
				for accepted < choiceSetSize && attempts < 2*choiceSetSize {
					attempts++
					sellerIdx := candidates[sub.Intn(len(candidates))]
					ok, err := e.tryBid(ctx, household, int32(bi), sellerIdx, sellers, lists)
					if err != nil {
						recordErr(err)
						return
					}
					if ok {
						accepted++
					}
				}
			}
		}
	})

	return firstErr
}

// eligibleRooms returns the two room values (clamped) a buyer may bid on
// for any dwelling type.
func eligibleRooms(persons int, demandsMoreSpace bool, maxBedrooms int) (lo, hi int) {
	if demandsMoreSpace {
		return ClampRooms(persons, maxBedrooms), ClampRooms(persons+1, maxBedrooms)
	}
	return ClampRooms(persons-1, maxBedrooms), ClampRooms(persons, maxBedrooms)
}

// bidOn unconditionally submits a bid (used for the "fewer sellers than
// ChoiceSetSize" exhaustive case).
func (e *Engine) bidOn(ctx *simctx.Context, buyer worldstate.Household, buyerIdx, sellerIdx int32, sellers []SellerEntry, lists []*sellerBidList) error {
	if int(sellerIdx) < 0 || int(sellerIdx) >= len(sellers) {
		return simerr.New("market.Engine", ctx.Now.Year, ctx.Now.Month, simerr.IndexOutOfRange, nil)
	}
	seller := sellers[sellerIdx]
	dwelling, ok := ctx.Repos.Dwellings.TryGet(seller.DwellingID)
	if !ok {
		return simerr.New("market.Engine", ctx.Now.Year, ctx.Now.Month, simerr.IndexOutOfRange, nil)
	}
	amount, err := e.bidder.GetPrice(ctx, buyer, dwelling, seller.AskingPrice)
	if err != nil {
		return err
	}
	list := lists[sellerIdx]
	list.mu.Lock()
	list.bids = append(list.bids, Bid{Amount: float32(amount), SellerIndex: sellerIdx, BuyerIndex: buyerIdx})
	list.mu.Unlock()
	return nil
}

// tryBid submits a bid only if it clears the seller's minimum price.
func (e *Engine) tryBid(ctx *simctx.Context, buyer worldstate.Household, buyerIdx, sellerIdx int32, sellers []SellerEntry, lists []*sellerBidList) (bool, error) {
	if int(sellerIdx) < 0 || int(sellerIdx) >= len(sellers) {
		return false, simerr.New("market.Engine", ctx.Now.Year, ctx.Now.Month, simerr.IndexOutOfRange, nil)
	}
	seller := sellers[sellerIdx]
	dwelling, ok := ctx.Repos.Dwellings.TryGet(seller.DwellingID)
	if !ok {
		return false, simerr.New("market.Engine", ctx.Now.Year, ctx.Now.Month, simerr.IndexOutOfRange, nil)
	}
	amount, err := e.bidder.GetPrice(ctx, buyer, dwelling, seller.AskingPrice)
	if err != nil {
		return false, err
	}
	if amount < seller.MinimumPrice {
		return false, nil
	}
	list := lists[sellerIdx]
	list.mu.Lock()
	list.bids = append(list.bids, Bid{Amount: float32(amount), SellerIndex: sellerIdx, BuyerIndex: buyerIdx})
	list.mu.Unlock()
	return true, nil
}

// runIterativeAuction is Phase 2.
func (e *Engine) runIterativeAuction(ctx *simctx.Context, buyers []BuyerEntry, sellers []SellerEntry, lists []*sellerBidList) ([]Sale, error) {
	wins := make([][]win, len(buyers))
	winMus := make([]sync.Mutex, len(buyers))
	var sales []Sale

	// Fixed iteration order over types: group seller indices by type once.
	byType := make([][]int32, worldstate.NumDwellingTypes)
	for i, l := range lists {
		byType[l.seller.Category.Type] = append(byType[l.seller.Category.Type], int32(i))
	}

	for round := 0; round < ctx.Config.MaxIterations; round++ {
		anyWin := false
		var winMu sync.Mutex

		for t := 0; t < worldstate.NumDwellingTypes; t++ {
			sellerIdxs := byType[t]
			parallelFor(len(sellerIdxs), func(k int) {
				idx := sellerIdxs[k]
				list := lists[idx]
				list.mu.Lock()
				if len(list.bids) == 0 {
					list.mu.Unlock()
					return
				}
				top := list.bids[0]
				second := top.Amount
				if len(list.bids) > 1 {
					second = list.bids[1].Amount
				}
				list.mu.Unlock()

				if int(top.BuyerIndex) < 0 || int(top.BuyerIndex) >= len(buyers) {
					return
				}
				winMus[top.BuyerIndex].Lock()
				wins[top.BuyerIndex] = append(wins[top.BuyerIndex], win{sellerIndex: idx, secondPrice: second})
				winMus[top.BuyerIndex].Unlock()

				winMu.Lock()
				anyWin = true
				winMu.Unlock()
			})
		}

		if !anyWin {
			break
		}

		resolvedBuyers := make(map[int32]bool)
		for bi := range buyers {
			buyerWins := wins[bi]
			if len(buyerWins) == 0 {
				continue
			}
			best := buyerWins[0]
			for _, w := range buyerWins[1:] {
				if w.secondPrice > best.secondPrice ||
					(w.secondPrice == best.secondPrice && w.sellerIndex > best.sellerIndex) {
					best = w
				}
			}

			sale, err := e.finalizeSale(ctx, int32(bi), best.sellerIndex, best.secondPrice, buyers, sellers)
			if err != nil {
				return sales, err
			}
			sales = append(sales, sale)
			resolvedBuyers[int32(bi)] = true

			lists[best.sellerIndex].mu.Lock()
			lists[best.sellerIndex].bids = nil
			lists[best.sellerIndex].mu.Unlock()

			wins[bi] = nil
		}

		parallelFor(len(lists), func(i int) {
			list := lists[i]
			list.mu.Lock()
			if len(list.bids) == 0 {
				list.mu.Unlock()
				return
			}
			filtered := list.bids[:0]
			for _, b := range list.bids {
				if !resolvedBuyers[b.BuyerIndex] {
					filtered = append(filtered, b)
				}
			}
			list.bids = filtered
			list.mu.Unlock()
		})
	}

	return sales, nil
}

func (e *Engine) finalizeSale(ctx *simctx.Context, buyerIdx, sellerIdx int32, price float32, buyers []BuyerEntry, sellers []SellerEntry) (Sale, error) {
	if int(buyerIdx) < 0 || int(buyerIdx) >= len(buyers) || int(sellerIdx) < 0 || int(sellerIdx) >= len(sellers) {
		return Sale{}, simerr.New("market.Engine", ctx.Now.Year, ctx.Now.Month, simerr.IndexOutOfRange, nil)
	}
	buyerEntry := buyers[buyerIdx]
	sellerEntry := sellers[sellerIdx]

	dwelling, ok := ctx.Repos.Dwellings.TryGet(sellerEntry.DwellingID)
	if !ok {
		return Sale{}, simerr.New("market.Engine", ctx.Now.Year, ctx.Now.Month, simerr.IndexOutOfRange, nil)
	}
	buyerHousehold, ok := ctx.Repos.Households.TryGet(buyerEntry.HouseholdID)
	if !ok {
		return Sale{}, simerr.New("market.Engine", ctx.Now.Year, ctx.Now.Month, simerr.IndexOutOfRange, nil)
	}

	if sellerHousehold, ok := ctx.Repos.Households.TryGet(sellerEntry.HouseholdID); ok {
		if sellerHousehold.DwellingID != nil && *sellerHousehold.DwellingID == sellerEntry.DwellingID {
			sellerHousehold.DwellingID = nil
			ctx.Repos.Households.Set(sellerEntry.HouseholdID, sellerHousehold)
		}
	}

	dwellingID := sellerEntry.DwellingID
	dwelling.CurrentHousehold = &buyerEntry.HouseholdID
	dwelling.Value = money.New(price, ctx.Now)
	dwelling.ListingDate = nil
	ctx.Repos.Dwellings.Set(dwellingID, dwelling)

	buyerHousehold.DwellingID = &dwellingID
	ctx.Repos.Households.Set(buyerEntry.HouseholdID, buyerHousehold)

	rec := buildSaleRecord(ctx, dwelling, float64(price))
	if err := ctx.Ledger.Append(rec); err != nil {
		logger.Warn("MARKET", fmt.Sprintf("append sale record: %v", err))
	}

	logger.Info("MARKET", fmt.Sprintf("sale: dwelling=%v buyer=%v price=%.0f", dwellingID, buyerEntry.HouseholdID, price))

	return Sale{
		BuyerIndex:  buyerIdx,
		SellerIndex: sellerIdx,
		DwellingID:  dwellingID,
		HouseholdID: buyerEntry.HouseholdID,
		Price:       float64(price),
	}, nil
}

func buildSaleRecord(ctx *simctx.Context, d worldstate.Dwelling, price float64) worldstate.SaleRecord {
	var distSubway, distRegional, residential, commerce float64
	if ctx.Zones != nil && ctx.Zones.HasLandUse(d.Zone) {
		lu := ctx.Zones.LandUse(d.Zone)
		residential = lu.Residential
		commerce = lu.Commercial
		distSubway = ctx.Zones.DistSubway(d.Zone)
		distRegional = ctx.Zones.DistRegional(d.Zone)
	}
	return worldstate.SaleRecord{
		Date:          ctx.Now,
		Price:         price,
		Rooms:         d.Rooms,
		SquareFootage: d.SquareFootage,
		Zone:          d.Zone,
		DistSubway:    distSubway,
		DistRegional:  distRegional,
		Residential:   residential,
		Commerce:      commerce,
		DwellingType:  d.Type,
	}
}

// parallelFor runs worker(i) for i in [0,n) across a bounded pool of
// goroutines, blocking until every call completes.
func parallelFor(n int, worker func(i int)) {
	if n == 0 {
		return
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			worker(i)
		}()
	}
	wg.Wait()
}
