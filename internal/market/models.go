// Package market implements the behavioral submodels and the iterative
// sealed-bid auction that together clear the housing market once a month:
// the asking-price estimator (4.E), the bid generator (4.F), the
// market-clearing engine (4.G), the participation model (4.H), and the
// annual supply generator (4.I).
package market

import (
	"housingmarket/internal/repo"
	"housingmarket/internal/worldstate"
)

// Category partitions sellers (and the buyers eligible to bid on them) by
// dwelling type and room count. |categories| = NumDwellingTypes *
// MaxBedrooms.
type Category struct {
	Type  worldstate.DwellingType
	Rooms int // clamped into [0, MaxBedrooms-1]
}

// ClampRooms clamps a raw room count into the categorization range.
func ClampRooms(rooms, maxBedrooms int) int {
	if rooms < 0 {
		return 0
	}
	if rooms > maxBedrooms-1 {
		return maxBedrooms - 1
	}
	return rooms
}

// SellerEntry is one dwelling currently offered for sale, carrying the
// asking price and minimum acceptable price computed for this tick.
type SellerEntry struct {
	DwellingID   repo.ID
	HouseholdID  repo.ID // owning household, for "sell-household's active dwelling" detachment
	Category     Category
	AskingPrice  float64
	MinimumPrice float64
}

// BuyerEntry is one household opted into the market as a buyer this tick.
type BuyerEntry struct {
	HouseholdID      repo.ID
	Persons          int
	DemandsMoreSpace bool
}

// Bid is a buyer's offer on a specific seller within a specific category.
// Comparison order: higher Amount first; ties broken by higher BuyerIndex —
// chosen, per the design notes, to make concurrent bid-list insertion and
// sorting race-free without an external lock on the comparison itself.
type Bid struct {
	Amount      float32
	SellerIndex int32
	BuyerIndex  int32
}

// Less reports whether a should sort ahead of b in a seller's bid list.
func (a Bid) Less(b Bid) bool {
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}
	return a.BuyerIndex > b.BuyerIndex
}

// Sale is one finalized transaction produced by the auction.
type Sale struct {
	BuyerIndex  int32
	SellerIndex int32
	DwellingID  repo.ID
	HouseholdID repo.ID // buying household
	Price       float64
}
