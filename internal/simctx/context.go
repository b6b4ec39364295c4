// Package simctx threads the simulation's shared, explicitly-constructed
// state to every component — the run's RNG root, currency converter,
// entity repositories, static zone data, configuration, sale ledger, and
// run ID — replacing the "implicit root module" ambient singleton the
// source relied on. Logging goes through the logger package directly.
package simctx

import (
	"housingmarket/internal/config"
	"housingmarket/internal/money"
	"housingmarket/internal/rng"
	"housingmarket/internal/worlddata"
	"housingmarket/internal/worldstate"
)

// Ledger is the append-only sale record sink a Context writes to. Defined
// here (rather than importing internal/store directly) so internal/store
// can depend on worldstate without an import cycle back to simctx.
type Ledger interface {
	Append(worldstate.SaleRecord) error
	RecentByType(dwellingType worldstate.DwellingType, fromMonth, toMonth int) ([]worldstate.SaleRecord, error)
}

// Context bundles every collaborator the market components need. It is
// built once per run and passed by pointer; no package in internal/market
// or internal/sim keeps package-level mutable state.
type Context struct {
	Config     *config.Config
	RNG        *rng.Root
	Currency   *money.Converter
	Repos      *worldstate.Repositories
	Zones      *worlddata.ZoneTables
	Ledger     Ledger
	RunID      string
	Now        money.Date
}

// New builds a Context from its collaborators. Now starts unset; the
// scheduler advances it at the start of each monthly tick.
func New(cfg *config.Config, repos *worldstate.Repositories, zones *worlddata.ZoneTables, currency *money.Converter, ledger Ledger, runID string) *Context {
	return &Context{
		Config:   cfg,
		RNG:      rng.NewRoot(cfg.RandomSeed),
		Currency: currency,
		Repos:    repos,
		Zones:    zones,
		Ledger:   ledger,
		RunID:    runID,
	}
}
