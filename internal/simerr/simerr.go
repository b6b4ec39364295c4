// Package simerr defines the typed error kinds the housing market core
// uses to distinguish recoverable conditions from fatal ones, per the
// propagation policy: some kinds abort the current monthly tick, others
// are swallowed by the caller and logged.
package simerr

import "fmt"

// Kind identifies one of the error conditions the core can raise.
type Kind int

const (
	// ConfigMissing means a required collaborator or config value was absent.
	ConfigMissing Kind = iota
	// MissingZoneData means a LandUse or FloatData lookup found nothing for a zone.
	MissingZoneData
	// MissingRate means a currency conversion needed a zero inflation rate.
	MissingRate
	// NotPositiveDefinite means the regression solver's normal matrix was not PD.
	NotPositiveDefinite
	// IndexOutOfRange means a buyer/seller/type index was outside its slice bounds.
	IndexOutOfRange
	// EmptyPopulation means dwellings or persons were empty at a yearly boundary.
	EmptyPopulation
	// Fatal covers any other unexpected state.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case ConfigMissing:
		return "ConfigMissing"
	case MissingZoneData:
		return "MissingZoneData"
	case MissingRate:
		return "MissingRate"
	case NotPositiveDefinite:
		return "NotPositiveDefinite"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case EmptyPopulation:
		return "EmptyPopulation"
	default:
		return "Fatal"
	}
}

// Error is the typed error carried through the core. It records which
// module raised it and the simulation date in effect at the time, so the
// user-visible failure line can identify module, kind, and (year, month)
// without the caller having to thread that context through every return.
type Error struct {
	Kind   Kind
	Module string
	Year   int
	Month  int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: (%d, %d): %v", e.Module, e.Kind, e.Year, e.Month, e.Err)
	}
	return fmt.Sprintf("%s: %s: (%d, %d)", e.Module, e.Kind, e.Year, e.Month)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error for the given module, date and kind.
func New(module string, year, month int, kind Kind, err error) *Error {
	return &Error{Kind: kind, Module: module, Year: year, Month: month, Err: err}
}

// IsFatal reports whether kind always aborts the current monthly tick per
// the propagation policy: MissingRate, IndexOutOfRange, ConfigMissing,
// EmptyPopulation and Fatal do. It returns false for NotPositiveDefinite and
// for MissingZoneData, whose effect depends on where it arises (the bidder
// returns it as an error that aborts the tick; SaleRecord construction
// substitutes zeros instead).
func IsFatal(kind Kind) bool {
	switch kind {
	case MissingRate, IndexOutOfRange, ConfigMissing, EmptyPopulation, Fatal:
		return true
	default:
		return false
	}
}
