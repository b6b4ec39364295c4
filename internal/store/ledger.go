// Package store persists the one artifact the core's Non-goals leave in
// scope: the append-only SaleRecord stream. It wraps SQLite the same way
// the teacher repo's internal/db package wraps its own flipper.db — WAL
// journal mode, a schema_version migration table, and a logger.Success
// line on open.
package store

import (
	"database/sql"
	"fmt"

	"housingmarket/internal/logger"
	"housingmarket/internal/worldstate"

	_ "modernc.org/sqlite"
)

// Ledger wraps a SQLite-backed, append-only sale_records table.
type Ledger struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*Ledger, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping db: %w", err)
	}
	l := &Ledger{sql: sqlDB}
	if err := l.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("store: migrate db: %w", err)
	}
	logger.Success("STORE", fmt.Sprintf("Opened %s", path))
	return l, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.sql.Close()
}

func (l *Ledger) migrate() error {
	version := 0
	l.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := l.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS sale_records (
				id                  INTEGER PRIMARY KEY AUTOINCREMENT,
				year                INTEGER NOT NULL,
				month               INTEGER NOT NULL,
				months_since_epoch  INTEGER NOT NULL,
				price               REAL NOT NULL,
				rooms               INTEGER NOT NULL,
				square_footage      REAL NOT NULL,
				zone                INTEGER NOT NULL,
				dist_subway         REAL NOT NULL,
				dist_regional       REAL NOT NULL,
				residential         REAL NOT NULL,
				commerce            REAL NOT NULL,
				dwelling_type       INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_sale_records_tick
				ON sale_records(dwelling_type, months_since_epoch);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("STORE", "Applied migration v1 (sale_records)")
	}
	return nil
}

// Append writes one sale record. Called once per finalized sale from the
// auction's serial resolution phase, so no additional locking is needed
// beyond *sql.DB's own connection pool.
func (l *Ledger) Append(rec worldstate.SaleRecord) error {
	_, err := l.sql.Exec(`
		INSERT INTO sale_records
			(year, month, months_since_epoch, price, rooms, square_footage, zone,
			 dist_subway, dist_regional, residential, commerce, dwelling_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Date.Year, rec.Date.Month, rec.Date.MonthsSinceEpoch(),
		rec.Price, rec.Rooms, rec.SquareFootage, rec.Zone,
		rec.DistSubway, rec.DistRegional, rec.Residential, rec.Commerce,
		int(rec.DwellingType),
	)
	if err != nil {
		return fmt.Errorf("store: append sale record: %w", err)
	}
	return nil
}

// RecentByType returns every sale record of the given dwelling type whose
// months-since-epoch falls in [fromMonth, toMonth), in insertion order —
// the exact window the estimator's monthly refit (component E) queries.
func (l *Ledger) RecentByType(dwellingType worldstate.DwellingType, fromMonth, toMonth int) ([]worldstate.SaleRecord, error) {
	rows, err := l.sql.Query(`
		SELECT year, month, price, rooms, square_footage, zone,
		       dist_subway, dist_regional, residential, commerce, dwelling_type
		FROM sale_records
		WHERE dwelling_type = ? AND months_since_epoch >= ? AND months_since_epoch < ?
		ORDER BY id ASC`, int(dwellingType), fromMonth, toMonth)
	if err != nil {
		return nil, fmt.Errorf("store: query recent sale records: %w", err)
	}
	defer rows.Close()

	var out []worldstate.SaleRecord
	for rows.Next() {
		var rec worldstate.SaleRecord
		var dt int
		if err := rows.Scan(&rec.Date.Year, &rec.Date.Month, &rec.Price, &rec.Rooms,
			&rec.SquareFootage, &rec.Zone, &rec.DistSubway, &rec.DistRegional,
			&rec.Residential, &rec.Commerce, &dt); err != nil {
			return nil, fmt.Errorf("store: scan sale record: %w", err)
		}
		rec.DwellingType = worldstate.DwellingType(dt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate sale records: %w", err)
	}
	return out, nil
}
