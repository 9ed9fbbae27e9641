package pricing

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"ecagent-hq/ecagent/pkg/engine"
)

// Contract summarises one contract's bids on a pay item.
type Contract struct {
	Contract     string  `json:"contract"`
	LettingDate  string  `json:"letting_date,omitempty"`
	District     string  `json:"district,omitempty"`
	Route        string  `json:"route,omitempty"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_unit_price"`
}

// ItemSummary is the price history of one pay item.
type ItemSummary struct {
	ItemNumber   string  `json:"item_number"`
	Description  string  `json:"description"`
	Bids         int     `json:"bids"`
	AveragePrice float64 `json:"average_unit_price"`
	MinPrice     float64 `json:"min_unit_price"`
	MaxPrice     float64 `json:"max_unit_price"`
}

// StoreConfig configures the bid history store.
type StoreConfig struct {
	// DBPath is the SQLite database file. ":memory:" keeps it in memory.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// LookupTimeout bounds UnitPrice queries issued by the engine.
	// Default: 2 seconds
	LookupTimeout time.Duration
}

// Store is a SQLite-backed bid history.
type Store struct {
	db            *sql.DB
	lookupTimeout time.Duration
	logger        *slog.Logger
	mu            sync.RWMutex
	closeOnce     sync.Once

	priceStmt *sql.Stmt
}

// Open opens or creates the bid history database.
func Open(cfg StoreConfig, logger *slog.Logger) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.LookupTimeout == 0 {
		cfg.LookupTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())
	if cfg.DBPath == ":memory:" {
		dsn = fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:            db,
		lookupTimeout: cfg.LookupTimeout,
		logger:        logger.With("component", "pricing"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.priceStmt, err = db.Prepare(`
		SELECT COUNT(*), COALESCE(AVG(unit_price), 0)
		FROM bids
		WHERE item_number = ? AND unit_price > 0
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare price statement: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bids (
		contract TEXT NOT NULL,
		item_number TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		quantity REAL NOT NULL DEFAULT 0,
		unit_price REAL NOT NULL DEFAULT 0,
		letting_date TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		route TEXT NOT NULL DEFAULT '',
		imported_at INTEGER NOT NULL,
		PRIMARY KEY (contract, item_number, description)
	);

	CREATE INDEX IF NOT EXISTS idx_bids_item ON bids(item_number);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Import upserts records in one transaction and returns how many were
// written. A later import of the same contract line replaces the earlier one.
func (s *Store) Import(ctx context.Context, records []Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bids (contract, item_number, description, quantity, unit_price, letting_date, district, route, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (contract, item_number, description) DO UPDATE SET
			quantity = excluded.quantity,
			unit_price = excluded.unit_price,
			letting_date = excluded.letting_date,
			district = excluded.district,
			route = excluded.route,
			imported_at = excluded.imported_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Contract, normalizeItem(r.ItemNumber), r.Description,
			r.Quantity, r.UnitPrice, r.LettingDate, r.District, r.Route, now,
		); err != nil {
			return 0, fmt.Errorf("failed to import contract %s item %s: %w", r.Contract, r.ItemNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	s.logger.Info("bid history imported", "records", len(records))
	return len(records), nil
}

// AveragePrice returns the mean positive unit price bid for item and the
// number of bids it is based on.
func (s *Store) AveragePrice(ctx context.Context, item string) (float64, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		count int
		avg   float64
	)
	if err := s.priceStmt.QueryRowContext(ctx, normalizeItem(item)).Scan(&count, &avg); err != nil {
		return 0, 0, fmt.Errorf("failed to query price for %s: %w", item, err)
	}
	return avg, count, nil
}

// UnitPrice implements engine.PriceSource.
func (s *Store) UnitPrice(item string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.lookupTimeout)
	defer cancel()

	avg, count, err := s.AveragePrice(ctx, item)
	if err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, nil
	}
	return avg, true, nil
}

// Contracts lists the contracts that bid on item, newest letting first.
func (s *Store) Contracts(ctx context.Context, item string) ([]Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT contract, MAX(letting_date), MAX(district), MAX(route),
			SUM(quantity), COALESCE(AVG(NULLIF(unit_price, 0)), 0)
		FROM bids
		WHERE item_number = ?
		GROUP BY contract
		ORDER BY MAX(letting_date) DESC, contract
	`, normalizeItem(item))
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var out []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(&c.Contract, &c.LettingDate, &c.District, &c.Route, &c.Quantity, &c.AveragePrice); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		c.AveragePrice = engine.Round2(c.AveragePrice)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Items summarises the price history of every pay item.
func (s *Store) Items(ctx context.Context) ([]ItemSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_number, MAX(description), COUNT(*),
			COALESCE(AVG(NULLIF(unit_price, 0)), 0),
			COALESCE(MIN(NULLIF(unit_price, 0)), 0),
			COALESCE(MAX(unit_price), 0)
		FROM bids
		GROUP BY item_number
		ORDER BY item_number
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var out []ItemSummary
	for rows.Next() {
		var it ItemSummary
		if err := rows.Scan(&it.ItemNumber, &it.Description, &it.Bids, &it.AveragePrice, &it.MinPrice, &it.MaxPrice); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		it.AveragePrice = engine.Round2(it.AveragePrice)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.priceStmt != nil {
			s.priceStmt.Close()
		}
		closeErr = s.db.Close()
	})
	return closeErr
}

// SelectContracts returns up to count candidates whose contract number is not
// in seen, preserving candidate order.
func SelectContracts(candidates []Contract, count int, seen []string) []Contract {
	skip := make(map[string]bool, len(seen))
	for _, c := range seen {
		if c = strings.TrimSpace(c); c != "" {
			skip[c] = true
		}
	}

	var out []Contract
	for _, c := range candidates {
		if len(out) >= count {
			break
		}
		if !skip[c.Contract] {
			out = append(out, c)
		}
	}
	return out
}

func normalizeItem(item string) string {
	return strings.ToUpper(strings.TrimSpace(item))
}

var _ engine.PriceSource = (*Store)(nil)
