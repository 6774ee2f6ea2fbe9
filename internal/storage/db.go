package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"pricescout/internal"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	price REAL NOT NULL,
	query TEXT NOT NULL,
	product_type TEXT NOT NULL,
	market_avg REAL NOT NULL,
	market_min REAL NOT NULL,
	market_max REAL NOT NULL,
	data_points INTEGER NOT NULL,
	deal_score INTEGER NOT NULL,
	deal_rating TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	result_json TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS emails (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider TEXT NOT NULL,
	message_id TEXT NOT NULL,
	subject TEXT,
	sender TEXT,
	received_at TEXT,
	hash TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	raw_ref TEXT,
	UNIQUE(provider, message_id)
);

CREATE INDEX IF NOT EXISTS idx_emails_status ON emails(status);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store wraps the sqlite database holding analysis history and ingested
// alert emails.
type Store struct {
	db           *sql.DB
	historyLimit int
}

func Open(dbPath string, historyLimit int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, historyLimit: historyLimit}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnalysis inserts one history row and trims the table back down to
// the configured limit, newest rows kept.
func (s *Store) SaveAnalysis(analysis internal.Analysis) error {
	blob, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO analyses (
			title, price, query, product_type,
			market_avg, market_min, market_max, data_points,
			deal_score, deal_rating, recommendation, result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		analysis.Product.Title,
		analysis.Product.Price,
		analysis.Prices.Query,
		string(analysis.Prices.Descriptor.ProductType),
		analysis.Prices.OccasionPrice.Avg,
		analysis.Prices.OccasionPrice.Min,
		analysis.Prices.OccasionPrice.Max,
		analysis.Prices.OccasionPrice.Count,
		analysis.Profitability.DealScore,
		analysis.Profitability.DealRating,
		analysis.Profitability.Recommendation,
		string(blob),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	if s.historyLimit > 0 {
		_, err = s.db.Exec(`
			DELETE FROM analyses
			WHERE id NOT IN (SELECT id FROM analyses ORDER BY id DESC LIMIT ?)`,
			s.historyLimit,
		)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

// ListAnalyses returns history rows newest first. limit <= 0 means all.
func (s *Store) ListAnalyses(limit int) ([]internal.AnalysisRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, title, price, query, product_type,
		       market_avg, market_min, market_max, data_points,
		       deal_score, deal_rating, recommendation, result_json, created_at
		FROM analyses ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := []internal.AnalysisRow{}
	for rows.Next() {
		var r internal.AnalysisRow
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Price, &r.Query, &r.ProductType,
			&r.MarketAvg, &r.MarketMin, &r.MarketMax, &r.DataPoints,
			&r.DealScore, &r.DealRating, &r.Recommendation, &r.ResultJSON, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ClearAnalyses() error {
	_, err := s.db.Exec(`DELETE FROM analyses`)
	return err
}

func (s *Store) Stats() (internal.HistoryStats, error) {
	var stats internal.HistoryStats

	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(deal_score), 0), COALESCE(MAX(created_at), '')
		FROM analyses`).Scan(&stats.TotalAnalyses, &stats.AvgDealScore, &stats.LastAnalyzedAt)
	if err != nil {
		return stats, fmt.Errorf("history stats: %w", err)
	}
	if stats.TotalAnalyses == 0 {
		return stats, nil
	}

	err = s.db.QueryRow(`
		SELECT deal_score, title FROM analyses
		ORDER BY deal_score DESC, id DESC LIMIT 1`).Scan(&stats.BestDealScore, &stats.BestDealTitle)
	if err != nil && err != sql.ErrNoRows {
		return stats, fmt.Errorf("best deal: %w", err)
	}
	return stats, nil
}

// UpsertEmail records a fetched message once per (provider, message id).
// Re-fetching an already known message leaves its status untouched.
func (s *Store) UpsertEmail(row internal.EmailRow) error {
	_, err := s.db.Exec(`
		INSERT INTO emails (provider, message_id, subject, sender, received_at, hash, status, raw_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, message_id) DO NOTHING`,
		row.Provider, row.MessageID, row.Subject, row.Sender,
		row.ReceivedAt, row.Hash, row.Status, row.RawRef,
	)
	if err != nil {
		return fmt.Errorf("upsert email: %w", err)
	}
	return nil
}

func (s *Store) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	row := s.db.QueryRow(`
		SELECT id, provider, message_id, subject, sender, received_at, hash, status, raw_ref
		FROM emails WHERE provider = ? AND message_id = ?`, provider, messageID)

	var r internal.EmailRow
	err := row.Scan(&r.ID, &r.Provider, &r.MessageID, &r.Subject, &r.Sender,
		&r.ReceivedAt, &r.Hash, &r.Status, &r.RawRef)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get email: %w", err)
	}
	return &r, nil
}

func (s *Store) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, provider, message_id, subject, sender, received_at, hash, status, raw_ref
		FROM emails WHERE status = ? ORDER BY id ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	out := []internal.EmailRow{}
	for rows.Next() {
		var r internal.EmailRow
		if err := rows.Scan(&r.ID, &r.Provider, &r.MessageID, &r.Subject, &r.Sender,
			&r.ReceivedAt, &r.Hash, &r.Status, &r.RawRef); err != nil {
			return nil, fmt.Errorf("scan email row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateEmailStatus(id int, status string) error {
	_, err := s.db.Exec(`UPDATE emails SET status = ? WHERE id = ?`, status, id)
	return err
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return value, nil
}
