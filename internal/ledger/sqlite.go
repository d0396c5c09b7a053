package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/assist-by/rebalancer/internal/domain"
)

// SQLiteStore는 원장 레코드를 SQLite 테이블에 저장합니다
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite는 SQLite 원장을 열고 스키마를 생성합니다
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("원장 DB 디렉토리 생성 실패: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("원장 DB 열기 실패: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS trades (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  ts           TEXT    NOT NULL,
  action       TEXT    NOT NULL,
  symbol       TEXT    NOT NULL,
  contracts    INTEGER NOT NULL,
  limit_price  REAL,
  filled_price REAL,
  order_id     TEXT    NOT NULL DEFAULT '',
  slippage     REAL,
  status       TEXT    NOT NULL,
  error        TEXT    NOT NULL DEFAULT ''
);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("원장 DB 마이그레이션 실패: %w", err)
		}
	}
	return nil
}

// Record는 레코드를 한 행으로 저장합니다
func (s *SQLiteStore) Record(ctx context.Context, rec domain.LedgerRecord) error {
	var limit, slippage sql.NullFloat64
	if rec.HasLimit {
		limit = sql.NullFloat64{Float64: rec.LimitPrice, Valid: true}
		slippage = sql.NullFloat64{Float64: rec.Slippage, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO trades (ts, action, symbol, contracts, limit_price, filled_price, order_id, slippage, status, error)
VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)`,
		rec.Time.Format(time.RFC3339Nano),
		string(rec.Action),
		rec.Symbol,
		rec.Contracts,
		limit,
		rec.OrderID,
		slippage,
		string(rec.Status),
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("원장 DB 기록 실패: %w", err)
	}
	return nil
}

// Records는 시간 순서로 저장된 레코드를 반환합니다
func (s *SQLiteStore) Records(ctx context.Context) ([]domain.LedgerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT ts, action, symbol, contracts, limit_price, order_id, slippage, status, error
FROM trades ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("원장 DB 조회 실패: %w", err)
	}
	defer rows.Close()

	var out []domain.LedgerRecord
	for rows.Next() {
		var (
			ts       string
			action   string
			status   string
			limit    sql.NullFloat64
			slippage sql.NullFloat64
			rec      domain.LedgerRecord
		)
		if err := rows.Scan(&ts, &action, &rec.Symbol, &rec.Contracts, &limit, &rec.OrderID, &slippage, &status, &rec.Error); err != nil {
			return nil, fmt.Errorf("원장 DB 행 읽기 실패: %w", err)
		}
		rec.Time, _ = time.Parse(time.RFC3339Nano, ts)
		rec.Action = domain.Action(action)
		rec.Status = domain.LedgerStatus(status)
		if limit.Valid {
			rec.HasLimit = true
			rec.LimitPrice = limit.Float64
			rec.Slippage = slippage.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close는 DB를 닫습니다
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
