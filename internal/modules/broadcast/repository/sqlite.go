package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	apperrors "github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/samber/oops"

	_ "modernc.org/sqlite"
)

const recordColumns = `id, channel_id, channel_name, target_mode, target_count, message_count,
	blocks, status, created_at, sent_at, scheduled_for, error, quota_exceeded`

// SQLite persists records so history and pending schedules survive restarts.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, oops.With("db_path", dbPath, "context", "failed to create db directory").Wrap(err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, oops.With("db_path", dbPath, "context", "failed to open database").Wrap(err)
	}
	// A single writer avoids SQLITE_BUSY between timer goroutines.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS dispatch_records (
			id TEXT PRIMARY KEY,
			channel_id TEXT NOT NULL,
			channel_name TEXT NOT NULL DEFAULT '',
			target_mode TEXT NOT NULL,
			target_count INTEGER NOT NULL DEFAULT 0,
			message_count INTEGER NOT NULL DEFAULT 0,
			blocks TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			sent_at INTEGER,
			scheduled_for INTEGER,
			error TEXT NOT NULL DEFAULT '',
			quota_exceeded INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, oops.With("context", "failed to create table").Wrap(err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_dispatch_records_created_at ON dispatch_records(created_at)`)
	if err != nil {
		db.Close()
		return nil, oops.With("context", "failed to create index").Wrap(err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Create(ctx context.Context, record *domain.Record) error {
	blocks, err := json.Marshal(record.Blocks)
	if err != nil {
		return oops.With("record_id", record.ID).Wrap(err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dispatch_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.ChannelID,
		record.ChannelName,
		string(record.TargetMode),
		record.TargetCount,
		record.MessageCount,
		string(blocks),
		string(record.Status),
		record.CreatedAt.UnixMilli(),
		nullTime(record.SentAt),
		nullTime(record.ScheduledFor),
		record.Error,
		record.QuotaExceeded,
	)
	if err != nil {
		return oops.With("record_id", record.ID, "context", "failed to insert record").Wrap(err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, record *domain.Record) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE dispatch_records
		SET target_count = ?, status = ?, sent_at = ?, error = ?, quota_exceeded = ?
		WHERE id = ?
	`,
		record.TargetCount,
		string(record.Status),
		nullTime(record.SentAt),
		record.Error,
		record.QuotaExceeded,
		record.ID,
	)
	if err != nil {
		return oops.With("record_id", record.ID, "context", "failed to update record").Wrap(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return oops.With("record_id", record.ID).Wrap(apperrors.ErrRecordNotFound)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM dispatch_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.With("record_id", id).Wrap(apperrors.ErrRecordNotFound)
	}
	if err != nil {
		return nil, oops.With("record_id", id, "context", "failed to query record").Wrap(err)
	}
	return record, nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]*domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM dispatch_records ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

func (s *SQLite) Pending(ctx context.Context) ([]*domain.Record, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM dispatch_records WHERE status = ? ORDER BY created_at`,
		string(domain.StatusScheduled))
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) query(ctx context.Context, query string, args ...any) ([]*domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, oops.With("context", "failed to list records").Wrap(err)
	}
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, oops.With("context", "failed to scan record").Wrap(err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.Record, error) {
	var (
		r                    domain.Record
		mode, status, blocks string
		createdAt            int64
		sentAt, scheduledFor sql.NullInt64
	)
	err := row.Scan(&r.ID, &r.ChannelID, &r.ChannelName, &mode, &r.TargetCount, &r.MessageCount,
		&blocks, &status, &createdAt, &sentAt, &scheduledFor, &r.Error, &r.QuotaExceeded)
	if err != nil {
		return nil, err
	}

	r.TargetMode = domain.TargetMode(mode)
	r.Status = domain.Status(status)
	r.CreatedAt = time.UnixMilli(createdAt)
	r.SentAt = fromNullTime(sentAt)
	r.ScheduledFor = fromNullTime(scheduledFor)

	var decoded []ruleDomain.ContentBlock
	if err := json.Unmarshal([]byte(blocks), &decoded); err != nil {
		return nil, oops.With("record_id", r.ID, "context", "corrupt blocks column").Wrap(err)
	}
	if len(decoded) > 0 {
		r.Blocks = decoded
	}
	return &r, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}
