package clickhouse

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	v1 "github.com/aevon-lab/project-pulse/internal/api/v1"
	"github.com/aevon-lab/project-pulse/internal/core/analytics"
)

const (
	connectPingTimeout = 5 * time.Second

	// chUnknownTable is ClickHouse error code UNKNOWN_TABLE.
	chUnknownTable = 60

	// defaultAppendBlockRows keeps each insert well under the server's
	// max_insert_block_size (1048576 rows by default). Larger inserts are
	// split into several parts by the server and may be partly committed.
	defaultAppendBlockRows = 100_000
)

// Store is the append-only analytical copy of the events table.
// It performs no identity checks; callers must serialize writers.
type Store struct {
	db        *sql.DB
	blockRows int
}

// NewStore opens a ClickHouse connection pool through database/sql.
//
// Example DSN: "clickhouse://default:@localhost:9000/pulse?dial_timeout=5s"
//
// The events table is not created here; see EnsureSchema.
func NewStore(dsn string, maxOpenConns, maxIdleConns int, dialTimeout time.Duration) (*Store, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse clickhouse dsn: %w", err)
	}
	if dialTimeout > 0 {
		opts.DialTimeout = dialTimeout
	}
	opts.MaxOpenConns = maxOpenConns
	opts.MaxIdleConns = maxIdleConns
	opts.ConnMaxLifetime = 5 * time.Minute

	db := clickhouse.OpenDB(opts)

	slog.Info("[ClickHouse] Connection pool configured",
		"addr", opts.Addr,
		"database", opts.Auth.Database,
		"max_open_conns", maxOpenConns,
		"max_idle_conns", maxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return &Store{db: db, blockRows: defaultAppendBlockRows}, nil
}

// NewStoreWithDB wraps an already opened connection.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, blockRows: defaultAppendBlockRows}
}

// EnsureSchema creates the events table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, queryCreateEventsTable); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	slog.Info("[ClickHouse] Schema ensured")
	return nil
}

// Watermark returns max(occurred_at) over the stored rows, or analytics.Epoch when the
// table is empty. A missing table is reported as analytics.ErrSchemaMissing.
func (s *Store) Watermark(ctx context.Context) (time.Time, error) {
	var (
		rows      uint64
		watermark time.Time
	)
	err := s.db.QueryRowContext(ctx, queryWatermark).Scan(&rows, &watermark)
	if err != nil {
		return time.Time{}, wrapQueryErr("watermark", err)
	}
	if rows == 0 {
		return analytics.Epoch, nil
	}
	return watermark.UTC(), nil
}

// AppendEvents inserts events ordered by occurred_at. Each block of about
// blockRows events is sent on its own commit and lands whole or not at all.
// Blocks only break between distinct timestamps, so when a later block fails the
// table's max(occurred_at) still covers every event at that instant and the next
// watermark-based run resumes without gaps.
func (s *Store) AppendEvents(ctx context.Context, events []*v1.Event) error {
	if len(events) == 0 {
		return nil
	}

	blocks := splitBlocks(events, s.blockRows)
	for i, block := range blocks {
		if err := s.insertBlock(ctx, block); err != nil {
			if i > 0 {
				slog.Warn("[ClickHouse] Append stopped after partial commit",
					"committed_blocks", i,
					"total_blocks", len(blocks))
			}
			return err
		}
	}

	slog.Debug("[ClickHouse] Appended events", "count", len(events), "blocks", len(blocks))
	return nil
}

// insertBlock writes one block. The driver sends the rows on commit, so a
// failure before commit leaves the table untouched.
func (s *Store) insertBlock(ctx context.Context, events []*v1.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append events: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, queryInsertEvent)
	if err != nil {
		return wrapQueryErr("append events: prepare", err)
	}
	defer stmt.Close()

	for _, event := range events {
		properties, err := encodeProperties(event)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			event.UserID.String(),
			event.OccurredAt.UTC(),
			event.EventType,
			properties,
		); err != nil {
			return fmt.Errorf("append events: %s: %w", event.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append events: commit: %w", err)
	}
	return nil
}

// splitBlocks cuts events into runs of at least size events, extending a run
// while the next event shares the previous one's occurred_at.
func splitBlocks(events []*v1.Event, size int) [][]*v1.Event {
	if size <= 0 || len(events) <= size {
		return [][]*v1.Event{events}
	}

	var blocks [][]*v1.Event
	for start := 0; start < len(events); {
		end := start + size
		if end >= len(events) {
			blocks = append(blocks, events[start:])
			break
		}
		for end < len(events) && events[end].OccurredAt.Equal(events[end-1].OccurredAt) {
			end++
		}
		blocks = append(blocks, events[start:end])
		start = end
	}
	return blocks
}

// Ping reports whether the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying *sql.DB shared with the columnar backend.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close clickhouse: %w", err)
	}
	slog.Info("[ClickHouse] Store closed gracefully")
	return nil
}

// encodeProperties renders properties as the JSON text stored in the String column.
// Text read back from the event store is written unchanged. Missing properties are
// stored as "{}" so JSON functions always see an object.
func encodeProperties(event *v1.Event) (string, error) {
	if raw := bytes.TrimSpace(event.RawProperties); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		return string(raw), nil
	}
	if len(event.Properties) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(event.Properties)
	if err != nil {
		return "", fmt.Errorf("failed to marshal properties for %s: %w", event.EventID, err)
	}
	return string(data), nil
}

func isUnknownTable(err error) bool {
	var exc *clickhouse.Exception
	return errors.As(err, &exc) && exc.Code == chUnknownTable
}

func wrapQueryErr(query string, err error) error {
	if isUnknownTable(err) {
		return fmt.Errorf("%s: %w: %v", query, analytics.ErrSchemaMissing, err)
	}
	return fmt.Errorf("%s: %w", query, err)
}
