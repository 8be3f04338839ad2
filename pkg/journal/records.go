package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/wilhg/redux/internal/ent/migrate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	actionColumns   = []string{"id", "stream", "seq", "type", "payload", "created_at"}
	snapshotColumns = []string{"id", "stream", "upto_seq", "state", "created_at"}
)

func (j *Journal) span(ctx context.Context, name, stream string) (context.Context, trace.Span) {
	return j.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("journal.stream", stream),
		attribute.String("db.system", j.dialect),
	))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Append stores r under the next sequence of its stream and returns the
// stored record. An empty ID is replaced with a random UUID. Appending an ID
// that already exists returns the existing record unchanged.
func (j *Journal) Append(ctx context.Context, r Record) (Record, error) {
	ctx, span := j.span(ctx, "journal.Append", r.Stream)
	defer span.End()
	if r.Stream == "" || r.Type == "" {
		return Record{}, fail(span, errors.New("journal: record needs a stream and a type"))
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if len(r.Payload) > 0 && !json.Valid(r.Payload) {
		return Record{}, fail(span, fmt.Errorf("journal: invalid payload json for %s", r.Type))
	}

	j.appendMu.Lock()
	defer j.appendMu.Unlock()

	if existing, err := j.Get(ctx, r.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Record{}, fail(span, err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fail(span, fmt.Errorf("journal: begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	last, err := lastSeq(ctx, tx, j.dialect, r.Stream)
	if err != nil {
		return Record{}, fail(span, err)
	}
	r.Seq = last + 1
	r.CreatedAt = time.Now().UTC()

	query, args := entsql.Dialect(j.dialect).
		Insert(migrate.ActionsTable.Name).
		Columns(actionColumns...).
		Values(r.ID, r.Stream, r.Seq, r.Type, nullBytes(r.Payload), r.CreatedAt).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return Record{}, fail(span, fmt.Errorf("journal: insert action: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fail(span, fmt.Errorf("journal: commit: %w", err))
	}
	span.SetAttributes(attribute.Int64("journal.seq", r.Seq))
	return r, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func lastSeq(ctx context.Context, q querier, dia, stream string) (int64, error) {
	sel := entsql.Dialect(dia).
		Select("seq").
		From(entsql.Table(migrate.ActionsTable.Name)).
		Where(entsql.EQ("stream", stream))
	query, args := sel.OrderBy(entsql.Desc(sel.C("seq"))).Limit(1).Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("journal: last seq: %w", err)
	}
	defer rows.Close()
	var seq int64
	if rows.Next() {
		if err := rows.Scan(&seq); err != nil {
			return 0, fmt.Errorf("journal: last seq: %w", err)
		}
	}
	return seq, rows.Err()
}

// LastSeq returns the highest sequence of stream, or 0 for an empty stream.
func (j *Journal) LastSeq(ctx context.Context, stream string) (int64, error) {
	return lastSeq(ctx, j.db, j.dialect, stream)
}

// List returns the records of stream with a sequence above afterSeq, in
// order. A limit of zero or less means no limit.
func (j *Journal) List(ctx context.Context, stream string, afterSeq int64, limit int) ([]Record, error) {
	ctx, span := j.span(ctx, "journal.List", stream)
	defer span.End()
	sel := entsql.Dialect(j.dialect).
		Select(actionColumns...).
		From(entsql.Table(migrate.ActionsTable.Name)).
		Where(entsql.And(entsql.EQ("stream", stream), entsql.GT("seq", afterSeq))).
		OrderBy("seq")
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fail(span, fmt.Errorf("journal: list: %w", err))
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fail(span, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(span, err)
	}
	return out, nil
}

// Get looks up a record by ID. It returns ErrNotFound when none exists.
func (j *Journal) Get(ctx context.Context, id string) (Record, error) {
	query, args := entsql.Dialect(j.dialect).
		Select(actionColumns...).
		From(entsql.Table(migrate.ActionsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Record{}, fmt.Errorf("journal: get: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, ErrNotFound
	}
	return scanRecord(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		r       Record
		payload []byte
		created any
	)
	if err := s.Scan(&r.ID, &r.Stream, &r.Seq, &r.Type, &payload, &created); err != nil {
		return Record{}, fmt.Errorf("journal: scan action: %w", err)
	}
	if len(payload) > 0 {
		r.Payload = json.RawMessage(payload)
	}
	t, err := asTime(created)
	if err != nil {
		return Record{}, err
	}
	r.CreatedAt = t
	return r, nil
}

// SaveSnapshot stores s. An empty ID is replaced with a random UUID.
// Snapshots are unique per (stream, upto_seq).
func (j *Journal) SaveSnapshot(ctx context.Context, s Snapshot) (Snapshot, error) {
	ctx, span := j.span(ctx, "journal.SaveSnapshot", s.Stream)
	defer span.End()
	if s.Stream == "" {
		return Snapshot{}, fail(span, errors.New("journal: snapshot needs a stream"))
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if len(s.State) > 0 && !json.Valid(s.State) {
		return Snapshot{}, fail(span, errors.New("journal: invalid state json"))
	}
	s.CreatedAt = time.Now().UTC()
	query, args := entsql.Dialect(j.dialect).
		Insert(migrate.SnapshotsTable.Name).
		Columns(snapshotColumns...).
		Values(s.ID, s.Stream, s.UptoSeq, nullBytes(s.State), s.CreatedAt).
		Query()
	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return Snapshot{}, fail(span, fmt.Errorf("journal: insert snapshot: %w", err))
	}
	span.SetAttributes(attribute.Int64("journal.upto_seq", s.UptoSeq))
	return s, nil
}

// LoadLatestSnapshot returns the snapshot of stream with the highest
// UptoSeq, or ErrNotFound.
func (j *Journal) LoadLatestSnapshot(ctx context.Context, stream string) (Snapshot, error) {
	sel := entsql.Dialect(j.dialect).
		Select(snapshotColumns...).
		From(entsql.Table(migrate.SnapshotsTable.Name)).
		Where(entsql.EQ("stream", stream))
	query, args := sel.OrderBy(entsql.Desc(sel.C("upto_seq"))).Limit(1).Query()
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Snapshot{}, fmt.Errorf("journal: load snapshot: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Snapshot{}, err
		}
		return Snapshot{}, ErrNotFound
	}
	var (
		s       Snapshot
		state   []byte
		created any
	)
	if err := rows.Scan(&s.ID, &s.Stream, &s.UptoSeq, &state, &created); err != nil {
		return Snapshot{}, fmt.Errorf("journal: scan snapshot: %w", err)
	}
	if len(state) > 0 {
		s.State = json.RawMessage(state)
	}
	if s.CreatedAt, err = asTime(created); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

// asTime normalizes driver time values: pgx returns time.Time, SQLite may
// return text.
func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	case int64:
		return time.Unix(t, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("journal: unexpected time value %T", v)
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("journal: unparseable time %q", s)
}
