// Package store records canonical events to sqlite and summarizes them.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"

	"globalinput/core"
	"globalinput/session"
)

type KeyCount struct {
	KeyCode int32 `json:"keyCode"`
	Count   int   `json:"count"`
}

type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

func InitDbStorage(db *sql.DB) error {
	for _, stmt := range []string{
		`create table if not exists events(
			kind text not null,
			type text,
			key_code int,
			is_down bool,
			button text,
			x int,
			y int,
			delta_y int,
			ts datetime)`,
		`create index if not exists events_tsix on events (ts ASC)`,
		`create index if not exists events_keyix on events (key_code) where kind = 'key'`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Open connects to the sqlite database at path, creating the schema if
// needed. ":memory:" gives a private in-memory database.
func Open(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one connection: writes are serialized and :memory: stays a single database
	db.SetMaxOpenConns(1)
	if err := InitDbStorage(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStorage{db: db, logger: logger.With("component", "store", "path", path)}, nil
}

const insertEvent = `insert into events(kind, type, key_code, is_down, button, x, y, delta_y, ts)
    values(?, ?, ?, ?, ?, ?, ?, ?, datetime('now', 'subsec'))`

func (s *SQLiteStorage) Store(ev core.Event) error {
	return s.StoreBatch([]core.Event{ev})
}

// StoreBatch records events in one transaction. Nothing is recorded if any
// of them fails.
func (s *SQLiteStorage) StoreBatch(events []core.Event) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()
	stmt, err := tx.Prepare(insertEvent)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		args, err := eventColumns(ev)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("store %s event: %w", ev.Kind(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func eventColumns(ev core.Event) ([]any, error) {
	var (
		typ, button     any
		keyCode, isDown any
		x, y, deltaY    any
	)
	switch e := ev.(type) {
	case core.KeyEvent:
		keyCode, isDown = e.KeyCode, e.IsDown
	case core.MouseButtonEvent:
		typ, button, x, y = string(e.Type), string(e.Button), e.X, e.Y
	case core.MouseMoveEvent:
		typ, x, y = string(core.MouseMove), e.X, e.Y
	case core.WheelEvent:
		deltaY = e.DeltaY
	default:
		return nil, fmt.Errorf("%w: cannot store %T", core.ErrInvalidRequest, ev)
	}
	return []any{string(ev.Kind()), typ, keyCode, isDown, button, x, y, deltaY}, nil
}

func (s *SQLiteStorage) CountByKind() (map[core.Kind]int, error) {
	rows, err := s.db.Query(`select kind, count(*) from events group by kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[core.Kind]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		result[core.Kind(kind)] = count
	}
	return result, rows.Err()
}

// TopKeys returns the most pressed key codes, most frequent first.
func (s *SQLiteStorage) TopKeys(limit int) ([]KeyCount, error) {
	rows, err := s.db.Query(
		`select key_code, count(*) as cnt
        from events
        where kind = 'key' and is_down = true
        group by key_code
        order by cnt desc, key_code
        limit ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]KeyCount, 0)
	for rows.Next() {
		var kc KeyCount
		if err := rows.Scan(&kc.KeyCode, &kc.Count); err != nil {
			return nil, err
		}
		result = append(result, kc)
	}
	return result, rows.Err()
}

// Recent returns up to limit of the latest events, oldest first.
func (s *SQLiteStorage) Recent(limit int) ([]core.Event, error) {
	rows, err := s.db.Query(
		`select kind, type, key_code, is_down, button, x, y, delta_y from (
            select rowid as rid, * from events order by rowid desc limit ?
        ) order by rid`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]core.Event, 0)
	for rows.Next() {
		var (
			kind              string
			typ, button       sql.NullString
			keyCode, x, y, dy sql.NullInt32
			isDown            sql.NullBool
		)
		if err := rows.Scan(&kind, &typ, &keyCode, &isDown, &button, &x, &y, &dy); err != nil {
			return nil, err
		}
		switch core.Kind(kind) {
		case core.KindKey:
			result = append(result, core.NewKeyEvent(keyCode.Int32, isDown.Bool))
		case core.KindWheel:
			result = append(result, core.NewWheelEvent(dy.Int32))
		case core.KindMouse:
			if core.MouseAction(typ.String) == core.MouseMove {
				result = append(result, core.NewMouseMoveEvent(x.Int32, y.Int32))
				continue
			}
			b, _ := core.ParseButton(button.String)
			result = append(result, core.NewMouseButtonEvent(core.MouseAction(typ.String), b, x.Int32, y.Int32))
		}
	}
	return result, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Tee returns a sink that records every event and hands it to next. next
// may be nil to only record. Recording happens on a separate goroutine in
// batches, so Send never waits on the database; events that do not fit in
// the queue are not recorded. Close flushes what is queued.
func (s *SQLiteStorage) Tee(next session.Sink) session.Sink {
	return newTeeSink(s, next, teeQueueSize)
}

const teeQueueSize = 4096

type teeSink struct {
	store *SQLiteStorage
	next  session.Sink
	batch int

	mu     sync.RWMutex
	closed bool
	queue  chan core.Event
	done   chan struct{}

	dropped atomic.Uint64
}

func newTeeSink(s *SQLiteStorage, next session.Sink, size int) *teeSink {
	t := &teeSink{
		store: s,
		next:  next,
		batch: size,
		queue: make(chan core.Event, size),
		done:  make(chan struct{}),
	}
	go t.record()
	return t
}

func (t *teeSink) Send(ev core.Event) error {
	t.enqueue(ev)
	if t.next != nil {
		return t.next.Send(ev)
	}
	return nil
}

func (t *teeSink) enqueue(ev core.Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- ev:
	default:
		t.dropped.Add(1)
	}
}

// record writes whatever is queued in one transaction per pass.
func (t *teeSink) record() {
	defer close(t.done)
	batch := make([]core.Event, 0, t.batch)
	for ev := range t.queue {
		batch = append(batch[:0], ev)
	drain:
		for len(batch) < t.batch {
			select {
			case ev, ok := <-t.queue:
				if !ok {
					break drain
				}
				batch = append(batch, ev)
			default:
				break drain
			}
		}
		if err := t.store.StoreBatch(batch); err != nil {
			t.store.logger.Warn("record failed", "events", len(batch), "err", err)
		}
	}
}

func (t *teeSink) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()

	<-t.done
	if n := t.dropped.Load(); n > 0 {
		t.store.logger.Warn("events not recorded, database too slow", "dropped", n)
	}
	if t.next == nil {
		return nil
	}
	return t.next.Close()
}
