package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"globalinput/blocklist"
	"globalinput/core"
	"globalinput/listener"
	"globalinput/session"
	"globalinput/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *store.SQLiteStorage {
	t.Helper()
	s, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAndSummarize(t *testing.T) {
	s := openMemory(t)

	counts, err := s.CountByKind()
	require.NoError(t, err)
	assert.Empty(t, counts)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Store(core.NewKeyEvent(30, true)))
		require.NoError(t, s.Store(core.NewKeyEvent(30, false)))
	}
	require.NoError(t, s.Store(core.NewKeyEvent(44, true)))
	require.NoError(t, s.Store(core.NewMouseMoveEvent(1, 2)))
	require.NoError(t, s.Store(core.NewMouseButtonEvent(core.MouseDown, core.ButtonMiddle, 3, 4)))
	require.NoError(t, s.Store(core.NewWheelEvent(-1)))

	counts, err = s.CountByKind()
	require.NoError(t, err)
	assert.Equal(t, map[core.Kind]int{core.KindKey: 7, core.KindMouse: 2, core.KindWheel: 1}, counts)

	top, err := s.TopKeys(5)
	require.NoError(t, err)
	assert.Equal(t, []store.KeyCount{{KeyCode: 30, Count: 3}, {KeyCode: 44, Count: 1}}, top)

	recent, err := s.Recent(3)
	require.NoError(t, err)
	assert.Equal(t, []core.Event{
		core.NewMouseMoveEvent(1, 2),
		core.NewMouseButtonEvent(core.MouseDown, core.ButtonMiddle, 3, 4),
		core.NewWheelEvent(-1),
	}, recent)
}

func TestFileDatabaseReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := store.Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Store(core.NewKeyEvent(1, true)))
	require.NoError(t, s.Close())

	s, err = store.Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	counts, err := s.CountByKind()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[core.KindKey])
}

type failingSink struct{ closed bool }

func (f *failingSink) Send(core.Event) error { return errors.New("gone") }
func (f *failingSink) Close() error          { f.closed = true; return nil }

func TestTeeRecordsSessionEvents(t *testing.T) {
	s := openMemory(t)
	src := listener.NewSimulated()
	blocks := blocklist.New()
	ctrl := session.New(listener.New(src, blocks, nil), blocks, session.Options{})

	next := &failingSink{}
	require.NoError(t, ctrl.Subscribe(context.Background(), s.Tee(next)))
	src.Inject(core.NewKeyEvent(5, true))
	src.Inject(core.NewWheelEvent(1))
	require.NoError(t, ctrl.Unsubscribe())

	assert.True(t, next.closed)
	counts, err := s.CountByKind()
	require.NoError(t, err)
	assert.Equal(t, map[core.Kind]int{core.KindKey: 1, core.KindWheel: 1}, counts)
	// the downstream failure is reported, so nothing counts as delivered
	assert.Equal(t, uint64(0), ctrl.Delivered())
}

func TestTeeWithoutNext(t *testing.T) {
	s := openMemory(t)
	sink := s.Tee(nil)
	require.NoError(t, sink.Send(core.NewMouseMoveEvent(0, 0)))
	require.NoError(t, sink.Close())
}
