package listener_test

import (
	"context"
	"errors"
	"testing"

	"globalinput/blocklist"
	"globalinput/core"
	"globalinput/listener"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name        string
		primaryErr  error
		wantPrimary bool
		wantErr     error
	}{
		{name: "primary attaches", wantPrimary: true},
		{name: "permission denied", primaryErr: core.ErrPermissionDenied},
		{name: "not available", primaryErr: core.ErrNotAvailable},
		{name: "other errors are returned", primaryErr: errors.New("boom"), wantErr: core.ErrAttach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary, secondary := listener.NewSimulated(), listener.NewSimulated()
			primary.AttachErr = tt.primaryErr
			src := listener.NewFallback(primary, secondary, nil)
			l := listener.New(src, blocklist.New(), nil)
			rec := &recorder{}

			err := l.Start(context.Background(), rec.emit)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, src.Active())
				assert.False(t, secondary.Attached())
				return
			}
			require.NoError(t, err)

			used := secondary
			if tt.wantPrimary {
				used = primary
			}
			assert.Same(t, used, src.Active())
			_, delivered := used.Inject(core.NewKeyEvent(65, true))
			assert.True(t, delivered)
			assert.Equal(t, []core.Event{core.NewKeyEvent(65, true)}, rec.all())

			require.NoError(t, l.Stop())
			assert.Nil(t, src.Active())
			assert.False(t, used.Attached())
		})
	}
}

func TestFallbackBothFail(t *testing.T) {
	primary, secondary := listener.NewSimulated(), listener.NewSimulated()
	primary.AttachErr = core.ErrPermissionDenied
	secondary.AttachErr = core.ErrNotAvailable
	src := listener.NewFallback(primary, secondary, nil)

	err := src.Attach(context.Background(), func(core.Event) bool { return false })
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrPermissionDenied))
	assert.True(t, errors.Is(err, core.ErrNotAvailable))
	assert.Nil(t, src.Active())
}
