package bus

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_AllSubscribersReceiveInOrder(t *testing.T) {
	tx := New(16)
	defer tx.Close()

	const subscribers = 4
	rxs := make([]*Receiver, subscribers)
	for i := range rxs {
		rxs[i] = tx.Subscribe()
	}

	for i := range 10 {
		require.NoError(t, tx.Send(PlaybackSeek{Fraction: float32(i) / 10}))
	}

	ctx := context.Background()
	for i, rx := range rxs {
		for want := range 10 {
			msg, err := rx.Recv(ctx)
			require.NoError(t, err, "receiver %d", i)
			seek, ok := msg.(PlaybackSeek)
			require.True(t, ok, "receiver %d got %T", i, msg)
			assert.InDelta(t, float32(want)/10, seek.Fraction, 1e-6)
		}
		_, ok, err := rx.TryRecv()
		assert.False(t, ok, "receiver %d saw a duplicate", i)
		assert.NoError(t, err)
	}
}

func TestSubscribe_OnlySeesLaterMessages(t *testing.T) {
	tx := New(16)
	defer tx.Close()

	early := tx.Subscribe()
	require.NoError(t, tx.Send(PlaybackPlay{}))

	late := tx.Subscribe()
	require.NoError(t, tx.Send(PlaybackPause{}))

	msg, err := late.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PlaybackPause{}, msg)

	msg, err = early.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PlaybackPlay{}, msg)
}

func TestSend_NoReceivers(t *testing.T) {
	tx := New(4)
	defer tx.Close()

	err := tx.Send(PlaybackPlay{})
	assert.ErrorIs(t, err, ErrNoReceivers)

	rx := tx.Subscribe()
	assert.NoError(t, tx.Send(PlaybackPlay{}))
	rx.Close()
	assert.ErrorIs(t, tx.Send(PlaybackPlay{}), ErrNoReceivers)
}

func TestRecv_LaggedReportsSkippedAndContinues(t *testing.T) {
	tx := New(4)
	defer tx.Close()
	rx := tx.Subscribe()

	for i := range 10 {
		require.NoError(t, tx.Send(PlaybackProgress{ElapsedMS: uint64(i)}))
	}

	_, err := rx.Recv(context.Background())
	skipped, ok := IsLagged(err)
	require.True(t, ok, "want LaggedError, got %v", err)
	assert.Equal(t, uint64(6), skipped)

	// The receiver resumes at the oldest retained message.
	for want := uint64(6); want < 10; want++ {
		msg, err := rx.Recv(context.Background())
		require.NoError(t, err)
		assert.Equal(t, PlaybackProgress{ElapsedMS: want}, msg)
	}
}

func TestRecv_LagIsPerReceiver(t *testing.T) {
	tx := New(2)
	defer tx.Close()
	fast := tx.Subscribe()
	slow := tx.Subscribe()

	for i := range 3 {
		require.NoError(t, tx.Send(PlaybackProgress{ElapsedMS: uint64(i)}))
		msg, err := fast.Recv(context.Background())
		require.NoError(t, err)
		assert.Equal(t, PlaybackProgress{ElapsedMS: uint64(i)}, msg)
	}

	_, err := slow.Recv(context.Background())
	skipped, ok := IsLagged(err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), skipped)
}

func TestClose_LastSenderClosesBus(t *testing.T) {
	tx := New(8)
	rx := tx.Subscribe()
	clone := tx.Clone()

	require.NoError(t, clone.Send(PlaybackStop{}))
	tx.Close()

	// Still open: the clone is alive.
	require.NoError(t, clone.Send(PlaybackPlay{}))
	clone.Close()

	// Backlog drains before Closed is reported.
	msg, err := rx.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PlaybackStop{}, msg)
	msg, err = rx.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PlaybackPlay{}, msg)

	_, err = rx.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClose_Idempotent(t *testing.T) {
	tx := New(8)
	clone := tx.Clone()
	rx := tx.Subscribe()

	tx.Close()
	tx.Close()

	// The double close must not have dropped the clone's reference.
	assert.NoError(t, clone.Send(PlaybackPlay{}))
	assert.ErrorIs(t, tx.Send(PlaybackPlay{}), ErrClosed)
	clone.Close()

	_, err := rx.Recv(context.Background())
	require.NoError(t, err)
	_, err = rx.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRecv_BlocksUntilSend(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tx := New(8)
		defer tx.Close()
		rx := tx.Subscribe()

		got := make(chan Message, 1)
		go func() {
			msg, err := rx.Recv(context.Background())
			if err == nil {
				got <- msg
			}
		}()

		synctest.Wait()
		select {
		case <-got:
			t.Fatal("Recv returned before anything was sent")
		default:
		}

		require.NoError(t, tx.Send(PlaybackNext{}))
		synctest.Wait()
		assert.Equal(t, PlaybackNext{}, <-got)
	})
}

func TestRecv_ContextCancelUnblocks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tx := New(8)
		defer tx.Close()
		rx := tx.Subscribe()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := rx.Recv(ctx)
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	})
}

func TestRecv_CloseWakesBlockedReceiver(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tx := New(8)
		rx := tx.Subscribe()

		done := make(chan error, 1)
		go func() {
			_, err := rx.Recv(context.Background())
			done <- err
		}()

		synctest.Wait()
		tx.Close()
		assert.ErrorIs(t, <-done, ErrClosed)
	})
}

func TestPending(t *testing.T) {
	tx := New(8)
	defer tx.Close()
	rx := tx.Subscribe()

	assert.Equal(t, uint64(0), rx.Pending())
	require.NoError(t, tx.Send(PlaybackPlay{}))
	require.NoError(t, tx.Send(PlaybackPause{}))
	assert.Equal(t, uint64(2), rx.Pending())
	assert.Equal(t, 1, tx.Receivers())
}

func TestNamespace_String(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{PlaybackPlay{}, "playback"},
		{PlaylistAppend{}, "playlist"},
		{AudioStreamRebuilt{}, "audio"},
		{ConfigChanged{}, "config"},
		{LibraryTrackSelected{}, "library"},
		{MetadataUpdated{}, "metadata"},
		{IntegrationStatus{}, "integration"},
		{CastDeviceSelected{}, "cast"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.msg.Namespace().String(); got != tt.want {
				t.Errorf("Namespace().String() = %q, want %q", got, tt.want)
			}
		})
	}
}
