package decoder

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeOccupancy struct{ n atomic.Int64 }

func (f *fakeOccupancy) Buffered() int64 { return f.n.Load() }

func TestWaitForRoom_ReturnsBelowTarget(t *testing.T) {
	occ := &fakeOccupancy{}
	occ.n.Store(99)

	err := waitForRoom(context.Background(), occ, 100, 30, time.Hour)
	assert.NoError(t, err)
}

func TestWaitForRoom_WaitsForLowWatermark(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		occ := &fakeOccupancy{}
		occ.n.Store(100)

		done := make(chan error, 1)
		go func() {
			done <- waitForRoom(context.Background(), occ, 100, 30, 100*time.Millisecond)
		}()
		synctest.Wait()

		// Between low and target is not enough.
		occ.n.Store(50)
		time.Sleep(time.Second)
		synctest.Wait()
		select {
		case <-done:
			t.Fatal("returned above the low watermark")
		default:
		}

		occ.n.Store(29)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		select {
		case err := <-done:
			assert.NoError(t, err)
		default:
			t.Fatal("still waiting below the low watermark")
		}
	})
}

func TestWaitForRoom_Cancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		occ := &fakeOccupancy{}
		occ.n.Store(100)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- waitForRoom(ctx, occ, 100, 30, 100*time.Millisecond)
		}()

		synctest.Wait()
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestWaitForRoom_CancelledBeforeCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, waitForRoom(ctx, &fakeOccupancy{}, 100, 30, time.Second), context.Canceled)
}
