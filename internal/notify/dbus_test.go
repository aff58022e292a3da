//go:build linux

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FallsBackWithoutSessionBus(t *testing.T) {
	t.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path=/nonexistent/riptide-test-bus")

	n, err := New()
	require.NoError(t, err)
	require.NotNil(t, n)

	id, err := n.Notify(Notification{Title: "ignored"})
	assert.NoError(t, err)
	assert.Zero(t, id)
}
