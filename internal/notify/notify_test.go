package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelaySwitchesTarget(t *testing.T) {
	ctx := context.Background()
	first := &Recorder{Granted: PermissionGranted}
	relay := NewRelay(first)

	assert.Equal(t, PermissionGranted, relay.Permission())
	require.NoError(t, relay.Show(ctx, Notification{Title: "a"}))

	second := &Recorder{Granted: PermissionDenied}
	relay.Use(second)
	assert.Equal(t, PermissionDenied, relay.Permission())
	require.NoError(t, relay.Show(ctx, Notification{Title: "b"}))

	assert.Len(t, first.Shown, 1)
	assert.Len(t, second.Shown, 1)
	assert.Equal(t, "b", second.Shown[0].Title)
}

func TestRelayWithoutTarget(t *testing.T) {
	relay := NewRelay(nil)
	assert.Equal(t, PermissionDefault, relay.Permission())
	assert.NoError(t, relay.Show(context.Background(), Notification{}))
}

func TestRecorderDefaultsToUnasked(t *testing.T) {
	assert.Equal(t, PermissionDefault, (&Recorder{}).Permission())
}
