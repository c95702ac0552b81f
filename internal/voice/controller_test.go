package voice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

func TestProcessDueWorkSkippedWhenDisabled(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	settings := voiceStore.GetVoiceSettings()
	settings.Enabled = false
	voiceStore.SaveVoiceSettings(settings)

	result := c.ProcessDueWork(context.Background())
	require.Equal(t, TickResult{}, result)
}

func TestProcessDueWorkSkippedWhenKillSwitchEngaged(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	settings := voiceStore.GetVoiceSettings()
	settings.KillSwitch = true
	voiceStore.SaveVoiceSettings(settings)

	result := c.ProcessDueWork(context.Background())
	require.Equal(t, TickResult{}, result)
}

func TestProcessDueWorkEnqueuesAndCancelsUnconfiguredProvider(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	memStore.SaveUser(&store.User{ID: "user_1", Phone: "+15550000001", Timezone: "UTC"})
	abandonedCart(t, memStore, "user_1")

	settings := voiceStore.GetVoiceSettings()
	settings.QuietHoursStart, settings.QuietHoursEnd = 0, 0
	voiceStore.SaveVoiceSettings(settings)

	result := c.ProcessDueWork(context.Background())
	require.Equal(t, 1, result.Enqueued)
	require.Equal(t, 1, result.Processed)
}

func TestNewUsesLogNotifierByDefault(t *testing.T) {
	voiceStore := NewStore(&commerce.VoiceSettings{})
	c := New(Dependencies{
		Jobs: voiceStore, Calls: voiceStore, Suppressions: voiceStore,
		Alerts: voiceStore, SettingsStore: voiceStore,
	})
	_, ok := c.notifier.(LogNotifier)
	require.True(t, ok)
}

func TestNewSchedulerAppliesDefaultInterval(t *testing.T) {
	voiceStore := NewStore(&commerce.VoiceSettings{})
	c := New(Dependencies{Jobs: voiceStore, Calls: voiceStore, Suppressions: voiceStore, Alerts: voiceStore, SettingsStore: voiceStore})
	s := NewScheduler(c, 0)
	require.Equal(t, 30*time.Second, s.interval)
}
