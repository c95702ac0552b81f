package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

func TestCheckBacklogAlertRaisesOverThreshold(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	voiceStore.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "a", Status: commerce.VoiceJobQueued})
	voiceStore.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "b", Status: commerce.VoiceJobRetrying})

	settings := &commerce.VoiceSettings{AlertBacklogThreshold: 1}
	require.True(t, c.checkBacklogAlert(settings))

	alerts := voiceStore.RecentAlerts(1)
	require.Len(t, alerts, 1)
	require.Equal(t, "voice_backlog_high", alerts[0].Code)
}

func TestCheckBacklogAlertDisabledWhenThresholdZero(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	voiceStore.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "a", Status: commerce.VoiceJobQueued})

	require.False(t, c.checkBacklogAlert(&commerce.VoiceSettings{AlertBacklogThreshold: 0}))
}

func TestCheckFailureRatioAlertRaisesOverThreshold(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	voiceStore.SaveVoiceCall(&commerce.VoiceCall{RecoveryKey: "a", Status: commerce.VoiceCallFailed})
	voiceStore.SaveVoiceCall(&commerce.VoiceCall{RecoveryKey: "b", Status: commerce.VoiceCallCompleted})

	settings := &commerce.VoiceSettings{AlertFailureRatioThreshold: 0.25}
	require.True(t, c.checkFailureRatioAlert(settings))

	alerts := voiceStore.RecentAlerts(1)
	require.Equal(t, "voice_failure_ratio_high", alerts[0].Code)
}

func TestCheckFailureRatioAlertNoRecentCalls(t *testing.T) {
	c, _, _ := newTestController(t)
	require.False(t, c.checkFailureRatioAlert(&commerce.VoiceSettings{AlertFailureRatioThreshold: 0.1}))
}

func TestEvaluateAlertsRunsBothChecks(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	voiceStore.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "a", Status: commerce.VoiceJobQueued})
	voiceStore.SaveVoiceCall(&commerce.VoiceCall{RecoveryKey: "a", Status: commerce.VoiceCallFailed, UpdatedAt: time.Now()})

	raised := c.evaluateAlerts(&commerce.VoiceSettings{AlertBacklogThreshold: 0, AlertFailureRatioThreshold: 0.5})
	require.Equal(t, 1, raised)
}
