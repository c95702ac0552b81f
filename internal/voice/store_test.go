package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

func TestEnqueueVoiceJobIsIdempotentByRecoveryKey(t *testing.T) {
	s := NewStore(&commerce.VoiceSettings{})
	s.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "k1", Status: commerce.VoiceJobQueued})
	s.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "k1", Status: commerce.VoiceJobQueued})

	j, ok := s.GetVoiceJobByRecoveryKey("k1")
	require.True(t, ok)
	require.NotEmpty(t, j.ID)
	require.Equal(t, 1, s.CountVoiceJobsAwaitingWork())
}

func TestDueVoiceJobsOnlyReturnsQueuedOrRetryingPastNextRunAt(t *testing.T) {
	s := NewStore(&commerce.VoiceSettings{})
	now := time.Now()

	s.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "due", Status: commerce.VoiceJobQueued, NextRunAt: now.Add(-time.Minute)})
	s.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "future", Status: commerce.VoiceJobQueued, NextRunAt: now.Add(time.Hour)})
	s.EnqueueVoiceJob(&commerce.VoiceJob{RecoveryKey: "done", Status: commerce.VoiceJobCompleted, NextRunAt: now.Add(-time.Minute)})

	due := s.DueVoiceJobs(now)
	require.Len(t, due, 1)
	require.Equal(t, "due", due[0].RecoveryKey)
}

func TestSaveVoiceCallIndexesByProviderCallID(t *testing.T) {
	s := NewStore(&commerce.VoiceSettings{})
	s.SaveVoiceCall(&commerce.VoiceCall{RecoveryKey: "rk1", ProviderCallID: "prov_1", Status: commerce.VoiceCallInitiated})

	byKey, ok := s.GetVoiceCall("rk1")
	require.True(t, ok)
	require.Equal(t, "prov_1", byKey.ProviderCallID)

	byProv, ok := s.GetVoiceCallByProviderID("prov_1")
	require.True(t, ok)
	require.Equal(t, "rk1", byProv.RecoveryKey)
}

func TestInFlightVoiceCallsExcludesTerminalStatuses(t *testing.T) {
	s := NewStore(&commerce.VoiceSettings{})
	s.SaveVoiceCall(&commerce.VoiceCall{RecoveryKey: "a", Status: commerce.VoiceCallInProgress})
	s.SaveVoiceCall(&commerce.VoiceCall{RecoveryKey: "b", Status: commerce.VoiceCallCompleted})

	inFlight := s.InFlightVoiceCalls()
	require.Len(t, inFlight, 1)
	require.Equal(t, "a", inFlight[0].RecoveryKey)
}

func TestSuppressIsIdempotentAndChecksByUserID(t *testing.T) {
	s := NewStore(&commerce.VoiceSettings{})
	require.False(t, s.IsSuppressed("user_1"))

	s.Suppress("user_1", "opt_out")
	s.Suppress("user_1", "opt_out_again")
	require.True(t, s.IsSuppressed("user_1"))
}

func TestRecentAlertsNewestFirstAndBounded(t *testing.T) {
	s := NewStore(&commerce.VoiceSettings{})
	for i := 0; i < 3; i++ {
		s.RecordAlert(&commerce.VoiceAlert{Code: string(rune('a' + i))})
	}
	out := s.RecentAlerts(2)
	require.Len(t, out, 2)
	require.Equal(t, "c", out[0].Code)
	require.Equal(t, "b", out[1].Code)
}

func TestGetAndSaveVoiceSettings(t *testing.T) {
	s := NewStore(&commerce.VoiceSettings{Enabled: true})
	require.True(t, s.GetVoiceSettings().Enabled)

	s.SaveVoiceSettings(&commerce.VoiceSettings{Enabled: false})
	require.False(t, s.GetVoiceSettings().Enabled)
}
