package voice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) Notify(_ context.Context, kind, userID string, payload map[string]interface{}) {
	n.calls = append(n.calls, kind)
}

func TestApplyFollowupActionsSuppressesOnOptOut(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	notifier := &recordingNotifier{}
	c.notifier = notifier

	call := &commerce.VoiceCall{RecoveryKey: "rk1", UserID: "user_1", Outcome: "opt_out"}
	c.applyFollowupActions(context.Background(), call, &commerce.VoiceSettings{})

	require.True(t, voiceStore.IsSuppressed("user_1"))
	require.Contains(t, notifier.calls, "voice_suppressed")
}

func TestApplyFollowupActionsOpensTicketOnCallbackRequest(t *testing.T) {
	c, memStore, _ := newTestController(t)
	notifier := &recordingNotifier{}
	c.notifier = notifier

	call := &commerce.VoiceCall{RecoveryKey: "rk2", UserID: "user_1", SessionID: "sess_1", Outcome: "requested_callback"}
	c.applyFollowupActions(context.Background(), call, &commerce.VoiceSettings{})

	require.Contains(t, notifier.calls, "voice_callback_requested")
	tickets := memStore.ListTicketsForSession("user_1", "sess_1")
	require.Len(t, tickets, 1)
	require.Equal(t, "voice_callback", tickets[0].Category)
}

func TestApplyFollowupActionsNotifiesOnConversionIntent(t *testing.T) {
	c, _, _ := newTestController(t)
	notifier := &recordingNotifier{}
	c.notifier = notifier

	call := &commerce.VoiceCall{RecoveryKey: "rk3", UserID: "user_1", Outcome: "converted"}
	c.applyFollowupActions(context.Background(), call, &commerce.VoiceSettings{})

	require.Contains(t, notifier.calls, "voice_conversion_intent")
}

func TestApplyFollowupActionsNotifiesOnBareFailure(t *testing.T) {
	c, _, _ := newTestController(t)
	notifier := &recordingNotifier{}
	c.notifier = notifier

	call := &commerce.VoiceCall{RecoveryKey: "rk4", UserID: "user_1", Status: commerce.VoiceCallFailed}
	c.applyFollowupActions(context.Background(), call, &commerce.VoiceSettings{})

	require.Contains(t, notifier.calls, "voice_call_failed")
}

func TestApplyFollowupActionsNoOutcomeNoStatus(t *testing.T) {
	c, _, _ := newTestController(t)
	notifier := &recordingNotifier{}
	c.notifier = notifier

	call := &commerce.VoiceCall{RecoveryKey: "rk5", UserID: "user_1", Status: commerce.VoiceCallCompleted}
	c.applyFollowupActions(context.Background(), call, &commerce.VoiceSettings{})

	require.Empty(t, notifier.calls)
}

func TestPollInFlightCallsSkipsWhenProviderDisabled(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	voiceStore.SaveVoiceCall(&commerce.VoiceCall{RecoveryKey: "rk1", ProviderCallID: "prov_1", Status: commerce.VoiceCallInProgress})

	polled, followups := c.pollInFlightCalls(context.Background(), &commerce.VoiceSettings{})
	require.Equal(t, 0, polled)
	require.Equal(t, 0, followups)
}
