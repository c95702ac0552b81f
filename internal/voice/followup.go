package voice

import (
	"context"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// terminalCallStatuses are the statuses that trigger exactly one
// follow-up dispatch, mirroring voice_recovery_service.py's
// terminal-status detection during its poll phase.
var terminalCallStatuses = map[string]bool{
	"completed": true,
	"failed":    true,
	"no-answer": true,
	"busy":      true,
	"canceled":  true,
	"cancelled": true,
}

// pollInFlightCalls fetches provider status updates for every call not
// yet in a terminal state, applies any new (deduped) events, and fires
// the follow-up dispatcher exactly once per call the moment it reaches
// a terminal status.
func (c *Controller) pollInFlightCalls(ctx context.Context, settings *commerce.VoiceSettings) (polled, followups int) {
	if c.provider == nil || !c.provider.Enabled() {
		return 0, 0
	}
	for _, call := range c.calls.InFlightVoiceCalls() {
		if call.ProviderCallID == "" {
			continue
		}
		polled++
		logs, err := c.provider.FetchCallLogs(ctx, call.ProviderCallID, 20)
		if err != nil {
			call.LastError = err.Error()
			c.calls.SaveVoiceCall(call)
			continue
		}

		for _, entry := range logs {
			eventKey := providerEventKey(call.ProviderCallID, entry)
			if call.HasEventKey(eventKey) {
				continue
			}
			status, _ := entry["status"].(string)
			outcome, _ := entry["outcome"].(string)
			call.AppendEvent(eventKey, commerce.VoiceProviderEvent{
				Key: eventKey, Status: status, Outcome: outcome, ReceivedAt: time.Now(),
			})
			if status != "" {
				call.Status = commerce.VoiceCallStatus(status)
			}
			if outcome != "" {
				call.Outcome = outcome
			}
		}
		c.calls.SaveVoiceCall(call)

		if terminalCallStatuses[string(call.Status)] && !call.FollowupApplied {
			c.applyFollowupActions(ctx, call, settings)
			call.FollowupApplied = true
			c.calls.SaveVoiceCall(call)
			followups++
		}
	}
	return polled, followups
}

func providerEventKey(providerCallID string, entry map[string]interface{}) string {
	if id, ok := entry["event_id"].(string); ok && id != "" {
		return providerCallID + ":" + id
	}
	if id, ok := entry["id"].(string); ok && id != "" {
		return providerCallID + ":" + id
	}
	status, _ := entry["status"].(string)
	ts, _ := entry["timestamp"].(string)
	return providerCallID + ":" + status + ":" + ts
}

// applyFollowupActions mirrors _apply_outcome_actions's outcome table:
// opt-out/do-not-call suppresses the user; a callback/handoff request
// opens a support ticket and notifies; a conversion signal sends a
// conversion notification; a bare "failed" status (checked last, only
// if nothing else matched) sends a call-failed notification.
func (c *Controller) applyFollowupActions(ctx context.Context, call *commerce.VoiceCall, settings *commerce.VoiceSettings) {
	outcome := call.Outcome

	switch outcome {
	case "do_not_call", "opt_out", "dnc":
		c.suppressions.Suppress(call.UserID, "voice_opt_out")
		c.notifier.Notify(ctx, "voice_suppressed", call.UserID, map[string]interface{}{"recoveryKey": call.RecoveryKey})
		return
	case "requested_callback", "needs_help", "agent_handoff":
		if c.support != nil {
			now := time.Now()
			c.support.CreateTicket(&store.SupportTicket{
				UserID: call.UserID, SessionID: call.SessionID,
				Issue:    "Shopper requested a callback during cart-recovery call " + call.RecoveryKey,
				Category: "voice_callback", Priority: "medium", Status: "open", Channel: "voice",
				Messages:  []store.TicketMessage{{Actor: "customer", Message: "Requested a callback.", Timestamp: now}},
				CreatedAt: now, UpdatedAt: now,
			})
		}
		c.notifier.Notify(ctx, "voice_callback_requested", call.UserID, map[string]interface{}{"recoveryKey": call.RecoveryKey})
		return
	case "converted", "checkout_intent", "interested":
		c.notifier.Notify(ctx, "voice_conversion_intent", call.UserID, map[string]interface{}{"recoveryKey": call.RecoveryKey})
		return
	}

	if string(call.Status) == "failed" {
		c.notifier.Notify(ctx, "voice_call_failed", call.UserID, map[string]interface{}{
			"recoveryKey": call.RecoveryKey, "error": call.LastError,
		})
	}
}
