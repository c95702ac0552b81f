package voice

import (
	"fmt"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

// evaluateAlerts runs the scheduler's two operational checks — backlog
// size and rolling failure ratio — mirroring
// voice_recovery_service.py's _evaluate_alerts, which runs last in each
// tick so it reflects the work this tick itself just did.
func (c *Controller) evaluateAlerts(settings *commerce.VoiceSettings) int {
	raised := 0
	if c.checkBacklogAlert(settings) {
		raised++
	}
	if c.checkFailureRatioAlert(settings) {
		raised++
	}
	return raised
}

// checkBacklogAlert raises a warning when the queued/retrying job count
// exceeds AlertBacklogThreshold, signaling the scheduler can't keep up
// with the abandonment rate.
func (c *Controller) checkBacklogAlert(settings *commerce.VoiceSettings) bool {
	if settings.AlertBacklogThreshold <= 0 {
		return false
	}
	backlog := c.jobs.CountVoiceJobsAwaitingWork()
	if backlog <= settings.AlertBacklogThreshold {
		return false
	}
	c.alerts.RecordAlert(&commerce.VoiceAlert{
		Code:     "voice_backlog_high",
		Message:  fmt.Sprintf("voice job backlog (%d) exceeds threshold (%d)", backlog, settings.AlertBacklogThreshold),
		Severity: commerce.SeverityWarning,
		Details:  map[string]interface{}{"backlog": backlog, "threshold": settings.AlertBacklogThreshold},
	})
	return true
}

// checkFailureRatioAlert raises a critical alert when the fraction of
// calls from the last 24h resolving to "failed" exceeds
// AlertFailureRatioThreshold, the signal that the provider integration
// itself (not an individual call) is unhealthy.
func (c *Controller) checkFailureRatioAlert(settings *commerce.VoiceSettings) bool {
	if settings.AlertFailureRatioThreshold <= 0 {
		return false
	}
	recent := c.calls.RecentVoiceCalls(time.Now().Add(-24 * time.Hour))
	if len(recent) == 0 {
		return false
	}
	failed := 0
	for _, call := range recent {
		if call.Status == commerce.VoiceCallFailed {
			failed++
		}
	}
	ratio := float64(failed) / float64(len(recent))
	if ratio <= settings.AlertFailureRatioThreshold {
		return false
	}
	c.alerts.RecordAlert(&commerce.VoiceAlert{
		Code:     "voice_failure_ratio_high",
		Message:  fmt.Sprintf("voice call failure ratio (%.2f) exceeds threshold (%.2f)", ratio, settings.AlertFailureRatioThreshold),
		Severity: commerce.SeverityCritical,
		Details:  map[string]interface{}{"failed": failed, "total": len(recent), "ratio": ratio},
	})
	return true
}
