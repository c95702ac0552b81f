package voice

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// scriptData is the template context for VoiceSettings.ScriptTemplate,
// e.g. "Hi {{.Name}}, you left {{.ItemCount}} item(s) worth
// ${{.CartTotal}} in your cart."
type scriptData struct {
	Name      string
	ItemCount int
	CartTotal string
}

func renderScript(tmpl string, data scriptData) (string, error) {
	t, err := template.New("voice_script").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse script template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render script template: %w", err)
	}
	return buf.String(), nil
}

// processDueJobs walks every job whose NextRunAt has passed and runs it
// through the guardrail chain, mirroring process_due_work's per-job
// phase of voice_recovery_service.py.
func (c *Controller) processDueJobs(ctx context.Context, settings *commerce.VoiceSettings) int {
	now := time.Now()
	processed := 0
	for _, job := range c.jobs.DueVoiceJobs(now) {
		c.runJob(ctx, job, settings)
		processed++
	}
	return processed
}

func (c *Controller) runJob(ctx context.Context, job *commerce.VoiceJob, settings *commerce.VoiceSettings) {
	cart, cartOK := c.cartByID(job.CartID, job.UserID, job.SessionID)
	if !cartOK || len(cart.Items) == 0 {
		c.failJob(job, "cart missing or empty", false)
		return
	}
	if job.UserID == "" {
		c.failJob(job, "no user attached to cart", false)
		return
	}
	if c.suppressions.IsSuppressed(job.UserID) {
		c.cancelJob(job, commerce.VoiceCallSuppressed, "user is voice-suppressed")
		return
	}

	user, userOK := c.users.GetUser(job.UserID)
	if !userOK || user.Phone == "" {
		c.failJob(job, "no phone number on file", false)
		return
	}

	tz := user.Timezone
	if tz == "" {
		tz = settings.DefaultTimezone
	}
	if inQuietHours(time.Now(), tz, settings.QuietHoursStart, settings.QuietHoursEnd) {
		job.NextRunAt = nextNonQuietTime(time.Now(), tz, settings.QuietHoursStart, settings.QuietHoursEnd)
		job.Status = commerce.VoiceJobRetrying
		c.jobs.SaveVoiceJob(job)
		return
	}

	if job.Attempt >= settings.MaxAttemptsPerCart {
		c.cancelJob(job, commerce.VoiceCallSkipped, "max attempts per cart reached")
		return
	}

	if reason, blocked := c.overBudgetOrCaps(job.UserID, settings); blocked {
		c.cancelJob(job, commerce.VoiceCallSkipped, reason)
		return
	}

	if c.provider == nil || !c.provider.Enabled() {
		c.cancelJob(job, commerce.VoiceCallSkipped, "voice provider not configured")
		return
	}

	c.dispatchCall(ctx, job, cart, user, settings)
}

// cartByID resolves a job's cart through the identity it was created
// under. A cart is addressed by (userID|sessionID) in the store, not by
// its own ID, so a job whose cart has since rotated (converted,
// cleared, and re-created under the same identity) is correctly
// treated as "cart missing" rather than silently dialing about stale
// contents.
func (c *Controller) cartByID(cartID, userID, sessionID string) (*store.Cart, bool) {
	cart := c.carts.GetOrCreateCart(userID, sessionID)
	if cart.ID != cartID {
		return nil, false
	}
	return cart, true
}

// overBudgetOrCaps enforces the daily call-volume and spend guardrails:
// a global per-day call cap, a per-user-per-day cap, and a daily USD
// budget estimated from EstimatedCostPerCallUSD * calls-placed-today.
func (c *Controller) overBudgetOrCaps(userID string, settings *commerce.VoiceSettings) (string, bool) {
	startOfDay := time.Now().Truncate(24 * time.Hour)
	today := c.calls.RecentVoiceCalls(startOfDay)

	if settings.MaxCallsPerDay > 0 && len(today) >= settings.MaxCallsPerDay {
		return "daily call cap reached", true
	}

	userCalls := 0
	for _, call := range today {
		if call.UserID == userID {
			userCalls++
		}
	}
	if settings.MaxCallsPerUserPerDay > 0 && userCalls >= settings.MaxCallsPerUserPerDay {
		return "per-user daily call cap reached", true
	}

	if settings.DailyBudgetUSD > 0 {
		spent := float64(len(today)) * settings.EstimatedCostPerCallUSD
		if spent >= settings.DailyBudgetUSD {
			return "daily budget reached", true
		}
	}

	return "", false
}

func (c *Controller) dispatchCall(ctx context.Context, job *commerce.VoiceJob, cart *store.Cart, user *store.User, settings *commerce.VoiceSettings) {
	script, err := renderScript(settings.ScriptTemplate, scriptData{
		Name:      user.Name,
		ItemCount: cart.ItemCount,
		CartTotal: fmt.Sprintf("%.2f", cart.Total),
	})
	if err != nil {
		c.failJob(job, err.Error(), false)
		return
	}

	call, _ := c.calls.GetVoiceCall(job.RecoveryKey)
	if call == nil {
		call = &commerce.VoiceCall{
			RecoveryKey:      job.RecoveryKey,
			UserID:           job.UserID,
			SessionID:        job.SessionID,
			CartID:           job.CartID,
			Status:           commerce.VoiceCallQueued,
			ScriptVersion:    settings.ScriptVersion,
			EstimatedCostUSD: settings.EstimatedCostPerCallUSD,
		}
	}

	result, callErr := c.provider.StartOutboundCall(ctx, user.Phone, script, map[string]interface{}{
		"recoveryKey": job.RecoveryKey, "attempt": job.Attempt + 1,
	})
	job.Attempt++

	attempt := commerce.VoiceCallAttempt{Attempt: job.Attempt, Timestamp: time.Now()}
	if callErr != nil {
		attempt.Status = "failed"
		attempt.Error = callErr.Error()
		call.AppendAttempt(attempt)
		call.Status = commerce.VoiceCallFailed
		call.LastError = callErr.Error()
		c.calls.SaveVoiceCall(call)
		c.retryOrDeadLetter(job, settings, callErr.Error())
		return
	}

	attempt.Status = "initiated"
	call.AppendAttempt(attempt)
	call.Status = commerce.VoiceCallInitiated
	call.ProviderCallID = result.ProviderCallID
	call.LastError = ""
	c.calls.SaveVoiceCall(call)

	job.Status = commerce.VoiceJobProcessing
	job.LastError = ""
	c.jobs.SaveVoiceJob(job)
}

// retryOrDeadLetter moves the job to the dead-letter state once it has
// used MaxAttemptsPerCart attempts; otherwise it schedules the next
// attempt after RetryBackoffSeconds[attempt-1], reusing the last delay
// once the list runs out — mirroring voice_recovery_service.py's
// retry/backoff/dead-letter path on a failed provider call.
func (c *Controller) retryOrDeadLetter(job *commerce.VoiceJob, settings *commerce.VoiceSettings, errMsg string) {
	backoffs := settings.RetryBackoffSeconds
	if len(backoffs) == 0 {
		backoffs = []int{60, 300, 900}
	}
	job.LastError = errMsg
	if job.Attempt >= settings.MaxAttemptsPerCart {
		job.Status = commerce.VoiceJobDeadLetter
		c.jobs.SaveVoiceJob(job)
		return
	}
	idx := job.Attempt - 1
	if idx >= len(backoffs) {
		idx = len(backoffs) - 1
	}
	delay := backoffs[idx]
	job.Status = commerce.VoiceJobRetrying
	job.NextRunAt = time.Now().Add(time.Duration(delay) * time.Second)
	c.jobs.SaveVoiceJob(job)
}

func (c *Controller) failJob(job *commerce.VoiceJob, reason string, retryable bool) {
	job.LastError = reason
	if retryable {
		job.Status = commerce.VoiceJobRetrying
		job.NextRunAt = time.Now().Add(5 * time.Minute)
	} else {
		job.Status = commerce.VoiceJobCancelled
	}
	c.jobs.SaveVoiceJob(job)
}

func (c *Controller) cancelJob(job *commerce.VoiceJob, callStatus commerce.VoiceCallStatus, reason string) {
	job.Status = commerce.VoiceJobCancelled
	job.LastError = reason
	c.jobs.SaveVoiceJob(job)

	call, _ := c.calls.GetVoiceCall(job.RecoveryKey)
	if call == nil {
		call = &commerce.VoiceCall{RecoveryKey: job.RecoveryKey, UserID: job.UserID, SessionID: job.SessionID, CartID: job.CartID}
	}
	call.Status = callStatus
	call.LastError = reason
	c.calls.SaveVoiceCall(call)
}
