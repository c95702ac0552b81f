package voice

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

// Notifier sends a shopper- or ops-facing notification. Grounded on
// backend/app/services/notification_service.py's thin
// build-payload-then-store methods — this module only needs the
// send/log step, not a templating layer, since every call site already
// builds its own payload.
type Notifier interface {
	Notify(ctx context.Context, kind, userID string, payload map[string]interface{})
}

// LogNotifier is a Notifier that only logs — the development stand-in
// until a real channel (email/SMS/webhook) is wired in.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, kind, userID string, payload map[string]interface{}) {
	slog.Info("voice notification", "kind", kind, "userId", userID, "payload", payload)
}

// Controller runs one tick of the voice-recovery control loop:
// enqueue, dispatch, poll, alert — the four phases of
// voice_recovery_service.py's process_due_work.
type Controller struct {
	carts         commerce.CartRepository
	orders        commerce.OrderRepository
	users         commerce.UserRepository
	support       commerce.SupportRepository
	jobs          commerce.VoiceJobRepository
	calls         commerce.VoiceCallRepository
	suppressions  commerce.VoiceSuppressionRepository
	alerts        commerce.VoiceAlertRepository
	settingsStore commerce.VoiceSettingsRepository

	provider *SuperUClient
	notifier Notifier

	log *slog.Logger
}

// Dependencies bundles everything Controller needs, so New has one
// argument instead of a dozen.
type Dependencies struct {
	Carts         commerce.CartRepository
	Orders        commerce.OrderRepository
	Users         commerce.UserRepository
	Support       commerce.SupportRepository
	Jobs          commerce.VoiceJobRepository
	Calls         commerce.VoiceCallRepository
	Suppressions  commerce.VoiceSuppressionRepository
	Alerts        commerce.VoiceAlertRepository
	SettingsStore commerce.VoiceSettingsRepository
	Provider      *SuperUClient
	Notifier      Notifier
}

// New builds a Controller.
func New(deps Dependencies) *Controller {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Controller{
		carts:         deps.Carts,
		orders:        deps.Orders,
		users:         deps.Users,
		support:       deps.Support,
		jobs:          deps.Jobs,
		calls:         deps.Calls,
		suppressions:  deps.Suppressions,
		alerts:        deps.Alerts,
		settingsStore: deps.SettingsStore,
		provider:      deps.Provider,
		notifier:      notifier,
		log:           slog.Default().With("component", "voice"),
	}
}

// TickResult summarizes one ProcessDueWork pass, for logging/metrics.
type TickResult struct {
	Enqueued      int
	Processed     int
	Polled        int
	FollowupsSent int
	AlertsRaised  int
}

// ProcessDueWork runs the four-phase tick: enqueue new recovery jobs,
// dispatch due jobs through the guardrail chain, poll in-flight calls
// for terminal outcomes, then evaluate operational alerts. Mirrors
// voice_recovery_service.py's process_due_work ordering exactly —
// alerts are evaluated last so they reflect this tick's own activity.
func (c *Controller) ProcessDueWork(ctx context.Context) TickResult {
	settings := c.settingsStore.GetVoiceSettings()
	var result TickResult

	if settings == nil || !settings.Enabled || settings.KillSwitch {
		c.log.Debug("voice scheduler tick skipped", "enabled", settings != nil && settings.Enabled, "killSwitch", settings != nil && settings.KillSwitch)
		return result
	}

	result.Enqueued = c.enqueueAbandonedCarts(settings)
	result.Processed = c.processDueJobs(ctx, settings)
	result.Polled, result.FollowupsSent = c.pollInFlightCalls(ctx, settings)
	result.AlertsRaised = c.evaluateAlerts(settings)

	return result
}

// Scheduler drives Controller.ProcessDueWork on a fixed interval until
// its context is cancelled, the way the teacher's cron/ticker loops in
// cmd/gateway_cron.go drive periodic work.
type Scheduler struct {
	controller *Controller
	interval   time.Duration
}

// NewScheduler builds a Scheduler. interval <= 0 falls back to 30s,
// matching config.VoiceConfig's default ScanIntervalSeconds; any other
// interval below 5s is raised to 5s.
func NewScheduler(controller *Controller, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	return &Scheduler{controller: controller, interval: interval}
}

// Run blocks, ticking until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := s.controller.ProcessDueWork(ctx)
			s.controller.log.Info("voice scheduler tick",
				"enqueued", result.Enqueued, "processed", result.Processed,
				"polled", result.Polled, "followups", result.FollowupsSent,
				"alerts", result.AlertsRaised)
		}
	}
}
