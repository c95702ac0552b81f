package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/config"
	"github.com/nextlevelbuilder/goclaw/internal/store"
	"github.com/nextlevelbuilder/goclaw/internal/voice"
)

func voiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voice",
		Short: "Run the standalone voice-recovery control loop",
		Run: func(cmd *cobra.Command, args []string) {
			runVoice()
		},
	}
}

// runVoice is the composition root for the abandoned-cart voice
// recovery scheduler, grounded on the teacher's cmd/gateway_cron.go
// ticker-driven background loop pattern but run as its own standalone
// process (`goclaw voice`) the way a production deployment would scale
// the outbound-calling pacing independently of the conversational
// gateway.
func runVoice() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if !cfg.Voice.SchedulerEnabled {
		slog.Info("voice scheduler disabled in config, exiting")
		return
	}

	memStore := store.NewMemoryStore()
	voiceStore := voice.NewStore(voiceSettingsFromConfig(cfg))

	superU := voice.NewSuperUClient(cfg.SuperU.APIURL, cfg.SuperU.APIKey, cfg.SuperU.AssistantID,
		cfg.SuperU.FromPhoneNumber, cfg.SuperU.Enabled, 2.0)

	controller := voice.New(voice.Dependencies{
		Carts:         memStore,
		Orders:        memStore,
		Users:         memStore,
		Support:       memStore,
		Jobs:          voiceStore,
		Calls:         voiceStore,
		Suppressions:  voiceStore,
		Alerts:        voiceStore,
		SettingsStore: voiceStore,
		Provider:      superU,
	})

	interval := time.Duration(cfg.Voice.ScanIntervalSeconds * float64(time.Second))
	scheduler := voice.NewScheduler(controller, interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("voice scheduler shutdown initiated", "signal", sig)
		cancel()
	}()

	slog.Info("voice recovery scheduler starting", "interval", interval)
	scheduler.Run(ctx)
}

func voiceSettingsFromConfig(cfg *config.Config) *commerce.VoiceSettings {
	return &commerce.VoiceSettings{
		Enabled:                    cfg.Voice.SchedulerEnabled,
		KillSwitch:                 cfg.Voice.GlobalKillSwitch,
		AbandonmentMinutes:         cfg.Voice.AbandonmentMinutes,
		MaxAttemptsPerCart:         cfg.Voice.MaxAttemptsPerCart,
		MaxCallsPerUserPerDay:      cfg.Voice.MaxCallsPerUserPerDay,
		MaxCallsPerDay:             cfg.Voice.MaxCallsPerDay,
		DailyBudgetUSD:             cfg.Voice.DailyBudgetUSD,
		EstimatedCostPerCallUSD:    cfg.Voice.EstimatedCostPerCallUSD,
		QuietHoursStart:            cfg.Voice.QuietHoursStart,
		QuietHoursEnd:              cfg.Voice.QuietHoursEnd,
		RetryBackoffSeconds:        cfg.Voice.RetryBackoffSeconds(),
		ScriptVersion:              cfg.Voice.ScriptVersion,
		ScriptTemplate:             cfg.Voice.ScriptTemplate,
		AssistantID:                cfg.SuperU.AssistantID,
		FromPhoneNumber:            cfg.SuperU.FromPhoneNumber,
		DefaultTimezone:            cfg.Voice.DefaultTimezone,
		AlertBacklogThreshold:      cfg.Voice.AlertBacklogThreshold,
		AlertFailureRatioThreshold: cfg.Voice.AlertFailureRatioThreshold,
	}
}
