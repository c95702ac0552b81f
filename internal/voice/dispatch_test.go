package voice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

func TestRunJobFailsWhenCartMissing(t *testing.T) {
	c, _, voiceStore := newTestController(t)
	job := &commerce.VoiceJob{RecoveryKey: "rk1", CartID: "does_not_exist", UserID: "user_1"}
	voiceStore.EnqueueVoiceJob(job)

	c.runJob(context.Background(), job, voiceStore.GetVoiceSettings())
	require.Equal(t, commerce.VoiceJobCancelled, job.Status)
}

func TestRunJobFailsWhenNoUserAttached(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	cart := abandonedCart(t, memStore, "")
	job := &commerce.VoiceJob{RecoveryKey: "rk1", CartID: cart.ID, UserID: ""}
	voiceStore.EnqueueVoiceJob(job)

	c.runJob(context.Background(), job, voiceStore.GetVoiceSettings())
	require.Equal(t, commerce.VoiceJobCancelled, job.Status)
}

func TestRunJobCancelsWhenSuppressed(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	memStore.SaveUser(&store.User{ID: "user_1", Phone: "+15550000001"})
	cart := abandonedCart(t, memStore, "user_1")
	voiceStore.Suppress("user_1", "opt_out")

	job := &commerce.VoiceJob{RecoveryKey: "rk1", CartID: cart.ID, UserID: "user_1"}
	voiceStore.EnqueueVoiceJob(job)

	c.runJob(context.Background(), job, voiceStore.GetVoiceSettings())
	require.Equal(t, commerce.VoiceJobCancelled, job.Status)

	call, ok := voiceStore.GetVoiceCall(job.RecoveryKey)
	require.True(t, ok)
	require.Equal(t, commerce.VoiceCallSuppressed, call.Status)
}

func TestRunJobFailsWhenNoPhoneOnFile(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	memStore.SaveUser(&store.User{ID: "user_1"})
	cart := abandonedCart(t, memStore, "user_1")

	job := &commerce.VoiceJob{RecoveryKey: "rk1", CartID: cart.ID, UserID: "user_1"}
	voiceStore.EnqueueVoiceJob(job)

	c.runJob(context.Background(), job, voiceStore.GetVoiceSettings())
	require.Equal(t, commerce.VoiceJobCancelled, job.Status)
}

func TestRunJobReschedulesDuringQuietHours(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	memStore.SaveUser(&store.User{ID: "user_1", Phone: "+15550000001", Timezone: "UTC"})
	cart := abandonedCart(t, memStore, "user_1")

	now := time.Now().UTC()
	settings := voiceStore.GetVoiceSettings()
	settings.QuietHoursStart = (now.Hour() - 1 + 24) % 24
	settings.QuietHoursEnd = (now.Hour() + 2) % 24
	voiceStore.SaveVoiceSettings(settings)

	job := &commerce.VoiceJob{RecoveryKey: "rk1", CartID: cart.ID, UserID: "user_1"}
	voiceStore.EnqueueVoiceJob(job)

	c.runJob(context.Background(), job, settings)
	require.Equal(t, commerce.VoiceJobRetrying, job.Status)
	require.True(t, job.NextRunAt.After(now))
}

func TestRunJobCancelsAtMaxAttempts(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	memStore.SaveUser(&store.User{ID: "user_1", Phone: "+15550000001", Timezone: "UTC"})
	cart := abandonedCart(t, memStore, "user_1")

	settings := voiceStore.GetVoiceSettings()
	settings.QuietHoursStart, settings.QuietHoursEnd = 0, 0
	settings.MaxAttemptsPerCart = 1

	job := &commerce.VoiceJob{RecoveryKey: "rk1", CartID: cart.ID, UserID: "user_1", Attempt: 1}
	voiceStore.EnqueueVoiceJob(job)

	c.runJob(context.Background(), job, settings)
	require.Equal(t, commerce.VoiceJobCancelled, job.Status)

	call, ok := voiceStore.GetVoiceCall(job.RecoveryKey)
	require.True(t, ok)
	require.Equal(t, commerce.VoiceCallSkipped, call.Status)
}

func TestRunJobCancelsWhenDailyCallCapReached(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	memStore.SaveUser(&store.User{ID: "user_1", Phone: "+15550000001", Timezone: "UTC"})
	cart := abandonedCart(t, memStore, "user_1")

	voiceStore.SaveVoiceCall(&commerce.VoiceCall{RecoveryKey: "prior", UserID: "user_other", Status: commerce.VoiceCallCompleted})

	settings := voiceStore.GetVoiceSettings()
	settings.QuietHoursStart, settings.QuietHoursEnd = 0, 0
	settings.MaxCallsPerDay = 1

	job := &commerce.VoiceJob{RecoveryKey: "rk1", CartID: cart.ID, UserID: "user_1"}
	voiceStore.EnqueueVoiceJob(job)

	c.runJob(context.Background(), job, settings)
	require.Equal(t, commerce.VoiceJobCancelled, job.Status)
	require.Equal(t, "daily call cap reached", job.LastError)
}

func TestRunJobCancelsWhenProviderNotConfigured(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	memStore.SaveUser(&store.User{ID: "user_1", Phone: "+15550000001", Timezone: "UTC"})
	cart := abandonedCart(t, memStore, "user_1")

	settings := voiceStore.GetVoiceSettings()
	settings.QuietHoursStart, settings.QuietHoursEnd = 0, 0

	job := &commerce.VoiceJob{RecoveryKey: "rk1", CartID: cart.ID, UserID: "user_1"}
	voiceStore.EnqueueVoiceJob(job)

	c.runJob(context.Background(), job, settings)
	require.Equal(t, commerce.VoiceJobCancelled, job.Status)
	require.Equal(t, "voice provider not configured", job.LastError)
}

func TestRetryOrDeadLetterSchedulesBackoffThenDeadLetters(t *testing.T) {
	c, _, _ := newTestController(t)
	settings := &commerce.VoiceSettings{RetryBackoffSeconds: []int{60, 300}, MaxAttemptsPerCart: 3}

	job := &commerce.VoiceJob{RecoveryKey: "rk1", Attempt: 1}
	c.retryOrDeadLetter(job, settings, "boom")
	require.Equal(t, commerce.VoiceJobRetrying, job.Status)

	job.Attempt = 3
	c.retryOrDeadLetter(job, settings, "boom again")
	require.Equal(t, commerce.VoiceJobDeadLetter, job.Status)
}

func TestRenderScriptFillsTemplate(t *testing.T) {
	out, err := renderScript("Hi {{.Name}}, {{.ItemCount}} items, ${{.CartTotal}}", scriptData{Name: "Ana", ItemCount: 2, CartTotal: "19.98"})
	require.NoError(t, err)
	require.Equal(t, "Hi Ana, 2 items, $19.98", out)
}
