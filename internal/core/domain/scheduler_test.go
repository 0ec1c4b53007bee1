package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSyncConfig(t *testing.T) {
	config := DefaultSyncConfig()

	assert.Equal(t, "webserviced.anaf.ro", config.CredentialDomain)
	assert.Equal(t, "u-core.test", config.CompanionHost)
	assert.Equal(t, 15*time.Second, config.MinSyncInterval)
	assert.Equal(t, 8*time.Second, config.MinStatusInterval)
	assert.Equal(t, 3*time.Second, config.BatchDelay)
	assert.Equal(t, 15*time.Second, config.TransferTimeout)
	assert.Equal(t, 5*time.Second, config.ProbeTimeout)
	assert.Equal(t, 2*time.Second, config.RetryBaseDelay)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 30*time.Second, config.HeartbeatInterval)
	assert.Equal(t, 500*time.Millisecond, config.SurfaceCloseSettle)
	assert.Equal(t, 8*time.Second, config.PageLoadSettle)
}

func TestAttemptContext_IsRetry(t *testing.T) {
	assert.False(t, AttemptContext{AttemptNumber: 0}.IsRetry())
	assert.True(t, AttemptContext{AttemptNumber: 1}.IsRetry())
}

func TestAttemptReport_RetryScheduled(t *testing.T) {
	tests := []struct {
		name   string
		report AttemptReport
		want   bool
	}{
		{"retry pending", AttemptReport{RetryIn: 2 * time.Second}, true},
		{"terminal", AttemptReport{Outcome: &OutcomeRecord{Status: OutcomeSuccess}}, false},
		{"skipped", AttemptReport{Skipped: SkipRateLimited}, false},
		{"zero", AttemptReport{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.RetryScheduled())
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		count int
		want  StatusClassification
	}{
		{0, StatusAbsent},
		{1, StatusDegraded},
		{2, StatusIncomplete},
		{3, StatusComplete},
		{4, StatusComplete},
		{-1, StatusAbsent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.count), "count=%d", tt.count)
	}

	assert.Equal(t, "no_session", StatusAbsent.String())
	assert.Equal(t, "expired", StatusDegraded.String())
	assert.Equal(t, "excellent", StatusComplete.String())
}

func TestTrigger(t *testing.T) {
	for _, trig := range []Trigger{TriggerManualPopup, TriggerManualAPI, TriggerCredentialChange, TriggerPageLoad, TriggerHeartbeat} {
		assert.True(t, trig.IsValid(), trig.String())
	}
	assert.False(t, Trigger("timer").IsValid())

	assert.True(t, TriggerManualPopup.IsManual())
	assert.True(t, TriggerManualAPI.IsManual())
	assert.False(t, TriggerHeartbeat.IsManual())
}

func TestOutcomeStatus_IsValid(t *testing.T) {
	assert.True(t, OutcomeSuccess.IsValid())
	assert.True(t, OutcomeInsufficientCredentials.IsValid())
	assert.False(t, OutcomeStatus("retrying").IsValid())
	assert.True(t, OutcomeRecord{}.IsZero())
}

func TestIndicatorFor(t *testing.T) {
	present := IndicatorFor(PresencePresent)
	assert.Equal(t, PresencePresent, present.Presence)
	assert.NotEmpty(t, present.Icon)
	assert.NotEmpty(t, present.Label)

	absent := IndicatorFor(PresenceAbsent)
	assert.Equal(t, PresenceAbsent, absent.Presence)
	assert.NotEqual(t, present.Icon, absent.Icon)
	assert.NotEqual(t, present.Label, absent.Label)

	assert.Equal(t, PresenceAbsent, IndicatorFor(PresenceUnknown).Presence)
}

func TestProbeMode_String(t *testing.T) {
	assert.Equal(t, "HTTPS", ProbePrimary.String())
	assert.Equal(t, "HTTP (fallback)", ProbeFallback.String())
}
