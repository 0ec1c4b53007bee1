package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sessync/internal/core/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleStatus() *domain.AgentStatus {
	return &domain.AgentStatus{
		Outcome: &domain.OutcomeRecord{
			Status:          domain.OutcomeInsufficientCredentials,
			Message:         "Only 2/3 cookies found",
			RetryCount:      2,
			Trigger:         domain.TriggerCredentialChange,
			Timestamp:       now.Add(-90 * time.Second),
			CredentialCount: 2,
			Missing:         []string{"F5_ST"},
		},
		Scheduler: domain.SchedulerState{
			Presence:          domain.PresencePresent,
			PendingRetries:    1,
			LastSyncAttemptAt: now.Add(-5 * time.Second),
		},
		Indicator: domain.IndicatorFor(domain.PresencePresent),
	}
}

func TestAgo(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "never"},
		{"now", now, "just now"},
		{"seconds", now.Add(-12 * time.Second), "12s ago"},
		{"minutes", now.Add(-3 * time.Minute), "3m ago"},
		{"hours", now.Add(-5 * time.Hour), "5h ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ago(tt.t, now))
		})
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleStatus(), now)

	require.NotEmpty(t, rows.Companion)
	assert.Equal(t, ToneGood, rows.Companion[0].Tone)

	values := map[string]Row{}
	for _, r := range rows.Outcome {
		values[r.Label] = r
	}
	assert.Equal(t, "insufficient_credentials", values["Status"].Value)
	assert.Equal(t, ToneWarn, values["Status"].Tone)
	assert.Equal(t, "2/3", values["Cookies"].Value)
	assert.Equal(t, "2", values["Retries"].Value)
	assert.Equal(t, "F5_ST", values["Missing"].Value)
	assert.Equal(t, "1m ago", values["When"].Value)

	assert.Equal(t, "1", rows.Scheduler[2].Value)
	assert.Equal(t, "5s ago", rows.Scheduler[3].Value)
	assert.Equal(t, "never", rows.Scheduler[4].Value)
}

func TestRows_NeverSynced(t *testing.T) {
	rows := Rows(&domain.AgentStatus{Indicator: domain.IndicatorFor(domain.PresenceAbsent)}, now)

	require.Len(t, rows.Outcome, 1)
	assert.Equal(t, "never synced", rows.Outcome[0].Value)
	assert.Equal(t, ToneWarn, rows.Companion[0].Tone)
}

func TestPlain(t *testing.T) {
	out := Plain(sampleStatus(), now)

	assert.Contains(t, out, "Last sync\n")
	assert.Contains(t, out, "Only 2/3 cookies found")
	assert.Contains(t, out, "Pending retries:")
}

func TestView_Render(t *testing.T) {
	v := NewView(nil)
	v.now = func() time.Time { return now }

	assert.Contains(t, v.View(), "Loading status")

	v.SetStatus(nil, errors.New("agent down"))
	assert.Contains(t, v.View(), "agent down")

	v.SetStatus(sampleStatus(), nil)
	out := v.View()
	assert.Contains(t, out, "Only 2/3 cookies found")
	assert.NotNil(t, v.Status())

	v.SetStatus(nil, errors.New("timeout"))
	assert.NotNil(t, v.Status(), "keeps the last good status")
	assert.Contains(t, v.View(), "Refresh failed: timeout")
}
