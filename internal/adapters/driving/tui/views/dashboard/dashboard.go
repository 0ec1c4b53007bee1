// Package dashboard renders the agent status.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sessync/internal/core/domain"
)

// View renders an AgentStatus as three panels.
type View struct {
	styles *styles.Styles
	status *domain.AgentStatus
	err    error
	now    func() time.Time
	width  int
}

// NewView creates a dashboard view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, now: time.Now, width: 80}
}

// SetStatus replaces the rendered status.
func (v *View) SetStatus(status *domain.AgentStatus, err error) {
	v.err = err
	if err == nil {
		v.status = status
	}
}

// Status returns the last successfully loaded status.
func (v *View) Status() *domain.AgentStatus {
	return v.status
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}

// SetWidth sets the available width.
func (v *View) SetWidth(width int) {
	v.width = width
}

// View renders the dashboard.
func (v *View) View() string {
	title := v.styles.Title.Render("sessync")
	if v.status == nil {
		if v.err != nil {
			return title + "\n\n" + v.styles.Error.Render("Error: "+v.err.Error())
		}
		return title + "\n\n" + v.styles.Muted.Render("Loading status...")
	}

	rows := Rows(v.status, v.now())
	panels := []string{
		v.panel("Companion", rows.Companion),
		v.panel("Last sync", rows.Outcome),
		v.panel("Scheduler", rows.Scheduler),
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	if v.width >= 100 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, panels...))
	}
	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render("Refresh failed: " + v.err.Error()))
	}
	return b.String()
}

func (v *View) panel(heading string, rows []Row) string {
	lines := []string{v.styles.Title.Render(heading)}
	for _, r := range rows {
		value := v.styles.Value.Render(r.Value)
		switch r.Tone {
		case ToneGood:
			value = v.styles.Success.Render(r.Value)
		case ToneWarn:
			value = v.styles.Warning.Render(r.Value)
		case ToneBad:
			value = v.styles.Error.Render(r.Value)
		case ToneNone:
		}
		lines = append(lines, v.styles.Label.Render(r.Label)+value)
	}
	return v.styles.Panel.Render(strings.Join(lines, "\n"))
}

// Tone colours a row value.
type Tone int

// Row tones.
const (
	ToneNone Tone = iota
	ToneGood
	ToneWarn
	ToneBad
)

// Row is a labelled value.
type Row struct {
	Label string
	Value string
	Tone  Tone
}

// Sections groups the rows of each panel.
type Sections struct {
	Companion []Row
	Outcome   []Row
	Scheduler []Row
}

// Rows builds the panel rows for a status.
func Rows(status *domain.AgentStatus, now time.Time) Sections {
	var s Sections

	presence := status.Scheduler.Presence
	presenceTone := ToneWarn
	if presence == domain.PresencePresent {
		presenceTone = ToneGood
	}
	s.Companion = []Row{
		{Label: "Indicator", Value: status.Indicator.Label, Tone: presenceTone},
	}
	if c := status.Connection; c != nil {
		tone := ToneBad
		if c.Status == "success" {
			tone = ToneGood
		}
		s.Companion = append(s.Companion,
			Row{Label: "Connection", Value: c.Message, Tone: tone},
			Row{Label: "Tested", Value: Ago(c.Timestamp, now)},
		)
	}

	if o := status.Outcome; o != nil {
		s.Outcome = []Row{
			{Label: "Status", Value: string(o.Status), Tone: outcomeTone(o.Status)},
			{Label: "Message", Value: o.Message},
			{Label: "Trigger", Value: o.Trigger.String()},
			{Label: "When", Value: Ago(o.Timestamp, now)},
			{Label: "Cookies", Value: fmt.Sprintf("%d/%d", o.CredentialCount, domain.RequiredCredentialCount)},
		}
		if o.RetryCount > 0 {
			s.Outcome = append(s.Outcome, Row{Label: "Retries", Value: fmt.Sprintf("%d", o.RetryCount)})
		}
		if len(o.Missing) > 0 {
			s.Outcome = append(s.Outcome, Row{Label: "Missing", Value: strings.Join(o.Missing, ", "), Tone: ToneWarn})
		}
	} else {
		s.Outcome = []Row{{Label: "Status", Value: "never synced"}}
	}
	if c := status.LastClear; c != nil {
		s.Outcome = append(s.Outcome, Row{Label: "Last clear", Value: Ago(c.Timestamp, now)})
	}

	sched := status.Scheduler
	s.Scheduler = []Row{
		{Label: "In progress", Value: yesNo(sched.SyncInProgress)},
		{Label: "Batch pending", Value: yesNo(sched.BatchPending)},
		{Label: "Pending retries", Value: fmt.Sprintf("%d", sched.PendingRetries)},
		{Label: "Last attempt", Value: Ago(sched.LastSyncAttemptAt, now)},
		{Label: "Last report", Value: Ago(sched.LastStatusReportAt, now)},
	}
	return s
}

// Plain renders a status without styling, for non-interactive output.
func Plain(status *domain.AgentStatus, now time.Time) string {
	rows := Rows(status, now)
	var b strings.Builder
	section := func(heading string, rs []Row) {
		fmt.Fprintf(&b, "%s\n", heading)
		for _, r := range rs {
			fmt.Fprintf(&b, "  %-16s %s\n", r.Label+":", r.Value)
		}
	}
	section("Companion", rows.Companion)
	section("Last sync", rows.Outcome)
	section("Scheduler", rows.Scheduler)
	return b.String()
}

// Ago formats a timestamp relative to now.
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t).Round(time.Second)
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

func outcomeTone(status domain.OutcomeStatus) Tone {
	switch status {
	case domain.OutcomeSuccess:
		return ToneGood
	case domain.OutcomeError:
		return ToneBad
	default:
		return ToneWarn
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
