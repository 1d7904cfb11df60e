package cli

import (
	"errors"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/videogenai/videogen-go/internal/models"
	"github.com/videogenai/videogen-go/internal/push"
	"github.com/videogenai/videogen-go/internal/reconcile"
)

// staleThreshold is how long the display tolerates no update before reporting
// a degraded status, provided the push channel is also down.
const staleThreshold = 15 * time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg re-renders so connection degradation becomes visible between updates
type tickMsg time.Time

// snapshotMsg carries a fresh displayed state from the reconciler
type snapshotMsg reconcile.Snapshot

// watchClosedMsg signals that the job was released
type watchClosedMsg struct{}

// progressModel is the bubbletea model for job progress.
type progressModel struct {
	jobID    int64
	updates  <-chan reconcile.Snapshot
	channel  *push.Channel
	snap     *reconcile.Snapshot
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(jobID int64, updates <-chan reconcile.Snapshot, ch *push.Channel) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		jobID:    jobID,
		updates:  updates,
		channel:  ch,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial commands (wait for reconciler updates, tick).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		waitForUpdate(m.updates),
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case snapshotMsg:
		snap := reconcile.Snapshot(msg)
		m.snap = &snap

		switch snap.Status {
		case models.StatusCompleted:
			m.done = true
			return m, tea.Quit
		case models.StatusFailed:
			m.done = true
			if snap.Error != "" {
				m.err = errors.New(snap.Error)
			} else {
				m.err = errors.New("job failed with unknown error")
			}
			return m, tea.Quit
		}

		return m, waitForUpdate(m.updates)

	case watchClosedMsg:
		m.done = true
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// degraded reports the both-channels-down condition: the push channel is not
// connected and polling has not produced an update recently either.
func (m progressModel) degraded() bool {
	if m.channel == nil || m.channel.State() == push.Connected {
		return false
	}
	return m.snap == nil || time.Since(m.snap.UpdatedAt) > staleThreshold
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.snap == nil {
		if m.degraded() {
			return m.theme.errorStyle().Render("unable to retrieve status") + "\n"
		}
		return "Loading job status...\n"
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.snap.Status))
	progressBar := m.progress.ViewAs(float64(m.snap.Progress) / 100)
	pct := fmt.Sprintf("%d%%", m.snap.Progress)

	detail := m.snap.Stage
	if m.snap.Message != "" {
		detail = m.snap.Message
	}

	line := fmt.Sprintf("%s %s %s", status, progressBar, pct)
	if detail != "" {
		line += " " + detail
	}

	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")
	if m.degraded() {
		hint = m.theme.errorStyle().Render("unable to retrieve status")
	}

	return fmt.Sprintf("%s\n%s\n", line, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nJob %d continues on the server.\nUse 'videogen status' to check on it.\n", m.jobID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ %s\n", m.err))
	}

	if m.snap != nil && m.snap.Result != nil {
		return m.theme.completedStyle().Render("✓ "+m.snap.Result.Summary()) + "\n"
	}

	return m.theme.completedStyle().Render("✓ Completed\n")
}

// waitForUpdate blocks on the reconciler's watch channel and forwards the
// next snapshot as a message.
func waitForUpdate(updates <-chan reconcile.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return watchClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// tickCmd returns a command that re-renders after a second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runJobProgress runs the interactive progress UI for a tracked job. Returns
// nil on success or Ctrl+C (job continues server-side), the job error on
// failure.
func runJobProgress(r *reconcile.Reconciler, ch *push.Channel, jobID int64) error {
	updates, dispose := r.Watch(jobID)
	defer dispose()

	p := tea.NewProgram(newProgressModel(jobID, updates, ch))

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}
