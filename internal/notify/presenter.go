// Package notify turns terminal job transitions into user-visible signals:
// a styled toast on the desktop profile, a scheduled local notification with
// a deep link on the mobile profile.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/videogenai/videogen-go/internal/models"
	"github.com/videogenai/videogen-go/internal/reconcile"
)

// Theme holds the color scheme for toast output.
type Theme struct {
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

// Toast prints success/failure affordances to a writer. It holds no
// first-time state of its own: single firing is the reconciler's guarantee.
type Toast struct {
	out   io.Writer
	theme Theme
}

// NewToast creates a toast presenter writing to w (stdout when nil).
func NewToast(w io.Writer) *Toast {
	if w == nil {
		w = os.Stdout
	}
	return &Toast{out: w, theme: defaultTheme}
}

// JobCompleted implements reconcile.Presenter.
func (t *Toast) JobCompleted(snap reconcile.Snapshot) {
	summary := ""
	if snap.Result != nil {
		summary = snap.Result.Summary()
	}
	if summary == "" {
		summary = "operazione completata"
	}
	fmt.Fprintf(t.out, "%s %s\n", t.theme.successStyle().Render("✓"), summary)
}

// JobFailed implements reconcile.Presenter.
func (t *Toast) JobFailed(snap reconcile.Snapshot) {
	msg := snap.Error
	if msg == "" {
		msg = "operazione non riuscita"
	}
	fmt.Fprintf(t.out, "%s %s\n", t.theme.errorStyle().Render("✗"), msg)
}

// Notification is the local-notification payload for the mobile profile. The
// deep link data lets host navigation return the user to the relevant screen.
type Notification struct {
	Title string           `json:"title"`
	Body  string           `json:"body"`
	Data  NotificationData `json:"data"`
}

// NotificationData is the deep-link payload carried by a notification.
type NotificationData struct {
	VideoID    int64  `json:"videoId"`
	RedirectTo string `json:"redirectTo"`
}

// Scheduler hands a notification to the host platform.
type Scheduler func(Notification)

// LocalNotifier schedules local notifications on terminal transitions.
type LocalNotifier struct {
	schedule Scheduler
}

// NewLocalNotifier creates a notifier using the given scheduler. A nil
// scheduler logs notifications instead of delivering them.
func NewLocalNotifier(schedule Scheduler) *LocalNotifier {
	if schedule == nil {
		schedule = func(n Notification) {
			slog.Info("local notification",
				"title", n.Title, "body", n.Body,
				"video_id", n.Data.VideoID, "redirect_to", n.Data.RedirectTo)
		}
	}
	return &LocalNotifier{schedule: schedule}
}

// redirectFor names the screen to activate when the user taps the
// notification.
func redirectFor(kind models.JobKind) string {
	switch kind {
	case models.KindSegmentation, models.KindVoiceOver:
		return "editor"
	case models.KindTextToVideo:
		return "preview"
	case models.KindRender:
		return "export"
	case models.KindPublish:
		return "social"
	default:
		return "home"
	}
}

// JobCompleted implements reconcile.Presenter.
func (n *LocalNotifier) JobCompleted(snap reconcile.Snapshot) {
	body := ""
	if snap.Result != nil {
		body = snap.Result.Summary()
	}
	n.schedule(Notification{
		Title: "VideoGenAI",
		Body:  body,
		Data: NotificationData{
			VideoID:    snap.JobID,
			RedirectTo: redirectFor(snap.Kind),
		},
	})
}

// JobFailed implements reconcile.Presenter.
func (n *LocalNotifier) JobFailed(snap reconcile.Snapshot) {
	body := snap.Error
	if body == "" {
		body = "operazione non riuscita"
	}
	n.schedule(Notification{
		Title: "VideoGenAI",
		Body:  body,
		Data: NotificationData{
			VideoID:    snap.JobID,
			RedirectTo: redirectFor(snap.Kind),
		},
	})
}

// Multi fans a terminal transition out to several presenters.
type Multi []reconcile.Presenter

// JobCompleted implements reconcile.Presenter.
func (m Multi) JobCompleted(snap reconcile.Snapshot) {
	for _, p := range m {
		p.JobCompleted(snap)
	}
}

// JobFailed implements reconcile.Presenter.
func (m Multi) JobFailed(snap reconcile.Snapshot) {
	for _, p := range m {
		p.JobFailed(snap)
	}
}
