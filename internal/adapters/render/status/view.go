package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/leasehold/internal/application"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// ShowContact includes email and phone number in the output.
	ShowContact bool
}

// renderFrame lays out the header above the kind blocks drawn so far.
func renderFrame(statuses []application.Status, blocks []string, s styles) string {
	loggedIn := 0
	for _, status := range statuses {
		if status.Snapshot.IsLoggedIn {
			loggedIn++
		}
	}

	lines := []string{
		s.title.Render("Leasehold Sessions"),
		s.header.Render(fmt.Sprintf("kinds: %d  logged in: %d", len(statuses), loggedIn)),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No session stores configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, blocks...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderKind(status application.Status, opts RenderOptions, s styles) string {
	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.kind.Render(status.Kind.Label()),
		" ",
		stateBadge(status.Snapshot, s),
	)

	parts := []string{
		title,
		field(s, "key", status.Key),
		field(s, "login route", status.LoginRoute),
	}

	snapshot := status.Snapshot
	if snapshot.IsLoggedIn {
		parts = append(parts,
			field(s, "account", accountLabel(snapshot.AccountID)),
			field(s, "name", displayName(snapshot)),
			field(s, "subscribed", yesNo(snapshot.IsSubscribed)),
		)
		if opts.ShowContact {
			parts = append(parts,
				field(s, "email", orNA(snapshot.Email)),
				field(s, "phone", orNA(snapshot.PhoneNumber)),
			)
		}
		if snapshot.TokenRef != "" {
			parts = append(parts, field(s, "token ref", snapshot.TokenRef))
		}
	}

	if line := rehydrationLine(status.Rehydration, s); line != "" {
		parts = append(parts, line)
	}

	if !opts.Now.IsZero() && !status.CapturedAt.IsZero() {
		parts = append(parts, field(s, "captured", formatAge(status.CapturedAt, opts.Now)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func stateBadge(snapshot domain.Snapshot, s styles) string {
	if snapshot.IsLoggedIn {
		return s.loggedIn.Render("[logged in]")
	}
	return s.loggedOut.Render("[logged out]")
}

func rehydrationLine(result *application.RehydrationResult, s styles) string {
	if result == nil {
		return ""
	}

	if result.Outcome != application.OutcomeDegraded {
		return field(s, "rehydration", string(result.Outcome))
	}

	text := fmt.Sprintf("degraded (%s)", result.Reason)
	return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render("rehydration: "), s.warning.Render(text))
}

func field(s styles, label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(label+": "), s.detail.Render(value))
}

func accountLabel(id *domain.AccountID) string {
	if id == nil {
		return "n/a"
	}
	return fmt.Sprintf("#%d", int64(*id))
}

func displayName(snapshot domain.Snapshot) string {
	name := strings.TrimSpace(snapshot.FirstName + " " + snapshot.LastName)
	return orNA(name)
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "n/a"
	}
	return value
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatAge(at, now time.Time) string {
	d := now.Sub(at)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
