package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/policydesk/policydesk/internal/policy"
)

// Color constants for the policy desk theme.
const (
	primaryColor   = "#2563EB" // Blue
	secondaryColor = "#10B981" // Green
	warningColor   = "#F59E0B" // Amber
	errorColor     = "#EF4444" // Red
	dimColor       = "#6B7280" // Gray
)

// Style variables for consistent TUI rendering.
var (
	// BoxStyle provides a rounded border box with primary color.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(1, 2)

	// CardStyle is a plain bordered card for stats and side panels.
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)

	// TitleStyle renders titles in primary color with bold.
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	// SelectedStyle highlights selected items in primary color.
	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	// DimStyle renders dim/muted text.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	// SuccessStyle renders success messages in green.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	// ErrorStyle renders error messages in red.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	// WarningStyle renders warning messages in amber.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor))

	// ErrorBannerStyle renders the interview error banner.
	ErrorBannerStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(lipgloss.Color(errorColor)).
				Foreground(lipgloss.Color(errorColor)).
				Padding(0, 1)

	// StatusBarStyle provides styling for the status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)

	// SidebarStyle frames the navigation sidebar.
	SidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(1, 2).
			Width(24)

	// ActiveTabStyle renders the active sidebar entry.
	ActiveTabStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(primaryColor)).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	// InactiveTabStyle renders inactive sidebar entries.
	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#9CA3AF")).
				Padding(0, 1)

	// UserBubbleStyle renders messages sent by the user.
	UserBubbleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(primaryColor)).
			Padding(0, 1)

	// AgentBubbleStyle renders messages sent by the agent.
	AgentBubbleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#E5E7EB")).
				Background(lipgloss.Color("#374151")).
				Padding(0, 1)
)

// Compliance status icons (pre-rendered strings).
var (
	// IconCompliant marks a compliant requirement.
	IconCompliant = SuccessStyle.Render("✓")

	// IconNeedsReview marks a requirement that needs review.
	IconNeedsReview = WarningStyle.Render("!")

	// IconNonCompliant marks a non-compliant requirement.
	IconNonCompliant = ErrorStyle.Render("✗")
)

// StatusIcon returns the icon for a compliance status.
func StatusIcon(s policy.ComplianceStatus) string {
	switch s {
	case policy.Compliant:
		return IconCompliant
	case policy.NonCompliant:
		return IconNonCompliant
	default:
		return IconNeedsReview
	}
}

// RiskBadge renders a risk level as a colored label.
func RiskBadge(r policy.RiskLevel) string {
	label := string(r) + " risk"
	switch r {
	case policy.RiskLow:
		return SuccessStyle.Render(label)
	case policy.RiskHigh:
		return ErrorStyle.Render(label)
	default:
		return WarningStyle.Render(label)
	}
}

// SessionBadge renders a session status with its color.
func SessionBadge(s policy.SessionStatus) string {
	switch s {
	case policy.StatusCompleted:
		return SuccessStyle.Render(string(s))
	case policy.StatusReviewing:
		return WarningStyle.Render(string(s))
	default:
		return SelectedStyle.Render(string(s))
	}
}
