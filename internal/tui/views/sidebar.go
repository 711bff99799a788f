// Package views provides TUI view components for the policy wizard.
package views

import (
	"strings"

	"github.com/policydesk/policydesk/internal/tui"
)

// RenderSidebar renders the navigation sidebar with active highlighted. The
// wizard stages highlight Dashboard, where they were started from.
func RenderSidebar(active tui.ViewState, height int) string {
	if active.IsFlow() {
		active = tui.StateDashboard
	}

	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("PolicyDesk"))
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("HR policy wizard"))
	b.WriteString("\n\n")

	for _, item := range tui.SidebarItems {
		label := item.Key + "  " + item.Label
		if item.State == active {
			b.WriteString(tui.ActiveTabStyle.Render(label))
		} else {
			b.WriteString(tui.InactiveTabStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("ctrl+b hide"))

	style := tui.SidebarStyle
	if height > 2 {
		style = style.Height(height - 2)
	}
	return style.Render(b.String())
}

// ctrlCHint renders the exit hint, which changes while a second Ctrl+C is
// awaited.
func ctrlCHint(pending bool) string {
	if pending {
		return tui.WarningStyle.Render("Press Ctrl+C again to exit")
	}
	return tui.DimStyle.Render("ctrl+c exit")
}

// footer joins key hints and the exit hint.
func footer(hints string, ctrlCPending bool) string {
	return tui.DimStyle.Render(hints) + "  ·  " + ctrlCHint(ctrlCPending)
}

// clampWidth limits w to [lo, hi].
func clampWidth(w, lo, hi int) int {
	return max(lo, min(w, hi))
}
