package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/policydesk/policydesk/internal/config"
	"github.com/policydesk/policydesk/internal/tui"
)

// SettingsModel shows the effective configuration. It is read-only; edit
// .policydesk/config.yaml or the environment to change it.
type SettingsModel struct {
	cfg    *config.Config
	width  int
	height int

	ctrlCPending bool
}

// NewSettingsModel creates a new SettingsModel for cfg.
func NewSettingsModel(cfg *config.Config, width, height int) SettingsModel {
	return SettingsModel{cfg: cfg, width: width, height: height}
}

// SetSize updates the available area.
func (m *SettingsModel) SetSize(width, height int) {
	m.width, m.height = width, height
}

// SetCtrlCPending sets the Ctrl+C pending state for display.
func (m *SettingsModel) SetCtrlCPending(pending bool) {
	m.ctrlCPending = pending
}

// Update handles messages for the settings view.
func (m SettingsModel) Update(tea.Msg) (SettingsModel, tea.Cmd) {
	return m, nil
}

// View renders the settings view.
func (m SettingsModel) View() string {
	if m.cfg == nil {
		return ""
	}
	c := m.cfg
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Settings"))
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("Read-only. Edit " + config.Dir + "/config.yaml or set POLICYDESK_* variables."))
	b.WriteString("\n\n")

	mode := "remote"
	if c.UseMock() {
		mode = "offline mock"
	}

	section := func(title string, rows [][2]string) {
		b.WriteString(tui.SelectedStyle.Render(title))
		b.WriteString("\n")
		for _, r := range rows {
			b.WriteString(fmt.Sprintf("  %-22s %s\n", tui.DimStyle.Render(r[0]), orDash(r[1])))
		}
		b.WriteString("\n")
	}

	timeout := "none"
	if c.Timeout() > 0 {
		timeout = c.Timeout().String()
	}
	section("Agent", [][2]string{
		{"Mode", c.Agent.Mode + " (" + mode + ")"},
		{"Endpoint", c.Agent.Endpoint},
		{"User ID", c.Agent.UserID},
		{"Timeout", timeout},
		{"Interview", c.Agent.IDs.Interview},
		{"Compliance research", c.Agent.IDs.ComplianceResearch},
		{"Drafting coordinator", c.Agent.IDs.DraftCoordinator},
		{"Finalization", c.Agent.IDs.Finalizer},
	})
	section("Organization", [][2]string{
		{"Name", c.Organization.Name},
		{"Industry", c.Organization.Industry},
		{"Employees", c.Organization.EmployeeCount},
		{"Headquarters", c.Organization.Headquarters},
	})
	section("Storage & Logging", [][2]string{
		{"Session store", c.Store.Path},
		{"Log level", c.Log.Level},
	})

	b.WriteString(footer("1-4 navigate", m.ctrlCPending))
	return b.String()
}
