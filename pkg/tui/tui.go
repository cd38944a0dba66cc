// Package tui renders the interactive update screen. It is a pure display
// layer: all update logic lives in the orchestrator, and the screen only
// mirrors the events it emits.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dikkadev/slipway/pkg/updater"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

type statusMsg string
type alertMsg string
type downloadProgressMsg float64
type extractProgressMsg float64
type versionsMsg struct{ local, remote string }
type controlsMsg updater.Controls
type phaseMsg updater.Phase
type cycleDoneMsg struct{ err error }

// Relay forwards orchestrator events into a running bubbletea program.
// Events emitted before Attach are buffered so the startup cycle's first
// messages are not lost.
type Relay struct {
	mu      sync.Mutex
	program *tea.Program
	pending []tea.Msg
}

func NewRelay() *Relay {
	return &Relay{}
}

// Attach binds the relay to a program and flushes buffered messages.
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, msg := range pending {
		p.Send(msg)
	}
}

func (r *Relay) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	if p == nil {
		r.pending = append(r.pending, msg)
	}
	r.mu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

// Events returns the orchestrator event surface backed by this relay.
func (r *Relay) Events() updater.Events {
	return updater.Events{
		OnDownloadProgress: func(p float64) { r.send(downloadProgressMsg(p)) },
		OnExtractProgress:  func(p float64) { r.send(extractProgressMsg(p)) },
		OnStatus:           func(m string) { r.send(statusMsg(m)) },
		OnAlert:            func(m string) { r.send(alertMsg(m)) },
		OnVersions:         func(l, rm string) { r.send(versionsMsg{local: l, remote: rm}) },
		OnControls:         func(c updater.Controls) { r.send(controlsMsg(c)) },
		OnPhase:            func(p updater.Phase) { r.send(phaseMsg(p)) },
	}
}

type model struct {
	orch *updater.Orchestrator
	ctx  context.Context

	downloadBar     progress.Model
	extractBar      progress.Model
	downloadPercent float64
	extractPercent  float64

	localVersion  string
	remoteVersion string
	status        string
	alert         string
	phase         updater.Phase
	controls      updater.Controls
	width         int
	quitting      bool
}

func newModel(ctx context.Context, orch *updater.Orchestrator) model {
	return model{
		orch:        orch,
		ctx:         ctx,
		downloadBar: progress.New(progress.WithDefaultGradient()),
		extractBar:  progress.New(progress.WithDefaultGradient()),
		status:      "Ready",
		phase:       updater.PhaseIdle,
		width:       60,
		controls:    updater.Controls{CheckEnabled: true},
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 8
		if barWidth > 60 {
			barWidth = 60
		}
		if barWidth > 0 {
			m.downloadBar.Width = barWidth
			m.extractBar.Width = barWidth
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "c":
			if m.controls.CheckEnabled && !m.orch.Busy() {
				m.alert = ""
				return m, m.checkCmd()
			}
		case "u":
			if m.controls.UpdateEnabled && !m.orch.Busy() {
				m.alert = ""
				return m, m.updateCmd()
			}
		case "r":
			if m.controls.RunEnabled && !m.orch.Busy() {
				m.alert = ""
				return m, m.runCmd()
			}
		}
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case alertMsg:
		m.alert = string(msg)
		return m, nil

	case downloadProgressMsg:
		m.downloadPercent = float64(msg)
		return m, nil

	case extractProgressMsg:
		m.extractPercent = float64(msg)
		return m, nil

	case versionsMsg:
		m.localVersion = msg.local
		m.remoteVersion = msg.remote
		return m, nil

	case controlsMsg:
		m.controls = updater.Controls(msg)
		return m, nil

	case phaseMsg:
		m.phase = updater.Phase(msg)
		return m, nil

	case cycleDoneMsg:
		// Failures were already surfaced through status/alert events.
		return m, nil
	}

	return m, nil
}

func (m model) checkCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.orch.Check(m.ctx)
		return cycleDoneMsg{err: err}
	}
}

func (m model) updateCmd() tea.Cmd {
	return func() tea.Msg {
		return cycleDoneMsg{err: m.orch.TriggerManual(m.ctx)}
	}
}

func (m model) runCmd() tea.Cmd {
	return func() tea.Msg {
		return cycleDoneMsg{err: m.orch.Launch()}
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Slipway Updater"))
	b.WriteString("\n")

	local := m.localVersion
	if local == "" {
		local = "unknown"
	}
	remote := m.remoteVersion
	if remote == "" {
		remote = "unknown"
	}
	b.WriteString(fmt.Sprintf("%s %s    %s %s\n\n",
		labelStyle.Render("Installed:"), valueStyle.Render(local),
		labelStyle.Render("Available:"), valueStyle.Render(remote)))

	b.WriteString(labelStyle.Render("Download") + "\n")
	b.WriteString(m.downloadBar.ViewAs(m.downloadPercent/100) + "\n")
	b.WriteString(labelStyle.Render("Install") + "\n")
	b.WriteString(m.extractBar.ViewAs(m.extractPercent/100) + "\n\n")

	b.WriteString(statusStyle.Render(m.status) + "\n")
	if m.alert != "" {
		b.WriteString(alertStyle.Render(m.alert) + "\n")
	}

	b.WriteString(helpStyle.Render(m.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m model) helpLine() string {
	key := func(label string, enabled bool) string {
		if enabled {
			return label
		}
		return dimStyle.Render(label)
	}
	parts := []string{
		key("c: check", m.controls.CheckEnabled),
		key("u: update", m.controls.UpdateEnabled),
		key("r: run", m.controls.RunEnabled),
		"q: quit",
	}
	return strings.Join(parts, " • ")
}

// Run shows the update screen and starts the automatic update flow on a
// worker goroutine. It returns when the operator quits.
func Run(ctx context.Context, orch *updater.Orchestrator, relay *Relay) error {
	p := tea.NewProgram(newModel(ctx, orch))
	relay.Attach(p)

	go func() {
		// Errors surface on screen through the relay.
		_ = orch.RunAuto(ctx)
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}
	return nil
}
