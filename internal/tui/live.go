// Package tui is the interactive terminal front end: it steps a
// constrained simulation in real time and draws the scene.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rbsim/internal/config"
	"github.com/san-kum/rbsim/internal/scenario"
	"github.com/san-kum/rbsim/internal/sim"
	"github.com/san-kum/rbsim/internal/viz"
)

const (
	canvasW   = 60
	canvasH   = 18
	frameRate = 30
	histCap   = 240
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	canvasStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model for the live view.
type Model struct {
	cfg    *config.Config
	method sim.Method

	sys        *scenario.System
	simulator  *sim.Simulator
	scene      *viz.Scene
	canvas     *viz.Canvas
	energyHist []float64

	paused bool
	speed  float64
	err    error
}

// NewModel builds the live view for a validated config.
func NewModel(cfg *config.Config) (Model, error) {
	method, err := sim.ParseMethod(cfg.Method)
	if err != nil {
		return Model{}, err
	}
	m := Model{
		cfg:        cfg,
		method:     method,
		canvas:     viz.NewCanvas(canvasW, canvasH),
		energyHist: make([]float64, 0, histCap),
		speed:      1,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reset() error {
	sys, err := scenario.Build(m.cfg)
	if err != nil {
		return err
	}
	solver, err := m.cfg.LinearSolver()
	if err != nil {
		return err
	}
	sys.Set.Solver = solver
	m.sys = sys
	m.simulator = sim.New(sys, m.method)
	m.scene = viz.NewScene(sys)
	m.energyHist = m.energyHist[:0]
	m.err = nil
	return nil
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "+", "=":
			if m.speed < 8 {
				m.speed *= 2
			}
		case "-":
			if m.speed > 0.25 {
				m.speed /= 2
			}
		}
		return m, nil

	case tickMsg:
		if !m.paused && m.err == nil {
			steps := int(m.speed / (frameRate * m.cfg.Dt))
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				if err := m.simulator.Step(m.cfg.Dt); err != nil {
					m.err = err
					break
				}
			}
			st := m.simulator.State()
			m.energyHist = append(m.energyHist, sim.Energy(m.sys.Model, st.Q, st.QDot))
			if len(m.energyHist) > histCap {
				m.energyHist = m.energyHist[1:]
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	st := m.simulator.State()
	m.scene.Draw(m.canvas, st.Q)

	var stats strings.Builder
	row := func(label, value string) {
		stats.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("scenario", m.sys.Name)
	row("method", m.method.String())
	row("t", fmt.Sprintf("%.2f s", st.T))
	row("speed", fmt.Sprintf("%gx", m.speed))
	if len(m.energyHist) > 0 {
		row("energy", fmt.Sprintf("%.4f J", m.energyHist[len(m.energyHist)-1]))
	}
	for i, lbl := range m.sys.DOFLabels {
		if i < len(st.QDot) {
			row(lbl+"'", fmt.Sprintf("%+.3f", st.QDot[i]))
		}
	}
	for i, f := range m.sys.Set.Force {
		row(fmt.Sprintf("lambda[%d]", i), fmt.Sprintf("%+.2f", f))
	}
	if m.paused {
		stats.WriteString(alertStyle.Render("paused") + "\n")
	}
	if m.err != nil {
		stats.WriteString(alertStyle.Render("error: "+m.err.Error()) + "\n")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(strings.TrimRight(m.canvas.String(), "\n")),
		lipgloss.NewStyle().Padding(0, 2).Render(stats.String()),
	)

	var graph string
	if len(m.energyHist) > 2 {
		graph = graphStyle.Render(viz.PlotSeries(m.energyHist, "energy", canvasW, 4))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("rbsim "+m.sys.Name),
		body,
		graph,
		helpStyle.Render("space pause · r reset · +/- speed · q quit"),
	)
}

// Run starts the live view and blocks until it exits.
func Run(cfg *config.Config) error {
	m, err := NewModel(cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
