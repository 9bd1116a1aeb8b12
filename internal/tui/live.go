package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/calebv/tracklab/internal/config"
	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/pidf"
	"github.com/calebv/tracklab/internal/sim"
	"github.com/calebv/tracklab/internal/trajectory"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	fps             = 30
	historyCapacity = 600
	trailCapacity   = 400
)

var (
	canvasStyle      = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	doneStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// gain pairs an axis controller with one of its tunable coefficients.
type gain struct {
	name string
	ctrl *pidf.Controller
	key  string
}

// Model runs the tracking loop interactively: the plant, sensors and
// follower all advance on a mock clock that is stepped from UI ticks, so
// wall time never leaks into the control timing.
type Model struct {
	cfg  *config.Config
	traj trajectory.Trajectory

	fol     *follower.Holonomic
	plant   *sim.Plant
	sensors *sim.Sensors
	clk     *clock.Mock
	t       float64

	canvas     *Canvas
	trail      []geom.Pose
	errHistory []float64

	// World bounds of the planned path, used for projection.
	minX, maxX, minY, maxY float64

	gains        []gain
	initialGains []float64
	selected     int

	running  bool
	finished bool
	showHelp bool
}

// NewModel builds an interactive session from a run configuration.
func NewModel(cfg *config.Config) (Model, error) {
	traj, err := cfg.BuildTrajectory()
	if err != nil {
		return Model{}, err
	}

	clk := clock.NewMock()
	fol := follower.NewHolonomic(
		cfg.Gains.Axial, cfg.Gains.Lateral, cfg.Gains.Heading,
		follower.WithClock(clk),
		follower.WithTolerance(cfg.Tolerance),
		follower.WithTimeout(time.Duration(cfg.Timeout*float64(time.Second))),
	)
	plant := sim.NewPlant(traj.Pose(0))
	plant.DriveLag = cfg.Sim.DriveLag
	sensors := sim.NewSensors(cfg.Sim.NoiseXY, cfg.Sim.NoiseHeading, cfg.Sim.VelocitySensing, cfg.Sim.Seed)

	ax, lat, hd := fol.Axes()
	gains := []gain{
		{"axial.kp", ax, "kp"}, {"axial.ki", ax, "ki"}, {"axial.kd", ax, "kd"},
		{"lateral.kp", lat, "kp"}, {"lateral.ki", lat, "ki"}, {"lateral.kd", lat, "kd"},
		{"heading.kp", hd, "kp"}, {"heading.ki", hd, "ki"}, {"heading.kd", hd, "kd"},
	}
	initial := make([]float64, len(gains))
	for i, g := range gains {
		initial[i] = g.ctrl.GetParams()[g.key]
	}

	m := Model{
		cfg:          cfg,
		traj:         traj,
		fol:          fol,
		plant:        plant,
		sensors:      sensors,
		clk:          clk,
		canvas:       NewCanvas(canvasWidth, canvasHeight),
		trail:        make([]geom.Pose, 0, trailCapacity),
		errHistory:   make([]float64, 0, historyCapacity),
		gains:        gains,
		initialGains: initial,
		running:      true,
	}
	m.computeBounds()
	m.fol.Follow(traj)
	return m, nil
}

// computeBounds samples the planned path to size the field view.
func (m *Model) computeBounds() {
	m.minX, m.maxX = math.Inf(1), math.Inf(-1)
	m.minY, m.maxY = math.Inf(1), math.Inf(-1)
	dur := m.traj.Duration()
	for i := 0; i <= 100; i++ {
		p := m.traj.Pose(dur * float64(i) / 100)
		m.minX, m.maxX = math.Min(m.minX, p.X), math.Max(m.maxX, p.X)
		m.minY, m.maxY = math.Min(m.minY, p.Y), math.Max(m.maxY, p.Y)
	}
	// Pad so the path never hugs the border, and keep a sane span for
	// pure rotations where the path is a single point.
	padX := 0.15*(m.maxX-m.minX) + 0.25
	padY := 0.15*(m.maxY-m.minY) + 0.25
	m.minX, m.maxX = m.minX-padX, m.maxX+padX
	m.minY, m.maxY = m.minY-padY, m.maxY+padY
}

// project maps a field position to canvas sub-pixels. Y grows upward in the
// field and downward on screen.
func (m *Model) project(x, y float64) (int, int) {
	cw, ch := float64(canvasWidth*2-1), float64(canvasHeight*4-1)
	px := (x - m.minX) / (m.maxX - m.minX) * cw
	py := (1 - (y-m.minY)/(m.maxY-m.minY)) * ch
	return int(px), int(py)
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the control loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(m.gains)
		case "up", "k":
			m.adjustGain(1.05)
		case "down", "j":
			m.adjustGain(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.finished {
			// Advance enough control ticks to keep the view real-time.
			steps := int(1 / (fps * m.cfg.Sim.Dt))
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps && !m.finished; i++ {
				m.step()
			}
		}
		return m, tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// step runs one control tick against the simulated plant.
func (m *Model) step() {
	pose := m.sensors.Pose(m.plant.Pose)
	vel := m.sensors.Velocity(m.plant.RobotVel)
	cmd := m.fol.Update(pose, vel)

	e := m.fol.LastError()
	m.errHistory = append(m.errHistory, math.Hypot(e.X, e.Y))
	if len(m.errHistory) > historyCapacity {
		m.errHistory = m.errHistory[1:]
	}
	m.trail = append(m.trail, m.plant.Pose)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}

	if !m.fol.IsFollowing() {
		m.finished = true
		return
	}
	m.plant.Apply(cmd, m.cfg.Sim.Dt)
	m.clk.Add(time.Duration(m.cfg.Sim.Dt * float64(time.Second)))
	m.t += m.cfg.Sim.Dt
}

func (m *Model) adjustGain(factor float64) {
	g := m.gains[m.selected]
	val := g.ctrl.GetParams()[g.key] * factor
	if val == 0 && factor > 1 {
		val = 0.01
	}
	g.ctrl.SetParam(g.key, val)
}

// reset restores the initial gains and restarts the run from the trajectory
// start.
func (m *Model) reset() {
	for i, g := range m.gains {
		g.ctrl.SetParam(g.key, m.initialGains[i])
	}
	m.plant = sim.NewPlant(m.traj.Pose(0))
	m.plant.DriveLag = m.cfg.Sim.DriveLag
	m.sensors = sim.NewSensors(m.cfg.Sim.NoiseXY, m.cfg.Sim.NoiseHeading, m.cfg.Sim.VelocitySensing, m.cfg.Sim.Seed)
	m.t = 0
	m.trail = m.trail[:0]
	m.errHistory = m.errHistory[:0]
	m.finished = false
	m.fol.Follow(m.traj)
}

// draw renders the planned path, the trail, and the robot marker.
func (m *Model) draw() {
	m.canvas.Clear()

	dur := m.traj.Duration()
	px, py := m.project(m.traj.Pose(0).X, m.traj.Pose(0).Y)
	for i := 1; i <= 80; i++ {
		p := m.traj.Pose(dur * float64(i) / 80)
		nx, ny := m.project(p.X, p.Y)
		m.canvas.DrawLine(px, py, nx, ny)
		px, py = nx, ny
	}

	for _, p := range m.trail {
		x, y := m.project(p.X, p.Y)
		m.canvas.Set(x, y)
	}

	// Robot marker with a heading tick.
	rp := m.plant.Pose
	rx, ry := m.project(rp.X, rp.Y)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			m.canvas.Set(rx+dx, ry+dy)
		}
	}
	hx := rx + int(6*math.Cos(rp.Heading))
	hy := ry - int(6*math.Sin(rp.Heading))
	m.canvas.DrawLine(rx, ry, hx, hy)
}

// View renders the field view next to the stats panel.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("TRACKLAB LIVE") + "\n")
	switch {
	case m.finished:
		s.WriteString(doneStyle.Render("FINISHED") + "\n\n")
	case m.running:
		s.WriteString("RUNNING\n\n")
	default:
		s.WriteString("PAUSED\n\n")
	}

	if len(m.errHistory) > 1 {
		chart := asciigraph.Plot(m.errHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Position error"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	e := m.fol.LastError()
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs / %.2fs", m.t, m.traj.Duration())) + "\n")
	s.WriteString(labelStyle.Render("Err X") + valueStyle.Render(fmt.Sprintf("%+.4f m", e.X)) + "\n")
	s.WriteString(labelStyle.Render("Err Y") + valueStyle.Render(fmt.Sprintf("%+.4f m", e.Y)) + "\n")
	s.WriteString(labelStyle.Render("Err Head") + valueStyle.Render(fmt.Sprintf("%+.4f rad", e.Heading)) + "\n")

	s.WriteString("\nGAINS\n")
	for i, g := range m.gains {
		val := g.ctrl.GetParams()[g.key]
		line := fmt.Sprintf("%-11s %6.3f", g.name, val)
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nTab:Gain ↑↓:Tune ?:Help"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume run         ║
║  R        - Reset run and gains      ║
║  Q        - Quit                     ║
║  Tab      - Cycle gains              ║
║  Up/K     - Increase gain (+5%)      ║
║  Down/J   - Decrease gain (-5%)      ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
