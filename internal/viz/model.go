package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/pulseviz/pulseviz/internal/binding"
	"github.com/pulseviz/pulseviz/internal/config"
	"github.com/pulseviz/pulseviz/internal/session"
)

const (
	historyCapacity = 120
	graphHeight     = 6
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	canvasStyle  = lipgloss.NewStyle().Padding(1, 2)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	eventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	problemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// rotation buckets of 45 degrees map onto spinner orientations
var rotationGlyphs = []string{"│", "╱", "─", "╲", "│", "╱", "─", "╲"}

// Model is the bubbletea model for the reactive animation surface.
type Model struct {
	sess     *session.Session
	registry *binding.Registry
	cfg      *config.Config

	snap            session.FrameSnapshot
	history         []float64
	lastEvent       string
	problem         string
	controlsEnabled bool
	width           int
}

func newModel(sess *session.Session, registry *binding.Registry, cfg *config.Config) Model {
	return Model{
		sess:            sess,
		registry:        registry,
		cfg:             cfg,
		history:         make([]float64, 0, historyCapacity),
		controlsEnabled: true,
		width:           80,
	}
}

func (m Model) Init() tea.Cmd {
	return startSession(m.sess)
}

func startSession(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		if err := sess.Start(); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case frameMsg:
		m.snap = session.FrameSnapshot(msg)
		m.history = append(m.history, m.snap.Amplitude)
		if len(m.history) > historyCapacity {
			m.history = m.history[len(m.history)-historyCapacity:]
		}

	case eventMsg:
		m.lastEvent = describeEvent(session.Event(msg))

	case controlsMsg:
		m.controlsEnabled = bool(msg)

	case errMsg:
		m.problem = msg.err.Error()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.sess.Reset()
			return m, tea.Quit
		case "m":
			if m.controlsEnabled {
				if err := m.sess.ToggleMic(); err != nil {
					m.problem = err.Error()
				}
			}
		case "e":
			if m.controlsEnabled {
				return m, func() tea.Msg {
					if err := m.sess.End(); err != nil {
						return errMsg{err: err}
					}
					return nil
				}
			}
		case "r":
			m.sess.Reset()
			m.history = m.history[:0]
			m.snap = session.FrameSnapshot{}
			m.problem = ""
			return m, startSession(m.sess)
		case "a":
			if len(m.cfg.Elements) > 0 {
				glyph := m.cfg.Elements[m.registry.Len()%len(m.cfg.Elements)]
				m.registry.Add(glyph)
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("pulseviz - microphone reactive visualizer"))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(canvasStyle.Render(m.renderElements()))
	b.WriteString("\n")

	if len(m.history) > 1 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(graphHeight),
			asciigraph.Width(min(m.width-10, historyCapacity)),
			asciigraph.Caption("smoothed amplitude"))
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	if m.lastEvent != "" {
		b.WriteString(eventStyle.Render(m.lastEvent))
		b.WriteString("\n")
	}
	if m.problem != "" {
		b.WriteString(problemStyle.Render("! " + m.problem))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("[m] toggle mic  [e] end  [r] restart  [a] add element  [q] quit"))
	return b.String()
}

func (m Model) statusLine() string {
	mic := "mic on"
	if !m.snap.MicOn {
		mic = mutedStyle.Render("mic muted")
	}
	return statusStyle.Render(fmt.Sprintf("%s | %s | elapsed %s | level %.3f",
		m.sess.State(), mic, m.snap.Elapsed.Truncate(100*time.Millisecond), m.snap.Amplitude))
}

// renderElements draws one cell per bound element. Rotation picks a
// spinner orientation, scale grows the glyph run, amplitude drives the
// color ramp.
func (m Model) renderElements() string {
	if len(m.snap.Transforms) == 0 {
		return eventStyle.Render("waiting for audio...")
	}

	cells := make([]string, 0, len(m.snap.Transforms))
	for _, tr := range m.snap.Transforms {
		deg := math.Mod(math.Abs(tr.Rotation), 360)
		tick := rotationGlyphs[int(deg/45)%len(rotationGlyphs)]

		size := 1 + int(math.Round((tr.Scale-1)*4))
		if size < 1 {
			size = 1
		} else if size > 5 {
			size = 5
		}

		style := lipgloss.NewStyle().Foreground(levelColor(m.snap.Amplitude)).Bold(size > 2)
		cell := fmt.Sprintf("%s%s%s", tick, strings.Repeat(tr.Glyph, size), tick)
		cells = append(cells, style.Render(cell))
	}
	return strings.Join(cells, "   ")
}

func levelColor(amplitude float64) lipgloss.Color {
	switch {
	case amplitude > 0.5:
		return lipgloss.Color("205")
	case amplitude > 0.2:
		return lipgloss.Color("214")
	case amplitude > 0.05:
		return lipgloss.Color("86")
	}
	return lipgloss.Color("240")
}

func describeEvent(ev session.Event) string {
	switch ev.Kind {
	case session.EventStart:
		return fmt.Sprintf("started capture on %q", ev.MicrophoneLabel)
	case session.EventToggleMic:
		return ev.Details
	case session.EventEnd:
		if ev.Clip == nil {
			return "ended: " + ev.Details
		}
		line := fmt.Sprintf("ended: %s (%d bytes, %s)", ev.FileName, ev.ClipMeta.Size, ev.ClipMeta.Duration.Truncate(100*time.Millisecond))
		switch {
		case ev.AnalysisErr != nil:
			line += " - analysis failed: " + ev.AnalysisErr.Error()
		case ev.Analysis != nil && ev.Analysis.IsMostlySilence:
			line += " - mostly silence"
		case ev.Analysis != nil:
			line += fmt.Sprintf(" - signal, avg level %.3f", ev.Analysis.AvgAmplitude)
		}
		return line
	}
	return ev.Details
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
