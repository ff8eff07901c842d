package viz

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pulseviz/pulseviz/internal/binding"
	"github.com/pulseviz/pulseviz/internal/config"
	"github.com/pulseviz/pulseviz/internal/session"
)

type frameMsg session.FrameSnapshot
type eventMsg session.Event
type controlsMsg bool
type errMsg struct{ err error }

// Surface hosts the terminal UI and doubles as the session's control
// surface: the session disables the toggle/end affordances when it
// ends and re-enables them on reset.
type Surface struct {
	mu   sync.Mutex
	prog *tea.Program
}

func NewSurface() *Surface {
	return &Surface{}
}

// SetControlsEnabled implements session.ControlSurface.
func (s *Surface) SetControlsEnabled(enabled bool) {
	s.mu.Lock()
	p := s.prog
	s.mu.Unlock()
	if p != nil {
		p.Send(controlsMsg(enabled))
	}
}

// Run blocks until the user quits. It forwards session frames and
// lifecycle events into the bubbletea program.
func (s *Surface) Run(sess *session.Session, registry *binding.Registry, cfg *config.Config) error {
	p := tea.NewProgram(newModel(sess, registry, cfg), tea.WithAltScreen())
	s.mu.Lock()
	s.prog = p
	s.mu.Unlock()

	unsubscribe := sess.Subscribe(func(ev session.Event) {
		p.Send(eventMsg(ev))
	})
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case snap := <-sess.Frames():
				p.Send(frameMsg(snap))
			}
		}
	}()

	_, err := p.Run()
	return err
}
