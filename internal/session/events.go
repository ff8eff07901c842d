package session

import (
	"sync"
	"time"

	"github.com/pulseviz/pulseviz/internal/analyzer"
)

type EventKind string

const (
	EventStart     EventKind = "start"
	EventToggleMic EventKind = "toggleMic"
	EventEnd       EventKind = "end"
)

// ClipMeta describes an assembled clip.
type ClipMeta struct {
	Duration time.Duration `json:"duration"`
	Size     int           `json:"size"`
	MIMEType string        `json:"mime_type"`
}

// Event is one lifecycle notification. Which fields are populated
// depends on Kind: start carries the mic state and device label, end
// carries the clip payloads and analysis when a recording exists.
type Event struct {
	Kind            EventKind        `json:"event"`
	Timestamp       time.Time        `json:"timestamp"`
	Details         string           `json:"details"`
	IsMicOn         bool             `json:"is_mic_on"`
	MicrophoneLabel string           `json:"microphone_label,omitempty"`
	Clip            []byte           `json:"-"`
	ClipBase64      string           `json:"clip_base64,omitempty"`
	ClipMeta        *ClipMeta        `json:"clip_meta,omitempty"`
	FileName        string           `json:"file_name,omitempty"`
	Analysis        *analyzer.Result `json:"analysis,omitempty"`
	AnalysisErr     error            `json:"-"`
}

// Notifier fans lifecycle events out to subscribers. Delivery is
// synchronous, in subscription order, so listeners observe start,
// toggle and end in the order the session produced them.
type Notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
	order     []int
}

func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]func(Event))}
}

// Subscribe registers a listener and returns its unsubscribe func.
func (n *Notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.order = append(n.order, id)
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

func (n *Notifier) emit(ev Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.listeners))
	for _, id := range n.order {
		if fn, ok := n.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
