package audio

import "context"

// FrameSize is the number of samples delivered per capture frame. Each
// animation frame reads one fresh 256-sample time-domain window.
const FrameSize = 256

// DefaultSampleRate is the capture rate used when the config does not
// override it.
const DefaultSampleRate = 16000

// Capture defines the interface for microphone capture
type Capture interface {
	Start(ctx context.Context, deviceID string, sampleRate int, out chan<- []float32) error
	Stop() error
	ListDevices() ([]Device, error)
	Close() error
}

// Device represents an audio input device
type Device struct {
	ID      string
	Name    string
	Default bool
}

// DeviceLabel resolves the human-readable label for a device ID using
// the capture's device list. An empty ID means the default input.
func DeviceLabel(c Capture, deviceID string) string {
	devices, err := c.ListDevices()
	if err != nil {
		return ""
	}
	for _, d := range devices {
		if deviceID == "" && d.Default {
			return d.Name
		}
		if d.ID == deviceID {
			return d.Name
		}
	}
	return ""
}
