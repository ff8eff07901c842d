package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pulseviz/pulseviz/internal/analyzer"
	"github.com/pulseviz/pulseviz/internal/audio"
	"github.com/pulseviz/pulseviz/internal/binding"
	"github.com/pulseviz/pulseviz/internal/config"
	"github.com/pulseviz/pulseviz/internal/logging"
	"github.com/pulseviz/pulseviz/internal/metrics"
	"github.com/pulseviz/pulseviz/internal/permissions"
	"github.com/pulseviz/pulseviz/internal/recorder"
	"github.com/pulseviz/pulseviz/internal/session"
	"github.com/pulseviz/pulseviz/internal/viz"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"

	configFile string
	deviceID   string
	threshold  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "pulseviz",
		Short:   "microphone-reactive terminal visualizer and clip recorder",
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisualizer()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "capture the microphone and run the reactive visualizer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisualizer()
		},
	}
	runCmd.Flags().StringVar(&deviceID, "device", "", "input device name (default input if empty)")

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "list audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices()
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [clip.wav]",
		Short: "classify a recorded clip as silence or signal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyzeClip(args[0])
		},
	}
	analyzeCmd.Flags().Float64Var(&threshold, "threshold", analyzer.DefaultSilenceThreshold, "silence threshold")

	rootCmd.AddCommand(runCmd, devicesCmd, analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runVisualizer() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if deviceID != "" {
		cfg.Audio.DeviceID = deviceID
	}

	log := logging.New(cfg.Logging.Level)

	// macOS requires explicit microphone approval before capture works
	if err := permissions.EnsureMicrophone(); err != nil {
		log.Fatal().Err(err).Msg("Microphone permission not granted")
	}

	capture, err := audio.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	defer capture.Close()

	var met *metrics.Metrics
	if cfg.Metrics.Enabled {
		met = metrics.New(prometheus.DefaultRegisterer)
		go func() {
			if err := metrics.Serve(cfg.Metrics.Address); err != nil {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	registry := binding.NewRegistry(cfg.Elements)
	surface := viz.NewSurface()

	sess, err := session.New(session.Config{
		Capture: capture,
		NewRecorder: func(sampleRate int) (recorder.Recorder, error) {
			return recorder.New(sampleRate)
		},
		Registry: registry,
		Config:   cfg,
		Logger:   log,
		Controls: surface,
		Metrics:  met,
	})
	if err != nil {
		return err
	}
	defer sess.Reset()

	// Persist the assembled clip next to the user when a session ends
	// with audio.
	sess.Subscribe(func(ev session.Event) {
		if ev.Kind != session.EventEnd || ev.Clip == nil {
			return
		}
		if err := os.WriteFile(ev.FileName, ev.Clip, 0644); err != nil {
			log.Error().Err(err).Str("file", ev.FileName).Msg("Failed to save clip")
			return
		}
		log.Info().Str("file", ev.FileName).Int("bytes", len(ev.Clip)).Msg("Clip saved")
	})

	log.Info().Str("version", Version).Msg("pulseviz starting")
	return surface.Run(sess, registry, cfg)
}

func listDevices() error {
	capture, err := audio.New()
	if err != nil {
		return err
	}
	defer capture.Close()

	devices, err := capture.ListDevices()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDEFAULT")
	for _, d := range devices {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\n", d.Name, def)
	}
	return w.Flush()
}

func analyzeClip(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	res, err := analyzer.Analyze(data, threshold)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
