package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/capture"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/preview"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/session"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/settings"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/stats"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/store"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/transport"
	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/tray"
)

func main() {
	detectorURL := flag.String("detector", "http://localhost:8000", "detector service base URL")
	cameraID := flag.Int("camera", 0, "camera device ID for live mode")
	listenAddr := flag.String("listen", ":8080", "preview server listen address")
	dbPath := flag.String("db", "", "settings database path (default ~/.facedetect/settings.db)")
	mode := flag.String("mode", "", "run headless in the given mode: live, image or video")
	input := flag.String("input", "", "image or video file for headless image/video mode")
	flag.Parse()

	fmt.Println("Face Detection Client")

	st, err := store.New(resolveDBPath(*dbPath))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	persisted, err := st.Settings().Load()
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		persisted = settings.Default()
	}

	settingsStore := settings.NewStore(persisted)
	tracker := stats.NewTracker()

	prev := preview.New(preview.Config{
		Settings: settingsStore,
		Stats:    tracker,
		OnSettingsChange: func(s settings.Settings) {
			if err := st.Settings().Save(s); err != nil {
				log.Printf("Failed to persist settings: %v", err)
			}
		},
	})
	defer prev.Close()

	controller := session.New(session.Config{
		Settings: settingsStore,
		Stats:    tracker,
		Sink:     prev,
		DialStream: func() (session.Streamer, error) {
			c, err := transport.DialStream(*detectorURL)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		NewCamera: func() capture.Source {
			return capture.NewCameraSource(*cameraID)
		},
		NewVideoSource: func(path string) session.FiniteSource {
			return capture.NewVideoFileSource(path)
		},
		ReadFile: os.ReadFile,
		Frames:   transport.NewFrameClient(*detectorURL),
		Images:   transport.NewImageClient(*detectorURL),
	})
	defer controller.Stop()

	go func() {
		fmt.Printf("Preview server on %s\n", *listenAddr)
		if err := prev.ListenAndServe(*listenAddr); err != nil {
			log.Fatalf("Preview server failed: %v", err)
		}
	}()

	if *mode != "" {
		runHeadless(controller, *mode, *input)
		return
	}

	runTray(controller, tracker, *listenAddr)
}

// runHeadless starts the requested mode and blocks until interrupted.
func runHeadless(controller *session.Controller, mode, input string) {
	switch mode {
	case "live":
		controller.SelectMode(session.ModeLive)
	case "image":
		controller.SelectMode(session.ModeSingleImage)
	case "video":
		controller.SelectMode(session.ModeFileVideo)
	default:
		log.Fatalf("Unknown mode %q (want live, image or video)", mode)
	}

	if mode != "live" && input == "" {
		log.Fatalf("Mode %q requires -input", mode)
	}

	if err := controller.Start(input); err != nil {
		log.Fatalf("Failed to start detection: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	controller.Stop()
}

// runTray hands control to the system tray menu.
func runTray(controller *session.Controller, tracker *stats.Tracker, listenAddr string) {
	t := tray.New()

	t.OnToggle(func(start bool) {
		if !start {
			controller.Stop()
			return
		}
		controller.SelectMode(session.ModeLive)
		if err := controller.Start(""); err != nil {
			t.SetDetecting(false)
		}
	})

	t.OnPreview(func() {
		url := fmt.Sprintf("http://localhost%s/api/stream", listenAddr)
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open browser, preview at %s: %v", url, err)
		}
	})

	t.OnQuit(func() {
		controller.Stop()
	})

	// Keep the menu status line and toggle state in sync with the
	// controller, which may end a session on its own.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if controller.Detecting() {
				snap := tracker.Snapshot()
				t.SetStatus(fmt.Sprintf("%s · %d fps · %d face(s)",
					controller.Mode(), snap.FPS, snap.LastFacesCount))
			} else {
				t.SetStatus("")
				t.SetDetecting(false)
			}
		}
	}()

	t.Run()
}

// openBrowser opens url with the platform's default browser.
func openBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	return exec.Command(name, args...).Start()
}

// browserCommand picks the URL launcher for the given platform.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// resolveDBPath picks the settings database location, creating the
// parent directory when using the default under the home directory.
func resolveDBPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dir := filepath.Join(homeDir, ".facedetect")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	return filepath.Join(dir, "settings.db")
}
