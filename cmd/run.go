package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/attendance"
	"github.com/kozaktomas/attendance-cam/internal/camera"
	"github.com/kozaktomas/attendance-cam/internal/camera/opencv"
	"github.com/kozaktomas/attendance-cam/internal/camera/replay"
	"github.com/kozaktomas/attendance-cam/internal/config"
	"github.com/kozaktomas/attendance-cam/internal/feed"
	"github.com/kozaktomas/attendance-cam/internal/matcher"
	"github.com/kozaktomas/attendance-cam/internal/overlay"
	"github.com/kozaktomas/attendance-cam/internal/pipeline"
	"github.com/kozaktomas/attendance-cam/internal/recognition"
	"github.com/kozaktomas/attendance-cam/internal/web"
	"github.com/kozaktomas/attendance-cam/internal/web/live"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the camera and log attendance",
	Long: `Open the camera, recognize faces against the gallery and log the first
sighting of every identity per day.

The loop runs until Ctrl+C, POST /api/v1/stop (with --web) or, when
replaying a directory of frames, until the frames are exhausted.`,
	Example: `  attendance-cam run
  attendance-cam run --camera 1 --threshold 0.4
  attendance-cam run --web --port 8080
  attendance-cam run --replay ./frames --replay-interval 200ms`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("camera", -1, "Camera device index (overrides CAMERA_INDEX)")
	runCmd.Flags().Float64("threshold", 0, "Maximum accepted match distance (overrides MATCH_THRESHOLD)")
	runCmd.Flags().Bool("no-mirror", false, "Do not flip camera frames horizontally")
	runCmd.Flags().String("replay", "", "Read frames from image files in this directory instead of a camera")
	runCmd.Flags().Bool("replay-loop", false, "Restart the replay when the last frame was read")
	runCmd.Flags().Duration("replay-interval", 0, "Delay between replayed frames")
	runCmd.Flags().Bool("web", false, "Serve the dashboard and control API")
	runCmd.Flags().Int("port", 0, "Web server port (overrides WEB_PORT)")
	runCmd.Flags().String("host", "", "Web server host (overrides WEB_HOST)")
}

// applyRunFlags overrides environment configuration with explicit flags.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if idx := mustGetInt(cmd, "camera"); idx >= 0 {
		cfg.Camera.Index = idx
	}
	if t := mustGetFloat64(cmd, "threshold"); cmd.Flags().Changed("threshold") {
		cfg.Recognition.Threshold = t
	}
	if mustGetBool(cmd, "no-mirror") {
		cfg.Camera.Mirror = false
	}
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
}

// openSource opens the camera or, with --replay, a directory of frames.
func openSource(cmd *cobra.Command, cfg *config.Config) (camera.Source, error) {
	if dir := mustGetString(cmd, "replay"); dir != "" {
		var opts []replay.Option
		if mustGetBool(cmd, "replay-loop") {
			opts = append(opts, replay.WithLoop())
		}
		if d, err := cmd.Flags().GetDuration("replay-interval"); err == nil && d > 0 {
			opts = append(opts, replay.WithInterval(d))
		}
		src, err := replay.Open(dir, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open replay directory: %w", err)
		}
		fmt.Printf("Replaying frames from %s\n", dir)
		return src, nil
	}

	fmt.Printf("Opening camera %d...\n", cfg.Camera.Index)
	src, err := opencv.Open(cfg.Camera)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", cfg.Camera.Index, err)
	}
	return src, nil
}

// printAttendance prints every new attendance line until events closes.
func printAttendance(events *feed.Broadcaster) {
	ch := events.AddListener()
	go func() {
		for event := range ch {
			if event.Type == feed.EventAttendance {
				fmt.Println(event.Message)
			}
		}
	}()
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := recognition.NewClient(cfg.Recognition.URL, cfg.Recognition.Model, cfg.Recognition.Detector)
	if err := rep.Ping(ctx); err != nil {
		fmt.Printf("Warning: recognition service at %s is not reachable: %v\n", cfg.Recognition.URL, err)
	}

	b, err := openBackends(ctx, cfg, os.Stdout, true, true)
	if err != nil {
		return err
	}
	defer b.Close()

	store := newGalleryStore(cfg, rep, b.references)
	fmt.Printf("Loading gallery from %s (model %s, detector %s)...\n", cfg.Gallery.Dir, cfg.Recognition.Model, cfg.Recognition.Detector)
	if err := store.Sync(ctx, nil); err != nil {
		fmt.Printf("Warning: failed to load gallery: %v\n", err)
	} else {
		fmt.Printf("Gallery ready with %d reference images\n", store.Len())
	}

	source, err := openSource(cmd, cfg)
	if err != nil {
		return err
	}

	events := feed.NewBroadcaster()
	defer events.Close()
	printAttendance(events)

	opts := pipeline.Options{
		Threshold:   cfg.Recognition.Threshold,
		PacingDelay: cfg.Loop.PacingDelay,
		Events:      events,
		Renderer:    overlay.New(),
	}

	webEnabled := mustGetBool(cmd, "web")
	var hub *live.Hub
	if webEnabled {
		hub = live.NewHub()
		opts.OnFrame = hub.Publish
	}

	loop := pipeline.New(source, matcher.New(store, rep), attendance.NewLedger(b.attendance), store, opts)

	var server *web.Server
	if webEnabled {
		server = web.NewServer(&cfg.Web, web.Deps{
			Loop:       loop,
			Attendance: b.attendance,
			Gallery:    store,
			Events:     events,
			Hub:        hub,
		})
		go hub.Run(ctx)
		go func() {
			if err := server.Start(); err != nil {
				fmt.Printf("Web server error: %v\n", err)
				loop.Stop()
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nStopping...")
			loop.Stop()
		case <-loop.Done():
		}
	}()

	fmt.Printf("Run %s started (threshold %.2f)\n", loop.RunID(), cfg.Recognition.Threshold)
	fmt.Println("Press Ctrl+C to stop")

	runErr := loop.Run(ctx)

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
		shutdownCancel()
	}

	st := loop.Status()
	fmt.Printf("Run %s stopped: %d frames, %d faces, %d logged\n", st.RunID, st.Frames, st.Faces, st.Logged)

	if errors.Is(runErr, camera.ErrExhausted) && mustGetString(cmd, "replay") != "" {
		fmt.Println("Replay finished")
		return nil
	}
	return runErr
}
