package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/airrace/racecore/internal/api"
	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/controls"
	"github.com/airrace/racecore/internal/dispatcher"
	"github.com/airrace/racecore/internal/geo"
	"github.com/airrace/racecore/internal/gesture"
	"github.com/airrace/racecore/internal/logging"
	"github.com/airrace/racecore/internal/monitor"
	"github.com/airrace/racecore/internal/race"
	"github.com/airrace/racecore/internal/session"
	"github.com/airrace/racecore/internal/sim"
	"github.com/airrace/racecore/internal/trigger"
	"github.com/airrace/racecore/pkg/core"
)

func newSimulateCmd() *cobra.Command {
	var realtime bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fly the configured course with the gesture autopilot",
		Long: "Runs one race headless: an autopilot holds template poses, the session " +
			"classifies and maps them and a simple flight model follows the axes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, cmd, realtime)
		},
	}

	cmd.Flags().String("pilot", "pilot", "pilot name recorded with the race")
	cmd.Flags().Bool("debug-input", false, "accept keyboard input alongside gestures")
	cmd.Flags().Int("crash-at", -1, "dive into the ground after clearing this many checkpoints (-1 never)")
	cmd.Flags().Int("capture-at", -1, "capture both hand poses after clearing this many checkpoints (-1 never)")
	cmd.Flags().String("captures-out", "", "write captured poses to this file as gesture templates")
	cmd.Flags().Int64("seed", 1, "seed for the pose noise")
	cmd.Flags().Float64("tick-rate", 50, "simulation ticks per second")
	cmd.Flags().Duration("max-duration", 0, "give up after this much simulated time (0 uses the config)")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "pace ticks with the wall clock")
	cmd.Flags().String("status-file", "", "write the live race status to this file")
	cmd.Flags().Bool("upload", false, "upload recordings to the results server when the race ends")
	return cmd
}

func runSimulation(ctx context.Context, cmd *cobra.Command, realtime bool) error {
	rt, err := setupRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close()

	raceCfg, err := config.GetRaceConfig()
	if err != nil {
		return err
	}
	trackCfg, err := config.GetTrackConfig()
	if err != nil {
		return err
	}
	course, err := trackCfg.Course()
	if err != nil {
		return err
	}
	triggerCfg, err := config.GetTriggerConfig()
	if err != nil {
		return err
	}
	gestureCfg, err := config.GetGestureConfig()
	if err != nil {
		return err
	}
	controlsCfg, err := config.GetControlsConfig()
	if err != nil {
		return err
	}
	storageCfg, err := config.GetStorageConfig()
	if err != nil {
		return err
	}
	simCfg, err := config.GetSimConfig()
	if err != nil {
		return err
	}
	monitorCfg, err := config.GetMonitorConfig()
	if err != nil {
		return err
	}
	uploadCfg, err := config.GetUploadConfig()
	if err != nil {
		return err
	}

	templates, err := gestureCfg.CoreTemplates()
	if err != nil {
		return err
	}
	store, err := gesture.NewStore(templates)
	if err != nil {
		return fmt.Errorf("loading gesture dictionary: %w", err)
	}
	classifier, err := gesture.NewClassifier(store, gestureCfg.Threshold)
	if err != nil {
		return err
	}
	mapping := controlsCfg.Mapping()
	mapper, err := controls.NewMapper(mapping, store)
	if err != nil {
		return err
	}
	detector, err := trigger.New(triggerCfg)
	if err != nil {
		return err
	}
	pilot, err := sim.NewPilot(store, mapping, simCfg.PoseNoise, simCfg.Seed)
	if err != nil {
		return err
	}
	vehicle := sim.NewVehicle(simCfg.Speed, simCfg.TurnRate)

	rt.logger.Info("Course loaded",
		"name", course.Name,
		"checkpoints", len(course.Checkpoints),
		"length", geo.CourseLength(course.Checkpoints))

	backends, err := createBackends(ctx, rt, storageCfg)
	if err != nil {
		return err
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(rt.zlog))
	if err != nil {
		closeBackends(rt, backends)
		return err
	}

	s, err := session.New(session.Dependencies{
		Race: core.Race{
			Pilot:  raceCfg.Pilot,
			Course: course,
		},
		Timing:     race.Timing{Countdown: raceCfg.Countdown, RespawnCountdown: raceCfg.RespawnCountdown},
		Vehicle:    vehicle,
		Classifier: classifier,
		Mapper:     mapper,
		Board:      rt.board,
		Backends:   backends,
		Logger:     rt.logger,
		DebugInput: controlsCfg.DebugInput,
	})
	if err != nil {
		d.Close()
		closeBackends(rt, backends)
		return err
	}
	s.Register(d, session.DefaultRecordBuffer)

	runner, err := sim.NewRunner(sim.Dependencies{
		Session:    s,
		Dispatcher: d,
		Vehicle:    vehicle,
		Pilot:      pilot,
		Detector:   detector,
		Logger:     rt.logger,
		Realtime:   realtime,
	}, simCfg)
	if err != nil {
		d.Close()
		closeBackends(rt, backends)
		return err
	}

	var mon *monitor.Service
	if monitorCfg.StatusFile != "" {
		mon = monitor.NewService(monitor.Dependencies{
			Board:      rt.board,
			Backends:   backends,
			LogManager: rt.logManager,
			StatusPath: monitorCfg.StatusFile,
			Interval:   monitorCfg.Interval,
		})
		if err := mon.Start(); err != nil {
			rt.logger.Error("Status monitor disabled", "error", err)
			mon = nil
		}
	}

	sum, runErr := runner.Run(ctx)

	// Recording drains through the dispatcher, so it closes before the
	// backends it writes to.
	d.Close()
	if mon != nil {
		mon.Stop()
	}
	closeBackends(rt, backends)

	paths := exportedPaths(backends)
	printSummary(cmd, course, sum, paths)
	if simCfg.CapturesOut != "" {
		captured := s.Captured()
		if err := writeCaptures(simCfg.CapturesOut, captured); err != nil {
			rt.logger.Error("Writing captures failed", "path", simCfg.CapturesOut, "error", err)
			runErr = errors.Join(runErr, err)
		} else {
			rt.logger.Info("Captures written", "path", simCfg.CapturesOut, "count", len(captured))
			fmt.Fprintf(cmd.OutOrStdout(), "  captures  %s (%d)\n", simCfg.CapturesOut, len(captured))
		}
	}
	if uploadCfg.Enabled {
		uploadRecordings(rt, uploadCfg, paths, api.UploadMetadata{
			RaceID:   sum.Result.RaceID,
			Pilot:    raceCfg.Pilot,
			Course:   course.Name,
			Elapsed:  sum.Result.Elapsed,
			Finished: sum.Result.Finished,
		}, cmd)
	}
	return runErr
}

// writeCaptures saves templates in the format the gesture.templates config
// key reads back.
func writeCaptures(path string, templates []core.GestureTemplate) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating captures file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing captures file: %w", closeErr)
		}
	}()
	return gesture.WriteTemplates(f, templates)
}

// uploadRecordings sends every exported file to the results server. Upload
// failures are reported but do not fail the run; the files stay on disk.
func uploadRecordings(rt *runtime, cfg config.UploadConfig, paths []string, meta api.UploadMetadata, cmd *cobra.Command) {
	if len(paths) == 0 {
		rt.logger.Warn("Nothing to upload")
		return
	}
	client := api.New(cfg.URL, cfg.APIKey, cfg.Timeout)
	if err := client.Healthcheck(); err != nil {
		rt.logger.Error("Results server unreachable", "url", cfg.URL, "error", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Upload skipped: %v\n", err)
		return
	}
	for _, p := range paths {
		if err := client.Upload(p, meta); err != nil {
			rt.logger.Error("Upload failed", "path", p, "error", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "Upload of %s failed: %v\n", p, err)
			continue
		}
		rt.logger.Info("Uploaded recording", "path", p)
		fmt.Fprintf(cmd.OutOrStdout(), "  uploaded  %s\n", p)
	}
}

func printSummary(cmd *cobra.Command, course core.Course, sum sim.Summary, paths []string) {
	out := cmd.OutOrStdout()
	res := sum.Result
	status := "abandoned"
	if res.Finished {
		status = "finished"
	}
	fmt.Fprintf(out, "Race %s %s on %s\n", res.RaceID, status, course.Name)
	fmt.Fprintf(out, "  time      %s\n", race.FormatClock(res.Elapsed))
	fmt.Fprintf(out, "  cleared   %d/%d\n", res.Cleared, res.Total)
	fmt.Fprintf(out, "  crashes   %d\n", res.Crashes)
	for i, split := range res.Splits {
		fmt.Fprintf(out, "  split %-3d %s\n", i+1, race.FormatClock(split))
	}
	fmt.Fprintf(out, "  ticks     %d (%s simulated)\n", sum.Ticks, sum.SimTime)
	for _, p := range paths {
		fmt.Fprintf(out, "  saved     %s\n", p)
	}
}
