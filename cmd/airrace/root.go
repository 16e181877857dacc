package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/airrace/racecore/internal/config"
)

// flagKeys maps command line flags onto config keys. Flags win over the
// config file and AIRRACE_* environment variables when set.
var flagKeys = map[string]string{
	"log-level":    "logLevel",
	"logs-dir":     "logsDir",
	"storage":      "storage.type",
	"pilot":        "race.pilot",
	"debug-input":  "controls.debugInput",
	"crash-at":     "sim.crashAt",
	"capture-at":   "sim.captureAt",
	"captures-out": "sim.capturesOut",
	"seed":         "sim.seed",
	"tick-rate":    "sim.tickRate",
	"max-duration": "sim.maxDuration",
	"status-file":  "monitor.statusFile",
	"upload":       "upload.enabled",
}

func newRootCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Gesture-controlled air race runtime",
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildDate),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, configDir)
		},
	}

	cmd.PersistentFlags().StringVar(&configDir, "config-dir", ".",
		"directory containing "+config.FileName)
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("logs-dir", "./airracelogs", "directory for session log files")
	cmd.PersistentFlags().String("storage", "memory", "recording backend (memory, sqlite, postgres, websocket)")

	cmd.AddCommand(newSimulateCmd())
	cmd.AddCommand(newTemplatesCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

// initConfig reads the config file and binds the flags of the command being
// run. A missing file is not an error; defaults apply.
func initConfig(cmd *cobra.Command, dir string) error {
	if err := config.Load(dir); err != nil {
		if !config.IsNotFound(err) {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "No %s in %s, using defaults\n", config.FileName, dir)
	}
	bindFlags(cmd, viper.GetViper())
	return nil
}

// bindFlags binds each known flag of cmd, local or inherited, to its config key.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	bind := func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not bind flag %s: %v\n", f.Name, err)
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.InheritedFlags().VisitAll(bind)
}
