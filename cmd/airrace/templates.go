package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/airrace/racecore/internal/config"
	"github.com/airrace/racecore/internal/controls"
	"github.com/airrace/racecore/internal/gesture"
	"github.com/airrace/racecore/pkg/core"
)

func newTemplatesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Validate the gesture dictionary against the control bindings",
		Long: "Lists the gesture templates per hand with the axes each one drives. " +
			"With --file, a captured template file replaces the configured dictionary.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			templates, err := loadTemplates(file)
			if err != nil {
				return err
			}
			controlsCfg, err := config.GetControlsConfig()
			if err != nil {
				return err
			}
			return printDictionary(cmd.OutOrStdout(), templates, controlsCfg.Mapping())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON template file to validate instead of the config")
	return cmd
}

func loadTemplates(file string) ([]core.GestureTemplate, error) {
	if file == "" {
		gestureCfg, err := config.GetGestureConfig()
		if err != nil {
			return nil, err
		}
		return gestureCfg.CoreTemplates()
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gesture.ReadTemplates(f)
}

// printDictionary validates the store and mapping and writes one line per
// template.
func printDictionary(w io.Writer, templates []core.GestureTemplate, mapping controls.Mapping) error {
	store, err := gesture.NewStore(templates)
	if err != nil {
		return fmt.Errorf("invalid dictionary: %w", err)
	}
	if _, err := controls.NewMapper(mapping, store); err != nil {
		return fmt.Errorf("invalid bindings: %w", err)
	}

	fmt.Fprintf(w, "%d templates, %d joints each\n", store.Len(), store.JointCount())
	for _, hand := range []core.Hand{core.HandLeft, core.HandRight} {
		fmt.Fprintf(w, "%s:\n", hand)
		for _, name := range store.Names(hand) {
			fmt.Fprintf(w, "  %-14s %s\n", name, binding(mapping, hand, name))
		}
	}
	return nil
}

func binding(m controls.Mapping, hand core.Hand, name core.GestureName) string {
	if hand == core.HandRight && name == m.CycleGesture {
		return "cycle view"
	}
	switch hand {
	case core.HandLeft:
		if a, ok := m.Left[name]; ok {
			return fmt.Sprintf("pitch %+.1f yaw %+.1f roll %+.1f", a.Pitch, a.Yaw, a.Roll)
		}
	case core.HandRight:
		if a, ok := m.Right[name]; ok {
			return fmt.Sprintf("throttle %+.1f", a.Throttle)
		}
	}
	return "unbound"
}
