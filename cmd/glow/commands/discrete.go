package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/wheelibin/glow/internal/models"
)

func newModeCommand() *cobra.Command {
	names := lo.Map(models.Modes, func(m models.Mode, _ int) string { return string(m) })
	return &cobra.Command{
		Use:       fmt.Sprintf("mode <%s>", strings.Join(names, "|")),
		Short:     "Switch the operating mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			mode := models.Mode(strings.ToUpper(args[0]))
			if err := a.controller.SelectMode(cmd.Context(), mode); err != nil {
				return err
			}
			pterm.Success.Printf("Mode set to %s\n", mode)
			return nil
		},
	}
}

func newPatternCommand() *cobra.Command {
	names := lo.Map(models.Patterns, func(p models.Pattern, _ int) string { return string(p) })
	return &cobra.Command{
		Use:       fmt.Sprintf("pattern <%s>", strings.Join(names, "|")),
		Short:     "Choose the display pattern",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			pattern := models.Pattern(strings.ToUpper(args[0]))
			if err := a.controller.SelectPattern(cmd.Context(), pattern); err != nil {
				return err
			}
			pterm.Success.Printf("Pattern set to %s\n", pattern)
			return nil
		},
	}
}

func newScheduleCommand() *cobra.Command {
	var start, stop string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Set the on and/or off time",
		Long: `Set the on and/or off time.

Times are HH:MM, sunrise, sunset, or an offset from either such as sunset-1h or sunrise+45m.
Sunrise and sunset need geoLocation ("lat,lng") in the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			var startTime, stopTime *string
			if cmd.Flags().Changed("start") {
				startTime = &start
			}
			if cmd.Flags().Changed("stop") {
				stopTime = &stop
			}
			if err := a.controller.SetSchedule(cmd.Context(), startTime, stopTime); err != nil {
				return err
			}
			pterm.Success.Println("Schedule updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "on time")
	cmd.Flags().StringVar(&stop, "stop", "", "off time")
	return cmd
}
