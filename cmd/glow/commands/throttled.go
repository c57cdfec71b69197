package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/wheelibin/glow/internal/colour"
	"github.com/wheelibin/glow/internal/concurrency"
	"github.com/wheelibin/glow/internal/constants"
	"github.com/wheelibin/glow/internal/controller"
	"github.com/wheelibin/glow/internal/throttle"
)

func newColorCommand() *cobra.Command {
	var hsv, hex string
	cmd := &cobra.Command{
		Use:   "color",
		Short: "Set the user color",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if (hsv == "") == (hex == "") {
				return errors.New("exactly one of --hsv or --hex is needed")
			}

			var (
				result throttle.Result
				err    error
			)
			if hsv != "" {
				value, parseErr := colour.ParseHSV(hsv)
				if parseErr != nil {
					return parseErr
				}
				result, err = a.controller.PickColor(cmd.Context(), value)
			} else {
				result, err = a.controller.PickHexColor(cmd.Context(), hex)
			}
			if err != nil {
				return err
			}
			printResult(constants.FieldColor, result, a.controller.ThrottleWindow())
			return nil
		},
	}
	cmd.Flags().StringVar(&hsv, "hsv", "", "color wheel value as h,s,v (hue 0-360, saturation and value 0-1)")
	cmd.Flags().StringVar(&hex, "hex", "", "color as #rrggbb")
	return cmd
}

func newSpeedCommand() *cobra.Command {
	var breathe, flash int
	cmd := &cobra.Command{
		Use:   "speed",
		Short: "Set the breathe and/or flash speed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			var breatheSpeed, flashSpeed *int
			if cmd.Flags().Changed("breathe") {
				breatheSpeed = &breathe
			}
			if cmd.Flags().Changed("flash") {
				flashSpeed = &flash
			}
			if breatheSpeed == nil && flashSpeed == nil {
				return errors.New("one of --breathe or --flash is needed")
			}

			results, err := a.controller.ChangeSpeeds(cmd.Context(), breatheSpeed, flashSpeed)
			if err != nil {
				return err
			}
			if breatheSpeed != nil {
				printResult(constants.FieldBreatheSpeed, results.Breathe, a.controller.ThrottleWindow())
			}
			if flashSpeed != nil {
				printResult(constants.FieldFlashSpeed, results.Flash, a.controller.ThrottleWindow())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&breathe, "breathe", 0, fmt.Sprintf("breathe speed (%d-%d)", constants.MinBreatheSpeed, constants.MaxBreatheSpeed))
	cmd.Flags().IntVar(&flash, "flash", 0, fmt.Sprintf("flash speed (%d-%d)", constants.MinFlashSpeed, constants.MaxFlashSpeed))
	return cmd
}

func newDragCommand() *cobra.Command {
	var (
		field    string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "drag [FILE|-]",
		Short: "Replay a recorded drag gesture, one value per line, through the update throttle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			var in io.Reader = os.Stdin
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			values, err := readLines(in)
			if err != nil {
				return err
			}

			counts := map[throttle.Result]int{}
			job, err := dragJob(cmd.Context(), a.controller, field, counts)
			if err != nil {
				return err
			}

			worker := concurrency.NewPacedWorker(interval, job)
			if err := worker.Run(cmd.Context(), values); err != nil {
				return err
			}

			_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
				{"Field", "Events", "Accepted", "Dropped", "Skipped"},
				{
					field,
					strconv.Itoa(len(values)),
					strconv.Itoa(counts[throttle.Accepted]),
					strconv.Itoa(counts[throttle.Dropped]),
					strconv.Itoa(counts[throttle.Skipped]),
				},
			}).Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", constants.FieldColor, "field being dragged (color, breatheSpeed, flashSpeed)")
	cmd.Flags().DurationVar(&interval, "interval", 50*time.Millisecond, "time between gesture events")
	return cmd
}

// dragJob returns the callback handling one gesture event for field
func dragJob(ctx context.Context, c *controller.Controller, field string, counts map[throttle.Result]int) (func(string) error, error) {
	switch field {
	case constants.FieldColor:
		return func(line string) error {
			result, err := pickColor(ctx, c, line)
			if err != nil {
				return err
			}
			counts[result]++
			return nil
		}, nil

	case constants.FieldBreatheSpeed, constants.FieldFlashSpeed:
		return func(line string) error {
			speed, err := strconv.Atoi(line)
			if err != nil {
				return fmt.Errorf("speed %q is not a number", line)
			}
			var results controller.SpeedResults
			if field == constants.FieldBreatheSpeed {
				results, err = c.ChangeSpeeds(ctx, &speed, nil)
				counts[results.Breathe]++
			} else {
				results, err = c.ChangeSpeeds(ctx, nil, &speed)
				counts[results.Flash]++
			}
			return err
		}, nil
	}
	return nil, fmt.Errorf("unknown field %q", field)
}

// pickColor accepts either h,s,v or a hex color. Anything that can't be read has no value and is skipped.
func pickColor(ctx context.Context, c *controller.Controller, value string) (throttle.Result, error) {
	if !strings.Contains(value, ",") {
		return c.PickHexColor(ctx, value)
	}
	hsv, err := colour.ParseHSV(value)
	if err != nil {
		return throttle.Skipped, nil
	}
	return c.PickColor(ctx, hsv)
}

func readLines(r io.Reader) ([]string, error) {
	lines := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func printResult(field string, result throttle.Result, window time.Duration) {
	switch result {
	case throttle.Accepted:
		pterm.Success.Printf("%s updated\n", field)
	case throttle.Dropped:
		pterm.Warning.Printf("%s update dropped, last update was less than %s ago\n", field, window)
	case throttle.Skipped:
		pterm.Warning.Printf("%s has no value, nothing written\n", field)
	}
}
