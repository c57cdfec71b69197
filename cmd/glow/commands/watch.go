package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/wheelibin/glow/internal/colour"
	"github.com/wheelibin/glow/internal/constants"
	mirroredstate "github.com/wheelibin/glow/internal/mirroredState"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the device state as it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			snapshots := make(chan mirroredstate.Snapshot)
			done := make(chan error, 1)
			go func() { done <- a.controller.Run(ctx, snapshots) }()

			for {
				select {
				case s := <-snapshots:
					pterm.Println(formatSnapshot(s))
				case err := <-done:
					return err
				}
			}
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			table := pterm.TableData{{"Document", "Fields"}}
			for _, collection := range []string{constants.CollectionStates, constants.CollectionUser, constants.CollectionDisplay} {
				docs, err := a.store.List(cmd.Context(), collection)
				if err != nil {
					return err
				}
				for _, doc := range docs {
					table = append(table, []string{doc.Ref().String(), compact(doc.Data)})
				}
			}
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		},
	}
}

func formatSnapshot(s mirroredstate.Snapshot) string {
	line := fmt.Sprintf("mode=%s color=%s pattern=%s", orDash(string(s.Mode)), colour.RGBToHex(s.Color), orDash(string(s.Pattern)))
	if s.BreatheSpeed != 0 {
		line += fmt.Sprintf(" breatheSpeed=%d", s.BreatheSpeed)
	}
	if s.FlashSpeed != 0 {
		line += fmt.Sprintf(" flashSpeed=%d", s.FlashSpeed)
	}
	if s.StartTime != "" || s.StopTime != "" {
		line += fmt.Sprintf(" on=%s off=%s", orDash(s.StartTime), orDash(s.StopTime))
	}
	return line
}

func compact(data json.RawMessage) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
