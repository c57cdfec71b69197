package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/wheelibin/glow/internal/config"
	"github.com/wheelibin/glow/internal/controller"
	"github.com/wheelibin/glow/internal/schedule"
	"github.com/wheelibin/glow/internal/store"
)

type appContextKey struct{}

// everything a command needs, built once the config has been read
type app struct {
	logger     *log.Logger
	cfg        *config.Config
	store      *store.RemoteStore
	controller *controller.Controller
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appContextKey{}).(*app)
}

// NewRootCommand creates the root command
func NewRootCommand(logger *log.Logger) *cobra.Command {
	var (
		configFile string
		storeURL   string
		logLevel   string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:           "glow",
		Short:         "Remote control for a glow light",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadConfig(configFile)
			if err != nil {
				return err
			}
			if storeURL != "" {
				cfg.StoreURL = storeURL
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q", cfg.LogLevel)
			}
			logger.SetLevel(level)

			resolver, err := schedule.NewResolver(logger, cfg.GeoLocation)
			if err != nil {
				return err
			}

			rs := store.NewRemoteStore(logger, cfg.StoreURL)
			rs.ReconnectTimeout = timeout

			a := &app{
				logger:     logger,
				cfg:        cfg,
				store:      rs,
				controller: controller.NewController(logger, rs, resolver),
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appContextKey{}, a))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&storeURL, "store", "", "document store url (overrides storeUrl)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to keep trying to reach the store")

	cmd.AddCommand(
		newModeCommand(),
		newColorCommand(),
		newPatternCommand(),
		newSpeedCommand(),
		newScheduleCommand(),
		newDragCommand(),
		newWatchCommand(),
		newStatusCommand(),
	)

	return cmd
}
