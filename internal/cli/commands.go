package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-sofaboot/app"
	foundation "github.com/km-arc/go-sofaboot/framework/app"
	"github.com/km-arc/go-sofaboot/framework/config"
	"github.com/km-arc/go-sofaboot/framework/logging"
	"github.com/km-arc/go-sofaboot/framework/plugin"
)

// NewRootCmd creates the gosofaboot command tree.
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		envFiles  []string
	)

	rootCmd := &cobra.Command{
		Use:   "gosofaboot",
		Short: "A service registration runtime",
		Long: `gosofaboot publishes services into a component runtime, running the
service register hooks around every registration, and serves their REST
bindings over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment from these files (default .env)")

	// load reads configuration and applies the global flags to it.
	load := func(cmd *cobra.Command) *config.Config {
		cfg := config.Load(envFiles...)
		cfg.Log.Level = logging.VerbosityLevel(verbosity, cfg.Log.Level)
		log.Debug().Str("command", cmd.Name()).Msg("Command started")
		return cfg
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newHooksCmd(load),
		newComponentsCmd(load),
		newVersionCmd(),
	)
	return rootCmd
}

type loader func(cmd *cobra.Command) *config.Config

func newServeCmd(load loader) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Publish the demo services and serve them over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load(cmd)
			if port != "" {
				cfg.App.Port = port
			}

			a := foundation.NewWithConfig(cfg)
			if err := a.Register(&app.ServiceProvider{}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen on this port instead of APP_PORT")
	return cmd
}

func newHooksCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "hooks",
		Short: "List the service register hooks in the order they run",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := foundation.NewWithConfig(load(cmd))
			defer func() { _ = a.Shutdown(context.Background()) }()

			hooks, err := a.Hooks().Hooks()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tORDER\tHOOK")
			for i, h := range hooks {
				fmt.Fprintf(w, "%d\t%d\t%s\n", i+1, a.Hooks().OrderOf(h), plugin.TypeKey(h))
			}
			return w.Flush()
		},
	}
}

func newComponentsCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "Boot the application and list the registered components",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := foundation.NewWithConfig(load(cmd))
			defer func() { _ = a.Shutdown(context.Background()) }()

			if err := a.Register(&app.ServiceProvider{}); err != nil {
				return err
			}
			if err := a.Boot(); err != nil {
				return err
			}

			listing := &foundation.ComponentsHandler{Manager: a.Components()}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATE")
			for _, s := range listing.Statuses() {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.State)
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gosofaboot version %s\n", foundation.Version)
		},
	}
}
