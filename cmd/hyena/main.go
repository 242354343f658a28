// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Command hyena checks the connection settings used by hyena programs. It
// prints the connection string assembled from the settings and pings the
// database with it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/canonical/hyena"
	"github.com/canonical/hyena/config"
)

func main() {
	if err := newRootCommand(afero.NewOsFs()).Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by all subcommands.
type globalFlags struct {
	configFile string
	v          *viper.Viper
}

// load reads the connection settings, with flags taking precedence over
// everything else.
func (g *globalFlags) load(fs afero.Fs) (*config.Config, error) {
	return config.Load(fs, g.v, g.configFile)
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	g := &globalFlags{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "hyena",
		Short:         "Check hyena connection settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "config file (default is .hyena.yaml in ., $HOME or $HOME/.config/hyena)")
	flags.String("driver", "", "database/sql driver name")
	flags.String("database", "", "database name, or file for sqlite3")
	for _, name := range []string{"driver", "database"} {
		// Flag errors only happen for unknown flags.
		_ = g.v.BindPFlag(config.Section+"."+name, flags.Lookup(name))
	}

	cmd.AddCommand(newDSNCommand(fs, g))
	cmd.AddCommand(newPingCommand(fs, g))
	return cmd
}

func newDSNCommand(fs afero.Fs, g *globalFlags) *cobra.Command {
	var showPassword bool

	cmd := &cobra.Command{
		Use:   "dsn",
		Short: "Print the connection string",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(fs)
			if err != nil {
				return err
			}
			var dsn string
			if showPassword {
				dsn, err = cfg.DSN()
			} else {
				dsn, err = cfg.RedactedDSN()
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			label(out, "driver", cfg.DriverName())
			label(out, "dsn", dsn)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPassword, "show-password", false, "print the password instead of masking it")
	return cmd
}

func newPingCommand(fs afero.Fs, g *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Connect to the database and check it responds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(fs)
			if err != nil {
				return err
			}
			db, err := hyena.OpenConfig(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			if err := db.Ping(ctx); err != nil {
				return errors.Wrapf(err, "cannot reach %s database", cfg.DriverName())
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%s database is reachable (%s)\n",
				cfg.DriverName(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "give up after this long")
	return cmd
}

func label(w io.Writer, name, value string) {
	color.New(color.Bold).Fprintf(w, "%-8s", name+":")
	fmt.Fprintln(w, value)
}
