package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/config"
)

// rootOptions holds global flags and the state they resolve to.
type rootOptions struct {
	ConfigPath string
	RC         string
	LogLevel   string

	cfg config.Config
	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "wmbridge",
		Short: "Reference tracking and event bridge between a compositor and Lua",
		Long: `wmbridge drives a simulated compositor with a Lua rc script attached.

Scripts hold references to windows and outputs and subscribe to lifecycle
events. The bridge keeps those references safe across object destruction
and reports anything still held at shutdown.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $HOME/.config/wmbridge/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.RC, "rc", "", "Lua rc file, overrides script.rc")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overrides log.level")

	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newSimCommand(opts))

	return cmd
}

func (o *rootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("rc") {
		cfg.Script.RC = o.RC
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = log
	return nil
}
