// Package commands implements the delivery CLI: a terminal stand-in for the
// delivery screens that starts sessions and sends them user events.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"reuseit/delivery/sessions"
	"reuseit/internal/config"
	"reuseit/internal/logging"
)

// Dialer connects the CLI to the workflow backend and returns a close func
type Dialer func(cfg config.Config) (sessions.Sessions, func(), error)

// TemporalDialer dials the Temporal frontend named in cfg
func TemporalDialer(cfg config.Config) (sessions.Sessions, func(), error) {
	logger, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	s := &sessions.Temporal{
		Client:    c,
		TaskQueue: cfg.Temporal.TaskQueue,
		Timing:    cfg.WorkflowTiming(),
	}
	return s, c.Close, nil
}

type app struct {
	configPath string
	hostPort   string

	cfg      config.Config
	sessions sessions.Sessions
	closeFn  func()
}

// Execute runs the CLI against Temporal
func Execute() error {
	return NewRoot(TemporalDialer).Execute()
}

// NewRoot builds the command tree
func NewRoot(dial Dialer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "delivery",
		Short:        "Drive delivery selection sessions from a terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.hostPort != "" {
				cfg.Temporal.HostPort = a.hostPort
			}
			s, closeFn, err := dial(cfg)
			if err != nil {
				return err
			}
			a.cfg, a.sessions, a.closeFn = cfg, s, closeFn
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeFn != nil {
				a.closeFn()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("REUSEIT_CONFIG"), "YAML configuration file")
	root.PersistentFlags().StringVar(&a.hostPort, "host", "", "Temporal frontend host:port (overrides the configuration)")

	root.AddCommand(
		a.startCmd(),
		a.selectCmd(),
		a.setCmd(),
		a.pickerCmd(),
		a.pickCmd(),
		a.confirmCmd(),
		a.stateCmd(),
		a.waitCmd(),
		a.cancelCmd(),
		a.demoCmd(),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
