// cmd/viewer is an example CLI wiring login, capabilities, and a circuit
// together end to end. Grounded on the teacher's flat `core/main.go`
// entry point (banner, load config, construct subsystems, run), with the
// subcommand structure taken from `0xinfinitykernel-telepresence`'s
// `cobra.Command` usage (`pkg/client/userd/service.go`), since the
// teacher itself has no subcommands to model.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensim-go/viewercircuit/internal/config"
	"github.com/opensim-go/viewercircuit/pkg/circuit"
	"github.com/opensim-go/viewercircuit/pkg/logging"
	"github.com/opensim-go/viewercircuit/pkg/login"
	"github.com/opensim-go/viewercircuit/pkg/simulator"
)

const version = "0.1.0"

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "viewer",
		Short: "A minimal OpenSim/Second Life viewer circuit client",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "viewer.toml", "path to the credentials/login-URI config file")

	root.AddCommand(loginCommand(&configPath))
	root.AddCommand(connectCommand(&configPath))
	return root
}

func loginCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Perform the login_to_simulator handshake and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Banner("viewer", version)
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			resp, err := login.Perform(cfg.LoginURI, login.Request{
				FirstName:    cfg.FirstName,
				LastName:     cfg.LastName,
				PasswordHash: login.HashPassword(cfg.Password),
				Start:        cfg.Start,
			})
			if err != nil {
				return err
			}

			logging.Success("logged in as %s (circuit %d at %s:%d)",
				resp.AgentID, resp.CircuitCode, resp.SimIP, resp.SimPort)
			return nil
		},
	}
}

func connectCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Log in, open a circuit, and complete the agent-movement handshake",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Banner("viewer", version)
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			logging.Section("Connecting")
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			session, err := simulator.Connect(ctx, login.Request{
				FirstName:    cfg.FirstName,
				LastName:     cfg.LastName,
				PasswordHash: login.HashPassword(cfg.Password),
				Start:        cfg.Start,
			}, simulator.Config{
				LoginURI: cfg.LoginURI,
				CircuitConfig: circuit.Config{
					Logger: logging.NoopLogger{},
				},
			})
			if err != nil {
				return err
			}
			defer session.Circuit.Close()

			logging.Success("connected, agent %s, movement complete: %v",
				session.Agent.AgentID, session.Agent.MovementComplete())
			return nil
		},
	}
}
