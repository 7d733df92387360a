package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Yallamaztar/q3rcon/rcon"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentQueries bounds how many servers are queried at once.
const maxConcurrentQueries = 16

// serverResult is the outcome of querying one server.
type serverResult struct {
	server  string
	values  map[string]string
	players []rcon.Player
	err     error
}

// queryAll runs query against every server concurrently, one client per server. Failures are
// reported per server rather than aborting the others.
func (a *app) queryAll(ctx context.Context, servers []string,
	query func(ctx context.Context, client *rcon.Client, result *serverResult) error,
) []serverResult {
	results := make([]serverResult, len(servers))

	var group errgroup.Group
	group.SetLimit(maxConcurrentQueries)

	for idx, server := range servers {
		results[idx].server = server
		group.Go(func() error {
			client, errClient := a.newClient(ctx, server)
			if errClient != nil {
				results[idx].err = errClient
				return nil
			}
			defer func() {
				if err := client.Close(); err != nil {
					slog.Error("Failed to close client", slog.String("server", server), slog.String("error", err.Error()))
				}
			}()

			if err := query(ctx, client, &results[idx]); err != nil {
				results[idx].err = err
			}

			return nil
		})
	}

	_ = group.Wait()

	return results
}

// joinFailures collects the per server errors into one.
func joinFailures(results []serverResult) error {
	var errs []error
	for _, result := range results {
		if result.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.server, result.err))
		}
	}

	return errors.Join(errs...)
}

func newStatusCmd(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [server...]",
		Short: "Query getstatus: server variables and players",
		RunE: func(cmd *cobra.Command, args []string) error {
			results := state.queryAll(cmd.Context(), state.servers(args),
				func(ctx context.Context, client *rcon.Client, result *serverResult) error {
					if err := client.Update(ctx); err != nil {
						return err
					}
					result.values = client.Values()
					result.players = client.Players()

					return nil
				})

			out := cmd.OutOrStdout()
			for _, result := range results {
				if result.err != nil {
					fmt.Fprintf(out, "%s\n%s\n\n", titleStyle.Render(result.server), errorStyle.Render(result.err.Error()))
					continue
				}
				fmt.Fprintf(out, "%s\n%s\n%s\n\n", titleStyle.Render(result.server),
					renderSummary(result.values, len(result.players)), renderPlayers(result.players, false))
			}

			return joinFailures(results)
		},
	}
}

func newInfoCmd(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info [server...]",
		Short: "Query getinfo and print every key",
		RunE: func(cmd *cobra.Command, args []string) error {
			results := state.queryAll(cmd.Context(), state.servers(args),
				func(ctx context.Context, client *rcon.Client, result *serverResult) error {
					info, err := client.Info(ctx)
					if err != nil {
						return err
					}
					result.values = info

					return nil
				})

			out := cmd.OutOrStdout()
			for _, result := range results {
				if result.err != nil {
					fmt.Fprintf(out, "%s\n%s\n\n", titleStyle.Render(result.server), errorStyle.Render(result.err.Error()))
					continue
				}
				fmt.Fprintf(out, "%s\n%s\n\n", titleStyle.Render(result.server), renderValues(result.values))
			}

			return joinFailures(results)
		},
	}
}

func newPlayersCmd(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "List players with slots and addresses using rcon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := state.newClient(cmd.Context(), state.conf.Server)
			if err != nil {
				return err
			}
			defer client.Close()

			if errUpdate := client.RconUpdate(cmd.Context()); errUpdate != nil {
				return errUpdate
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderPlayers(client.Players(), true))

			return nil
		},
	}
}

func newRconCmd(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rcon <command...>",
		Short: "Run a console command on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := state.newClient(cmd.Context(), state.conf.Server)
			if err != nil {
				return err
			}
			defer client.Close()

			resp, errRcon := client.Rcon(cmd.Context(), strings.Join(args, " "))
			if errRcon != nil {
				return errRcon
			}

			fmt.Fprint(cmd.OutOrStdout(), rcon.StripColors(resp.Payload))

			return nil
		},
	}
}

func newCvarCmd(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cvar <name>",
		Short: "Print the value of a console variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := state.newClient(cmd.Context(), state.conf.Server)
			if err != nil {
				return err
			}
			defer client.Close()

			value, errCvar := client.Cvar(cmd.Context(), args[0])
			if errCvar != nil {
				return errCvar
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)

			return nil
		},
	}
}
