package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/Yallamaztar/q3rcon/internal/config"
	"github.com/Yallamaztar/q3rcon/rcon"
	"github.com/charmbracelet/fang"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

var (
	BuildVersion   = "master"
	BuildCommit    = "00000000"
	BuildDate      = time.Now().Format("2006-01-02T15:04:05Z")
	BuildGoVersion = runtime.Version()
)

var errApp = errors.New("application error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd()); err != nil {
		slog.Error("Exited with error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// app carries the loaded configuration to the subcommands.
type app struct {
	cfgFile string
	conf    config.Config
}

func newRootCmd() *cobra.Command {
	state := &app{}

	rootCmd := &cobra.Command{
		Use:           "q3rcon",
		Short:         "Quake 3 server query and remote console",
		Long:          `q3rcon - query Quake 3 engine servers (getstatus, getinfo) and run rcon commands`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return state.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&state.cfgFile, "config", "", "Config file path (default $XDG_CONFIG_HOME/q3rcon/q3rcon.yaml)")
	flags.StringP("server", "s", "127.0.0.1:27960", "Server address as host:port")
	flags.StringP("password", "p", "", "Rcon password")
	flags.Duration("timeout", rcon.DefaultTimeout, "Time to wait for each reply")
	flags.Int("retries", rcon.DefaultRetries, "Send attempts per command")
	flags.Duration("read-extension", 0, "Keep reading this long for continuation packets")
	flags.Bool("legacy-slots", false, "Number every getstatus player 1")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newStatusCmd(state),
		newInfoCmd(state),
		newPlayersCmd(state),
		newRconCmd(state),
		newCvarCmd(state),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	loader := config.NewLoader(a.cfgFile)
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return errors.Join(err, errApp)
	}

	conf, err := loader.Read()
	if err != nil {
		return errors.Join(err, errApp)
	}

	if errLogger := config.LoggerInit(cmd.ErrOrStderr(), conf.LogLevel); errLogger != nil {
		return errors.Join(errLogger, errApp)
	}

	a.conf = conf
	slog.Debug("Loaded config", slog.String("file", loader.ConfigFileUsed()),
		slog.String("server", conf.Server), slog.Duration("timeout", conf.Timeout),
		slog.Int("retries", conf.Retries))

	return nil
}

// newClient opens a client for server using the loaded settings.
func (a *app) newClient(ctx context.Context, server string) (*rcon.Client, error) {
	opts := []rcon.Option{
		rcon.WithPassword(a.conf.Password),
		rcon.WithTimeout(a.conf.Timeout),
		rcon.WithRetries(a.conf.Retries),
		rcon.WithReadExtension(a.conf.ReadExtension),
		rcon.WithLogger(slog.Default()),
	}
	if a.conf.LegacySlots {
		opts = append(opts, rcon.WithLegacySlotNumbers())
	}

	return rcon.New(ctx, server, opts...)
}

// servers picks the targets of a multi server command: arguments first, then the configured
// list, then the single configured server.
func (a *app) servers(args []string) []string {
	switch {
	case len(args) > 0:
		return args
	case len(a.conf.Servers) > 0:
		return a.conf.Servers
	default:
		return []string{a.conf.Server}
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "q3rcon - Quake 3 query and rcon client\n\n")
			fmt.Fprintf(out, "  Version: %s\n", BuildVersion)
			fmt.Fprintf(out, "  Commit:  %s\n", BuildCommit)
			fmt.Fprintf(out, "  Built:   %s\n", BuildDate)
			fmt.Fprintf(out, "  Runtime: %s\n\n", BuildGoVersion)
		},
	}
}
