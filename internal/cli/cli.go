// ============================================================================
// basicsvc CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra command tree for running and calling the basic gRPC service
//
// Command Structure:
//   basicsvc                       # Root command
//   ├── --config, -c              # Config file (default: configs/default.yaml)
//   ├── serve                      # Run the gRPC + ops HTTP servers
//   │   ├── --addr                # Override server.addr
//   │   └── --http-addr           # Override http.addr
//   ├── background                 # Stream a background job
//   │   └── --count, -n           # Number of simulated services
//   ├── hello                      # Unary greeting
//   │   └── --name                # Who to greet
//   ├── talk                       # Chat over the bidirectional stream (stdin)
//   ├── status                     # Print effective config, optionally probe health
//   │   └── --probe               # Query grpc.health.v1 on the server
//   └── --version
//
//   Client commands share --addr (default: server.addr) and --ca (PEM file;
//   enables TLS).
//
// Configuration:
//   YAML, see config.go. Missing fields take defaults; the default config
//   path may be absent entirely.
//
// Logging:
//   log/slog, text or JSON handler per log.format, installed as the default
//   logger before any command runs.
//
// Examples:
//   ./basicsvc serve -c configs/default.yaml
//   ./basicsvc background -n 5
//   ./basicsvc hello --name World
//   ./basicsvc talk --name Ada
//
// ============================================================================

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gopkg.in/yaml.v3"

	pb "github.com/soundphilosopher/basic-grpc-service/api/proto/v1"
)

// Version is reported by --version.
var Version = "0.1.0"

var (
	configFile string
	cfg        *Config
)

// BuildCLI returns the root command.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "basicsvc",
		Short: "basicsvc: a small gRPC service with streaming background jobs",
		Long: `basicsvc serves basic.v1.BasicService:
- Hello: unary greeting wrapped in a CloudEvent
- Talk: bidirectional chat
- Background: fan-out to simulated services, streaming a snapshot per result`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
			slog.SetDefault(newLogger(cfg, cmd.ErrOrStderr()))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigPath, "config file path")

	rootCmd.AddCommand(buildServeCommand())
	rootCmd.AddCommand(buildBackgroundCommand())
	rootCmd.AddCommand(buildHelloCommand())
	rootCmd.AddCommand(buildTalkCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func buildServeCommand() *cobra.Command {
	var addr, httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server",
		Long:  "Start the gRPC server and, when enabled, the ops HTTP server (/metrics, /healthz, /jobs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if httpAddr != "" {
				cfg.HTTP.Addr = httpAddr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "gRPC listen address (overrides server.addr)")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "ops HTTP listen address (overrides http.addr)")

	return cmd
}

// clientFlags are shared by the commands that call a running server.
type clientFlags struct {
	addr string
	ca   string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "", "server address (default: server.addr from config)")
	cmd.Flags().StringVar(&f.ca, "ca", "", "CA certificate PEM; enables TLS")
}

func (f *clientFlags) client() (pb.BasicServiceClient, func(), error) {
	addr := f.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	conn, err := dial(addr, f.ca)
	if err != nil {
		return nil, nil, err
	}
	return pb.NewBasicServiceClient(conn), func() { _ = conn.Close() }, nil
}

func buildBackgroundCommand() *cobra.Command {
	var flags clientFlags
	var count int32

	cmd := &cobra.Command{
		Use:   "background",
		Short: "Run a background job and print each snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := flags.client()
			if err != nil {
				return err
			}
			defer closeFn()
			return runBackground(cmd.Context(), client, count, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int32VarP(&count, "count", "n", 3, "number of simulated services to call")
	flags.register(cmd)

	return cmd
}

func buildHelloCommand() *cobra.Command {
	var flags clientFlags
	var name string

	cmd := &cobra.Command{
		Use:   "hello",
		Short: "Send a greeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := flags.client()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return runHello(ctx, client, name, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&name, "name", "World", "who to greet")
	flags.register(cmd)

	return cmd
}

func buildTalkCommand() *cobra.Command {
	var flags clientFlags
	var name string

	cmd := &cobra.Command{
		Use:   "talk",
		Short: "Chat with the server, one line per message",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := flags.client()
			if err != nil {
				return err
			}
			defer closeFn()
			return runTalk(cmd.Context(), client, name, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&name, "name", "friend", "how the server should address you")
	flags.register(cmd)

	return cmd
}

func buildStatusCommand() *cobra.Command {
	var flags clientFlags
	var probe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show effective configuration and server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(cmd, &flags, probe)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "query the server's health service")
	flags.register(cmd)

	return cmd
}

func showStatus(cmd *cobra.Command, flags *clientFlags, probe bool) error {
	out := cmd.OutOrStdout()

	rendered, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	fmt.Fprintf(out, "# config: %s\n%s", configFile, rendered)

	if !probe {
		return nil
	}

	addr := flags.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	conn, err := dial(addr, flags.ca)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: serviceName})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Fprintf(out, "# %s at %s: %s\n", serviceName, addr, resp.GetStatus())
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := BuildCLI().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
