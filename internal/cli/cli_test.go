package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb "github.com/soundphilosopher/basic-grpc-service/api/proto/v1"
	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ============================================================================
// Command tree
// ============================================================================

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.Equal(t, "basicsvc", cmd.Use)
	assert.Equal(t, Version, cmd.Version)

	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Use] = true
	}
	for _, want := range []string{"serve", "background", "hello", "talk", "status"} {
		assert.True(t, names[want], "missing %q command", want)
	}

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "configs/default.yaml", configFlag.DefValue)
}

func TestClientCommandFlags(t *testing.T) {
	for _, build := range []func() *cobra.Command{
		buildBackgroundCommand, buildHelloCommand, buildTalkCommand, buildStatusCommand,
	} {
		cmd := build()
		assert.NotNil(t, cmd.Flags().Lookup("addr"), "%s: --addr", cmd.Use)
		assert.NotNil(t, cmd.Flags().Lookup("ca"), "%s: --ca", cmd.Use)
		assert.NotNil(t, cmd.RunE, "%s: RunE", cmd.Use)
	}

	count := buildBackgroundCommand().Flags().Lookup("count")
	require.NotNil(t, count)
	assert.Equal(t, "n", count.Shorthand)
	assert.Equal(t, "3", count.DefValue)
}

// ============================================================================
// Configuration
// ============================================================================

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "0.0.0.0:6000"
  reflection: true
  max_concurrent_jobs: 8
background:
  min_delay: 100ms
  max_delay: 2s
  service_version: "2.0.0"
http:
  enabled: true
  addr: ":9100"
  allowed_origins: ["https://dash.example.com"]
log:
  level: debug
  format: json
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:6000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Reflection)
	assert.Equal(t, int64(8), cfg.Server.MaxConcurrentJobs)
	assert.Equal(t, 100*time.Millisecond, cfg.Background.MinDelay)
	assert.Equal(t, 2*time.Second, cfg.Background.MaxDelay)
	assert.Equal(t, "2.0.0", cfg.Background.ServiceVersion)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:50443", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.Background.MinDelay)
	assert.Equal(t, 3*time.Second, cfg.Background.MaxDelay)
	assert.Equal(t, "1.1.2", cfg.Background.ServiceVersion)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.False(t, cfg.HTTP.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := loadConfig("/nonexistent/config.yaml")

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_ShippedDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join("..", "..", defaultConfigPath))
	require.NoError(t, err)

	assert.False(t, cfg.Server.Reflection)
	assert.Empty(t, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, time.Second, cfg.Background.MinDelay)
	assert.Equal(t, 3*time.Second, cfg.Background.MaxDelay)
}

func TestLoadConfig_MissingDefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
server:
  addr: [unclosed
`))

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{"cert without key", "server:\n  tls_cert: a.pem\n", "tls_cert and server.tls_key"},
		{"delays reversed", "background:\n  min_delay: 3s\n  max_delay: 1s\n", "min_delay"},
		{"bad level", "log:\n  level: loud\n", "unknown log level"},
		{"bad format", "log:\n  format: xml\n", "unknown log format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := loadConfig(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	cfg := defaultConfig()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger := newLogger(cfg, &buf)
	logger.Info("dropped")
	logger.Warn("kept", "job_id", "j1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "j1", entry["job_id"])
}

// ============================================================================
// serve + clients
// ============================================================================

func startTestServer(t *testing.T) (pb.BasicServiceClient, string) {
	t.Helper()
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	cfg := defaultConfig()
	cfg.Background.MinDelay = time.Millisecond
	cfg.Background.MaxDelay = 5 * time.Millisecond

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, lis) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("serve did not stop")
		}
	})

	addr := lis.Addr().String()
	conn, err := dial(addr, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return pb.NewBasicServiceClient(conn), addr
}

func TestServeEndToEnd(t *testing.T) {
	client, addr := startTestServer(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runHello(ctx, client, "World", &out))
	assert.Equal(t, "Hello, World!\n", out.String())

	out.Reset()
	require.NoError(t, runBackground(ctx, client, 2, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)

	var last types.Snapshot
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))
	assert.Equal(t, types.StateComplete, last.State)
	assert.Len(t, last.Results, 2)

	conn, err := dial(addr, "")
	require.NoError(t, err)
	defer conn.Close()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: serviceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRunTalk(t *testing.T) {
	client, _ := startTestServer(t)

	var out bytes.Buffer
	in := strings.NewReader("I need a holiday\n\nbye\nnever sent\n")
	require.NoError(t, runTalk(context.Background(), client, "Ada", in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// Four intro lines, then one answer per non-empty message up to goodbye.
	require.GreaterOrEqual(t, len(lines), 6)
	assert.Equal(t, "Hi Ada. I'm just a greeter.", lines[0])
	assert.Equal(t, "How are you feeling today?", lines[3])
}

func TestStatusCommand(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \"127.0.0.1:7000\"\n")

	root := BuildCLI()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"status", "-c", path})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "# config: "+path)
	assert.Contains(t, out.String(), "127.0.0.1:7000")
	assert.Contains(t, out.String(), "min_delay: 1s")
}
