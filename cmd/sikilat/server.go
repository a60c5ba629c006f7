package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sikilat/sikilat/internal/api"
	"github.com/sikilat/sikilat/internal/assistant"
	"github.com/sikilat/sikilat/internal/chat"
	"github.com/sikilat/sikilat/internal/config"
	"github.com/sikilat/sikilat/internal/intent"
	"github.com/sikilat/sikilat/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sikilat server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running sikilat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sikilat system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "sikilat.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func openKV(ctx context.Context, cfg config.Config) (store.KV, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return store.OpenSQLite(cfg.Storage.DataDir)
	case "redis":
		return store.OpenRedis(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisPassword)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "sikilat version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)})))

	apiToken, err := config.GetAPIToken()
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("sikilat is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("sikilat is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := openKV(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	st := store.New(kv)
	defer func() {
		if err := st.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	if err := st.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing collections: %w", err)
	}
	slog.Info("storage ready", "driver", cfg.Storage.Driver)

	// Assistant client. An empty API key is fine: the delegate answers
	// with its fixed explanation instead of calling out.
	var client *assistant.Client
	if cfg.Assistant.BaseURL != "" {
		client = assistant.NewClientWithBaseURL(cfg.Assistant.APIKey, cfg.Assistant.BaseURL)
	} else {
		client = assistant.NewClient(cfg.Assistant.APIKey)
	}
	delegate := assistant.New(client, st, cfg.Assistant.ChatModel, cfg.Assistant.ReasoningModel)
	if !delegate.Available() {
		slog.Warn("assistant API key not configured, structured rules only")
	}

	matcher := intent.New(st, delegate.Available())
	chatSvc := chat.New(matcher, delegate, st)

	handler := api.NewAppHandler(api.AppDeps{
		Store: st,
		Chat:  chatSvc,
		Token: apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	mcpSrv := api.NewMCPServer(api.MCPDeps{Store: st})
	stdioSrv := server.NewStdioServer(mcpSrv)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "sikilat listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
		return nil
	})
	slog.Info("MCP server started (stdio transport)")

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("sikilat is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop sikilat (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to sikilat (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := healthClient.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Storage", "%s", cfg.Storage.Driver)
	printStatus("Chat model", "%s", cfg.Assistant.ChatModel)
	printStatus("Reasoning model", "%s", cfg.Assistant.ReasoningModel)
	if cfg.Assistant.APIKey == "" {
		printStatus("Assistant", "not configured (set SIKILAT_GENAI_API_KEY)")
	} else {
		printStatus("Assistant", "configured")
	}

	// Show collection counts if the server is running.
	if running {
		if client, err := newAPIClient(); err == nil {
			summaryResp, err := client.get(ctx, "/dashboard/summary")
			if err == nil {
				var summary struct {
					TotalItems    int `json:"total_barang"`
					TotalReports  int `json:"total_laporan"`
					TotalBookings int `json:"total_peminjaman"`
				}
				if decodeJSON(summaryResp, &summary) == nil {
					printStatus("Inventory items", "%d", summary.TotalItems)
					printStatus("Damage reports", "%d", summary.TotalReports)
					printStatus("Bookings", "%d", summary.TotalBookings)
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
