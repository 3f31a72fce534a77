package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/zen-systems/relay/pkg/adapter"
	"github.com/zen-systems/relay/pkg/classify"
	"github.com/zen-systems/relay/pkg/config"
	"github.com/zen-systems/relay/pkg/router"
)

var (
	configFile string
	debugFlag  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Hybrid assistant router between local executors and cloud AI",
		Long: `Relay classifies each request and decides whether to handle it with a
local executor (free, private, instant) or to send it to the configured
cloud AI service behind rate limiting, budget enforcement, retries and a
circuit breaker.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogger()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to routing config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(replCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogger() {
	level := slog.LevelInfo
	if debugFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})))
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [input]",
		Short: "Process one request and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRouter()
			if err != nil {
				return err
			}

			result := r.ProcessInput(cmd.Context(), args[0])
			printResult(result)
			if !result.Success {
				os.Exit(1)
			}
			return nil
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session reading requests from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRouter()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("> ")
			for scanner.Scan() {
				if ctx.Err() != nil {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					fmt.Print("> ")
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}
				printResult(r.ProcessInput(ctx, line))
				fmt.Print("> ")
			}

			stats := r.Statistics()
			fmt.Fprintf(os.Stderr, "\n%d requests (%d local, %d cloud, %d cache hits), $%.4f spent\n",
				stats.TotalRequests, stats.LocalCount, stats.CloudCount, stats.CacheHits,
				r.CostReport().TotalCost)
			return scanner.Err()
		},
	}
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [input]",
		Short: "Show the classification for an input without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRouter()
			if err != nil {
				return err
			}

			result := r.Classify(args[0])
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show the configured classification rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRouter()
			if err != nil {
				return err
			}

			routes := r.Routes()
			sort.Slice(routes, func(i, j int) bool { return routes[i].TaskType < routes[j].TaskType })

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TASK TYPE\tROUTE\tCOMPLEXITY\tTRIGGERS")
			for _, info := range routes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					info.TaskType, info.Route, info.Complexity, strings.Join(info.Triggers, ", "))
			}
			return w.Flush()
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cost, cache and rate limit state",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRouter()
			if err != nil {
				return err
			}

			out := map[string]any{
				"requests":   r.Statistics(),
				"cache":      r.CacheStatistics(),
				"cost":       r.CostReport(),
				"rate_limit": r.RateLimitStatus(),
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the processing paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRouter()
			if err != nil {
				return err
			}

			h := r.CheckSystemHealth()
			data, err := json.MarshalIndent(h, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			if h.OverallStatus == "unhealthy" {
				os.Exit(1)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API with health and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRouter()
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/ask", func(w http.ResponseWriter, req *http.Request) {
				if req.Method != http.MethodPost {
					http.Error(w, "POST only", http.StatusMethodNotAllowed)
					return
				}
				var body struct {
					Input string `json:"input"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Input == "" {
					http.Error(w, "body must be {\"input\": \"...\"}", http.StatusBadRequest)
					return
				}
				writeJSON(w, r.ProcessInput(req.Context(), body.Input))
			})
			mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
				h := r.CheckSystemHealth()
				if h.OverallStatus == "unhealthy" {
					w.WriteHeader(http.StatusServiceUnavailable)
				}
				writeJSON(w, h)
			})
			mux.Handle("/metrics", promhttp.Handler())

			server := &http.Server{Addr: addr, Handler: mux}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			slog.Info("serving", "addr", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func printResult(result router.TaskResult) {
	fmt.Println(result.Output)
	if result.CacheHit {
		fmt.Fprintln(os.Stderr, "(cached)")
	} else if result.Route == classify.RouteCloud && result.Success {
		fmt.Fprintf(os.Stderr, "(cloud: %d tokens, $%.4f)\n", result.TokensUsed, result.Cost)
	}
}

// buildRouter loads configuration and wires the cloud adapter the config
// selects. Without any API key the mock adapter is used so local development
// works offline.
func buildRouter() (*router.Router, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadWithRoutingFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cloud, err := buildCloudClient(cfg)
	if err != nil {
		return nil, err
	}
	if cloud != nil {
		slog.Debug("cloud adapter ready", "adapter", cloud.Name(), "model", cfg.Routing.Cloud.Model)
	}

	return router.New(cfg.Routing, cloud), nil
}

func buildCloudClient(cfg *config.Config) (adapter.Client, error) {
	name := cfg.Routing.Cloud.Adapter
	if !cfg.HasAdapter(name) {
		slog.Warn("no API key for cloud adapter, using mock", "adapter", name)
		return adapter.NewMockClient(), nil
	}

	switch name {
	case "anthropic":
		return adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
	case "openai":
		return adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
	case "google":
		return adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
	default:
		return nil, fmt.Errorf("unknown cloud adapter %q", name)
	}
}
