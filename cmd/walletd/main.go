package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glimte/walletbridge"
	"github.com/glimte/walletbridge/api"
	"github.com/glimte/walletbridge/config"
	"github.com/glimte/walletbridge/router"
	"github.com/glimte/walletbridge/services"
	"github.com/spf13/cobra"
)

var (
	buildTime = "unknown"
	gitCommit = "unknown"
)

type globalFlags struct {
	configPath string
	logLevel   string
	hostKind   string
	amqpURL    string
	embed      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "walletd",
		Short: "Wallet host bridge service",
		Long: `walletd serves the wallet operations over HTTP and forwards them to the
embedding host over RabbitMQ, an in-process loopback host, or mock data.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", walletbridge.Version, gitCommit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.hostKind, "host", "", "Host kind (amqp, loopback, none)")
	rootCmd.PersistentFlags().StringVarP(&flags.amqpURL, "url", "u", "", "RabbitMQ connection URL")
	rootCmd.PersistentFlags().BoolVar(&flags.embed, "embed", false, "Forward calls to the host instead of mock data")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newCallCmd(flags),
		newResolveCmd(),
		newHotlineCmd(),
		newRoutesCmd(),
		newOperationsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig applies flags over the file and environment
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if pf.Changed("host") {
		cfg.Host.Kind = flags.hostKind
	}
	if pf.Changed("url") {
		cfg.Host.URL = flags.amqpURL
	}
	if pf.Changed("embed") {
		cfg.Embed = flags.embed
	}
	return cfg, cfg.Validate()
}

func newApp(ctx context.Context, cfg *config.Config) (*walletbridge.App, error) {
	logger, _ := cfg.Log.NewLogger(os.Stderr)
	return walletbridge.New(ctx, cfg, walletbridge.WithLogger(logger))
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}
			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Serve(ctx)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "HTTP listen address")
	return cmd
}

func newCallCmd(flags *globalFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "call <bridge> <function> [params-json]",
		Short: "Invoke one wallet operation and print the result",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			var params interface{}
			if len(args) == 3 {
				if !json.Valid([]byte(args[2])) {
					return fmt.Errorf("params must be valid JSON: %s", args[2])
				}
				params = json.RawMessage(args[2])
			}

			data, err := app.Services().Invoke(ctx, args[0], args[1], params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Overall deadline for the call")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "resolve <correlation-id> [payload-json]",
		Short: "Resolve a pending call on a running walletd",
		Long: `Resolve sends a successful response for a pending call to a running walletd.
Without a payload the call resolves with "<id> data returned".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body io.Reader = http.NoBody
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("payload must be valid JSON: %s", args[1])
				}
				body = bytes.NewBufferString(args[1])
			}

			endpoint := strings.TrimRight(server, "/") + "/debug/responses/" + url.PathEscape(args[0])
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, endpoint, body)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to reach walletd: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusAccepted {
				msg, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("resolve failed (%s): %s", resp.Status, strings.TrimSpace(string(msg)))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resolved %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:8080", "walletd base URL")
	return cmd
}

func newHotlineCmd() *cobra.Command {
	var (
		server string
		id     string
	)
	cmd := &cobra.Command{
		Use:   "hotline <function> [params-json]",
		Short: "Start a hotline call on a running walletd",
		Long: `Hotline starts a documents call with a correlation id of your choice and
waits for its response. Answer it from another shell with
"walletd resolve <id>".`,
		Example: `  walletd hotline getDocuments --id abc
  walletd resolve abc '{"documents":[]}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body io.Reader = http.NoBody
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("params must be valid JSON: %s", args[1])
				}
				body = bytes.NewBufferString(args[1])
			}

			endpoint := strings.TrimRight(server, "/") + "/api/v1/hotline/" + url.PathEscape(args[0])
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, endpoint, body)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			if id != "" {
				req.Header.Set(api.HeaderCorrelationID, id)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to reach walletd: %w", err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read hotline response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("hotline call failed (%s): %s", resp.Status, strings.TrimSpace(string(data)))
			}
			return printJSON(cmd.OutOrStdout(), json.RawMessage(data))
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:8080", "walletd base URL")
	cmd.Flags().StringVar(&id, "id", "", "Correlation id; generated when empty")
	return cmd
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routes navigation events can target",
		RunE: func(cmd *cobra.Command, args []string) error {
			printRoutes(cmd.OutOrStdout(), router.New(router.DefaultRoutes()).Routes())
			return nil
		},
	}
}

func newOperationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List the host operations and their timeouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			printOperations(cmd.OutOrStdout(), services.Operations())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "walletd %s\n", walletbridge.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", gitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", buildTime)
		},
	}
}

func printJSON(w io.Writer, data json.RawMessage) error {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

func printRoutes(w io.Writer, routes []router.Route) {
	fmt.Fprintf(w, "%-25s %-40s\n", "Name", "Path")
	fmt.Fprintln(w, strings.Repeat("-", 65))
	for _, r := range routes {
		fmt.Fprintf(w, "%-25s %-40s\n", r.Name, r.Path)
	}
}

func printOperations(w io.Writer, ops []services.Operation) {
	fmt.Fprintf(w, "%-15s %-28s %-10s\n", "Bridge", "Function", "Timeout")
	fmt.Fprintln(w, strings.Repeat("-", 55))
	for _, op := range ops {
		timeout := "default"
		if op.Timeout > 0 {
			timeout = op.Timeout.String()
		}
		fmt.Fprintf(w, "%-15s %-28s %-10s\n", op.Bridge, op.Function, timeout)
	}
}
