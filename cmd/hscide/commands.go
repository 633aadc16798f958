package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Adda-Baaj/hscide-client/internal/app"
	"github.com/Adda-Baaj/hscide-client/internal/backend"
	"github.com/Adda-Baaj/hscide-client/internal/config"
	"github.com/Adda-Baaj/hscide-client/internal/logger"
	"github.com/Adda-Baaj/hscide-client/pkg/api"
	"github.com/spf13/cobra"
)

// cli carries state shared by subcommands once the root pre-run has loaded it.
type cli struct {
	out     io.Writer
	cfg     *config.Config
	log     logger.Logger
	baseURL string
	timeout time.Duration
	output  string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "hscide",
		Short:         "Greeting and health client for the HSCIDE backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.baseURL, "base-url", "", "backend base URL (overrides BASE_URL)")
	flags.DurationVar(&c.timeout, "timeout", 0, "per-request timeout (overrides REQUEST_TIMEOUT_SECONDS)")
	flags.StringVarP(&c.output, "output", "o", formatText, "output format: text, json or yaml")

	root.AddCommand(
		c.helloCmd(),
		c.healthCmd(),
		c.statusCmd(),
		c.watchCmd(),
		c.historyCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	c.output = strings.ToLower(strings.TrimSpace(c.output))
	if !validFormat(c.output) {
		return fmt.Errorf("unsupported output format %q", c.output)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("base-url") {
		if err := cfg.OverrideBaseURL(c.baseURL); err != nil {
			return err
		}
	}
	if c.timeout > 0 {
		cfg.RequestTimeout = c.timeout
	}
	c.cfg = cfg

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.log = log
	return nil
}

func (c *cli) client() (*api.Client, error) {
	return api.NewForBaseURL(c.cfg.BaseURL, c.cfg.RequestTimeout, c.log)
}

func (c *cli) helloCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Fetch the greeting message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			greeting, err := client.FetchGreeting(cmd.Context())
			if err != nil {
				return errors.New(greetingFailureMessage(err))
			}
			return renderGreeting(c.out, c.output, greeting)
		},
	}
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Fetch the raw health document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			health, err := client.FetchHealth(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return renderHealth(c.out, c.output, health)
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the backend and its native component are running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			return renderStatus(c.out, c.output, client.DeriveStatus(cmd.Context()))
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the service status, journal probes and publish status changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval > 0 {
				c.cfg.WatchInterval = interval
			}
			w, err := app.NewWatcher(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return fmt.Errorf("init watcher: %w", err)
			}
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (overrides WATCH_INTERVAL_SECONDS)")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent journaled status probes",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			store, err := app.OpenJournal(c.cfg, c.log)
			if err != nil {
				return err
			}
			defer store.Close()

			probes, err := store.Recent(limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}
			return renderHistory(c.out, c.output, probes)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum probes to list (0 for all)")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	var port int
	var native bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo greeting backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				port = c.cfg.ServerPort
			}
			if !cmd.Flags().Changed("native") {
				native = c.cfg.NativeAvailable
			}
			srv := backend.NewServer(port, backend.NewGreeter(native), c.log)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 8000, "listen port (overrides SERVER_PORT)")
	cmd.Flags().BoolVar(&native, "native", false, "report the native component as available")
	return cmd
}
