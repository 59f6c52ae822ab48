package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hotdigest",
		Short:         "Aggregate trending news into one ranked, deduplicated digest",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: from config)")

	root.AddCommand(fetchCmd())
	root.AddCommand(rankCmd())
	root.AddCommand(sourcesCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

// outputOpts are the flags shared by fetch and rank.
type outputOpts struct {
	keyword    string
	top        int
	report     bool
	reportFile string
	table      bool
}

func (o *outputOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.keyword, "keyword", "", "comma-separated keyword filter, also boosts matching titles")
	cmd.Flags().IntVar(&o.top, "top", 0, "keep the top N ranked items (0 keeps all)")
	cmd.Flags().BoolVar(&o.report, "report", false, "write a markdown digest to the report directory")
	cmd.Flags().StringVar(&o.reportFile, "report-file", "", "custom markdown report path (implies --report)")
	cmd.Flags().BoolVar(&o.table, "table", false, "print a table instead of JSON")
}

type fetchOpts struct {
	outputOpts
	sources string
	pack    string
	limit   int
	deep    bool
	deepTop int
}

func fetchCmd() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch, deduplicate and rank trending items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.sources, "source", "all", "source keys to fetch (comma-separated) or all")
	cmd.Flags().StringVar(&opts.pack, "pack", "", "bundle for --source all: core, plus or trend (default: from config)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "items per source (default: from config)")
	cmd.Flags().BoolVar(&opts.deep, "deep", false, "download article text for the top items")
	cmd.Flags().IntVar(&opts.deepTop, "deep-top", 0, "items to enrich with --deep (default: from config)")
	opts.outputOpts.register(cmd)
	return cmd
}

func rankCmd() *cobra.Command {
	var opts outputOpts

	cmd := &cobra.Command{
		Use:   "rank [file]",
		Short: "Deduplicate and rank raw items read from a JSON file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runRank(path, opts)
		},
	}

	opts.register(cmd)
	return cmd
}

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List available source keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSources()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
