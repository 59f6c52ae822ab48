package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/hotdigest/internal/config"
	"github.com/elonfeng/hotdigest/internal/logging"
	"github.com/elonfeng/hotdigest/internal/pipeline"
	"github.com/elonfeng/hotdigest/internal/scheduler"
	"github.com/elonfeng/hotdigest/internal/store"
	"github.com/elonfeng/hotdigest/pkg/alert"
	"github.com/elonfeng/hotdigest/pkg/digest"
	"github.com/elonfeng/hotdigest/pkg/enrich"
	"github.com/elonfeng/hotdigest/pkg/server"
	"github.com/elonfeng/hotdigest/pkg/source"
	"github.com/elonfeng/hotdigest/pkg/trend"
)

func loadConfig() (*config.Config, zerolog.Logger, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return cfg, logging.New(level, os.Stderr), nil
}

func buildRegistry(cfg *config.Config, log zerolog.Logger) *source.Registry {
	feeds := make([]source.RSSFeed, len(cfg.Sources.RSSPlus.Feeds))
	for i, f := range cfg.Sources.RSSPlus.Feeds {
		feeds[i] = source.RSSFeed{Name: f.Name, URL: f.URL}
	}
	platforms := make([]source.NewsNowPlatform, len(cfg.Sources.NewsNow.Platforms))
	for i, p := range cfg.Sources.NewsNow.Platforms {
		platforms[i] = source.NewsNowPlatform{ID: p.ID, Display: p.Display}
	}

	return source.NewDefaultRegistry(source.RegistryConfig{
		HTTP: source.HTTPOptions{
			Timeout:   cfg.Fetch.ParseTimeout(),
			UserAgent: cfg.Fetch.UserAgent,
		},
		RSSFeeds:         feeds,
		NewsNowAPIURL:    cfg.Sources.NewsNow.APIURL,
		NewsNowPlatforms: platforms,
	}, log)
}

func buildEngine(cfg *config.Config) *trend.Engine {
	weights := trend.DefaultSourceWeights().WithOverrides(cfg.Ranking.SourceWeights)
	if cfg.Ranking.AggregatorPrefix != "" {
		weights.AggregatorPrefix = cfg.Ranking.AggregatorPrefix
	}
	if cfg.Ranking.AggregatorWeight > 0 {
		weights.AggregatorWeight = cfg.Ranking.AggregatorWeight
	}
	if cfg.Ranking.DefaultWeight > 0 {
		weights.Default = cfg.Ranking.DefaultWeight
	}
	return trend.NewEngine(weights, trend.DefaultClassifier(), nil)
}

func buildPipeline(cfg *config.Config, reg *source.Registry, log zerolog.Logger) *pipeline.Pipeline {
	enricher := enrich.New(enrich.Options{
		Workers:   cfg.Enrich.Workers,
		Timeout:   cfg.Enrich.ParseTimeout(),
		MaxChars:  cfg.Enrich.MaxChars,
		UserAgent: cfg.Fetch.UserAgent,
	}, log)
	return pipeline.New(reg, buildEngine(cfg), log,
		pipeline.WithEnricher(enricher),
		pipeline.WithConcurrency(cfg.Fetch.Concurrency),
	)
}

func buildAlertManager(cfg *config.Config, log zerolog.Logger) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}
	if cfg.Alerts.Telegram.Enabled && cfg.Alerts.Telegram.Token != "" {
		tg, err := alert.NewTelegram(cfg.Alerts.Telegram.Token, cfg.Alerts.Telegram.ChatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram alerts disabled")
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	return alert.NewManager(notifiers)
}

// scheduledRequest is the request used by the daemon and POST /api/v1/collect.
func scheduledRequest(cfg *config.Config) pipeline.Request {
	return pipeline.Request{
		Sources: "all",
		Pack:    cfg.Fetch.Pack,
		Limit:   cfg.Fetch.Limit,
		Keyword: cfg.Schedule.Keyword,
		Top:     cfg.Schedule.Top,
	}
}

func runFetch(ctx context.Context, opts fetchOpts) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Sources: opts.sources,
		Pack:    opts.pack,
		Limit:   opts.limit,
		Keyword: opts.keyword,
		Top:     opts.top,
		Deep:    opts.deep,
		DeepTop: opts.deepTop,
	}
	if req.Pack == "" {
		req.Pack = cfg.Fetch.Pack
	}
	if req.Limit <= 0 {
		req.Limit = cfg.Fetch.Limit
	}
	if req.DeepTop <= 0 {
		req.DeepTop = cfg.Enrich.DeepTop
	}

	p := buildPipeline(cfg, buildRegistry(cfg, log), log)
	res, err := p.Run(ctx, req)
	if err != nil {
		return err
	}
	return emit(res, opts.outputOpts, cfg, log)
}

func runRank(path string, opts outputOpts) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var raw []source.Item
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("decode items: %w", err)
	}

	p := pipeline.New(source.NewRegistry(), buildEngine(cfg), log)
	return emit(p.Rank(raw, opts.keyword, opts.top), opts, cfg, log)
}

// emit writes the optional report file and prints the ranked items.
func emit(res *pipeline.Result, opts outputOpts, cfg *config.Config, log zerolog.Logger) error {
	if (opts.report || opts.reportFile != "") && len(res.Items) > 0 {
		path := opts.reportFile
		if path == "" {
			path = digest.DefaultPath(cfg.Report.Dir, res.GeneratedAt)
		}
		if err := digest.WriteFile(path, res.Report); err != nil {
			log.Error().Err(err).Msg("failed to write report")
		} else {
			log.Info().Str("path", path).Msg("report saved")
		}
	}

	if opts.table {
		return printTable(os.Stdout, res.Items)
	}
	return printJSON(os.Stdout, res.Items)
}

func printJSON(w io.Writer, items []trend.RankedItem) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func printTable(w io.Writer, items []trend.RankedItem) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "no items found (check --source and --keyword)")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tHEAT\tCATEGORY\tSOURCE\tTITLE")
	for i, item := range items {
		fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\t%s\t%s\n",
			i+1, item.Score, heatLabel(item.Heat), item.Category, item.Source, item.Title)
	}
	return tw.Flush()
}

func heatLabel(heat string) string {
	if v := trend.ParseHeat(heat); v > 0 {
		return humanize.Comma(int64(v))
	}
	return "-"
}

func runSources() error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	reg := buildRegistry(cfg, log)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME")
	for _, e := range reg.Entries() {
		fmt.Fprintf(w, "%s\t%s\n", e.Key, e.Source.Name())
	}
	return w.Flush()
}

// daemon holds the components shared by serve and run.
type daemon struct {
	cfg   *config.Config
	log   zerolog.Logger
	db    *store.SQLiteStore
	reg   *source.Registry
	sched *scheduler.Scheduler
}

func openDaemon() (*daemon, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := buildRegistry(cfg, log)
	sched, err := scheduler.New(db, buildPipeline(cfg, reg, log), buildAlertManager(cfg, log), scheduler.Options{
		Spec:          cfg.Schedule.Cron,
		Request:       scheduledRequest(cfg),
		MaxAlertItems: cfg.Alerts.MaxItems,
	}, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &daemon{cfg: cfg, log: log, db: db, reg: reg, sched: sched}, nil
}

func (d *daemon) server(port int) *server.Server {
	if port == 0 {
		port = d.cfg.Server.Port
	}
	return server.New(d.db, d.reg, d.sched, scheduledRequest(d.cfg), port, d.log)
}

func (d *daemon) logLatest(ctx context.Context) {
	run, err := d.db.LatestRun(ctx)
	if err != nil {
		return
	}
	d.log.Info().
		Str("run_id", run.ID).
		Int("items", run.ItemCount).
		Str("age", humanize.Time(run.GeneratedAt)).
		Msg("serving stored digest")
}

func runServe(ctx context.Context, port int) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.db.Close()

	d.logLatest(ctx)
	return d.server(port).ListenAndServe(ctx)
}

func runDaemon(ctx context.Context, port int) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.db.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := d.sched.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return d.server(port).ListenAndServe(ctx)
	})

	err = g.Wait()
	d.log.Info().Msg("shut down")
	return err
}
