package sprintdigest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Afrawles/sprintdigest/internal/config"
	"github.com/Afrawles/sprintdigest/internal/jira"
	"github.com/Afrawles/sprintdigest/internal/notify"
	"github.com/Afrawles/sprintdigest/internal/report"
	"github.com/Afrawles/sprintdigest/internal/schedule"
)

type Application struct {
	Config     *config.Config
	Logger     *zap.Logger
	Profile    report.Profile
	Gate       *schedule.Gate
	Source     report.IssueSource
	Generator  *report.Generator
	Classifier *report.Classifier
	Renderer   *report.Renderer
	Notifier   report.Notifier
	Now        func() time.Time
}

// New wires the application from cfg. The notifier is left nil when Slack
// is not configured; Run then requires DryRun.
func New(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	gate, err := schedule.NewGate(profile.Days, loc)
	if err != nil {
		return nil, err
	}

	source := jira.NewJiraSource(NewJiraClient(cfg))

	var notifier report.Notifier
	n, err := notify.New(notify.Settings{
		BotToken:   cfg.Slack.BotToken,
		ChannelID:  cfg.Slack.ChannelID,
		WebhookURL: cfg.Slack.WebhookURL,
		APIURL:     cfg.Slack.APIURL,
	})
	if err == nil {
		notifier = n
	}

	logger.Debug("application initialized",
		zap.String("profile", profile.Name),
		zap.String("days", gate.String()),
		zap.String("jira", cfg.JiraBaseURL()),
		zap.Bool("notifier", notifier != nil),
	)

	return &Application{
		Config:     cfg,
		Logger:     logger,
		Profile:    profile,
		Gate:       gate,
		Source:     source,
		Generator:  report.NewGenerator(source, logger, cfg.Digest.Concurrency),
		Classifier: report.NewClassifier(profile),
		Renderer:   report.NewRenderer(profile),
		Notifier:   notifier,
		Now:        time.Now,
	}, nil
}

func NewJiraClient(cfg *config.Config) *jira.Client {
	return jira.NewClient(cfg.JiraBaseURL(), cfg.Jira.Email, cfg.Jira.APIToken,
		jira.WithHTTPClient(&http.Client{Timeout: cfg.Jira.Timeout}),
		jira.WithRateLimit(cfg.Jira.RateLimit),
	)
}

type RunOptions struct {
	// Force ignores the profile's weekday gate.
	Force bool
	// DryRun prints the digest to Stdout instead of posting it.
	DryRun    bool
	ExportDir string
	Stdout    io.Writer
}

type Result struct {
	RunID       string
	Skipped     bool
	Fetch       *report.FetchResult
	Summary     *report.Summary
	Stats       map[string]any
	Text        string
	Delivered   bool
	DeliveryErr error
	Exported    []string
}

// Run produces one digest. Delivery and export failures are logged and
// reported in the Result; only a missing destination and fetch failures are
// returned as errors.
func (app *Application) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := app.Logger.With(zap.String("run_id", res.RunID), zap.String("profile", app.Profile.Name))

	now := app.Now()
	if !opts.Force && !app.Gate.Allows(now) {
		log.Info("not a scheduled day, skipping",
			zap.String("today", now.In(app.Gate.Location).Weekday().String()),
			zap.String("days", app.Gate.String()),
		)
		res.Skipped = true
		return res, nil
	}

	notifier := app.Notifier
	if opts.DryRun {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		notifier = notify.NewConsoleNotifier(out)
	}
	if notifier == nil {
		return res, notify.ErrNoDestination
	}

	log.Info("generating digest", zap.String("jql", app.Profile.JQL), zap.String("mode", app.Profile.Mode))

	fetch, err := app.Generator.Generate(ctx, app.Profile.Query(app.Config.Jira.BoardIDs))
	res.Fetch = fetch
	if err != nil {
		log.Error("failed to fetch issues", zap.Error(err))
		return res, err
	}

	res.Summary = app.Classifier.Classify(fetch.Issues)
	res.Stats = app.Generator.Statistics(fetch.Issues)
	res.Text = app.Renderer.Render(res.Summary)

	log.Info("digest rendered",
		zap.Int("fetched", len(fetch.Issues)),
		zap.Int("in_digest", res.Summary.Total),
		zap.Int("groups", len(res.Summary.Groups)),
		zap.Int("failed_boards", len(fetch.Failures)),
	)

	if opts.ExportDir != "" {
		res.Exported = app.export(log, opts.ExportDir, res)
	}

	if err := notifier.Notify(ctx, res.Text); err != nil {
		log.Error("failed to deliver digest", zap.String("notifier", notifier.Name()), zap.Error(err))
		res.DeliveryErr = err
		return res, nil
	}

	res.Delivered = true
	log.Info("digest delivered", zap.String("notifier", notifier.Name()))
	return res, nil
}

func (app *Application) export(log *zap.Logger, dir string, res *Result) []string {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error("failed to create output directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	prefix := fmt.Sprintf("digest_%s_%s", app.Profile.Name, app.Now().Format("20060102_150405"))
	exporter := report.NewExporter(dir)
	var written []string

	for _, format := range app.Config.Output.Format {
		var err error
		var files []string

		switch strings.ToLower(strings.TrimSpace(format)) {
		case "json":
			name := prefix + ".json"
			err = exporter.ExportJSON(res.Summary, res.Text, name)
			files = []string{name}
		case "html":
			name := prefix + ".html"
			err = exporter.ExportHTML(res.Summary, res.Stats, app.Profile, name)
			files = []string{name}
		case "csv":
			err = report.NewCSVExporter(dir).Export(res.Summary, prefix)
			files = []string{prefix + "_issues.csv", prefix + "_dashboard.csv"}
		case "xlsx", "excel":
			var path string
			path, err = report.NewExcelExporter(dir).Export(res.Summary, prefix)
			files = []string{filepath.Base(path)}
		default:
			log.Warn("unknown export format", zap.String("format", format))
			continue
		}

		if err != nil {
			log.Error("failed to export digest", zap.String("format", format), zap.Error(err))
			continue
		}
		log.Info("digest exported", zap.String("format", format), zap.Strings("files", files))
		written = append(written, files...)
	}

	return written
}
