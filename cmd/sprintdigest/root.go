package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Afrawles/sprintdigest/internal/config"
	"github.com/Afrawles/sprintdigest/internal/jira"
	"github.com/Afrawles/sprintdigest/internal/report"
	"github.com/Afrawles/sprintdigest/internal/sprintdigest"
)

var (
	configPath  string
	profileName string
	boardIDs    string
	exportDir   string
	force       bool
	dryRun      bool
	verbose     bool
	noProgress  bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sprintdigest",
	Short: "Post a digest of active-sprint Jira issues to Slack",
	Long: `sprintdigest pages through the Jira boards visible to the configured
account, buckets the issues of their active sprints by status and assignee,
and posts the resulting digest to a Slack channel.

Which issues are picked, the days the digest runs on and its layout come
from a profile (weekly, daily, carryover or one defined in the config file).

Credentials are read from the environment (or a .env file):
  JIRA_DOMAIN, JIRA_EMAIL, JIRA_API_TOKEN
  SLACK_WEBHOOK_URL or SLACK_BOT_TOKEN + SLACK_CHANNEL_ID`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runDigest,
}

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List the Jira boards the digest would read",
	RunE:  listBoards,
}

var sprintsCmd = &cobra.Command{
	Use:   "sprints <board-id>",
	Short: "List the active sprints of a board",
	Args:  cobra.ExactArgs(1),
	RunE:  listSprints,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the available digest profiles",
	RunE:  listProfiles,
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(boardsCmd, sprintsCmd, profilesCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $DIGEST_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "Digest profile (default $DIGEST_PROFILE or weekly)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.Flags().StringVarP(&boardIDs, "board", "b", "", "Comma-separated board IDs to include (default $JIRA_BOARD_IDS, all boards)")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "Run even if today is not a scheduled day")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the digest instead of posting it")
	rootCmd.Flags().StringVarP(&exportDir, "export-dir", "o", "", "Also write the digest as JSON/CSV/XLSX/HTML to this directory (default $OUTPUT_DIR)")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress spinner")
}

func setup(cmd *cobra.Command, args []string) error {
	config.LoadDotEnv()

	path := configPath
	if path == "" {
		path = os.Getenv("DIGEST_CONFIG")
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}

	if profileName != "" {
		cfg.Digest.Profile = profileName
	}
	if boardIDs != "" {
		ids, err := config.ParseIDs(boardIDs)
		if err != nil {
			return fmt.Errorf("--board: %w", err)
		}
		cfg.Jira.BoardIDs = ids
	}
	if exportDir == "" {
		exportDir = cfg.Output.Directory
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err = newLogger(level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func runDigest(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(!dryRun); err != nil {
		return err
	}

	app, err := sprintdigest.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bar *progressbar.ProgressBar
	if !noProgress && !verbose {
		bar = newSpinner(fmt.Sprintf("Building %s digest", app.Profile.Name))
	}
	res, err := app.Run(ctx, sprintdigest.RunOptions{
		Force:     force,
		DryRun:    dryRun,
		ExportDir: exportDir,
		Stdout:    cmd.OutOrStdout(),
	})
	finishBar(bar)
	if err != nil {
		return err
	}

	printResult(cmd, app, res)
	return nil
}

func listBoards(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateJira(); err != nil {
		return err
	}
	client := sprintdigest.NewJiraClient(cfg)

	boards, err := client.Boards(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("failed to list boards: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-8s %-8s %-10s %s\n", "ID", "TYPE", "PROJECT", "NAME")
	for _, b := range boards {
		fmt.Fprintf(out, "%-8d %-8s %-10s %s\n", b.ID, b.Type, b.Location.ProjectKey, b.Name)
	}
	fmt.Fprintf(out, "\n%d boards\n", len(boards))
	return nil
}

func listSprints(cmd *cobra.Command, args []string) error {
	boardID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid board id %q", args[0])
	}
	if err := cfg.ValidateJira(); err != nil {
		return err
	}
	client := sprintdigest.NewJiraClient(cfg)

	sprints, err := client.ActiveSprints(cmd.Context(), boardID)
	if err != nil {
		return fmt.Errorf("failed to list sprints of board %d: %w", boardID, err)
	}

	out := cmd.OutOrStdout()
	if len(sprints) == 0 {
		fmt.Fprintf(out, "No active sprints on board %d\n", boardID)
		return nil
	}
	for _, s := range sprints {
		fmt.Fprintf(out, "%-8d %-30s %s -> %s\n", s.ID, s.Name, formatDay(s.StartDate), formatDay(s.EndDate))
	}
	return nil
}

func listProfiles(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range report.ProfileNames(cfg.Profiles) {
		p := cfg.Profiles[name]
		marker := " "
		if name == cfg.Digest.Profile {
			marker = "*"
		}
		days := "every day"
		if len(p.Days) > 0 {
			days = strings.Join(p.Days, ",")
		}
		fmt.Fprintf(out, "%s %-12s %-10s %-8s %s\n", marker, name, days, p.Format, p.Description)
	}
	return nil
}

func formatDay(t jira.Time) string {
	if t.IsZero() {
		return "?"
	}
	return t.Format("2006-01-02")
}

func printResult(cmd *cobra.Command, app *sprintdigest.Application, res *sprintdigest.Result) {
	out := cmd.ErrOrStderr()

	if res.Skipped {
		fmt.Fprintf(out, "Not a %s day (%s), skipping. Use --force to run anyway.\n", app.Profile.Name, app.Gate)
		return
	}

	fmt.Fprintf(out, "\nSummary:\n")
	fmt.Fprintf(out, "  Boards: %d (%d failed)\n", len(res.Fetch.Boards), len(res.Fetch.Failures))
	fmt.Fprintf(out, "  Issues fetched: %d\n", res.Stats["total"])
	fmt.Fprintf(out, "  Issues in digest: %d\n", res.Summary.Total)

	switch {
	case res.Delivered && dryRun:
		fmt.Fprintf(out, "  Digest printed (dry run)\n")
	case res.Delivered:
		fmt.Fprintf(out, "  Digest posted to Slack\n")
	default:
		fmt.Fprintf(out, "  Digest NOT delivered: %v\n", res.DeliveryErr)
	}

	if len(res.Exported) > 0 {
		fmt.Fprintf(out, "\nReports saved to %s/\n", exportDir)
		for _, name := range res.Exported {
			fmt.Fprintf(out, "  -> %s\n", name)
		}
	}
}
