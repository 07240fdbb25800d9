package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/proxycheck/internal/config"
	"github.com/nao1215/proxycheck/internal/database"
	"github.com/nao1215/proxycheck/internal/log"
	"github.com/nao1215/proxycheck/internal/model"
	"github.com/nao1215/proxycheck/internal/pipeline"
	"github.com/nao1215/proxycheck/internal/proxylist"
	"github.com/nao1215/proxycheck/internal/report"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <input> <output>",
		Short: "Validate a list of proxies and write the working ones",
		Long: `Check reads candidate proxies from <input>, one per line, probes each one
by requesting the test endpoint through it, and writes the proxies that
answered with a 2xx status to <output>.

Accepted line formats:
  host:port
  host:port:username:password

Blank lines and lines starting with # are ignored. Duplicate lines are
probed once. <output> is overwritten on every run, even when no proxy
works, and is still written when the run is interrupted with Ctrl+C.

Examples:
  # Validate with defaults (20 workers, 5s timeout, 3 retries)
  proxycheck check proxies.txt working.txt

  # More workers and a shorter timeout
  proxycheck check -w 100 -t 3s proxies.txt working.txt

  # Only exercise the HTTPS endpoint
  proxycheck check --https-only proxies.txt working.txt

  # Re-check accepted proxies over HTTPS in a second round
  proxycheck check --verify-https proxies.txt working.txt

  # SOCKS5 proxies, JSON summary on stdout
  proxycheck check -s socks5 --json socks.txt working.txt`,
		Args: cobra.ExactArgs(2),
		RunE: runCheckCmd,
	}

	// Concurrency and probe policy
	cmd.Flags().IntP("workers", "w", config.DefaultMaxWorkers,
		"Number of probes in flight at once (at least 2)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request attempt")
	cmd.Flags().IntP("retries", "r", config.DefaultRetries,
		"Retries after the first attempt")
	cmd.Flags().Duration("retry-wait", config.DefaultRetryWait,
		"Initial backoff between retries")
	cmd.Flags().Duration("retry-max-wait", config.DefaultRetryMaxWait,
		"Maximum backoff between retries")
	cmd.Flags().Duration("jitter-min", config.DefaultJitterMin,
		"Minimum random delay before each probe")
	cmd.Flags().Duration("jitter-max", config.DefaultJitterMax,
		"Maximum random delay before each probe")

	// Endpoints
	cmd.Flags().String("endpoint-http", config.DefaultTestEndpointHTTP,
		"Test endpoint requested through each proxy")
	cmd.Flags().String("endpoint-https", config.DefaultTestEndpointHTTPS,
		"HTTPS test endpoint for --https-only and --verify-https")
	cmd.Flags().Bool("https-only", false,
		"Only exercise the HTTPS test endpoint")
	cmd.Flags().Bool("verify-https", false,
		"Re-check accepted proxies against the HTTPS endpoint")

	// Proxy protocol
	cmd.Flags().StringP("scheme", "s", config.DefaultScheme,
		"Protocol spoken to the proxies: http, https or socks5")
	cmd.Flags().StringP("user-agent", "u", "",
		"User-Agent sent with each probe (default: random browser User-Agent)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .proxycheck.yaml in current or home directory)")

	// Output
	cmd.Flags().BoolP("json", "j", false,
		"Print the summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the summary as Markdown (mutually exclusive with --json)")
	cmd.Flags().BoolP("quiet", "q", false,
		"Hide the progress bar and informational logs")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg, getBoolFlag(cmd, "log-json"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCheck(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getBoolFlag reads a boolean flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from defaults, the configuration file and
// the command line, in increasing order of precedence. Only flags the user
// actually set override the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit path must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if len(args) == 2 {
		cfg.InputFile = args[0]
		cfg.OutputFile = args[1]
	}

	intFlags := map[string]*int{
		"workers": &cfg.MaxWorkers,
		"retries": &cfg.Retries,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetInt(name); err != nil {
				return nil, err
			}
		}
	}

	durationFlags := map[string]*time.Duration{
		"timeout":        &cfg.Timeout,
		"retry-wait":     &cfg.RetryWait,
		"retry-max-wait": &cfg.RetryMaxWait,
		"jitter-min":     &cfg.JitterMin,
		"jitter-max":     &cfg.JitterMax,
	}
	for name, dst := range durationFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetDuration(name); err != nil {
				return nil, err
			}
		}
	}

	stringFlags := map[string]*string{
		"endpoint-http":  &cfg.TestEndpointHTTP,
		"endpoint-https": &cfg.TestEndpointHTTPS,
		"scheme":         &cfg.Scheme,
		"user-agent":     &cfg.UserAgent,
	}
	for name, dst := range stringFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetString(name); err != nil {
				return nil, err
			}
		}
	}

	boolFlags := map[string]*bool{
		"https-only":   &cfg.HTTPSOnly,
		"verify-https": &cfg.VerifyHTTPSAfterAccept,
		"json":         &cfg.JSONReport,
		"markdown":     &cfg.MarkdownReport,
		"quiet":        &cfg.Quiet,
	}
	for name, dst := range boolFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetBool(name); err != nil {
				return nil, err
			}
		}
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	return cfg, nil
}

// setupLogger creates the redacting logger for a run.
func setupLogger(w io.Writer, cfg *config.Config, jsonFormat bool) *slog.Logger {
	level := log.LevelFor(cfg.Verbose, cfg.Quiet)
	if jsonFormat {
		return log.NewSecureJSONLogger(w, level)
	}
	return log.NewSecureLogger(w, level)
}

// runCheck validates the candidates in cfg.InputFile and writes the
// accepted ones to cfg.OutputFile. An interrupted run still writes the
// output, prints the summary and records the history; it is not an error.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	lines, err := proxylist.Read(cfg.InputFile)
	if err != nil {
		return err
	}

	logger.Info("loaded candidates",
		"input", cfg.InputFile,
		"lines", len(lines),
		"workers", cfg.MaxWorkers,
		"endpoint", cfg.Endpoint(),
		"verifyHTTPS", cfg.VerifyHTTPSAfterAccept,
	)

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	var progress *progressObserver
	if !cfg.Quiet {
		progress = newProgressObserver(stderr)
		opts = append(opts, pipeline.WithObserver(progress))
	}

	reports, err := pipeline.New(opts...).Validate(ctx, cfg, lines)
	if progress != nil {
		progress.Finish()
	}
	interrupted := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if err != nil && !interrupted {
		return fmt.Errorf("validation failed: %w", err)
	}

	final := reports[len(reports)-1]
	if interrupted {
		logger.Warn("run interrupted, keeping partial results",
			"round", final.Round,
			"pending", final.Pending(),
		)
	}

	writeErr := proxylist.Write(cfg.OutputFile, final.Accepted)
	if writeErr != nil {
		logger.Error("failed to write accepted proxies", "output", cfg.OutputFile, "error", writeErr)
	} else {
		logger.Info("accepted proxies written", "output", cfg.OutputFile, "count", final.AcceptedCount())
	}

	if _, err := newReportWriter(cfg, stdout).WriteRounds(reports); err != nil {
		logger.Error("failed to write summary", "error", err)
	}
	logSummary(logger, final)

	if cfg.SaveToDB {
		// Context-free: the run context may already be cancelled.
		if err := saveRun(context.Background(), cfg, reports, logger); err != nil {
			logger.Warn("failed to record run history", "error", err)
		}
	}

	if writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.OutputFile, writeErr)
	}
	return nil
}

// newReportWriter picks the summary format requested in cfg.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// logSummary emits the final headline and the failure tally.
func logSummary(logger *slog.Logger, final *model.ValidationReport) {
	attrs := []any{
		"state", final.State,
		"accepted", final.AcceptedCount(),
		"rejected", final.RejectedCount(),
		"pending", final.Pending(),
		"elapsed", final.Elapsed,
	}
	for _, fc := range final.SortedFailures() {
		attrs = append(attrs, fc.Failure.String(), fc.Count)
	}
	logger.Info(report.Headline(final), attrs...)
}

// saveRun records the run summary in the history database.
func saveRun(ctx context.Context, cfg *config.Config, reports []*model.ValidationReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rec := database.NewRunRecord(cfg.InputFile, cfg.OutputFile, cfg.Endpoint(), cfg.MaxWorkers, reports)
	if err := db.SaveRun(ctx, rec); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Debug("run recorded", "id", rec.ID, "db", db.Path())
	return nil
}
