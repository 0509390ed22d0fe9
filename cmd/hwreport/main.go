package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-hwreport/internal/config"
	"github.com/go-tangra/go-tangra-hwreport/internal/logging"
	"github.com/go-tangra/go-tangra-hwreport/internal/reporter"
	"github.com/go-tangra/go-tangra-hwreport/internal/sender"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

// Grace period on top of the transport timeout while waiting for the
// upload result.
const waitSlack = 5 * time.Second

var (
	cfgFile  string
	endpoint string
	dryRun   bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "hwreport",
	Short: "hwreport - send this machine's hardware report once per report version",
	Long: `hwreport collects operating system, graphics, display and memory facts
and uploads them to the statistics server. A report is sent once per report
version; later runs skip it after a successful upload.

Run without a subcommand to send the report (equivalent to 'report').`,
	SilenceUsage: true,
	RunE:         runReport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Send the hardware report if it has not been sent yet",
	RunE:  runReport,
}

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Print the facts that would be reported",
	RunE:  runFacts,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hwreport %s (commit: %s, built: %s, report version: %d)\n",
			version, commitHash, buildDate, reporter.ReportVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/hwreport/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "upload URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "build and log the report without uploading it")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadUser opens the user config and applies flag overrides to logging.
// Endpoint and dry-run are applied to the reporter only so they are never
// written back by Save.
func loadUser() (*config.UserStore, error) {
	path := cfgFile
	if path == "" {
		p, err := config.DefaultUserConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	us, err := config.LoadUser(path)
	if err != nil {
		return nil, err
	}

	cfg := us.Config()
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	if err := logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format}); err != nil {
		return nil, err
	}
	return us, nil
}

func reporterConfig(cfg config.UserConfig) reporter.Config {
	rc := reporter.DefaultConfig(cfg.Endpoint)
	rc.UserID = cfg.UserID
	rc.ClientSecret = cfg.ClientSecret
	rc.Submit = cfg.Submit && !dryRun
	if endpoint != "" {
		rc.Endpoint = endpoint
	}
	return rc
}

func runReport(cmd *cobra.Command, _ []string) error {
	us, err := loadUser()
	if err != nil {
		return err
	}
	cfg := us.Config()
	logger := logging.Get("HW report")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	col, err := newCollector(ctx, cfg)
	if err != nil {
		return err
	}

	client := sender.New(sender.WithTimeout(cfg.Timeout))
	defer client.Close()

	rep := reporter.New(reporterConfig(cfg), us, col, client)
	attempt := rep.Run(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout+waitSlack)
	defer cancel()

	status, err := attempt.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("waiting for upload: %w", err)
	}

	switch status {
	case reporter.StatusSucceeded:
		if err := us.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		logger.Info("report version recorded", "version", attempt.Version, "config", us.Path())
	case reporter.StatusFailed:
		return fmt.Errorf("upload failed: %w", attempt.Err())
	case reporter.StatusSkipped:
		logger.Info("nothing to report", "version", attempt.Version, "last", us.LastReportedVersion())
	case reporter.StatusLogged:
		fmt.Println(attempt.Facts().String())
	default:
		return errors.New("report ended in non-terminal state " + status.String())
	}
	return nil
}

func runFacts(cmd *cobra.Command, _ []string) error {
	us, err := loadUser()
	if err != nil {
		return err
	}

	col, err := newCollector(cmd.Context(), us.Config())
	if err != nil {
		return err
	}
	facts := col.Collect(cmd.Context())

	fmt.Println(facts.String())
	if v, ok := facts.Get("ram_total"); ok {
		if mb, ok := v.(int); ok {
			fmt.Fprintf(os.Stderr, "RAM: %s\n", humanize.IBytes(uint64(mb)*humanize.MiByte))
		}
	}
	return nil
}
