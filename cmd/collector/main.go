package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-hwreport/cmd/collector/assets"
	"github.com/go-tangra/go-tangra-hwreport/internal/config"
	"github.com/go-tangra/go-tangra-hwreport/internal/logging"
	"github.com/go-tangra/go-tangra-hwreport/internal/server"
	"github.com/go-tangra/go-tangra-hwreport/internal/store"
	"github.com/go-tangra/go-tangra-hwreport/internal/winsvc"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hwreport-collector",
	Short: "Hardware Report Collector - stores hardware reports uploaded by clients",
	Long: `Hardware Report Collector accepts form-encoded hardware reports on
/upload/v1/, stores them in a local SQLite database and serves them back
over a small REST API.

Run without a subcommand to start the daemon (equivalent to 'serve').`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collector daemon",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hwreport-collector %s (commit: %s, built: %s)\n", version, commitHash, buildDate)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Purge reports older than the specified number of days",
	RunE:  runPurge,
}

var purgeDays int

const serviceName = "TangraHWReportCollector"

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage Windows service installation",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install as a Windows service",
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the Windows service",
	RunE:  runServiceUninstall,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/collector.yaml)")
	rootCmd.PersistentFlags().String("listen", "", "gRPC health listen address (default :9550)")
	rootCmd.PersistentFlags().String("http-listen", "", "HTTP listen address (default :9551)")
	rootCmd.PersistentFlags().String("database", "", "SQLite database path (default reports.db)")
	rootCmd.PersistentFlags().String("client-secret", "", "secret required from uploading clients (empty = no auth)")
	rootCmd.PersistentFlags().String("api-secret", "", "secret for REST API clients (empty = no auth)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json, logfmt")

	purgeCmd.Flags().IntVar(&purgeDays, "days", 90, "purge reports older than this many days")

	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(serviceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies CLI flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	for flag, dst := range map[string]*string{
		"listen":        &cfg.Listen,
		"http-listen":   &cfg.HTTPListen,
		"database":      &cfg.DatabasePath,
		"client-secret": &cfg.ClientSecret,
		"api-secret":    &cfg.ApiSecret,
		"log-level":     &cfg.LogLevel,
		"log-format":    &cfg.LogFormat,
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*dst = v
		}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logCfg := logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}

	if winsvc.IsWindowsService() {
		logCfg.Output = winsvc.EventLogWriter(serviceName)
		if err := logging.Init(logCfg); err != nil {
			return err
		}
		return winsvc.RunService(serviceName, func(ctx context.Context) error {
			return server.Run(ctx, cfg, assets.OpenApiData)
		})
	}

	if err := logging.Init(logCfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, cfg, assets.OpenApiData)
}

func runServiceInstall(_ *cobra.Command, _ []string) error {
	exePath, err := winsvc.ExePath()
	if err != nil {
		return err
	}

	svcArgs := []string{"serve"}
	if cfgFile != "" {
		svcArgs = append(svcArgs, "--config", cfgFile)
	}

	if err := winsvc.Install(winsvc.Spec{
		Name:        serviceName,
		DisplayName: "Tangra Hardware Report Collector",
		Description: "Receives hardware reports from clients and stores them locally.",
		ExePath:     exePath,
		Args:        svcArgs,
	}); err != nil {
		return err
	}

	logging.Get("service").Info("service installed", "service", serviceName)
	return nil
}

func runServiceUninstall(_ *cobra.Command, _ []string) error {
	if err := winsvc.Uninstall(serviceName); err != nil {
		return err
	}
	logging.Get("service").Info("service uninstalled", "service", serviceName)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if purgeDays <= 0 {
		return fmt.Errorf("--days must be positive, got %d", purgeDays)
	}

	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	n, err := db.Purge(cmd.Context(), time.Duration(purgeDays)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	fmt.Printf("Purged %d reports older than %d days\n", n, purgeDays)
	return nil
}
