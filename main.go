package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"tradedash/config"
	"tradedash/database"
	"tradedash/loader"
	"tradedash/logger"
	"tradedash/middleware"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	logLevel    string
	openOnStart bool

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tradedash",
	Short: "Imports and exports dashboard",
	Long: `tradedash loads a trade transactions CSV, samples it, and serves an
interactive dashboard with six charts and sidebar filters.

Run without arguments to start the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			config.SetPath(configPath)
		}
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config %s: %w", config.Path(), err)
		}
		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		log = logger.New(level)
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the dataset and serve the dashboard",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./tradedash_config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&openOnStart, "open", false, "Open the dashboard in the default browser")
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase は sqlite を開き、スキーマを適用します。
func openDatabase(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// 接続ごとに別のDBになるため1本に固定する
		db.SetMaxOpenConns(1)
	}
	if err := database.ApplySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	ctx, stop := signal.NotifyContext(logger.WithContext(cmd.Context(), log), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("db", cfg.DBPath).Msg("connecting to database")
	db, err := openDatabase(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	d, err := loader.LoadAndSet(ctx, db, loader.OptionsFromConfig(cfg))
	if err != nil {
		if cfg.FailFast {
			return fmt.Errorf("initial dataset load failed: %w", err)
		}
		log.Warn().Err(err).Str("path", cfg.DataPath).Msg("initial dataset load failed, dashboard will show a warning")
	} else {
		log.Info().Str("dataset", d.ID).Int("rows", d.KeptRows).Msg("dataset ready")
	}

	mux := http.NewServeMux()
	SetupRoutes(mux, db)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           middleware.Chain(mux, middleware.Recovery(log), middleware.Logger(log)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	if openOnStart {
		openBrowser(localURL(cfg.ListenAddr))
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server start error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// localURL は ":8080" のような待受アドレスをブラウザ用のURLにします。
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to open browser")
	}
}
