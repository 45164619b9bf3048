package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/community-roots/internal/ai"
	"github.com/nhle/community-roots/internal/app"
	"github.com/nhle/community-roots/internal/controller"
	"github.com/nhle/community-roots/internal/credential"
	"github.com/nhle/community-roots/internal/geo"
	"github.com/nhle/community-roots/internal/ledger"
	"github.com/nhle/community-roots/internal/logging"
	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/store"
)

var (
	// Global flags
	configPath string
	verbose    bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "roots",
	Short: "Community Roots - volunteer park care in your terminal",
	Long: `Community Roots helps neighbors look after local parks.

Find parks near a place, sign up for maintenance tasks, describe what you
saw and let Rooty (a Gemini-backed assistant) suggest tasks, and earn points
for every task you complete.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", model.DefaultConfigPath(), "Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", `Log destination, "-" for stderr (default from config)`)

	rootCmd.AddCommand(adviceCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(parksCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every command needs once flags are parsed.
type env struct {
	cfg       *model.AppConfig
	log       *zap.Logger
	assistant *ai.Assistant
	snapshots store.SnapshotStore
	closers   []func() error
}

// Close releases the snapshot store and flushes the log.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

// advisor returns the assistant as an app.Advisor, or nil without a key.
func (e *env) advisor() app.Advisor {
	if e.assistant == nil {
		return nil
	}
	return e.assistant
}

// loadEnv reads the config, opens the log and resolves the API key. The
// snapshot store is only opened when withStore is set and a path is
// configured.
func loadEnv(ctx context.Context, withStore bool) (*env, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
		File:     cfg.Log.File,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	if logFile != "" {
		logCfg.File = logFile
	}
	log, closeLog, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, closers: []func() error{closeLog}}

	key, err := credential.APIKey()
	switch {
	case errors.Is(err, credential.ErrNotFound):
		log.Info("no Gemini API key configured, assistant disabled")
	case err != nil:
		log.Warn("reading API key failed, assistant disabled", zap.Error(err))
	default:
		assistant, err := ai.New(ctx, key, cfg.AI.Model, log)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.assistant = assistant
	}

	if withStore && cfg.Storage.SnapshotPath != "" {
		s, err := store.NewSQLiteStore(cfg.Storage.SnapshotPath)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.snapshots = s
		e.closers = append(e.closers, s.Close)
	}

	return e, nil
}

// initialState restores the last snapshot when there is one, otherwise it
// starts from the seed parks and the opening ledger entry.
func initialState(ctx context.Context, cfg *model.AppConfig, snapshots store.SnapshotStore, now time.Time) (controller.State, error) {
	opts := controller.Options{
		Player:        cfg.Player.Name,
		PointsPerTask: cfg.Rewards.PointsPerTask,
		SearchQuery:   cfg.Search.DefaultQuery,
		Welcome:       ai.WelcomeMessage,
	}

	if snapshots != nil {
		snap, err := snapshots.Load(ctx)
		if err != nil {
			return controller.State{}, err
		}
		if !snap.Empty() {
			opts.Parks = snap.Parks
			opts.Ledger = ledger.Restore(snap.Ledger)
			return controller.New(opts), nil
		}
	}

	parks := model.SeedParks()
	if cfg.Seed.File != "" {
		var err error
		if parks, err = model.LoadSeedFile(cfg.Seed.File); err != nil {
			return controller.State{}, err
		}
	}
	opts.Parks = parks
	opts.Ledger = ledger.New(cfg.Player.StartingPoints, cfg.Player.StartingLabel, now.AddDate(0, 0, -2))
	return controller.New(opts), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := loadEnv(ctx, true)
	if err != nil {
		return err
	}
	defer e.Close()

	state, err := initialState(ctx, e.cfg, e.snapshots, time.Now())
	if err != nil {
		return err
	}

	e.log.Info("starting",
		zap.Int("parks", len(state.Parks)),
		zap.Int("points", state.Ledger.Total()),
		zap.Bool("assistant", e.assistant != nil),
		zap.Bool("persistent", e.snapshots != nil),
	)

	m := app.New(ctx, state, app.Deps{
		Advisor:         e.advisor(),
		Locator:         geo.FromConfig(e.cfg.Location),
		Snapshots:       e.snapshots,
		Log:             e.log,
		NotificationTTL: time.Duration(e.cfg.Display.NotificationSec) * time.Second,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}

	// Runs before the deferred Close so pending writes land first.
	if fm, ok := final.(app.Model); ok {
		if err := fm.Flush(context.Background()); err != nil {
			e.log.Error("saving final snapshot failed", zap.Error(err))
			return fmt.Errorf("saving progress: %w", err)
		}
	}
	return nil
}
