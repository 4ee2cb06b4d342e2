package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/picky/internal/albums"
	"github.com/mmcdole/picky/internal/collection"
	"github.com/mmcdole/picky/internal/config"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/i18n"
	"github.com/mmcdole/picky/internal/ledger"
	"github.com/mmcdole/picky/internal/loader"
	"github.com/mmcdole/picky/internal/log"
	"github.com/mmcdole/picky/internal/mediasource/localfs"
	"github.com/mmcdole/picky/internal/session"
	"github.com/mmcdole/picky/internal/stats"
	"github.com/mmcdole/picky/internal/store"
	"github.com/mmcdole/picky/internal/triage"
	"github.com/mmcdole/picky/internal/tui"
	"github.com/mmcdole/picky/internal/tui/styles"
	"github.com/mmcdole/picky/internal/viewer"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

func main() {
	var (
		showVersion bool
		reset       bool
		configFile  string
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&reset, "reset", false, "clear trash, favorites, history and statistics")
	flag.StringVar(&configFile, "config", "", "path to a config file")
	flag.Parse()

	if showVersion {
		fmt.Printf("picky %s\n", Version)
		return
	}

	if err := run(configFile, reset); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string, reset bool) error {
	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadConfigFile(configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, closer, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting picky", "version", Version)

	// Open the store
	kv, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer kv.Close()

	if reset {
		if err := store.ClearAll(kv); err != nil {
			return fmt.Errorf("failed to reset data: %w", err)
		}
		logger.Info("stored data cleared")
		fmt.Println("✓ Trash, favorites, history and statistics cleared.")
		return nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("picky needs an interactive terminal")
	}

	// First run: ask where the photos live
	if configFile == "" && (!configFileExists() || !cfg.IsConfigured()) {
		if err := runSetupFlow(cfg, logger); err != nil {
			return err
		}
	}

	source, err := localfs.New(cfg.Library.Roots, logger)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}

	// Create services
	now := time.Now
	lang := i18n.Parse(cfg.UI.Language)
	albumSvc := albums.NewService(source, cfg.Albums.CacheTTL, now, logger)
	cursor := loader.New(source, kv, loader.Options{
		PageSize:          cfg.Library.PageSize,
		IncludePhotos:     cfg.Library.IncludePhotos,
		IncludeVideos:     cfg.Library.IncludeVideos,
		SortBy:            domain.SortField(cfg.Library.SortBy),
		Descending:        cfg.Library.Descending,
		PrefetchThreshold: cfg.Library.PrefetchThreshold,
	}, logger)
	history := ledger.New(kv, ledger.WithMaxEntries(cfg.History.MaxEntries))
	triageSvc := triage.NewService(
		source,
		collection.NewTrash(kv),
		collection.NewFavorites(kv),
		history,
		stats.NewAggregator(kv, now),
		triage.Options{DeleteFiles: cfg.Trash.DeleteFiles, Language: lang, Now: now},
		logger,
	)

	// Watch the library so album listings stay current
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 1)
	err = source.Watch(ctx, localfs.DefaultDebounce, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		logger.Warn("library watcher unavailable", "error", err)
		changes = nil
	}

	model := tui.NewModel(tui.Services{
		Source:   source,
		Albums:   albumSvc,
		Cursor:   cursor,
		Sessions: session.NewTracker(kv, now, logger),
		Triage:   triageSvc,
		Viewer:   viewer.NewLauncher(cfg.Viewer.Command, cfg.Viewer.Args, logger),
		Language: lang,
		Changes:  changes,
	})

	// Run the TUI
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	logger.Info("starting TUI", "roots", source.Roots())

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func configFileExists() bool {
	_, err := os.Stat(filepath.Join(config.DefaultConfigPath(), "config.yaml"))
	return err == nil
}

// runSetupFlow asks for the library folder and saves the config
func runSetupFlow(cfg *config.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to picky!")
	fmt.Println()

	suggested := ""
	if len(cfg.Library.Roots) > 0 {
		suggested = cfg.Library.Roots[0]
	}

	reader := bufio.NewReader(os.Stdin)
	var source *localfs.Source
	for {
		fmt.Printf("Photo folder [%s]: ", suggested)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		root := strings.TrimSpace(input)
		if root == "" {
			root = suggested
		}
		if root == "" {
			fmt.Println("The folder cannot be empty. Please try again.")
			continue
		}

		source, err = localfs.New([]string{root}, logger)
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			continue
		}
		cfg.Library.Roots = source.Roots()
		break
	}

	fmt.Println()
	if n, err := scanWithSpinner(source); err != nil {
		fmt.Printf("✗ Could not read the folder: %v\n", err)
		fmt.Println("You can grant access from inside picky.")
	} else {
		fmt.Printf("✓ Found %d albums\n", n)
	}

	if err := config.SaveConfig(cfg, ""); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	return nil
}

// scanWithSpinner lists the albums of source with a visual spinner
func scanWithSpinner(source *localfs.Source) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	type result struct {
		count int
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		list, err := source.ListAlbums(ctx, false)
		resultCh <- result{len(list), err}
	}()

	frame := 0
	fmt.Printf("\r%s Scanning library...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Print(clearSpinnerLine)
			return res.count, res.err

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Scanning library...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return 0, fmt.Errorf("scan timed out")
		}
	}
}
