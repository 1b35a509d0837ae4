// Command stocktracker is the interactive terminal dashboard: login, top
// movers, filtered analysis, and per-stock detail.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stocktracker/internal/config"
	"stocktracker/internal/dashboard"
	"stocktracker/internal/localstate"
	"stocktracker/internal/query"
	"stocktracker/internal/refdata"
	"stocktracker/internal/session"
	"stocktracker/pkg/stocktracker"
)

func main() {
	cfgPath := flag.String("config", defaultConfigPath(), "path to config file")
	apiURL := flag.String("api", "", "backend base URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}

	// The terminal belongs to the TUI, so the log goes to a file.
	logPath := fmt.Sprintf("/tmp/stocktracker-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: logLevel(cfg.Logging.Level)}))

	state, err := localstate.Open(cfg.State.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening local state: %v\n", err)
		os.Exit(1)
	}
	defer state.Close()

	client := stocktracker.NewClient(cfg.API.BaseURL)
	sess := session.NewStore(client, state, logger)
	cache := refdata.NewCache(client, logger)
	movers := refdata.NewMoversFetcher(client, logger)
	engine := query.NewEngine(client, logger)

	m := dashboard.New(cfg, logger, client, sess, state, cache, movers, engine)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "stocktracker.yaml"
	}
	return home + "/.stocktracker/config.yaml"
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
