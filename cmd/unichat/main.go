package main

import (
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hashan1998-it/unichat-tui/internal/api"
	"github.com/hashan1998-it/unichat-tui/internal/app"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/push"
	"github.com/hashan1998-it/unichat-tui/internal/session"
	"github.com/hashan1998-it/unichat-tui/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "unichat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Debug logging goes to a file; the terminal belongs to the UI.
	if os.Getenv("UNICHAT_DEBUG") != "" {
		f, err := tea.LogToFile("unichat-debug.log", "unichat")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(os.Stderr)
	}

	configPath := os.Getenv("UNICHAT_CONFIG")
	if configPath == "" {
		configPath = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	cache, err := store.NewSQLiteStore(model.DefaultCachePath())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	client := api.NewClient(cfg.Server.APIURL)
	sess := session.NewManager(client)

	pushClient := push.NewClient(
		cfg.Server.PushURL,
		sess,
		push.WithNaming(push.Naming(cfg.Push.Naming)),
		push.WithReconnectPolicy(
			cfg.Push.ReconnectAttempts,
			time.Duration(cfg.Push.ReconnectDelaySec)*time.Second,
		),
	)

	program := tea.NewProgram(
		app.New(client, sess, pushClient, cache),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
