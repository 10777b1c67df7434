package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/comigor/atelier-go/internal/config"
	"github.com/comigor/atelier-go/internal/logger"
	"github.com/comigor/atelier-go/internal/server"
	"github.com/comigor/atelier-go/internal/ui"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "atelier",
		Short:   "Chat with an image generation assistant from the terminal",
		Version: version,
		RunE:    runTUI,
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the image generation backend",
		RunE:  runServe,
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	logger.SetLevel(cfg.Client.LogLevel)

	// The TUI owns the terminal, so logs go to a file or nowhere.
	if cfg.Client.LogFile != "" {
		if err := logger.RedirectToFile(cfg.Client.LogFile); err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
	}
	defer logger.Close()

	m := ui.New(cfg)
	p := tea.NewProgram(m)
	m.BindProgram(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	logger.SetLevel(cfg.Client.LogLevel)

	store, err := server.OpenStore(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	imageDir := filepath.Join(cfg.Server.StaticDir, "generated")
	generator, err := server.NewLocalGenerator(imageDir)
	if err != nil {
		return err
	}

	srv := server.NewServer(store, generator, imageDir)
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.L.Info("starting server", "address", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
