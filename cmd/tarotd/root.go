package main

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/randomtoy/arcana/internal/adapters/decks"
	"github.com/randomtoy/arcana/internal/adapters/llm/openaicompat"
	"github.com/randomtoy/arcana/internal/app"
	"github.com/randomtoy/arcana/internal/config"
	"github.com/randomtoy/arcana/internal/domain"
)

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:   "tarotd",
		Short: "Tarot draws with streamed interpretations",
		Long: `tarotd draws a three-card past/present/future spread and streams an
interpretation from an OpenAI-compatible chat model. Without a subcommand it
runs the HTTP server.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newDrawCmd(), newReadCmd(), newCatalogCmd())
	return root
}

// loadCatalog returns the embedded catalog when path is empty.
func loadCatalog(path string) (*decks.Store, error) {
	if path == "" {
		return decks.LoadEmbedded()
	}
	return decks.LoadFile(path)
}

func loadPersona(path string) (string, error) {
	if path == "" {
		return app.DefaultPersona, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read persona: %w", err)
	}
	return string(raw), nil
}

// newUpstreamClient bounds connecting and waiting for response headers, but
// not the body: a stream may legitimately run for minutes.
func newUpstreamClient(timeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: t}
}

// newService wires catalog, persona and upstream client. reg may be nil.
func newService(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*app.ReadingService, error) {
	store, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	persona, err := loadPersona(cfg.PersonaPath)
	if err != nil {
		return nil, err
	}

	completer := openaicompat.NewClient(
		newUpstreamClient(cfg.LLMTimeout),
		cfg.LLMAPIKey,
		cfg.LLMBaseURL,
		cfg.LLMIdleTimeout,
		logger,
	)

	opts := []app.Option{app.WithPersona(persona), app.WithLogger(logger)}
	if reg != nil {
		opts = append(opts, app.WithMetrics(app.NewMetrics(reg)))
	}
	return app.NewReadingService(store, completer, domain.SystemRNG{}, cfg.LLMModel, opts...)
}

func printHand(w io.Writer, hand domain.Hand) {
	for i, pos := range domain.Positions() {
		dc := hand[i]
		orientation := color.GreenString(dc.Orientation())
		if dc.Reversed {
			orientation = color.RedString(dc.Orientation())
		}
		fmt.Fprintf(w, "%s %s  %s (%s)\n",
			color.CyanString("%-8s", pos.String()+":"),
			color.HiWhiteString(dc.NameCanonical),
			dc.NameLocal,
			orientation,
		)
	}
}
