// Command contactcrawler reads a CSV of seed URLs, lets an LLM agent
// browse each site for contact data, and writes the collected and
// merged contact tables back to disk.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/kataras/golog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/smallnest/contactcrawler/agent"
	"github.com/smallnest/contactcrawler/config"
	"github.com/smallnest/contactcrawler/contact"
	"github.com/smallnest/contactcrawler/crawler"
	"github.com/smallnest/contactcrawler/log"
	"github.com/smallnest/contactcrawler/pipeline"
	"github.com/smallnest/contactcrawler/store"
)

var (
	urlStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// visitPrinter echoes every page the agents open. Sessions run
// concurrently, so writes are serialized.
type visitPrinter struct {
	mu sync.Mutex
}

func (p *visitPrinter) OnVisit(pageURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("Rufe %s auf.\n", urlStyle.Render(pageURL))
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Fehler: ")+err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.NewGologLogger(golog.New())
	logger.SetLevel(log.ParseLevel(cfg.LogLevel))
	log.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	original, err := store.ReadFile(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.InputPath, err)
	}
	seeds := store.StartURLs(original)
	if len(seeds) == 0 {
		return fmt.Errorf("no start URLs found in %s", cfg.InputPath)
	}
	log.Info("Starte die Suche für %d Webseiten.", len(seeds))

	chatClient := openai.NewClient(cfg.OpenAIAPIKey)
	fetcher := crawler.New(crawler.WithTimeout(cfg.FetchTimeout))

	newSession := func() *agent.Session {
		opts := []agent.SessionOption{
			agent.WithModel(cfg.Model),
			agent.WithCacheSize(cfg.CacheSize),
		}
		if cfg.Interactive {
			opts = append(opts, agent.WithInteractive(os.Stdin, os.Stdout))
		}
		return agent.NewSession(chatClient, fetcher, opts...)
	}

	orchestrator := pipeline.New(newSession,
		pipeline.WithDiscoveryWidth(cfg.DiscoveryWorkers),
		pipeline.WithEnrichmentWidth(cfg.EnrichmentWorkers),
		pipeline.WithObserver(&visitPrinter{}),
	)

	started := time.Now()
	contacts, usage, err := orchestrator.Run(ctx, seeds)
	if err != nil {
		return err
	}
	log.Info("Suche abgeschlossen in %s. Tokens insgesamt: input %d, output %d.",
		time.Since(started).Round(time.Second), usage.Input, usage.Output)

	updated := contact.FillUnknown(contacts)
	if err := store.WriteFile(cfg.UpdatedPath, updated); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.UpdatedPath, err)
	}

	merged := contact.MergeTables(original, updated)
	if err := store.WriteFile(cfg.MergedPath, merged); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.MergedPath, err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf(
		"%d Kontakte gespeichert in %s und %s.", len(updated), cfg.UpdatedPath, cfg.MergedPath)))
	return nil
}
