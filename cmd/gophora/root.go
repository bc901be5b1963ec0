package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gophora/engine/internal/adapter"
	"github.com/gophora/engine/internal/config"
	"github.com/gophora/engine/internal/docstore"
	"github.com/gophora/engine/internal/gateway"
	"github.com/gophora/engine/internal/ingest"
	"github.com/gophora/engine/internal/model"
	"github.com/gophora/engine/internal/ratelimit"
	"github.com/gophora/engine/internal/retry"
	"github.com/gophora/engine/internal/scorer"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "gophora",
	Short: "Job ingestion engine: scrape, dedupe, score",
	Long:  "Gophora pulls postings from remote job boards, deduplicates them into a shared pool and per-user feeds, and scores personalized matches with an AI relevance check.",
	// Default to `serve` so that `gophora` with no args runs the daemon.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: GOPHORA_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > GOPHORA_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("GOPHORA_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func buildClient(cfg *config.Config) *adapter.Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	return adapter.NewClient(httpClient, limiter, cfg.RateLimit.JitterMin, cfg.RateLimit.JitterMax)
}

// buildAdapters assembles the enabled source adapters, each wrapped with
// retries. The second list holds boards only searched for entry-level
// profiles; the catalog source feeds the general pool only.
func buildAdapters(cfg *config.Config, client *adapter.Client, logger *slog.Logger) (general, personalized, entryLevel []model.SourceAdapter) {
	wrap := func(a model.SourceAdapter) model.SourceAdapter {
		return retry.Wrap(a, 2, 5*time.Second, logger)
	}

	if cfg.Sources.RemoteOK {
		a := wrap(adapter.NewRemoteOKAdapter("", client))
		general = append(general, a)
		personalized = append(personalized, a)
	}
	if cfg.Sources.Remotive {
		a := wrap(adapter.NewRemotiveAdapter("", client))
		general = append(general, a)
		personalized = append(personalized, a)
	}
	if cfg.Sources.WeWorkRemotely {
		a := wrap(adapter.NewWeWorkRemotelyAdapter("", client))
		general = append(general, a)
		personalized = append(personalized, a)
	}
	if cfg.Sources.Arbeitnow {
		a := wrap(adapter.NewArbeitnowAdapter("", client))
		general = append(general, a)
		entryLevel = append(entryLevel, a)
	}
	if cfg.Sources.Catalog {
		general = append(general, adapter.NewCatalogAdapter())
	}

	for _, a := range general {
		logger.Info("registered source", "name", a.Name())
	}
	return general, personalized, entryLevel
}

// buildPipelines wires the two ingest orchestrators over a shared gateway.
// The general pipeline fetches every enabled source including the catalog;
// the personalized one uses the keyword-searchable boards plus the
// entry-level extras.
func buildPipelines(cfg *config.Config, store docstore.Store, logger *slog.Logger) (generalOrch, personalOrch *ingest.Orchestrator, gw *gateway.Gateway) {
	client := buildClient(cfg)
	generalAdapters, personalAdapters, entryLevel := buildAdapters(cfg, client, logger)
	sc := buildScorer(cfg, logger)
	gw = gateway.New(store, logger)

	opts := ingest.Options{
		AdapterTimeout: cfg.Ingest.AdapterTimeout,
		PerUserDelay:   cfg.Ingest.PerUserDelay,
		FetchLimit:     cfg.Ingest.FetchLimit,
	}
	generalOrch = ingest.NewOrchestrator(generalAdapters, nil, gw, store, sc, opts, logger)
	personalOrch = ingest.NewOrchestrator(personalAdapters, entryLevel, gw, store, sc, opts, logger)
	return generalOrch, personalOrch, gw
}

// buildScorer picks fast-mode or the LLM scorer with provider fallback.
// Providers are tried in order, OpenAI first when both keys are set.
func buildScorer(cfg *config.Config, logger *slog.Logger) scorer.Scorer {
	if !cfg.AI.Enabled {
		logger.Info("ai disabled, using fast-mode scoring", "score", cfg.AI.FastScore)
		return scorer.NewFastScorer(cfg.AI.FastScore, cfg.AI.FastSkillMatches)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	var providers []scorer.Provider
	if cfg.AI.OpenAI.APIKey != "" {
		providers = append(providers, scorer.NewOpenAIProvider(cfg.AI.OpenAI.BaseURL, cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model, httpClient))
	}
	if cfg.AI.Gemini.APIKey != "" {
		providers = append(providers, scorer.NewGeminiProvider(cfg.AI.Gemini.BaseURL, cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model, httpClient))
	}

	for _, p := range providers {
		logger.Info("registered ai provider", "name", p.Name())
	}
	return scorer.NewLLMScorer(providers, scorer.RelevanceTemplate, cfg.AI.AcceptThreshold, logger)
}
