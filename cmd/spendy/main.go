package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/spendy/internal/metrics"
	"github.com/zombor/spendy/internal/offline"
	"github.com/zombor/spendy/internal/receipt"
	"github.com/zombor/spendy/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

const shutdownTimeout = 10 * time.Second

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	fs := ff.NewFlagSet("spendy")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		provider       = fs.StringLong("provider", "anthropic", "Model provider: 'anthropic', 'gemini' or 'ollama'")
		anthropicKey   = fs.StringLong("anthropic-key", "", "Anthropic API key (or set ANTHROPIC_API_KEY env var)")
		anthropicURL   = fs.StringLong("anthropic-url", "https://api.anthropic.com", "Anthropic API base URL")
		anthropicModel = fs.StringLong("anthropic-model", "claude-sonnet-4-5-20250929", "Anthropic model name")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		sumTolerance   = fs.Float64Long("sum-tolerance", receipt.DefaultValidator.SumTolerance, "Items sum vs total gap in SEK that is not reported")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		proxyPort      = fs.IntLong("proxy-port", 0, "Offline caching proxy port (0 disables the proxy)")
		proxyOrigin    = fs.StringLong("proxy-origin", "http://localhost:3000", "Origin of the web app behind the proxy")
		cacheDB        = fs.StringLong("cache-db", "spendy-cache.db", "Offline cache database file path")
		cacheVersion   = fs.StringLong("cache-version", "v2", "Offline cache version; changing it purges old caches")
		precache       = fs.StringLong("precache", "", "Comma-separated paths cached on install (default /,/index.html,/manifest.json)")
		networkOnly    = fs.StringLong("network-only", "", "Comma-separated origin patterns never cached (default supabase,anthropic,claude)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SPENDY"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize model based on provider
	var (
		model scanning.Model
		err   error
	)
	switch *provider {
	case "anthropic":
		apiKey := *anthropicKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			slog.Warn("Anthropic API key is not configured; analyze requests will fail until --anthropic-key or ANTHROPIC_API_KEY is set")
		}
		slog.Info("Initializing Anthropic model...", "url", *anthropicURL, "model", *anthropicModel)
		model, err = scanning.NewAnthropic(apiKey, *anthropicURL, *anthropicModel)
		if err != nil {
			slog.Error("Failed to initialize Anthropic", "error", err)
			os.Exit(1)
		}
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini model...", "model", *geminiModel)
		model, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama model...", "url", *ollamaURL, "model", *ollamaModel)
		model, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid provider", "provider", *provider, "valid", "anthropic, gemini or ollama")
		os.Exit(1)
	}

	scanner := scanning.NewScanner(model)
	defer scanner.Close()

	m := metrics.New()

	// Initialize service
	validator := receipt.DefaultValidator
	validator.SumTolerance = *sumTolerance
	receiptService := receipt.NewServiceWithValidator(scanner, validator)

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           receipt.NewServer(receiptService, basicAuth, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{apiServer}

	// Initialize the offline proxy
	if *proxyPort != 0 {
		cfg, err := offline.NewConfig(*proxyOrigin, *cacheVersion)
		if err != nil {
			slog.Error("Invalid offline cache configuration", "error", err)
			os.Exit(1)
		}
		if list := splitList(*precache); len(list) > 0 {
			cfg.PrecacheURLs = list
		}
		if list := splitList(*networkOnly); len(list) > 0 {
			cfg.NetworkOnlyHosts = list
		}

		slog.Info("Initializing offline cache...", "path", *cacheDB)
		storage, err := offline.NewBoltStorage(*cacheDB)
		if err != nil {
			slog.Error("Failed to initialize offline cache", "error", err)
			os.Exit(1)
		}
		defer storage.Close()

		router := offline.NewRouter(cfg, http.DefaultTransport, storage, m)
		defer router.Wait()

		// A failed install keeps the previous caches, like a browser keeping the old worker
		if err := router.Install(ctx); err != nil {
			slog.Warn("Offline cache install failed", "error", err)
		} else if err := router.Activate(ctx); err != nil {
			slog.Warn("Offline cache activate failed", "error", err)
		}

		proxy := &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(cfg.Origin)
				pr.SetXForwarded()
			},
			Transport: router,
		}
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", *proxyPort),
			Handler:           proxy,
			ReadHeaderTimeout: 10 * time.Second,
		})
		slog.Info("Offline proxy enabled", "address", fmt.Sprintf("http://localhost:%d", *proxyPort), "origin", cfg.Origin.String())
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("Error shutting down server", "address", srv.Addr, "error", err)
			}
		}
		return nil
	})

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", apiServer.Addr), "provider", *provider)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// splitList splits a comma-separated flag value, dropping empty items
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
