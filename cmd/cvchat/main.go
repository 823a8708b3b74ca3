// cvchat serves a conversational API over Mathieu Delehaye's CV using
// retrieval-augmented generation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/mdelehaye/cvchat/builtin"
	"github.com/mdelehaye/cvchat/internal/chat"
	"github.com/mdelehaye/cvchat/internal/config"
	"github.com/mdelehaye/cvchat/internal/cv"
	"github.com/mdelehaye/cvchat/internal/ingest"
	"github.com/mdelehaye/cvchat/internal/server"
	"github.com/mdelehaye/cvchat/internal/session"
	"github.com/mdelehaye/cvchat/pkg/provider"
	"github.com/mdelehaye/cvchat/pkg/types"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cvchat",
	Short: "Conversational API for exploring a CV",
	Long: `cvchat answers questions about Mathieu Delehaye's CV using
retrieval-augmented generation: CV sections are embedded into a vector
store and each question is answered by an LLM from the most relevant
sections plus the conversation so far.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; real deployments set the environment directly.
		_ = godotenv.Load()
		setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cvchat %s\n", config.Version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		runServe(watch)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest CV content into the vector store",
	Long: `Ingest CV content into the vector store. If no path is given, the
embedded CV sections are ingested.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		runIngest(path)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question from the command line",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAsk(args[0])
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vector store status",
	Run: func(cmd *cobra.Command, args []string) {
		runStatus()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigInit()
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigValidate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: cvchat.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	serveCmd.Flags().Bool("watch", false, "watch the ingest path and re-ingest on changes")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func loadConfig() *config.Config {
	cfg, warnings, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	// Flags override the config file.
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	if logFormat == "" {
		logFormat = cfg.Logging.Format
	}
	setupLogging()

	return cfg
}

// createEmbedding creates the embedding provider from the registry.
func createEmbedding(cfg *config.Config) (provider.EmbeddingProvider, error) {
	return provider.DefaultRegistry.CreateEmbedding(cfg.Embedding.Provider, provider.EmbeddingConfig{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		Endpoint:  cfg.Embedding.Endpoint,
		APIKey:    cfg.Embedding.APIKey,
		BatchSize: cfg.Embedding.BatchSize,
	})
}

// createLLM creates the LLM provider from the registry.
func createLLM(cfg *config.Config) (provider.LLMProvider, error) {
	return provider.DefaultRegistry.CreateLLM(cfg.LLM.Provider, provider.LLMConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Endpoint:    cfg.LLM.Endpoint,
		Temperature: cfg.LLM.Temperature,
	})
}

// createStore creates the configured vector store from the registry. When
// the configured store is pgvector and Postgres is unreachable, it falls
// back to the in-memory chromem store so the service can still start.
func createStore(cfg *config.Config) (provider.VectorStore, error) {
	storeCfg := provider.VectorStoreConfig{
		Provider:   cfg.VectorStore.Provider,
		URL:        cfg.VectorStore.URL,
		Path:       cfg.VectorStore.Path,
		Table:      cfg.VectorStore.Table,
		Dimensions: cfg.VectorStore.Dimensions,
	}

	store, err := provider.DefaultRegistry.CreateVectorStore(storeCfg.Provider, storeCfg)
	if err != nil && storeCfg.Provider == "pgvector" && provider.DefaultRegistry.HasVectorStore("chromem") {
		slog.Warn("pgvector unavailable, falling back to in-memory store", "error", err)
		return provider.DefaultRegistry.CreateVectorStore("chromem", storeCfg)
	}
	return store, err
}

// createSessions creates the session store based on config.
func createSessions(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Driver {
	case "redis":
		return session.NewRedisStore(cfg.Session.RedisURL, cfg.Session.TTL)
	case "memory", "":
		return session.NewMemoryStore(cfg.Session.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session driver: %s", cfg.Session.Driver)
	}
}

// seedStore ingests the embedded CV sections when the store is empty.
func seedStore(ctx context.Context, cfg *config.Config, store provider.VectorStore, embedding provider.EmbeddingProvider) {
	stats, err := store.Stats(ctx)
	if err == nil && stats.Documents > 0 {
		slog.Info("vector store already populated", "documents", stats.Documents)
		return
	}

	pipeline := ingest.New(ingest.Config{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
		Embedding:    embedding,
		Store:        store,
	})

	var chunks int
	if cfg.Ingest.Path != "" {
		chunks, err = pipeline.IngestPath(ctx, cfg.Ingest.Path)
	} else {
		chunks, err = pipeline.IngestDocuments(ctx, cv.Documents())
	}
	if err != nil {
		// The server still starts; /health reports the missing pieces.
		slog.Warn("initial ingest failed", "error", err)
		return
	}
	slog.Info("seeded vector store", "chunks", chunks)
}

func runServe(watch bool) {
	cfg := loadConfig()

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("invalid config", "error", e)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedding, err := createEmbedding(cfg)
	if err != nil {
		slog.Error("failed to create embedding provider", "error", err)
		os.Exit(1)
	}
	defer embedding.Close()

	llm, err := createLLM(cfg)
	if err != nil {
		slog.Error("failed to create llm provider", "error", err)
		os.Exit(1)
	}
	defer llm.Close()

	store, err := createStore(cfg)
	if err != nil {
		slog.Error("failed to create vector store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions, err := createSessions(cfg)
	if err != nil {
		slog.Error("failed to create session store", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	seedStore(ctx, cfg, store, embedding)

	engine := chat.New(chat.Config{
		Store:            store,
		Embedding:        embedding,
		LLM:              llm,
		Sessions:         sessions,
		TopK:             cfg.Chat.TopK,
		MemoryWindow:     cfg.Chat.MemoryWindow,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	})

	if watch && cfg.Ingest.Path != "" {
		pipeline := ingest.New(ingest.Config{
			ChunkSize:    cfg.Ingest.ChunkSize,
			ChunkOverlap: cfg.Ingest.ChunkOverlap,
			Embedding:    embedding,
			Store:        store,
		})
		watcher, err := ingest.NewWatcher(ingest.WatcherConfig{
			Path:     cfg.Ingest.Path,
			Pipeline: pipeline,
		})
		if err != nil {
			slog.Error("failed to create watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Error("watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(server.Config{
		Config:   cfg,
		Engine:   engine,
		Sessions: sessions,
		LLM:      llm,
	})

	if err := srv.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func runIngest(path string) {
	cfg := loadConfig()
	ctx := context.Background()

	embedding, err := createEmbedding(cfg)
	if err != nil {
		slog.Error("failed to create embedding provider", "error", err)
		os.Exit(1)
	}
	defer embedding.Close()

	store, err := createStore(cfg)
	if err != nil {
		slog.Error("failed to create vector store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	pipeline := ingest.New(ingest.Config{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
		Embedding:    embedding,
		Store:        store,
		OnProgress: func(p types.IngestProgress) {
			fmt.Println(p.String())
		},
	})

	var chunks int
	if path != "" {
		chunks, err = pipeline.IngestPath(ctx, path)
	} else {
		chunks, err = pipeline.IngestDocuments(ctx, cv.Documents())
	}
	if err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Ingested %d chunks\n", chunks)
}

func runAsk(question string) {
	cfg := loadConfig()
	ctx := context.Background()

	embedding, err := createEmbedding(cfg)
	if err != nil {
		slog.Error("failed to create embedding provider", "error", err)
		os.Exit(1)
	}
	defer embedding.Close()

	llm, err := createLLM(cfg)
	if err != nil {
		slog.Error("failed to create llm provider", "error", err)
		os.Exit(1)
	}
	defer llm.Close()

	store, err := createStore(cfg)
	if err != nil {
		slog.Error("failed to create vector store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	seedStore(ctx, cfg, store, embedding)

	engine := chat.New(chat.Config{
		Store:     store,
		Embedding: embedding,
		LLM:       llm,
		Sessions:  session.NewMemoryStore(cfg.Session.TTL),
		TopK:      cfg.Chat.TopK,
	})

	result, err := engine.Ask(ctx, question)
	if err != nil {
		slog.Error("ask failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range result.Sources {
			fmt.Printf("  - %s\n", s)
		}
	}
}

func runStatus() {
	cfg := loadConfig()
	ctx := context.Background()

	store, err := createStore(cfg)
	if err != nil {
		slog.Error("failed to create vector store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		slog.Error("failed to read store stats", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Store: %s\n", store.Name())
	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Dimensions: %d\n", stats.Dimensions)
}

func runConfigInit() {
	path := cfgFile
	if path == "" {
		path = "cvchat.yaml"
	}

	if err := config.Save(path, config.DefaultConfig()); err != nil {
		slog.Error("failed to save config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Created config at %s\n", path)
}

func runConfigValidate() {
	cfg, warnings, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, w := range warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	errs := config.Validate(cfg)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("Error: %v\n", e)
		}
		os.Exit(1)
	}

	fmt.Println("Configuration is valid")
}
