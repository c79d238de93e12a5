// Command assistant wires the engine packages together into a runnable
// process: load config, build a provider/embedder/vector store, assemble
// the RAG engine and chat manager, and drive requests through the router
// from stdin. It intentionally has no subcommands for editing config, and
// no socket listener — those are separate concerns from the engine itself.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nucleus-go/assistant/chat"
	"github.com/nucleus-go/assistant/chunk"
	"github.com/nucleus-go/assistant/config"
	"github.com/nucleus-go/assistant/embedder"
	"github.com/nucleus-go/assistant/internal/httpclient"
	"github.com/nucleus-go/assistant/llms"
	"github.com/nucleus-go/assistant/ollama"
	"github.com/nucleus-go/assistant/permission"
	"github.com/nucleus-go/assistant/rag"
	"github.com/nucleus-go/assistant/registry"
	"github.com/nucleus-go/assistant/server"
	"github.com/nucleus-go/assistant/tools"
	"github.com/nucleus-go/assistant/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; zero-config defaults are used if empty")
	providerName := flag.String("provider", "ollama", "chat/embedding backend to use: ollama or http")
	apiKey := flag.String("api-key", os.Getenv("ASSISTANT_API_KEY"), "API key for the http provider")
	permissions := flag.String("permissions", "rwx", "tool capabilities granted, rwx-style (e.g. r-x)")
	query := flag.String("query", "", "run a single query and exit instead of reading stdin")
	addText := flag.String("add", "", "add a single fact to the knowledge base and exit")
	indexDir := flag.String("index", "", "index a directory into the knowledge base and exit")
	showStats := flag.Bool("stats", false, "print knowledge base stats and exit")
	flag.Parse()

	if err := config.LoadEnvFiles(); err != nil {
		fatalf("loading .env files: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatalf("loading config: %v", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		fatalf("invalid config: %v", err)
	}

	setupLogging(cfg.Logging)

	ctx := context.Background()

	providers := registry.NewBaseRegistry[llms.Provider]()
	providers.Put("ollama", llms.NewOllamaProvider(ollama.NewClient(cfg.LLM.BaseURL)))
	providers.Put("http", llms.NewHTTPProvider(cfg.LLM.BaseURL, *apiKey, httpclient.New()))

	provider, ok := providers.Get(*providerName)
	if !ok {
		fatalf("unknown provider %q (known: %s)", *providerName, strings.Join(providers.Names(), ", "))
	}

	emb := embedder.NewOllamaBacked(provider, cfg.RAG.EmbeddingModel.Name, cfg.RAG.EmbeddingModel.EmbeddingDim)

	store, err := buildVectorStore(ctx, cfg)
	if err != nil {
		fatalf("building vector store: %v", err)
	}
	defer store.Close()

	engine, err := rag.New(emb, store, chunk.Config{Size: cfg.RAG.ChunkSize, Overlap: cfg.RAG.ChunkOverlap}, cfg.RAG.Indexer, cfg.Storage.TopK)
	if err != nil {
		fatalf("building RAG engine: %v", err)
	}

	registryGrant := permission.Parse(*permissions)
	toolRegistry := tools.NewRegistry(registryGrant)
	toolRegistry.Register(tools.NewReadFileTool())
	toolRegistry.Register(tools.NewWriteFileTool())
	toolRegistry.Register(tools.NewSearchTool())
	toolRegistry.Register(tools.NewExecTool())

	mgr := chat.New(provider, cfg.LLM.Model, toolRegistry,
		chat.WithRAG(engine),
		chat.WithTemperature(cfg.LLM.Temperature),
	)

	metrics := server.NewMetrics(prometheus.DefaultRegisterer)
	router := server.New(mgr, engine, metrics)

	switch {
	case *addText != "":
		runOnce(ctx, router, server.Request{Kind: server.KindAdd, Content: *addText})
	case *indexDir != "":
		runOnce(ctx, router, server.Request{Kind: server.KindIndex, Content: *indexDir})
	case *showStats:
		runOnce(ctx, router, server.Request{Kind: server.KindStats})
	case *query != "":
		runOnce(ctx, router, server.Request{Kind: server.KindChat, Content: *query, History: chat.NewHistory(cfg.SystemPrompt)})
	default:
		repl(ctx, router, cfg.SystemPrompt)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	return config.LoadConfig(path)
}

func setupLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func buildVectorStore(ctx context.Context, cfg *config.Config) (vectorstore.VectorStore, error) {
	mode := cfg.Storage.StorageMode
	if mode.GRPC != nil {
		host, port := splitHostPort(mode.GRPC.URL)
		return vectorstore.NewRemoteStore(ctx, vectorstore.RemoteConfig{
			Collection: cfg.Storage.VectorDB.CollectionName,
			Host:       host,
			Port:       port,
		})
	}
	return vectorstore.NewEmbeddedStore(vectorstore.EmbeddedConfig{
		Collection:  cfg.Storage.VectorDB.CollectionName,
		PersistPath: mode.Embedded.Path,
		Compress:    true,
	})
}

func splitHostPort(url string) (string, int) {
	host, port := url, 6334
	if i := strings.LastIndex(url, ":"); i >= 0 {
		host = url[:i]
		fmt.Sscanf(url[i+1:], "%d", &port)
	}
	return host, port
}

func runOnce(ctx context.Context, router *server.Router, req server.Request) {
	records, err := router.Route(ctx, req)
	if err != nil {
		fatalf("routing request: %v", err)
	}
	for rec := range records {
		printRecord(rec)
	}
}

func repl(ctx context.Context, router *server.Router, systemPrompt string) {
	history := chat.NewHistory(systemPrompt)
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("assistant ready; type a message and press enter (Ctrl-D to exit)")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		records, err := router.Route(ctx, server.Request{Kind: server.KindChat, Content: line, History: history})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		for rec := range records {
			printRecord(rec)
		}
	}
}

func printRecord(rec server.ResponseRecord) {
	switch rec.Type {
	case server.RecordChunk:
		fmt.Print(rec.Content)
	case server.RecordDone:
		fmt.Println()
	case server.RecordError:
		fmt.Fprintf(os.Stderr, "error: %s\n", rec.Content)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "assistant: "+format+"\n", args...)
	os.Exit(1)
}
