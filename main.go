package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anuragk16/docquery/docstore"
	"github.com/anuragk16/docquery/llm"
	"github.com/anuragk16/docquery/readers"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

func retryPolicy(cfg *Config) llm.RetryPolicy {
	policy := llm.DefaultRetryPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.DelayMs > 0 {
		policy.Delay = time.Duration(cfg.Retry.DelayMs) * time.Millisecond
	}
	if cfg.Retry.TimeoutS > 0 {
		policy.Timeout = time.Duration(cfg.Retry.TimeoutS) * time.Second
	}
	return policy
}

func endpoint(cfg EndpointConfig) llm.EndpointConfig {
	return llm.EndpointConfig{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		Deployment: cfg.Deployment,
		APIVersion: cfg.APIVersion,
	}
}

func main() {
	cfgPath := flag.String("config", "cfg/config.yaml", "Configuration file for the document query server")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := readConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		log.Fatalf("failed to open log file: %s", err)
	}
	defer logFile.Close()

	logger := slog.New(slog.NewJSONHandler(logFile, nil))

	store, err := docstore.NewChromaStore(docstore.ChromaStoreConfig{
		BaseURL: cfg.ChromaAddr,
		TTL:     time.Duration(cfg.CollectionTTLMin) * time.Minute,
	})
	if err != nil {
		log.Fatal(err)
	}

	files, err := NewFileManager(logger, cfg.UploadDir)
	if err != nil {
		log.Fatal(err)
	}

	policy := retryPolicy(cfg)
	embedder := llm.NewEmbeddingClient(endpoint(cfg.Embedding), policy)
	generator := llm.NewChatClient(endpoint(cfg.Chat), policy)
	chunker := NewWordChunker(cfg.ChunkWords)
	reader := &readers.UniversalFileReader{}

	pipeline := NewPipeline(
		logger,
		NewFetcher(time.Duration(cfg.DownloadTimeoutS)*time.Second),
		files,
		reader,
		chunker,
		embedder,
		store,
		generator,
		cfg.TopK,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.CollectionTTLMin > 0 {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if evicted := store.EvictExpired(ctx); len(evicted) > 0 {
						logger.Info("evicted idle collections", "doc_ids", evicted)
					}
				}
			}
		}()
	}

	if cfg.DocRoot != "" {
		reg := NewDocRegistry(
			logger,
			cfg.DocRoot,
			store,
			chunker,
			embedder,
			[]FileReader{&readers.PlainFileReader{}, reader},
			time.Duration(cfg.WriteDebounceMs)*time.Millisecond,
		)

		go func() {
			if err := reg.Sync(ctx); err != nil {
				log.Fatal(err)
			}
			if err := reg.Watch(ctx); err != nil {
				log.Fatal(err)
			}
		}()
	}

	if cfg.MCPAddr != "" {
		mcpSrv := NewMCPServer(pipeline)
		sse := server.NewSSEServer(mcpSrv, server.WithBaseURL(fmt.Sprintf("http://%s", cfg.MCPAddr)))
		go func() {
			if err := sse.Start(cfg.MCPAddr); err != nil {
				log.Fatal(err)
			}
		}()
	}

	srv := NewServer(logger, pipeline, cfg.AuthToken, cfg.Missing)
	log.Println(http.ListenAndServe(cfg.ServerAddr, srv.Handler()))
}
