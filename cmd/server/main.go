package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"travel-rag/internal/config"
	"travel-rag/internal/embedding"
	"travel-rag/internal/ingest"
	"travel-rag/internal/llmservice"
	"travel-rag/internal/models"
	"travel-rag/internal/parser"
	"travel-rag/internal/rag"
	"travel-rag/internal/retrieval"
	"travel-rag/internal/server"
	"travel-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	seedPath := flag.String("seed", "", "Path to a curated dataset json file to load, then exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	vs, err := store.NewVectorStore(ctx, &cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}
	defer vs.Close()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	if *seedPath != "" {
		if err := seedCurated(ctx, *seedPath, vs, embedder, cfg); err != nil {
			log.Fatal().Err(err).Msg("Error seeding curated collection")
		}
		return
	}

	p := parser.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	ingestor := ingest.NewContentIngestor(p)
	coordinator := ingest.NewCoordinator(ingestor, embedder, vs, cfg.RAG.DocumentCollection, cfg.SettleDelay())

	merger := retrieval.NewMerger(cfg.RAG.ScoreThreshold, cfg.RAG.TopK,
		retrieval.NewCuratedSource(embedder, vs, cfg.RAG.CuratedCollection),
		retrieval.NewUserDocumentSource(embedder, vs, cfg.RAG.DocumentCollection),
	)

	generator := llmservice.NewOpenAIGenerator(&cfg.ChatLLM)
	orchestrator := rag.NewOrchestrator(coordinator, merger, generator, cfg.RAG.Persona)

	srv := server.NewServer(coordinator, orchestrator, &cfg.Server)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping server")
		}
	}()

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// seedCurated loads a curated recommendations file into the owner-less
// collection. Entries: [{"text": "...", "source": "..."}].
func seedCurated(ctx context.Context, path string, vs store.VectorStore, embedder embedding.Embedder, cfg *config.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var entries []struct {
		Text   string `json:"text"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	var chunks []models.ContentChunk
	for _, e := range entries {
		if e.Text == "" {
			continue
		}
		// Curated documents carry no owner identity.
		chunks = append(chunks, models.ContentChunk{
			Text: e.Text,
			Metadata: map[string]string{
				models.MetaSource: e.Source,
			},
			SourceLength: len(e.Text),
		})
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedding.EmbedChunks(ctx, embedder, texts)
	if err != nil {
		return err
	}

	if err := vs.Add(ctx, cfg.RAG.CuratedCollection, chunks, vectors); err != nil {
		return err
	}
	log.Info().Int("documents", len(chunks)).Str("collection", cfg.RAG.CuratedCollection).Msg("Seeded curated collection")
	return nil
}
