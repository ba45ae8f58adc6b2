package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/naufalpram/ai-rag-chat/internal/chromemdb"
	"github.com/naufalpram/ai-rag-chat/internal/chunker"
	"github.com/naufalpram/ai-rag-chat/internal/config"
	"github.com/naufalpram/ai-rag-chat/internal/db"
	"github.com/naufalpram/ai-rag-chat/internal/embedding"
	"github.com/naufalpram/ai-rag-chat/internal/ingest"
	"github.com/naufalpram/ai-rag-chat/internal/llmservice"
	"github.com/naufalpram/ai-rag-chat/internal/models"
	"github.com/naufalpram/ai-rag-chat/internal/rag"
	"github.com/naufalpram/ai-rag-chat/internal/server"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", "./configs/config.yaml", "Path to the config file")
	serve := flag.Bool("serve", false, "Start the HTTP server")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	query := flag.String("query", "", "Question to answer from the command line")
	initDB := flag.Bool("init-db", false, "Create tables and indexes, then exit")
	resetDB := flag.Bool("reset-db", false, "Drop and recreate tables, then exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	app, err := buildApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building application")
	}
	defer app.close()

	switch {
	case *initDB, *resetDB:
		if app.bun == nil {
			log.Fatal().Msg("init-db requires the postgres store")
		}
		if *resetDB {
			if err := db.DropTables(ctx, app.bun); err != nil {
				log.Fatal().Err(err).Msg("Error dropping tables")
			}
		}
		if err := db.InitDB(ctx, app.bun); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
		log.Info().Msg("Database initialized")

	case *filePath != "":
		ingestFile(ctx, app, cfg, *filePath)

	case *query != "":
		answerQuery(ctx, app, *query)

	case *serve:
		runServer(app, cfg)

	default:
		flag.Usage()
	}
}

// app holds the wired singletons. Exactly one retrieval pipeline is active
// per process, selected by config.
type app struct {
	bun      *bun.DB
	pipeline *ingest.Pipeline
	retrieve server.RetrieveFunc
	chat     *rag.Chat
}

func (a *app) close() {
	if a.bun != nil {
		if err := a.bun.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}
}

func buildApp(cfg *config.Config) (*app, error) {
	count, err := chunker.NewTiktokenCounter()
	if err != nil {
		log.Warn().Err(err).Msg("Tokenizer unavailable, falling back to word counts")
		count = nil
	}
	chk := chunker.New(cfg.RAG.MaxTokensPerChunk, cfg.RAG.ContentContainer, count)

	textEmbedder, err := embedding.NewTextEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	a := &app{}

	var textStore models.TextStore
	var multimodalStore models.MultimodalStore
	var multimodalEmbedder models.MultimodalEmbedder

	switch cfg.Store.Type {
	case config.StoreChromem:
		store, err := chromemdb.NewStore(cfg.Store.Path, cfg.Store.Collection)
		if err != nil {
			return nil, fmt.Errorf("open chromem store: %w", err)
		}
		textStore = store

	default:
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		bunDB := db.NewDB(sqldb, cfg.Database.Debug)
		a.bun = bunDB
		textStore = db.NewStore(bunDB, cfg.RAG.LegacyNonAtomicIngest)
		multimodalStore = db.NewMultimodalStore(bunDB)
	}

	if cfg.RAG.Pipeline == config.PipelineMultimodal {
		voyage, err := embedding.NewVoyageEmbedder(&cfg.VoyageLLM)
		if err != nil {
			return nil, fmt.Errorf("init multimodal embedder: %w", err)
		}
		multimodalEmbedder = voyage
	}

	a.pipeline = ingest.NewPipeline(chk, textEmbedder, multimodalEmbedder, textStore, multimodalStore)

	var tool rag.ToolFunc
	if cfg.RAG.Pipeline == config.PipelineMultimodal {
		retriever := rag.NewMultimodalRetriever(multimodalEmbedder, multimodalStore, cfg.RAG.SimilarityThreshold, cfg.RAG.ResultLimit)
		a.retrieve = func(ctx context.Context, question string) (interface{}, error) {
			return retriever.Retrieve(ctx, question)
		}
		tool = retriever.AsTool()
	} else {
		retriever := rag.NewRetriever(textEmbedder, textStore, cfg.RAG.SimilarityThreshold, cfg.RAG.ResultLimit)
		a.retrieve = func(ctx context.Context, question string) (interface{}, error) {
			return retriever.Retrieve(ctx, question)
		}
		tool = retriever.AsTool()
	}

	llm, err := llmservice.NewClient(&cfg.ChatLLM)
	if err != nil {
		return nil, fmt.Errorf("init chat llm: %w", err)
	}
	a.chat = rag.NewChat(llm, tool, cfg.RAG.MaxSteps)

	return a, nil
}

func ingestFile(ctx context.Context, a *app, cfg *config.Config, filePath string) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading file")
	}

	var resourceID string
	if cfg.RAG.Pipeline == config.PipelineMultimodal {
		resourceID, err = a.pipeline.IngestMultimodal(ctx, filePath, data)
	} else {
		resourceID, err = a.pipeline.Ingest(ctx, filePath, data)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting file")
	}

	log.Info().Str("resourceId", resourceID).Msg("Resource created")
}

func answerQuery(ctx context.Context, a *app, query string) {
	answer, err := a.chat.Answer(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer)
}

func runServer(a *app, cfg *config.Config) {
	srv := server.NewServer(a.pipeline, a.chat, a.retrieve, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("Server error")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}
}
