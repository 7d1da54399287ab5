// Command archon is the forensic document investigation platform's API
// server: it loads configuration, wires the catalog, ingestion, retrieval,
// and chat collaborators, and serves the HTTP/WS surface until signaled to
// stop.
//
// Grounded on cmd/webui/main.go's listen-goroutine-then-signal.Notify
// graceful shutdown shape, generalized from a bare http.ServeMux to the
// full set of Archon collaborators.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"archon/internal/audit"
	"archon/internal/auth"
	"archon/internal/catalog"
	"archon/internal/chat"
	"archon/internal/config"
	"archon/internal/embedding"
	"archon/internal/extract"
	"archon/internal/httpapi"
	"archon/internal/lexicalindex"
	"archon/internal/llmclient"
	"archon/internal/logging"
	"archon/internal/objectstore"
	"archon/internal/progress"
	"archon/internal/ratelimit"
	"archon/internal/retrieve"
	"archon/internal/scan"
	"archon/internal/telemetry"
	"archon/internal/vectorindex"
)

// rerankAdapter satisfies retrieve.Reranker over llmclient.Client's
// host/model-parameterized Rerank call, the same score-then-stable-sort
// shape as internal/chat/rerank.go's rerankOrder, generalized from
// chat.Context to retrieve.Result.
type rerankAdapter struct {
	client *llmclient.Client
	host   string
	model  string
}

func (a rerankAdapter) Rerank(ctx context.Context, query string, results []retrieve.Result) ([]retrieve.Result, error) {
	passages := make([]llmclient.Passage, len(results))
	for i, r := range results {
		text := r.Snippet
		if len(text) > 900 {
			text = text[:900]
		}
		passages[i] = llmclient.Passage{ID: fmt.Sprintf("%d", r.DocumentID), Text: text}
	}

	scores := a.client.Rerank(ctx, a.host, a.model, query, passages)

	out := make([]retrieve.Result, len(results))
	copy(out, results)
	scoreFor := func(r retrieve.Result) float64 { return scores[fmt.Sprintf("%d", r.DocumentID)] }
	sortResultsByScoreDesc(out, scoreFor)
	return out, nil
}

func sortResultsByScoreDesc(results []retrieve.Result, scoreFor func(retrieve.Result) float64) {
	sort.SliceStable(results, func(i, j int) bool {
		return scoreFor(results[i]) > scoreFor(results[j])
	})
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to Archon's YAML configuration file")
	flag.Parse()

	logging.Init(os.Getenv("ARCHON_LOG_PATH"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to load configuration")
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTel.Enabled,
		Endpoint:    cfg.OTel.Endpoint,
		Insecure:    cfg.OTel.Insecure,
		ServiceName: cfg.OTel.ServiceName,
	})
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to set up tracing")
	}
	defer shutdownTracing(ctx)

	store, err := catalog.NewPostgresStore(ctx, cfg.Database.ConnectionString)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to connect to catalog database")
	}
	defer store.Close()

	authService := auth.NewService(
		store,
		[]byte(cfg.Auth.SecretKey),
		time.Duration(cfg.Auth.AccessExpiryMin)*time.Minute,
		time.Duration(cfg.Auth.RefreshExpiryHour)*time.Hour,
	)

	auditChain := audit.New(store)

	progressBus, err := progress.New(cfg.Broker.RedisURL)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to start progress bus")
	}

	rateLimiter, err := ratelimit.New(cfg.Broker.RedisURL, cfg.RateLimit.WindowSeconds, cfg.RateLimit.MaxRequests)
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to start rate limiter")
	}

	var embedClient *embedding.Client
	var vectorIndex *vectorindex.Index
	if cfg.Embeddings.Host != "" && cfg.VectorIndex.DSN != "" {
		embedClient = embedding.NewClient(cfg.Embeddings)
		vectorIndex, err = vectorindex.New(ctx, cfg.VectorIndex.DSN, cfg.VectorIndex.Collection, embedClient.Dimensions())
		if err != nil {
			logging.Log.WithError(err).Fatal("failed to connect to vector index")
		}
		defer vectorIndex.Close()
	} else {
		logging.Log.Warn("embeddings or vector index not configured; running lexical-only")
	}

	var lexicalIndex *lexicalindex.Index
	if cfg.LexicalIndex.Host != "" {
		lexicalIndex, err = lexicalindex.New(ctx, cfg.LexicalIndex)
		if err != nil {
			logging.Log.WithError(err).Fatal("failed to connect to lexical index")
		}
	}

	var archiver scan.Archiver
	if cfg.ObjectStore.Enabled {
		s3Store, err := objectstore.NewS3Store(ctx, cfg.ObjectStore)
		if err != nil {
			logging.Log.WithError(err).Fatal("failed to connect to evidence object store")
		}
		archiver = objectstore.NewEvidenceArchive(s3Store)
	}

	scanOpts := []scan.Option{
		scan.WithMounter(extract.NewExecMounter()),
		scan.WithOCR(extract.NewTesseractOCR()),
		scan.WithOCREnabled(true),
		scan.WithNEREnabled(true),
		scan.WithArchiveMaxDepth(cfg.Ingestion.ArchiveMaxDepth),
		scan.WithChunking(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap),
		scan.WithEmbedBatchSize(cfg.Embeddings.BatchSize),
		scan.WithPublisher(progressBus),
		scan.WithAuditor(auditChain),
	}
	// vectorIndex/lexicalIndex/embedClient are typed *T; only wire them when
	// actually configured, since a typed-nil passed into an interface slot
	// is a non-nil interface value and would make the orchestrator think a
	// collaborator is present when it isn't.
	if vectorIndex != nil {
		scanOpts = append(scanOpts, scan.WithVectorIndex(vectorIndex))
	}
	if lexicalIndex != nil {
		scanOpts = append(scanOpts, scan.WithLexicalIndex(lexicalIndex))
	}
	if embedClient != nil {
		scanOpts = append(scanOpts, scan.WithEmbedder(embedClient))
	}
	if archiver != nil {
		scanOpts = append(scanOpts, scan.WithArchiver(archiver))
	}

	orchestrator := scan.New(store, cfg.Ingestion.ScanRootPath, scanOpts...)

	taskTimeout := time.Duration(cfg.Ingestion.TaskTimeoutMin) * time.Minute
	pool := scan.NewPool(orchestrator, cfg.Ingestion.Workers, cfg.Ingestion.Workers*4, taskTimeout)
	defer pool.Close()

	var retriever *retrieve.Retriever
	if lexicalIndex != nil {
		// vectorIndex/embedClient are concrete *T locals that may be nil;
		// assigning a nil *T straight into an interface parameter produces a
		// non-nil interface wrapping a nil pointer, which retrieve.Retrieve's
		// "!= nil" guards would not catch. Route through interface-typed
		// locals instead so an unconfigured collaborator is a true nil
		// interface.
		var vecSearcher retrieve.VectorSearcher
		var embedder retrieve.QueryEmbedder
		if vectorIndex != nil && embedClient != nil {
			vecSearcher = vectorIndex
			embedder = embedClient
		}

		retrieverOpts := []retrieve.Option{}
		if cfg.Rerank.Enabled {
			retrieverOpts = append(retrieverOpts, retrieve.WithReranker(rerankAdapter{
				client: llmclient.NewClient(cfg.LLM),
				host:   cfg.Rerank.Host,
				model:  cfg.Rerank.Model,
			}))
		}
		retriever = retrieve.New(lexicalIndex, vecSearcher, embedder, retrieverOpts...)
	}

	llmClient := llmclient.NewClient(cfg.LLM)
	sessionStore := chat.NewSessionStore(
		time.Duration(cfg.Chat.SessionTTLMinutes)*time.Minute,
		cfg.Chat.MaxSessions,
	)
	// Same typed-nil-interface concern as the retriever above.
	var chatVector chat.VectorSearcher
	var chatEmbed chat.QueryEmbedder
	if vectorIndex != nil && embedClient != nil {
		chatVector = vectorIndex
		chatEmbed = embedClient
	}
	chatEngine := chat.New(chatVector, chatEmbed, llmClient, llmClient, sessionStore, chat.Config{
		RerankEnabled: cfg.Rerank.Enabled,
		RerankHost:    cfg.Rerank.Host,
		RerankModel:   cfg.Rerank.Model,
		RerankTopN:    cfg.Rerank.TopN,
		RerankTopKOut: cfg.Rerank.TopKOut,
		Locale:        cfg.Chat.Locale,
	})

	server := httpapi.NewServer(httpapi.Deps{
		Config:      cfg,
		Store:       store,
		AuthService: authService,
		Scanner:     orchestrator,
		Pool:        pool,
		Progress:    progressBus,
		Retriever:   retriever,
		Chat:        chatEngine,
		AuditChain:  auditChain,
		RateLimiter: rateLimiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: server}

	go func() {
		logging.Log.WithField("addr", addr).Info("archon listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Log.WithError(err).Fatal("listen failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Log.WithError(err).Error("graceful shutdown failed")
	} else {
		logging.Log.Info("archon stopped")
	}
}
