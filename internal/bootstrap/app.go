package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"bidsflow-backend/internal/analyzer"
	"bidsflow-backend/internal/audit"
	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/ingestion"
	"bidsflow-backend/internal/llm"
	openai "bidsflow-backend/internal/llm/openai"
	"bidsflow-backend/internal/queue"
	"bidsflow-backend/internal/shared/config"
	"bidsflow-backend/internal/shared/server"
	"bidsflow-backend/internal/shared/storage/db"
	"bidsflow-backend/internal/shared/storage/object"
	localstore "bidsflow-backend/internal/shared/storage/object/local"
	s3store "bidsflow-backend/internal/shared/storage/object/s3"
	"bidsflow-backend/internal/uploads"
)

// App holds shared dependencies used by every binary.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Queue            queue.Client
	UploadsPresign   *s3.PresignClient
	LLM              llm.Client
	BidsRepo         bids.Repo
	JobsRepo         ingestion.Repo
	AuditStore       audit.Store
	BidsService      *bids.Service
	IngestionService *ingestion.Service
	JobProcessor     JobProcessor
	BidHandler       *bids.Handler
	IngestionHandler *ingestion.Handler
	AuditHandler     *audit.Handler
	UploadsHandler   *uploads.Handler
}

// JobProcessor allows callers to override ingestion job processing for tests.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	presign, err := buildUploadsPresign(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:         cfg,
		DB:             sqlDB,
		Store:          store,
		Queue:          queueClient,
		UploadsPresign: presign,
		LLM:            llmClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		BidHandler:       app.BidHandler,
		IngestionHandler: app.IngestionHandler,
		AuditHandler:     app.AuditHandler,
		UploadsHandler:   app.UploadsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	opts := db.OptionsFromEnv(db.OptionsFor(db.ProfileForRuntime()))
	if opts.Profile == db.ProfileLambda {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if !queue.Configured() {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

// buildUploadsPresign only enables direct uploads when the object store is S3,
// because the ingestion job later reads the key back through that store.
func buildUploadsPresign(ctx context.Context, cfg config.Config) (*s3.PresignClient, error) {
	if cfg.ObjectStoreType != "s3" || strings.TrimSpace(cfg.UploadsBucket) == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewPresignClient(s3.NewFromConfig(awsCfg)), nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		log.Printf("bootstrap: LLM_PROVIDER=%s; collaborator calls will report unavailable", cfg.LLMProvider)
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var bidRepo bids.Repo
	var jobRepo ingestion.Repo
	var auditStore audit.Store

	if app.DB != nil {
		bidRepo = &bids.PGRepo{DB: app.DB}
		jobRepo = &ingestion.PGRepo{DB: app.DB}
		auditStore = &audit.PGStore{DB: app.DB}
	} else {
		bidRepo = bids.NewMemoryRepo()
		jobRepo = ingestion.NewMemoryRepo()
		auditStore = audit.NewMemoryStore()
	}
	sink := audit.MultiSink{audit.LogSink{}, auditStore}

	bidSvc := &bids.Service{Repo: bidRepo, Audit: sink}

	pipeline := &ingestion.Pipeline{
		Analyzer: analyzer.NewLLMAnalyzer(llm.NewRetryingClient(app.LLM, "", "")),
		Bids:     bidSvc,
		Store:    app.Store,
	}
	base := app.LLM
	ingestSvc := &ingestion.Service{
		Repo:     jobRepo,
		Pipeline: pipeline,
		Store:    app.Store,
		Queue:    app.Queue,
		Audit:    sink,
		AnalyzerFor: func(jobID, requestID string) analyzer.Analyzer {
			return analyzer.NewLLMAnalyzer(llm.NewRetryingClient(base, jobID, requestID))
		},
	}

	app.BidsRepo = bidRepo
	app.JobsRepo = jobRepo
	app.AuditStore = auditStore
	app.BidsService = bidSvc
	app.IngestionService = ingestSvc
	app.JobProcessor = ingestSvc
	app.BidHandler = bids.NewHandler(bidSvc)
	app.IngestionHandler = ingestion.NewHandler(ingestSvc)
	app.AuditHandler = audit.NewHandler(auditStore)
	app.UploadsHandler = uploads.NewHandler(app.UploadsPresign, app.Config.UploadsBucket, app.Config.S3Prefix, bidSvc)

	if app.BidHandler == nil || app.IngestionHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
