package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/config"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/constant"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/controller"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/logger"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/repository/implementation"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/repository/session"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/service"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/cache"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/consult/router"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/embedding"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/events"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/extract"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge/corpus"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge/userdocs"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge/websearch"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/llm/factory"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/retrieval"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/retrieval/trigger"

	pktNats "github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/nats"
)

type Container struct {
	// Controllers
	ConsultController controller.IConsultController

	// Background services (exposed for main.go to run)
	WorkerService service.IWorkerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := log.New(os.Stdout, "", log.LstdFlags)

	// Event bus for the consultation round queue.
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding provider for corpus vector search.
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = embedding.NewJinaProvider(cfg.Ai.JinaAPIKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// NATS for cross-service domain events. The consultation flow keeps
	// working without it, so a missing broker is a warning, not a failure.
	var eventBus service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventBus = natsPub

		// Durable audit consumer for completed specialist rounds. Billing
		// and handoff attach their own consumers to the same stream.
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			err = natsSub.Subscribe(
				pktNats.Subject(events.TypeSpecialistCompleted),
				"consult-audit",
				func(ctx context.Context, event events.Event) error {
					sysLogger.Info("audit", "specialist round completed", event.Payload())
					return nil
				},
			)
			if err != nil {
				log.Printf("[WARN] Failed to subscribe to specialist events: %v", err)
			}
		}
	}

	// Redis backs the session store and the retrieval cache when selected.
	var redisClient *redis.Client
	if cfg.Session.StoreBackend == "redis" || cfg.Retrieval.CacheBackend == "redis" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Fatalf("[FATAL] Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	var sessionStore session.Store
	if cfg.Session.StoreBackend == "redis" {
		sessionStore = session.NewRedisStore(redisClient, cfg.Session.TTL)
		log.Printf("[INFO] Using Session Store: REDIS")
	} else {
		sessionStore = session.NewMemoryStore(cfg.Session.TTL)
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	phaseRouter := router.NewRouter(cfg.Session.StickyWindow, pipelineLogger)
	extractor := extract.NewExtractor(pipelineLogger)

	// Knowledge stores, highest priority first at merge time.
	lawEntryRepo := implementation.NewLawEntryRepository(db)
	userDocRepo := implementation.NewUserDocumentRepository(db, uuid.Nil)
	stores := []knowledge.Store{
		corpus.NewStore(lawEntryRepo, embeddingProvider, 100, pipelineLogger),
		userdocs.NewStore(userDocRepo, 50),
	}
	if cfg.Retrieval.WebSearchAPIKey != "" {
		stores = append(stores, websearch.NewStore(
			cfg.Retrieval.WebSearchAPIKey,
			cfg.Retrieval.WebSearchBaseURL,
			10,
		))
	}

	var resultCache cache.Cache
	if cfg.Retrieval.CacheBackend == "redis" {
		resultCache = cache.NewRedisCache(redisClient, "consult:retrieval:")
	} else {
		resultCache = cache.NewMemoryCache(time.Hour)
	}

	aggregator := retrieval.NewAggregator(
		stores,
		retrieval.NewLLMReranker(llmProvider, pipelineLogger),
		resultCache,
		pipelineLogger,
	)

	dispatchService := service.NewDispatchService(pubSub, constant.ConsultTopicName, sysLogger)
	workerService := service.NewWorkerService(
		pubSub,
		constant.ConsultTopicName,
		sessionStore,
		phaseRouter,
		llmProvider,
		extractor,
		aggregator,
		trigger.DefaultCategories(),
		cfg.Retrieval.EnabledStores,
		cfg.Retrieval.Limit,
		eventBus,
		sysLogger,
	)
	consultService := service.NewConsultService(sessionStore, phaseRouter, dispatchService, eventBus, sysLogger)

	return &Container{
		ConsultController: controller.NewConsultController(consultService),
		WorkerService:     workerService,
		Logger:            sysLogger,
	}
}
