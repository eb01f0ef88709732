package bootstrap

import (
	"context"
	"log"
	"time"

	"bant-agent-be/internal/config"
	"bant-agent-be/internal/controller"
	"bant-agent-be/internal/pkg/logger"
	"bant-agent-be/internal/pkg/mailer"
	"bant-agent-be/internal/repository/contract"
	"bant-agent-be/internal/repository/implementation"
	"bant-agent-be/internal/repository/memory"
	redisstore "bant-agent-be/internal/repository/redis"
	"bant-agent-be/internal/service"
	"bant-agent-be/pkg/interview/extract"
	"bant-agent-be/pkg/interview/flow"
	"bant-agent-be/pkg/interview/followup"
	"bant-agent-be/pkg/interview/prompt"
	"bant-agent-be/pkg/interview/scoring"
	"bant-agent-be/pkg/llm/factory"

	pkgnats "bant-agent-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController
	ResultController  controller.IResultController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

// NewContainer wires the application. db may be nil: the interview
// itself runs without a database, only durable results need one.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	zapLog := sysLogger.Zap()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		factory.GigaChatSettings{
			AuthKey:   cfg.Ai.GigaChatAuthKey,
			Scope:     cfg.Ai.GigaChatScope,
			AuthURL:   cfg.Ai.GigaChatAuthURL,
			APIURL:    cfg.Ai.GigaChatAPIURL,
			VerifySSL: cfg.Ai.GigaChatVerifySSL,
		},
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Interview Engine
	extractor := extract.NewExtractor(llmProvider, zapLog, prompt.ExtractionPrompt, prompt.RepairPrompt)
	scorer := scoring.NewScorer(llmProvider, zapLog)
	followupGen := followup.NewGenerator(llmProvider, zapLog)
	engine := flow.NewFlow(extractor, scorer, followupGen, zapLog)

	// 5. Session Store
	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	var sessionStore contract.SessionStore
	switch cfg.Session.Backend {
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionStore = redisstore.NewSessionStore(rdb, ttl)
		log.Printf("[INFO] Using Session Store: REDIS")
	case "postgres":
		if db == nil {
			log.Fatalf("[FATAL] SESSION_STORE=postgres requires DB_CONNECTION_STRING")
		}
		sessionStore = implementation.NewSessionStore(db)
		log.Printf("[INFO] Using Session Store: POSTGRES")
	default:
		sessionStore = memory.NewSessionStore(ttl)
		log.Printf("[INFO] Using Session Store: MEMORY (ttl %s)", ttl)
	}

	// 6. Durable results (optional)
	var resultRepo contract.QualificationResultRepository
	if db != nil {
		resultRepo = implementation.NewQualificationResultRepository(db)
	}

	// 7. Infrastructure
	natsPub, err := pkgnats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 8. Services
	publisherService := service.NewPublisherService(cfg.Report.CompletedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Report.CompletedTopic,
		sessionStore,
		resultRepo,
		natsPub,
		emailService,
		cfg.Report.Recipient,
	)

	interviewService := service.NewInterviewService(
		sessionStore,
		resultRepo,
		engine,
		publisherService,
		sysLogger,
	)

	// 9. Controllers
	return &Container{
		SessionController: controller.NewSessionController(interviewService),
		ResultController:  controller.NewResultController(interviewService),

		ConsumerService: consumerService,
	}
}
