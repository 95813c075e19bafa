package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/collabmarket/settlement-hub/internal/api/http"
	appAudit "github.com/collabmarket/settlement-hub/internal/application/audit"
	appCampaign "github.com/collabmarket/settlement-hub/internal/application/campaign"
	"github.com/collabmarket/settlement-hub/internal/application/completion"
	appDispute "github.com/collabmarket/settlement-hub/internal/application/dispute"
	appLedger "github.com/collabmarket/settlement-hub/internal/application/ledger"
	appOutbox "github.com/collabmarket/settlement-hub/internal/application/outbox"
	appPayment "github.com/collabmarket/settlement-hub/internal/application/payment"
	"github.com/collabmarket/settlement-hub/internal/application/payout"
	"github.com/collabmarket/settlement-hub/internal/config"
	"github.com/collabmarket/settlement-hub/internal/domain/audit"
	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
	"github.com/collabmarket/settlement-hub/internal/domain/chat"
	"github.com/collabmarket/settlement-hub/internal/domain/dispute"
	"github.com/collabmarket/settlement-hub/internal/domain/ledger"
	"github.com/collabmarket/settlement-hub/internal/domain/outbox"
	"github.com/collabmarket/settlement-hub/internal/domain/payment"
	"github.com/collabmarket/settlement-hub/internal/domain/proposal"
	"github.com/collabmarket/settlement-hub/internal/domain/user"
	"github.com/collabmarket/settlement-hub/internal/infrastructure/kafka"
	"github.com/collabmarket/settlement-hub/internal/infrastructure/memory"
	"github.com/collabmarket/settlement-hub/internal/infrastructure/postgres"
	"github.com/collabmarket/settlement-hub/internal/infrastructure/redislock"
	"github.com/collabmarket/settlement-hub/internal/infrastructure/stripe"
	"github.com/collabmarket/settlement-hub/internal/infrastructure/telemetry"
)

type repositories struct {
	users     user.Directory
	campaigns campaign.Repository
	proposals proposal.Repository
	ledger    ledger.Repository
	disputes  dispute.Repository
	outbox    outbox.Repository
	audit     audit.Repository
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, "settlement-hub", cfg.OTelEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing setup failed")
	}

	// repositories
	var repos repositories
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn().Msg("using in-memory store; data is not persisted")
		store := memory.NewStore()
		repos = repositories{
			users:     store.Users(),
			campaigns: store.Campaigns(),
			proposals: store.Proposals(),
			ledger:    store.Transactions(),
			disputes:  store.Disputes(),
			outbox:    store.Outbox(),
			audit:     store.Audit(),
		}
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db error: %v", err)
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration error: %v", err)
		}
		repos = repositories{
			users:     postgres.NewUserDirectory(pool),
			campaigns: postgres.NewCampaignRepository(pool),
			proposals: postgres.NewProposalRepository(pool),
			ledger:    postgres.NewTransactionRepository(pool),
			disputes:  postgres.NewDisputeRepository(pool),
			outbox:    postgres.NewOutboxRepository(pool),
			audit:     postgres.NewAuditRepository(pool),
		}
	}

	// infrastructure
	var processor payment.Processor = stripe.Unconfigured{}
	if cfg.StripeSecretKey != "" {
		processor = stripe.NewProcessor(cfg.StripeSecretKey)
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set; payouts will stay pending")
	}

	locker := payout.NewLocalLocker()
	if cfg.RedisURL != "" {
		client, err := redislock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer client.Close()
		locker = redislock.NewLocker(client, cfg.PayoutLockTTL, logger)
	}

	poster := chat.Discard
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewChatPublisher(cfg.KafkaBrokers, cfg.ChatTopic)
		if err != nil {
			logger.Fatal().Err(err).Msg("kafka publisher setup failed")
		}
		defer publisher.Close()
		poster = publisher
	}

	fees, err := ledger.NewFeePolicy(cfg.PlatformFeeRate)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid fee policy")
	}
	policy, err := completion.NewPolicy(cfg.CompletionRule)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid completion rule")
	}
	auditKey, _ := cfg.AuditKey()

	// services
	auditSvc := appAudit.NewService(repos.audit, logger, auditKey)
	engine := payout.NewEngine(
		repos.proposals, repos.campaigns, repos.ledger, repos.users, processor, locker, auditSvc,
		payout.Config{Currency: cfg.Currency, Fees: fees}, logger,
	)
	dispatcher := appOutbox.NewDispatcher(repos.outbox, poster, logger)
	services := httpapi.Services{
		Completion: completion.NewCoordinator(repos.campaigns, repos.proposals, policy, logger),
		Campaigns:  appCampaign.NewService(repos.campaigns, repos.proposals, repos.users, engine, dispatcher, auditSvc, policy, logger),
		Payouts:    engine,
		Payments:   appPayment.NewService(repos.proposals, repos.campaigns, repos.ledger, processor, auditSvc, cfg.Currency, logger),
		Disputes:   appDispute.NewService(repos.disputes, repos.campaigns, repos.proposals, auditSvc, logger),
		Ledger:     appLedger.NewService(repos.ledger, fees, logger),
		Audit:      auditSvc,
	}

	// API server
	apiServer := httpapi.NewServer(services, httpapi.NewTokenVerifier(cfg.JWTSecret), logger)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	if cfg.OutboxFlushInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.OutboxFlushInterval)
			defer ticker.Stop()
			for range ticker.C {
				_ = dispatcher.Flush(context.Background())
			}
		}()
	}

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("store", cfg.Store).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	if err := shutdownTracing(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("tracing shutdown failed")
	}
}
