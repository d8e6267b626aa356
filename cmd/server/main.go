// Package main provides the Chronique server binary: the REST and websocket
// backend for campaign management and live combat tracking.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/config"
	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/game/condition"
	"github.com/chronique-jdr/chronique/internal/game/dice"
	"github.com/chronique-jdr/chronique/internal/gameserver"
	"github.com/chronique-jdr/chronique/internal/observability"
	"github.com/chronique-jdr/chronique/internal/server"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
	"github.com/chronique-jdr/chronique/internal/web"
	"github.com/chronique-jdr/chronique/internal/ws"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting chronique server",
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	// Connect to PostgreSQL.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	accountRepo := postgres.NewAccountRepository(pool.DB())
	campaignRepo := postgres.NewCampaignRepository(pool.DB())
	characterRepo := postgres.NewCharacterRepository(pool.DB())
	itemRepo := postgres.NewItemRepository(pool.DB())
	articleRepo := postgres.NewArticleRepository(pool.DB())
	messageRepo := postgres.NewMessageRepository(pool.DB())
	combatRepo := postgres.NewCombatRepository(pool.DB())

	// Load the condition catalog.
	condStart := time.Now()
	condRegistry, err := condition.LoadDirectory(cfg.Combat.ConditionsDir)
	if err != nil {
		logger.Fatal("loading condition definitions", zap.Error(err))
	}
	logger.Info("loaded condition definitions",
		zap.Int("count", len(condRegistry.All())),
		zap.Duration("elapsed", time.Since(condStart)),
	)

	diceRoller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	tokens := auth.NewTokenIssuer(cfg.Auth)

	hub := ws.NewHub(logger)
	engine := combat.NewEngine()

	// Resume encounters that were live when the server last stopped.
	resumed, err := resumeCombats(ctx, combatRepo, engine)
	if err != nil {
		logger.Fatal("resuming active combats", zap.Error(err))
	}
	if resumed > 0 {
		logger.Info("resumed active combats", zap.Int("count", resumed))
	}

	broadcaster := gameserver.NewBroadcaster(engine, combatRepo, campaignRepo, hub, logger)
	broadcaster.SetRosterLimit(cfg.Combat.MaxParticipants)
	chat := gameserver.NewChatService(messageRepo, campaignRepo, hub, logger)
	diceSvc := gameserver.NewDiceService(diceRoller, campaignRepo, hub, logger)

	webServer := web.NewServer(web.Config{
		Logger:      logger,
		Tokens:      tokens,
		Accounts:    accountRepo,
		Campaigns:   campaignRepo,
		Characters:  characterRepo,
		Items:       itemRepo,
		Articles:    articleRepo,
		Broadcaster: broadcaster,
		Chat:        chat,
		Dice:        diceSvc,
		Hub:         hub,
		Conditions:  condRegistry,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      webServer.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			logger.Info("http server listening",
				zap.String("addr", cfg.HTTP.Addr()),
			)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("serving http on %s: %w", cfg.HTTP.Addr(), err)
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown incomplete", zap.Error(err))
			}
		},
	})

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("chronique server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// resumeCombats reloads every non-ended encounter into the engine so running
// tables survive a server restart.
func resumeCombats(ctx context.Context, combats *postgres.CombatRepository, engine *combat.Engine) (int, error) {
	ids, err := combats.ListActiveIDs(ctx)
	if err != nil {
		return 0, err
	}
	resumed := 0
	for _, id := range ids {
		cbt, err := combats.Load(ctx, id)
		if err != nil {
			return resumed, fmt.Errorf("loading combat %s: %w", id, err)
		}
		if err := engine.Register(cbt); err != nil {
			return resumed, fmt.Errorf("registering combat %s: %w", id, err)
		}
		resumed++
	}
	return resumed, nil
}
