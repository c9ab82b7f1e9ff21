package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"chatprojects/internal/auth"
	"chatprojects/internal/cache"
	"chatprojects/internal/capabilities"
	"chatprojects/internal/config"
	"chatprojects/internal/handler"
	"chatprojects/internal/middleware"
	"chatprojects/internal/repository/postgres"
	authsvc "chatprojects/internal/service/auth"
	"chatprojects/internal/service/chats"
	serviceLLM "chatprojects/internal/service/llm"
	"chatprojects/internal/service/projects"
	"chatprojects/internal/service/users"
)

func main() {
	// Load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg)
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	secret := cfg.SecretKey
	if secret == "" {
		if cfg.Environment == "prod" {
			log.Fatal("SECRET_KEY must be set in production")
		}
		secret = randomSecret()
		logger.Warn("SECRET_KEY not set, using a random key; tokens will not survive a restart")
	}

	ctx := context.Background()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	if err := postgres.EnsureSchema(ctx, pool, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	projectRepo := postgres.NewProjectRepository(repoConfig)
	chatRepo := postgres.NewChatRepository(repoConfig)
	messageRepo := postgres.NewMessageRepository(repoConfig)

	historyCache, closeCache := cache.New(ctx, cfg.RedisURL, cfg.HistoryCacheTTL, logger)
	defer closeCache()

	// Tokens: our own HS256 tokens, plus an external issuer when configured
	tokens, err := auth.NewHMACTokenManager(secret, cfg.AccessTokenTTL(), logger)
	if err != nil {
		log.Fatalf("Failed to create token manager: %v", err)
	}
	var verifier auth.TokenVerifier = tokens
	if cfg.JWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWKS verifier: %v", err)
		}
		verifier = auth.NewChainVerifier(tokens, jwks)
	}
	defer verifier.Close()

	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	logger.Info("capability registry initialized", "providers", capabilityRegistry.GetAllProviders())

	providerRegistry, err := serviceLLM.SetupProviders(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup LLM providers: %v", err)
	}
	orchestrator, err := serviceLLM.SetupOrchestrator(cfg, providerRegistry, capabilityRegistry, logger)
	if err != nil {
		log.Fatalf("Failed to setup conversation orchestrator: %v", err)
	}

	authorizer := authsvc.NewOwnerBasedAuthorizer(userRepo, projectRepo, chatRepo, messageRepo)

	userService := users.NewUserService(userRepo, auth.NewBcryptHasher(cfg.BcryptCost), tokens, verifier, authorizer, logger)
	projectService := projects.NewProjectService(projectRepo, chatRepo, authorizer, historyCache, logger)
	chatService := chats.NewChatService(chatRepo, messageRepo, authorizer, historyCache, logger)
	messageService := chats.NewMessageService(chatRepo, projectRepo, messageRepo, authorizer, orchestrator, historyCache, logger)

	logger.Info("services initialized")

	handlers := &handler.Handlers{
		Users:    handler.NewUserHandler(userService, logger),
		Projects: handler.NewProjectHandler(projectService, logger),
		Chats:    handler.NewChatHandler(chatService, messageService, logger),
		Models:   handler.NewModelsHandler(cfg, logger, capabilityRegistry),
		Health:   handler.NewHealthHandler(pool, logger),
	}
	mux := handler.NewRouter(cfg.APIPrefix, handlers, middleware.Auth(userService, logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})

	root := middleware.Chain(mux,
		corsHandler.Handler,
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
	)

	// WriteTimeout covers the full retry envelope of a message post
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "api_prefix", cfg.APIPrefix)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// randomSecret returns a 32-byte URL-safe key for development runs
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
