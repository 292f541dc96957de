package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/auth"
	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/folder"
	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/application/project"
	"github.com/trackroom/trackroom/internal/application/revision"
	"github.com/trackroom/trackroom/internal/config"
	infraauth "github.com/trackroom/trackroom/internal/infrastructure/auth"
	"github.com/trackroom/trackroom/internal/infrastructure/blob"
	httprouter "github.com/trackroom/trackroom/internal/infrastructure/http"
	"github.com/trackroom/trackroom/internal/infrastructure/http/handlers"
	"github.com/trackroom/trackroom/internal/infrastructure/http/middleware"
	"github.com/trackroom/trackroom/internal/infrastructure/lockout"
	"github.com/trackroom/trackroom/internal/infrastructure/persistence/postgres"
	"github.com/trackroom/trackroom/internal/infrastructure/queue"
	"github.com/trackroom/trackroom/internal/infrastructure/security"
	"github.com/trackroom/trackroom/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	healthHandler := handlers.NewHealthHandler(pool, redisClient)

	userRepo := postgres.NewUserRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	folderRepo := postgres.NewFolderRepository(pool)
	tokenStore := postgres.NewTokenStore(pool)

	var taskEnqueuer ports.TaskEnqueuer
	var asynqWorker *queue.Worker
	if redisClient != nil {
		redisOpt, _ := redis.ParseURL(cfg.Redis.URL)
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
		asynqEnq := queue.NewAsynqEnqueuer(asynqOpt, log)
		defer asynqEnq.Close()
		taskEnqueuer = asynqEnq
		asynqWorker = queue.NewWorker(asynqOpt, log)
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	} else {
		taskEnqueuer = queue.NewNoopEnqueuer()
	}

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	})

	pemBytes, err := cfg.LoadJWTPrivateKey()
	if err != nil {
		log.Fatal().Err(err).Msg("load JWT private key")
	}
	privateKey, err := infraauth.ParseSigningKey(pemBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("parse JWT private key")
	}
	sessions := infraauth.NewSessionIssuer(privateKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	blobStore, err := blob.NewDiskStore(cfg.Blob.Root)
	if err != nil {
		log.Fatal().Err(err).Msg("init blob store")
	}

	var emitter ports.WebhookEmitter
	if cfg.Webhook.URL != "" {
		emitter = webhook.NewHTTPEmitter(cfg.Webhook.URL, webhook.WithSigningSecret(cfg.Webhook.Secret))
	} else {
		emitter = webhook.NewNoopEmitter()
	}

	lockoutStore := lockout.NewMemoryStore(cfg.Lockout.MaxAttempts, cfg.Lockout.CooldownSecs)

	tokenSvc := accesstoken.NewService(tokenStore)
	engine := authz.NewEngine(tokenSvc, projectRepo, folderRepo)

	registerUC := auth.NewRegister(userRepo, hasher)
	loginUC := auth.NewLogin(userRepo, hasher, sessions, cfg.JWT.SessionExpiry)
	forgotPasswordUC := auth.NewForgotPassword(tokenSvc, userRepo, taskEnqueuer, cfg.Links.PasswordResetURL, log)
	resetPasswordUC := auth.NewResetPassword(tokenSvc, userRepo, hasher)

	createProjectUC := project.NewCreateProject(projectRepo)
	viewProjectUC := project.NewView(engine, projectRepo)
	shareViewUC := project.NewShareView(engine, projectRepo)
	resetShareUC := project.NewResetShareToken(engine, projectRepo)
	issueLinkUC := project.NewIssueReviewLink(engine, tokenSvc, taskEnqueuer, cfg.Links.ReviewURL, log)
	revokeLinkUC := project.NewRevokeReviewLink(engine, tokenSvc)
	submitUC := revision.NewSubmitVersion(engine, projectRepo, blobStore, log)
	approveUC := revision.NewApprove(engine, projectRepo, taskEnqueuer, log)
	reopenUC := revision.NewReopen(engine, projectRepo)

	createFolderUC := folder.NewCreateFolder(folderRepo)
	grantAccessUC := folder.NewGrantAccess(engine, tokenSvc, taskEnqueuer, cfg.Links.FolderURL, log)
	revokeGrantUC := folder.NewRevokeGrant(engine, tokenSvc)
	filesUC := folder.NewFiles(engine, folderRepo, blobStore, log)

	authHandler := handlers.NewAuthHandler(registerUC, loginUC, forgotPasswordUC, resetPasswordUC, log)
	projectHandler := handlers.NewProjectHandler(createProjectUC, viewProjectUC, shareViewUC, resetShareUC, issueLinkUC, revokeLinkUC, submitUC, approveUC, reopenUC, lockoutStore, emitter, log)
	folderHandler := handlers.NewFolderHandler(createFolderUC, grantAccessUC, revokeGrantUC, filesUC, lockoutStore, emitter, log)
	adminHandler := handlers.NewAdminHandler(tokenStore, cfg.Retention.TokenRetainDays, log)

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	secureMiddleware := middleware.SecurityHeaders(cfg.Secure.IsDevelopment)
	corsMiddleware := middleware.CORS(cfg.CORS.AllowedOrigins, nil, nil)

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:    authHandler,
		ProjectHandler: projectHandler,
		FolderHandler:  folderHandler,
		AdminHandler:   adminHandler,
		HealthHandler:  healthHandler,
		Principal:      middleware.NewPrincipalResolver(sessions),
		Log:            log,
		Secure:         secureMiddleware,
		CORS:           corsMiddleware,
		IPRateLimit:    ipLimit,
		APIVersion:     "v1",
		Metrics:        cfg.Metrics.Enabled,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
}
