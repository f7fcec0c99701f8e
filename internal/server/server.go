package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/communityreview/internal/config"
	"anoa.com/communityreview/internal/middleware"
	"anoa.com/communityreview/internal/scheduler"
	"anoa.com/communityreview/pkg/storage"

	mediaHttp "anoa.com/communityreview/internal/modules/media/delivery/http"
	mediaRepo "anoa.com/communityreview/internal/modules/media/repository"
	mediaService "anoa.com/communityreview/internal/modules/media/service"

	pageHttp "anoa.com/communityreview/internal/modules/page/delivery/http"
	pageService "anoa.com/communityreview/internal/modules/page/service"

	profileHttp "anoa.com/communityreview/internal/modules/profile/delivery/http"
	profileService "anoa.com/communityreview/internal/modules/profile/service"

	reviewHttp "anoa.com/communityreview/internal/modules/review/delivery/http"
	reviewRepo "anoa.com/communityreview/internal/modules/review/repository"
	reviewService "anoa.com/communityreview/internal/modules/review/service"

	searchService "anoa.com/communityreview/internal/modules/search/service"

	sessionHttp "anoa.com/communityreview/internal/modules/session/delivery/http"
	sessionService "anoa.com/communityreview/internal/modules/session/service"

	statHttp "anoa.com/communityreview/internal/modules/stat/delivery/http"
	statService "anoa.com/communityreview/internal/modules/stat/service"

	themeHttp "anoa.com/communityreview/internal/modules/theme/delivery/http"

	userHttp "anoa.com/communityreview/internal/modules/user/delivery/http"
	userRepo "anoa.com/communityreview/internal/modules/user/repository"
	userService "anoa.com/communityreview/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *scheduler.Scheduler
	stopWorkers context.CancelFunc
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	srv, err := build(workerCtx, cfg, db, redisClient)
	if err != nil {
		stopWorkers()
		return nil, err
	}
	srv.stopWorkers = stopWorkers
	return srv, nil
}

func build(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	users := userRepo.NewUserRepository(db)

	imageStorage, err := storage.New(ctx, storage.Options{
		Driver:           cfg.Storage.Driver,
		CloudinaryFolder: cfg.Storage.CloudinaryUploadFolder,
		MinIOEndpoint:    cfg.Storage.MinIOEndpoint,
		MinIOAccessKey:   cfg.Storage.MinIOAccessKey,
		MinIOSecretKey:   cfg.Storage.MinIOSecretKey,
		MinIOBucket:      cfg.Storage.MinIOBucket,
		MinIOUseSSL:      cfg.Storage.MinIOUseSSL,
		LocalDir:         cfg.Storage.LocalDir,
		LocalPublicURL:   cfg.Storage.LocalPublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Driver, err)
	}
	processor := storage.NewImageProcessor(cfg.Storage.MaxUploadBytes, cfg.Storage.MaxImageDimension)

	// Meilisearch is optional
	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient = meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	} else {
		log.Warn().Msg("MEILISEARCH_HOST is not set, review search is disabled")
	}
	reviewIndex := searchService.NewMeiliSearchService(meiliClient)

	monitor := sessionService.NewMonitor(users, redisClient)
	authSvc := userService.NewAuthService(users, userRepo.NewRedisTokenStore(redisClient), monitor, userService.Options{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.JWTTTL,
		AdminEmail: cfg.AdminEmail,
	})
	monitor.SetTokenParser(authSvc)

	authHandler := userHttp.NewAuthHandler(authSvc, cfg.JWTTTL)
	sessionHandler := sessionHttp.NewSessionHandler(monitor, cfg.Origins())

	reviewRepository := reviewRepo.NewReviewRepository(db)
	reviewSvc := reviewService.NewReviewService(reviewRepository, users, reviewIndex, redisClient, reviewService.Options{
		RateLimit: cfg.RateLimitReview,
		Location:  cfg.DisplayLocation,
	})
	reviewHandler := reviewHttp.NewReviewHandler(reviewSvc)

	profileSvc := profileService.NewProfileService(users, reviewRepository, imageStorage, processor)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	mediaRepository := mediaRepo.NewMediaRepository(db)
	mediaSvc := mediaService.NewMediaService(mediaRepository, imageStorage, processor)
	mediaHandler := mediaHttp.NewMediaHandler(mediaSvc)

	statSvc := statService.NewStatService(users, reviewRepository)
	statHandler := statHttp.NewStatHandler(statSvc)

	themeHandler := themeHttp.NewThemeHandler()

	pageSvc := pageService.NewPageService(monitor, profileSvc, reviewSvc, mediaSvc, statSvc)
	pageHandler, err := pageHttp.NewPageHandler(pageSvc, authSvc, reviewSvc, mediaSvc, profileSvc, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}

	// Background jobs
	jobs := scheduler.New(ctx)
	if err := jobs.Register(mediaService.NewOrphanCleanupJob(mediaSvc, cfg.OrphanCleanupInterval)); err != nil {
		return nil, err
	}
	jobs.Start()

	router := gin.New()

	setupCORS(router, cfg.Origins())

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.MaxMultipartMemory = cfg.Storage.MaxUploadBytes

	if cfg.Storage.Driver == storage.DriverLocal || cfg.Storage.Driver == "" {
		router.Static(cfg.Storage.LocalPublicURL, cfg.Storage.LocalDir)
	}

	authMiddleware := middleware.NewAuthMiddleware(authSvc, users)

	// Server rendered site
	router.GET("/", pageHandler.Index)
	web := router.Group("/web")
	{
		web.POST("/login", pageHandler.Login)
		web.POST("/register", pageHandler.Register)
		web.POST("/logout", authMiddleware.OptionalAuth(), pageHandler.Logout)
		web.POST("/theme", pageHandler.ChangeTheme)
		web.POST("/font", pageHandler.ChangeFont)
		web.POST("/theme/reset", pageHandler.ResetTheme)

		web.POST("/reviews", authMiddleware.RequireAuth(), pageHandler.SubmitReview)
		web.POST("/avatar", authMiddleware.RequireAuth(), pageHandler.UpdateAvatar)

		webAdmin := web.Group("")
		webAdmin.Use(authMiddleware.RequireAdmin())
		{
			webAdmin.POST("/reviews/:id/delete", pageHandler.DeleteReview)
			webAdmin.POST("/video", pageHandler.UploadVideo)
			webAdmin.POST("/gallery", pageHandler.UploadGallery)
		}
	}

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	api.GET("/session", sessionHandler.GetSession)
	api.GET("/reviews", authMiddleware.OptionalAuth(), reviewHandler.ListReviews)
	api.GET("/media/video", mediaHandler.GetVideo)
	api.GET("/media/gallery", mediaHandler.GetGallery)
	api.GET("/stats", statHandler.GetSiteStats)

	themeGroup := api.Group("/theme")
	{
		themeGroup.GET("", themeHandler.GetTheme)
		themeGroup.PUT("", themeHandler.ChangeTheme)
		themeGroup.PUT("/font", themeHandler.ChangeFont)
		themeGroup.DELETE("", themeHandler.ResetTheme)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/session/ws", sessionHandler.HandleWebSocket)

		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.PUT("/profile/avatar", profileHandler.UpdateAvatar)

		protected.POST("/reviews", reviewHandler.SubmitReview)
		protected.GET("/reviews/stats", reviewHandler.GetStats)

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.DELETE("/reviews/:id", reviewHandler.DeleteReview)
			adminGroup.GET("/reviews/search", reviewHandler.SearchReviews)
			adminGroup.PUT("/media/video", mediaHandler.UploadVideo)
			adminGroup.POST("/media/gallery", mediaHandler.UploadGallery)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   jobs,
	}, nil
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops background jobs, drains in-flight requests and closes
// the database and redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopWorkers()

	var errs []error
	if err := s.scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
