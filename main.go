package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"campusRankAPI/handlers"
	"campusRankAPI/internal/auth"
	"campusRankAPI/internal/cache"
	"campusRankAPI/internal/config"
	"campusRankAPI/internal/database"
	"campusRankAPI/internal/events"
	"campusRankAPI/internal/logger"
	pushnotif "campusRankAPI/internal/notification"
	"campusRankAPI/internal/realtime"
	"campusRankAPI/internal/scoring"
	"campusRankAPI/internal/scraper"
	"campusRankAPI/internal/storage"
	"campusRankAPI/middleware"
	"campusRankAPI/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not up yet
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(cfg.Env)
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
	}

	dbPool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer func() {
		log.Info("closing database connection pool")
		dbPool.Close()
	}()

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		log.Fatal("token service", zap.Error(err))
	}

	// Optional integrations. Each one degrades to a no-op when unconfigured.
	var leaderboardCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, leaderboard cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			leaderboardCache = redisCache
			log.Info("leaderboard cache enabled")
		}
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	var images storage.ImageStore = storage.Disabled{}
	if cfg.CloudinaryCloudName != "" {
		cloudinaryStore, err := storage.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn("cloudinary unavailable, uploads disabled", zap.Error(err))
		} else {
			images = cloudinaryStore
		}
	}

	hub := realtime.NewHub()
	go hub.Run()

	fetcher := scraper.NewFetcher(scraper.Options{})
	weights := scoring.Weights{
		LeetCode:   cfg.Weights.LeetCode,
		HackerRank: cfg.Weights.HackerRank,
		GFG:        cfg.Weights.GFG,
	}

	errorLogService := services.NewErrorLogService(dbPool)
	errorLogService.Start()
	userService := services.NewUserService(dbPool)
	authService := services.NewAuthService(userService, tokens, auth.NewPasswordService())
	leaderboardService := services.NewLeaderboardService(dbPool, userService, fetcher, weights, cfg.RefreshConcurrency, cfg.AppURL)
	profileService := services.NewProfileService(dbPool, userService, fetcher, leaderboardService, errorLogService)
	notificationService := services.NewNotificationService(dbPool, cfg.AppURL)
	questionService := services.NewQuestionService(dbPool)
	curriculumService := services.NewCurriculumService(dbPool)
	roadmapService := services.NewRoadmapService(dbPool)
	goalService := services.NewGoalService(dbPool)
	reportService := services.NewReportService(dbPool)
	blogService := services.NewBlogService(dbPool, images)
	adminService := services.NewAdminService(dbPool, userService, leaderboardService)

	handlers.SetErrorRecorder(errorLogService)

	leaderboardService.SetCache(leaderboardCache)
	leaderboardService.SetPublisher(publisher)
	leaderboardService.SetBroadcaster(hub)
	leaderboardService.SetNotifier(notificationService)
	leaderboardService.SetErrorLogs(errorLogService)
	profileService.SetPublisher(publisher)

	if cfg.ResendAPIKey != "" {
		leaderboardService.SetMailer(pushnotif.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom))
		log.Info("email digests enabled")
	}

	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		notificationService.SetWebPush(pushnotif.NewWebPushService(pushnotif.VAPIDConfig{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subject:    cfg.VAPIDSubject,
		}))
		log.Info("web push provider initialized")
	}

	fcmService, err := pushnotif.NewFCMService(ctx, cfg.FCMCredentials, cfg.FCMKeyFile)
	if err != nil {
		log.Warn("could not initialize FCM", zap.Error(err))
	} else {
		notificationService.SetFCM(fcmService)
		log.Info("FCM push provider initialized")
	}

	notificationService.Start()

	authenticator := middleware.NewAuthenticator(tokens, userService)
	if cfg.ClerkSecretKey != "" {
		authenticator.SetClerk(auth.NewClerkVerifier(cfg.ClerkSecretKey))
		log.Info("clerk session fallback enabled")
	}

	var scheduler *services.Scheduler
	if cfg.SchedulerEnabled {
		scheduler = services.NewScheduler(leaderboardService, cfg.SchedulerInterval)
		scheduler.Start()
		log.Info("refresh scheduler started", zap.Duration("interval", cfg.SchedulerInterval))
	}

	middleware.InitPrometheus(append(scraper.Collectors(), services.Collectors()...)...)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService, cfg.AppURL, cfg.IsProduction())
	if cfg.GoogleClientID != "" {
		authHandler.AddProvider(auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.APIURL+"/api/auth/google/callback"))
	}
	if cfg.GitHubClientID != "" {
		authHandler.AddProvider(auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.APIURL+"/api/auth/github/callback"))
	}
	userHandler := handlers.NewUserHandler(userService, profileService, images, cfg.AppURL)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	curriculumHandler := handlers.NewCurriculumHandler(curriculumService)
	roadmapHandler := handlers.NewRoadmapHandler(roadmapService)
	goalHandler := handlers.NewGoalHandler(goalService)
	reportHandler := handlers.NewReportHandler(reportService)
	blogHandler := handlers.NewBlogHandler(blogService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(adminService, errorLogService)
	webhookHandler := handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret)
	liveHandler := handlers.NewLiveHandler(hub, cfg.AllowedOrigins)

	limiter := middleware.NewIPRateLimiter(rate.Limit(10), 30)
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go limiter.CleanupVisitors(limiterCtx)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MonitorMiddleware)
	r.Use(limiter.Middleware)

	r.Handle("/metrics", middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "campus-rank-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")
	api.HandleFunc("/ws/leaderboard", liveHandler.Leaderboard).Methods("GET")

	// -------------------------------------------------------------------------
	// CRON ROUTES (BEARER CRON_SECRET)
	// -------------------------------------------------------------------------
	cron := api.PathPrefix("").Subrouter()
	cron.Use(middleware.CronAuth(cfg.CronSecret))

	cron.HandleFunc("/update-leaderboard", leaderboardHandler.Refresh).Methods("GET", "POST")
	cron.HandleFunc("/leaderboard/update-history", leaderboardHandler.UpdateHistory).Methods("GET")
	cron.HandleFunc("/email/leaderboard", leaderboardHandler.SendDigests).Methods("GET")

	// -------------------------------------------------------------------------
	// PUBLIC ROUTES (SESSION OPTIONAL)
	// -------------------------------------------------------------------------
	public := api.PathPrefix("").Subrouter()
	public.Use(authenticator.OptionalAuth)

	public.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	public.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	public.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	public.HandleFunc("/auth/session", authHandler.Session).Methods("GET")
	public.HandleFunc("/auth/{provider}/login", authHandler.OAuthLogin).Methods("GET")
	public.HandleFunc("/auth/{provider}/callback", authHandler.OAuthCallback).Methods("GET")

	public.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")

	public.HandleFunc("/users/check-username", userHandler.CheckUsername).Methods("GET")
	public.HandleFunc("/users/{username}", userHandler.GetPublicProfile).Methods("GET")
	public.HandleFunc("/users/{username}/qr", userHandler.GetProfileQR).Methods("GET")

	public.HandleFunc("/questions", questionHandler.List).Methods("GET")
	public.HandleFunc("/questions/{slug}", questionHandler.Get).Methods("GET")
	public.HandleFunc("/curriculum", curriculumHandler.Tree).Methods("GET")
	public.HandleFunc("/blogs", blogHandler.List).Methods("GET")
	public.HandleFunc("/blogs/{slug}", blogHandler.Get).Methods("GET")

	public.HandleFunc("/push/vapid-public-key", notificationHandler.GetVAPIDPublicKey).Methods("GET")

	// -------------------------------------------------------------------------
	// ADMIN ROUTES
	// -------------------------------------------------------------------------
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authenticator.RequireAuth, middleware.RequireAdmin)

	admin.HandleFunc("/stats", adminHandler.GetStats).Methods("GET")
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/role", adminHandler.UpdateRole).Methods("PATCH")
	admin.HandleFunc("/users/{id}", adminHandler.DeleteUser).Methods("DELETE")
	admin.HandleFunc("/error-logs", adminHandler.ListErrorLogs).Methods("GET")
	admin.HandleFunc("/error-logs", adminHandler.ClearErrorLogs).Methods("DELETE")
	admin.HandleFunc("/leaderboard/refresh", leaderboardHandler.Refresh).Methods("POST")
	admin.HandleFunc("/notifications/broadcast", notificationHandler.Broadcast).Methods("POST")

	admin.HandleFunc("/questions", questionHandler.Create).Methods("POST")
	admin.HandleFunc("/questions/{id}", questionHandler.Update).Methods("PUT")
	admin.HandleFunc("/questions/{id}", questionHandler.Delete).Methods("DELETE")

	admin.HandleFunc("/sections", curriculumHandler.CreateSection).Methods("POST")
	admin.HandleFunc("/sections/{id}", curriculumHandler.UpdateSection).Methods("PUT")
	admin.HandleFunc("/sections/{id}", curriculumHandler.DeleteSection).Methods("DELETE")
	admin.HandleFunc("/topics", curriculumHandler.CreateTopic).Methods("POST")
	admin.HandleFunc("/topics/{id}", curriculumHandler.UpdateTopic).Methods("PUT")
	admin.HandleFunc("/topics/{id}", curriculumHandler.DeleteTopic).Methods("DELETE")
	admin.HandleFunc("/resources", curriculumHandler.CreateResource).Methods("POST")
	admin.HandleFunc("/resources/{id}", curriculumHandler.UpdateResource).Methods("PUT")
	admin.HandleFunc("/resources/{id}", curriculumHandler.DeleteResource).Methods("DELETE")

	admin.HandleFunc("/reports", reportHandler.List).Methods("GET")
	admin.HandleFunc("/reports/{id}", reportHandler.UpdateStatus).Methods("PATCH")
	admin.HandleFunc("/reports/{id}", reportHandler.Delete).Methods("DELETE")

	admin.HandleFunc("/blogs", blogHandler.ListAll).Methods("GET")
	admin.HandleFunc("/blogs", blogHandler.Create).Methods("POST")
	admin.HandleFunc("/blogs/{id}", blogHandler.Update).Methods("PUT")
	admin.HandleFunc("/blogs/{id}", blogHandler.Delete).Methods("DELETE")
	admin.HandleFunc("/blogs/{id}/cover", blogHandler.UploadCover).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE SESSION)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authenticator.RequireAuth)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/avatar", userHandler.UploadAvatar).Methods("POST")
	protected.HandleFunc("/user", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/fetch-profile", userHandler.FetchProfile).Methods("POST")

	protected.HandleFunc("/leaderboard/me", leaderboardHandler.GetMyPosition).Methods("GET")

	protected.HandleFunc("/roadmap", roadmapHandler.Get).Methods("GET")
	protected.HandleFunc("/roadmap", roadmapHandler.Create).Methods("POST")
	protected.HandleFunc("/roadmap", roadmapHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/roadmap/sync", roadmapHandler.Sync).Methods("POST")
	protected.HandleFunc("/roadmap/topics/{id}", roadmapHandler.UpdateTopic).Methods("PATCH")

	protected.HandleFunc("/goals", goalHandler.List).Methods("GET")
	protected.HandleFunc("/goals", goalHandler.Create).Methods("POST")
	protected.HandleFunc("/goals/{id}", goalHandler.Update).Methods("PATCH")
	protected.HandleFunc("/goals/{id}", goalHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/reports", reportHandler.Create).Methods("POST")

	protected.HandleFunc("/push/subscribe", notificationHandler.Subscribe).Methods("POST")
	protected.HandleFunc("/push/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/push/unsubscribe", notificationHandler.Unsubscribe).Methods("POST")
	protected.HandleFunc("/push/test", notificationHandler.SendTest).Methods("POST")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", "X-Request-ID", "Retry-After"}),
		gorillaHandlers.AllowCredentials(),
	)

	// WriteTimeout covers a full cron refresh, which can run for ten minutes.
	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 11 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("error starting server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	notificationService.Stop()
	hub.Stop()
	errorLogService.Stop()

	log.Info("server shutdown complete")
}
