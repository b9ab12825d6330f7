package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "minimal-blog/internal/handler/http"
	wsHandler "minimal-blog/internal/handler/websocket"
	"minimal-blog/internal/hub"
	gormpersistence "minimal-blog/internal/infra/persistence/gorm"
	"minimal-blog/internal/infra/setup"
	redisstate "minimal-blog/internal/infra/state/redis"
	"minimal-blog/internal/middleware"
	"minimal-blog/internal/repository"
	"minimal-blog/internal/service"
	"minimal-blog/internal/tasks"
	"minimal-blog/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config       *Config
	Log          *logrus.Logger
	DB           *gorm.DB
	RedisClient  *redis.Client // 未配置 Redis 时为 nil
	AsynqClient  *asynq.Client // 仅 async 模式
	WorkerServer *worker.WorkerServer
	Hub          *hub.Hub
	HttpServer   *http.Server

	cancel context.CancelFunc
}

// Handlers 汇总路由需要的全部处理器
type Handlers struct {
	Auth          *httpHandler.AuthHandler
	Posts         *httpHandler.PostHandler
	Search        *httpHandler.SearchHandler
	Profile       *httpHandler.ProfileHandler
	Notifications *httpHandler.NotificationHandler
	WebSocket     *wsHandler.WebSocketHandler
}

// NewApp 加载配置并创建应用
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig 创建并初始化应用的所有组件
func NewAppWithConfig(cfg *Config) (*App, error) {
	log := NewLogger(cfg)
	log.Info("Configuration loaded successfully")

	// 1. 基础设施
	db, err := setup.InitDB(setup.DBOptions{
		Driver:   cfg.DBDriver,
		Path:     cfg.DBPath,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		log.Info("Redis client initialized")
	}

	// 2. Repositories
	userRepo := gormpersistence.NewGormUserRepository(db)
	postRepo := gormpersistence.NewGormPostRepository(db)
	commentRepo := gormpersistence.NewGormCommentRepository(db)
	notificationRepo := gormpersistence.NewGormNotificationRepository(db)
	followRepo := gormpersistence.NewGormFollowRepository(db)

	var sessionRepo repository.SessionRepository
	if cfg.SessionStore == SessionStoreRedis {
		sessionRepo = redisstate.NewRedisSessionRepository(redisClient, cfg.KeyPrefix)
	} else {
		sessionRepo = gormpersistence.NewGormSessionRepository(db)
	}
	log.WithField("session_store", cfg.SessionStore).Info("Repositories initialized")

	// 3. Hub 与实时推送
	hubInstance := hub.NewHub()
	var publisher service.NotificationPublisher = hubInstance
	if redisClient != nil {
		// 经 Redis 频道转发，多实例部署时每个实例都能推送给自己的连接
		publisher = redisstate.NewRedisNotificationPublisher(redisClient, cfg.KeyPrefix)
	}

	// 4. Services
	authService, err := service.NewAuthService(userRepo, sessionRepo, cfg.JWTSecret, cfg.SessionTTLHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	notificationService := service.NewNotificationService(notificationRepo, followRepo, userRepo, postRepo, publisher, cfg.NotifyBatchSize)

	app := &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		Hub:         hubInstance,
	}

	var dispatcher service.NotificationDispatcher
	if cfg.NotifyMode == NotifyModeAsync {
		redisClientOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		app.AsynqClient = asynq.NewClient(redisClientOpt)
		dispatcher = tasks.NewAsyncDispatcher(app.AsynqClient)
		fanoutHandler := worker.NewFanoutHandler(notificationService, app.AsynqClient, cfg.NotifyMaxAttempts)
		app.WorkerServer = worker.NewWorkerServer(redisClientOpt, cfg.WorkerConcurrency, fanoutHandler, log)
		log.Info("Asynq client and worker server initialized")
	} else {
		dispatcher = service.NewInlineDispatcher(notificationService)
	}
	log.WithField("notify_mode", cfg.NotifyMode).Info("Notification dispatcher initialized")

	postService := service.NewPostService(postRepo, dispatcher)
	commentService := service.NewCommentService(commentRepo, postRepo)
	searchService := service.NewSearchService(postRepo)
	followService := service.NewFollowService(followRepo, userRepo)
	profileService := service.NewProfileService(userRepo)

	// 5. Handlers 与路由
	handlers := Handlers{
		Auth:          httpHandler.NewAuthHandler(authService, cfg.AppEnv == "production"),
		Posts:         httpHandler.NewPostHandler(postService, commentService),
		Search:        httpHandler.NewSearchHandler(searchService),
		Profile:       httpHandler.NewProfileHandler(profileService, followService),
		Notifications: httpHandler.NewNotificationHandler(notificationService),
		WebSocket:     wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSAllowedOrigin),
	}
	router := NewRouter(cfg, log, handlers, authService, redisClient)

	app.HttpServer = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("Application assembled successfully")
	return app, nil
}

// NewRouter 创建 Gin Engine 并注册全部路由。
// redisClient 为 nil 或 RATE_LIMIT_MAX <= 0 时不启用限流。
func NewRouter(cfg *Config, log *logrus.Logger, h Handlers, authn middleware.Authenticator, redisClient *redis.Client) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	if redisClient != nil && cfg.RateLimitMax > 0 {
		router.Use(middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	// --- 公开路由 ---
	router.GET("/registro", h.Auth.RegisterForm)
	router.POST("/registro", h.Auth.Register)
	router.GET("/login", h.Auth.LoginForm)
	router.POST("/login", h.Auth.Login)
	router.GET("/publicacion/:postId", h.Posts.ShowPost)
	router.GET("/buscar", h.Search.Search)
	router.POST("/buscar", h.Search.Search)
	router.GET("/filtrar", h.Search.Filter)
	router.POST("/filtrar", h.Search.Filter)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	// --- 需要登录的路由 ---
	authed := router.Group("/", middleware.Auth(authn))
	{
		authed.GET("/logout", h.Auth.Logout)
		authed.GET("/dashboard", h.Posts.Dashboard)
		authed.GET("/agregar_publicacion", h.Posts.NewPostForm)
		authed.POST("/agregar_publicacion", h.Posts.CreatePost)
		authed.GET("/editar_publicacion/:postId", h.Posts.EditPostForm)
		authed.POST("/editar_publicacion/:postId", h.Posts.EditPost)
		authed.POST("/eliminar_publicacion/:postId", h.Posts.DeletePost)
		authed.POST("/publicacion/:postId/comentarios", h.Posts.AddComment)
		authed.POST("/eliminar_comentario/:commentId", h.Posts.DeleteComment)
		authed.GET("/perfil", h.Profile.GetProfile)
		authed.POST("/perfil", h.Profile.UpdateProfile)
		authed.POST("/seguir/:username", h.Profile.Follow)
		authed.POST("/dejar_de_seguir/:username", h.Profile.Unfollow)
		authed.GET("/seguidores", h.Profile.Followers)
		authed.GET("/notificaciones", h.Notifications.List)
		authed.GET("/ws/notificaciones", h.WebSocket.HandleConnection)
	}
	return router
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.Hub.Run(ctx)
	if a.RedisClient != nil {
		go a.Hub.Subscribe(ctx, a.RedisClient, redisstate.NotificationChannel(a.Config.KeyPrefix))
	}
	if a.WorkerServer != nil {
		go a.WorkerServer.Start()
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 先停止接收新请求
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 停止 Hub 和 Redis 订阅
	if a.cancel != nil {
		a.cancel()
	}

	// 3. 等待正在执行的扇出任务
	if a.WorkerServer != nil {
		a.WorkerServer.Shutdown()
	}
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.Errorf("Error closing database connection: %v", err)
		}
	}

	a.Log.Info("Application shutdown complete.")
}
