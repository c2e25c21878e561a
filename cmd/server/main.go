package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"multichat/internal/config"
	"multichat/internal/handler"
	"multichat/internal/middleware"
	"multichat/internal/service"
	"multichat/internal/storage"
	"multichat/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// .env 先于配置加载，便于本地注入 API Key
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	store, err := buildStorage(cfg)
	if err != nil {
		logger.Fatalf("存储初始化失败: %v", err)
	}
	defer store.Close()

	completer := service.NewCompleter(cfg.OpenAI)
	chatService := service.NewChatService(store, completer,
		cfg.Chat.SystemPrompt, cfg.Chat.MaxHistoryMessages, cfg.Chat.MaxDocumentContext)

	chatHandler := handler.NewChatHandler(chatService)
	uploadHandler := handler.NewUploadHandler(store,
		service.NewImageService(), service.NewCSVService(), service.NewDocumentService(),
		cfg.Upload.Dir)
	healthHandler := handler.NewHealthHandler(cfg.Storage.Type, cfg.OpenAI.APIKey != "")

	router := setupRouter(cfg, chatHandler, uploadHandler, healthHandler)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("服务器启动在端口 %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务器正在关闭...")
	if err := server.Close(); err != nil {
		logger.Errorf("服务器关闭失败: %v", err)
	}
	logger.Info("服务器已关闭")
}

func buildStorage(cfg *config.Config) (storage.Store, error) {
	var store storage.Store

	switch cfg.Storage.Type {
	case "disk":
		store = storage.NewDiskStorage(cfg.Storage.DataDir)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		store = storage.NewRedisStorage(client, cfg.Storage.RedisTTL)
	default:
		store = storage.NewMemoryStorage()
	}

	if err := store.Init(); err != nil {
		return nil, err
	}

	return store, nil
}

func setupRouter(cfg *config.Config, chatHandler *handler.ChatHandler, uploadHandler *handler.UploadHandler, healthHandler *handler.HealthHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst))
	}

	router.Use(middleware.Metrics())

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", middleware.MetricsHandler())

	router.POST("/chat", chatHandler.Chat)
	router.GET("/chat/history/:session_id", chatHandler.History)
	router.DELETE("/chat/history/:session_id", chatHandler.Clear)

	router.POST("/upload-image", uploadHandler.UploadImage)
	router.DELETE("/upload-image/:session_id", uploadHandler.DeleteImage)

	router.POST("/upload-csv", uploadHandler.UploadCSV)
	router.POST("/upload-csv/url", uploadHandler.UploadCSVFromURL)
	router.DELETE("/upload-csv/:session_id", uploadHandler.DeleteCSV)

	router.POST("/upload-document", uploadHandler.UploadDocument)
	router.GET("/upload-document/:session_id/info", uploadHandler.DocumentInfo)
	router.DELETE("/upload-document/:session_id", uploadHandler.DeleteDocument)

	// 图片预览直接走静态目录
	router.Static("/uploads", cfg.Upload.Dir)

	return router
}
