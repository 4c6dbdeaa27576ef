package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tripplanner/internal/auth"
	"tripplanner/internal/config"
	"tripplanner/internal/handlers/apiserver"
	appKafka "tripplanner/internal/kafka"
	"tripplanner/internal/middleware"
	"tripplanner/internal/models"
	appRedis "tripplanner/internal/redis"
	"tripplanner/internal/services"
	"tripplanner/internal/storage"
	"tripplanner/internal/tptypes"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
)

// defaultDestinations 是目的地目录的初始内容，启动时幂等写入。
var defaultDestinations = []models.Destination{
	{Name: "Tokyo"},
	{Name: "Paris"},
	{Name: "Rome"},
	{Name: "Barcelona"},
	{Name: "Bangkok"},
	{Name: "New York"},
	{Name: "Lisbon"},
	{Name: "Reykjavik"},
}

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("API 服务器配置加载成功。")

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	log.Println("API 服务器数据库连接成功。")

	if err := storage.AutoMigrateTables(db); err != nil {
		log.Printf("警告：API 服务器数据库表迁移可能失败: %v", err)
	} else {
		log.Println("API 服务器数据库表迁移成功。")
	}

	// 3. 初始化 Redis Client 与 Token 黑名单
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	log.Println("成功连接到 Redis")
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	// 4. 初始化 Repositories
	userRepo := storage.NewGormUserRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	itineraryRepo := storage.NewGormItineraryRepository(db)
	commentRepo := storage.NewGormCommentRepository(db)
	chatRepo := storage.NewGormChatRepository(db)
	destinationRepo := storage.NewGormDestinationRepository(db)

	// 5. 初始化 Kafka Producer
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("无法创建 Kafka 生产者: %v", err)
	}
	defer kfkProducer.Close()
	log.Println("Kafka 生产者初始化成功 (API Server)。")

	// 6. 初始化存储服务
	var storageService tptypes.StorageService
	storageBaseURL := "/uploads"
	if cfg.Storage.Type == "local" {
		storageService, err = storage.NewLocalStorageService(cfg.Storage, storageBaseURL)
		if err != nil {
			log.Fatalf("无法初始化本地存储服务: %v", err)
		}
		log.Println("本地存储服务初始化成功。")
	} else {
		log.Fatalf("不支持的存储类型: %s", cfg.Storage.Type)
	}

	// 7. 初始化 Services
	tokenVerifier := auth.NewHTTPTokenVerifier(cfg.Auth)
	authService := services.NewAuthService(userRepo, tokenVerifier, cfg.Auth)
	userService := services.NewUserService(userRepo, storageService)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo, kfkProducer, cfg.Kafka)
	itineraryService := services.NewItineraryService(itineraryRepo, destinationRepo, userRepo)
	commentService := services.NewCommentService(commentRepo, itineraryRepo, userRepo)
	chatService := services.NewChatService(chatRepo, userRepo, kfkProducer, cfg.Kafka)

	// 7.1 幂等写入目的地目录
	if err := itineraryService.SeedDestinations(context.Background(), defaultDestinations); err != nil {
		log.Printf("警告：写入目的地目录失败: %v", err)
	}

	// 8. 初始化 Handlers
	authHandler := apiserver.NewAuthHandler(authService, tokenBlacklist)
	userHandler := apiserver.NewUserHandler(userService)
	friendshipHandler := apiserver.NewFriendshipHandler(friendshipService)
	itineraryHandler := apiserver.NewItineraryHandler(itineraryService)
	commentHandler := apiserver.NewCommentHandler(commentService)
	chatHandler := apiserver.NewChatHandler(chatService)
	uploadHandler := apiserver.NewUploadHandler(storageService, userService, cfg.Storage)

	// 9. 设置 HTTP 路由
	r := mux.NewRouter()

	// 9.1 认证路由（无需登录）
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/federated", authHandler.FederatedLogin).Methods(http.MethodPost)

	authMW := middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklist)

	// 9.2 API 子路由（需要认证）
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/password", authHandler.ChangePassword).Methods(http.MethodPut)

	// 用户路由
	apiRouter.HandleFunc("/users/me", userHandler.GetMyProfileHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMyProfileHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/me/profile-image", uploadHandler.UploadProfileImageHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/search", userHandler.SearchUsersHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{userID:[0-9]+}", userHandler.GetUserProfileHandler).Methods(http.MethodGet)

	// 好友路由
	apiRouter.HandleFunc("/friends", friendshipHandler.ListFriendsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends/count", friendshipHandler.CountFriendsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends/{userID:[0-9]+}/status", friendshipHandler.GetStatusHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends/{userID:[0-9]+}/request", friendshipHandler.SendRequestHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/friends/{userID:[0-9]+}/request", friendshipHandler.CancelRequestHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/friends/{userID:[0-9]+}/accept", friendshipHandler.AcceptRequestHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/friends/{userID:[0-9]+}", friendshipHandler.RemoveFriendHandler).Methods(http.MethodDelete)

	// 行程路由
	apiRouter.HandleFunc("/itineraries", itineraryHandler.CreateHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/itineraries/mine", itineraryHandler.ListMineHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/itineraries/others", itineraryHandler.ListOthersHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/itineraries/{itineraryID:[0-9]+}", itineraryHandler.GetHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/itineraries/{itineraryID:[0-9]+}", itineraryHandler.DeleteHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/itineraries/{itineraryID:[0-9]+}/like", itineraryHandler.ToggleLikeHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/itineraries/{itineraryID:[0-9]+}/recommend", itineraryHandler.ToggleRecommendationHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/destinations", itineraryHandler.ListDestinationsHandler).Methods(http.MethodGet)

	// 评论路由
	apiRouter.HandleFunc("/itineraries/{itineraryID:[0-9]+}/comments", commentHandler.ListHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/itineraries/{itineraryID:[0-9]+}/comments", commentHandler.AppendHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/itineraries/{itineraryID:[0-9]+}/comments", commentHandler.RemoveHandler).Methods(http.MethodDelete)

	// 私信路由
	apiRouter.HandleFunc("/chats", chatHandler.ListPreviewsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/chats/{userID:[0-9]+}/messages", chatHandler.ListMessagesHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/chats/{userID:[0-9]+}/messages", chatHandler.SendMessageHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/chats/{userID:[0-9]+}/read", chatHandler.MarkReadHandler).Methods(http.MethodPut)

	// 文件上传路由
	apiRouter.HandleFunc("/upload", uploadHandler.UploadFileHandler).Methods(http.MethodPost)

	// 9.3 静态文件服务路由 - 用于访问上传的文件
	if cfg.Storage.Type == "local" {
		staticPath := strings.TrimSuffix(storageBaseURL, "/") + "/"
		localDir := http.Dir(cfg.Storage.LocalPath)
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(localDir)))
		log.Printf("提供静态文件服务于 %s -> %s", staticPath, cfg.Storage.LocalPath)
	}

	// 10. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	}

	go func() {
		log.Printf("API 服务器启动于 %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API 服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API 服务器强制关闭: %v", err)
	}

	log.Println("API 服务器已成功关闭")
}
