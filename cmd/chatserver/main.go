package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	redisDriver "github.com/redis/go-redis/v9"

	"tripplanner/internal/config"
	"tripplanner/internal/handlers/chatserver"
	appKafka "tripplanner/internal/kafka"
	appRedis "tripplanner/internal/redis"
	"tripplanner/internal/tptypes"
	"tripplanner/internal/websocket"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("推送服务器配置加载成功。")

	// 2. 初始化 Redis（连接验证走 Token 黑名单）
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	// 3. 初始化 WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()
	log.Println("WebSocket Hub 已启动。")

	// 4. 初始化 WebSocket Handler
	wsHandler := chatserver.NewWebSocketHandler(hub, tokenBlacklist, cfg)

	// 5. 初始化 Kafka 消费者：订阅聊天消息和社交通知两个 topic，
	// 反序列化成推送事件后交给 Hub 投递。
	pushConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("无法创建推送事件 Kafka 消费者: %v", err)
	}
	defer pushConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	go func() {
		topics := []string{cfg.Kafka.ChatOutgoingTopic, cfg.Kafka.NotificationsTopic}
		log.Printf("Kafka 推送消费者启动，监听 topics: %v, GroupID: %s", topics, cfg.Kafka.ConsumerGroup)
		err := pushConsumer.Consume(consumerCtx, topics, cfg.Kafka.ConsumerGroup,
			func(ctx context.Context, kafkaMsg *confluentKafka.Message) error {
				var event tptypes.PushEvent
				if err := json.Unmarshal(kafkaMsg.Value, &event); err != nil {
					log.Printf("错误: 无法反序列化推送事件: %v, 原始值: %s", err, string(kafkaMsg.Value))
					return nil // 跳过坏消息，不中断消费
				}
				hub.DeliverEvent(&event)
				return nil
			})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Kafka 推送消费者错误: %v", err)
		}
		log.Println("Kafka 推送消费者 goroutine 已停止。")
	}()

	// 6. 配置 HTTP 服务器路由
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/ws/", wsHandler.ServeWS)

	// 7. 启动 HTTP 服务器
	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: serverAddr, Handler: mux}

	go func() {
		log.Printf("推送服务器启动于 %s, WebSocket 路径: /ws", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("推送服务器启动失败: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("推送服务器准备关闭...")

	cancelConsumers()
	log.Println("正在等待 Kafka 消费者停止...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("推送服务器关闭失败: %v", err)
	}
	log.Println("推送服务器已优雅关闭。")
}
