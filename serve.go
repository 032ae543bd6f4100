package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bingo-service/config"
	"bingo-service/internal/bingo"
	"bingo-service/internal/broadcast"
	"bingo-service/internal/catalog"
	"bingo-service/internal/constants"
	"bingo-service/internal/handlers"
	"bingo-service/internal/notify"
	"bingo-service/internal/quiz"
	"bingo-service/internal/repository"
	"bingo-service/internal/server"
	ws "bingo-service/internal/websocket"
	"bingo-service/pkg/cache"
	"bingo-service/pkg/database"
	"bingo-service/pkg/messaging"
	"bingo-service/pkg/storage"

	"github.com/gin-gonic/gin"
)

const serviceName = "bingo-service"

func serve(parent context.Context, cfg *config.Config) error {
	log.Println("Configuration loaded")

	opts, err := gameOptions(cfg.Game)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := database.NewPostgresClient(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")
	defer pgClient.Close()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := pgClient.InitSchema(initCtx); err != nil {
		log.Printf("Warning: Failed to initialize PostgreSQL schema: %v", err)
	} else {
		log.Println("PostgreSQL schema initialized")
	}

	questionRepo := repository.NewQuestionRepository(pgClient.GetDB())
	if err := questionRepo.Seed(initCtx, quiz.DefaultQuestions()); err != nil {
		log.Printf("Warning: Failed to seed questions: %v", err)
	}
	cancel()

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		redisClient = nil
	} else {
		log.Println("Connected to Redis")
		defer redisClient.Close()
	}

	rabbitClient, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
	if err != nil {
		log.Printf("Warning: Failed to connect to RabbitMQ: %v", err)
		rabbitClient = nil
	} else {
		log.Println("Connected to RabbitMQ")
		defer rabbitClient.Close()
	}

	sources := []catalog.Source{catalog.DirSource{Dir: cfg.Game.CardsDir}}
	var s3Client *storage.S3Client
	if cfg.S3.Bucket != "" {
		s3Client, err = storage.NewS3Client(&cfg.S3)
		if err != nil {
			log.Printf("Warning: Failed to create S3 client: %v", err)
			s3Client = nil
		} else {
			log.Printf("Loading cards from bucket %s", cfg.S3.Bucket)
			sources = append(sources, catalog.NewS3Source(s3Client, cfg.S3.Bucket, cfg.S3.Prefix))
		}
	}

	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	cards, err := catalog.LoadAll(loadCtx, sources...)
	cancel()
	if err != nil {
		return err
	}
	cardCatalog, err := catalog.New(rand.New(rand.NewSource(time.Now().UnixNano())), cards)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d cards", cardCatalog.Len())

	resultRepo := repository.NewResultRepository(pgClient.GetDB())
	hub := ws.NewHub(cardCatalog, opts, hubOptions(resultRepo, redisClient, rabbitClient)...)
	go hub.Run(ctx)
	log.Println("WebSocket hub started")

	broadcaster := broadcast.Fanout{broadcast.NewHubPublisher(hub)}
	if rabbitClient != nil {
		broadcaster = append(broadcaster, broadcast.NewQueuePublisher(rabbitClient))
	}

	var deduper quiz.Deduper = broadcast.NewMemoryDeduper(broadcast.DefaultDedupeTTL)
	if redisClient != nil {
		deduper = broadcast.NewRedisDeduper(redisClient, broadcast.DefaultDedupeTTL)
	}

	quizService := quiz.NewService(rand.New(rand.NewSource(time.Now().UnixNano())),
		quiz.WithLedger(repository.NewRoomRepository(pgClient.GetDB())),
		quiz.WithQuestionBank(questionRepo),
		quiz.WithBroadcaster(broadcaster),
		quiz.WithDeduper(deduper),
		quiz.WithQuestionsPerGame(cfg.Game.QuestionsPerGame),
	)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := dependencies(pgClient, redisClient, rabbitClient, s3Client)
	router := handlers.Router{
		Health:    handlers.NewHealthHandler(serviceName, deps...),
		Cards:     handlers.NewCardHandler(cardCatalog, sources...),
		Rooms:     handlers.NewRoomHandler(quizService, cfg.Server.PublicURL),
		WebSocket: handlers.NewWebSocketHandler(hub, quizService),
		Results:   handlers.NewResultHandler(resultRepo),
		JWTSecret: cfg.Auth.JWTSecret,
	}.Engine()
	if cfg.Auth.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is empty, trusting the X-User-ID header")
	}

	httpAddr := ":" + cfg.Server.HTTPPort
	log.Printf("Bingo Service HTTP server starting on port %s...", cfg.Server.HTTPPort)
	go func() {
		if err := router.Run(httpAddr); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	grpcServer := server.NewGRPCServer()
	go grpcServer.Watch(ctx, 10*time.Second, requiredChecks(deps)...)
	log.Printf("Bingo Service gRPC server starting on port %s...", cfg.Server.GRPCPort)
	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			log.Fatalf("Failed to listen on gRPC port: %v", err)
		}
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	if rabbitClient != nil {
		log.Println("Starting RabbitMQ consumers...")
		go consumeQueue(ctx, rabbitClient, constants.QueueInbound, quizService.HandleMessage)
	}

	<-ctx.Done()

	grpcServer.GracefulStop()
	log.Println("Bingo service stopped")
	return nil
}

func hubOptions(results ws.ResultStore, redisClient *cache.RedisClient, rabbitClient *messaging.RabbitMQClient) []ws.HubOption {
	opts := []ws.HubOption{
		ws.WithResults(results),
	}
	if redisClient != nil {
		opts = append(opts, ws.WithSnapshotCache(redisClient))
	}
	if rabbitClient != nil {
		opts = append(opts, ws.WithNotifier(func(userID string) bingo.Notifier {
			return notify.NewQueueNotifier(rabbitClient, userID, notify.Summaries)
		}))
	} else {
		opts = append(opts, ws.WithNotifier(func(userID string) bingo.Notifier {
			return notify.LogNotifier{Prefix: "user " + userID + " "}
		}))
	}
	return opts
}

func dependencies(pg *database.PostgresClient, redisClient *cache.RedisClient, rabbitClient *messaging.RabbitMQClient, s3Client *storage.S3Client) []handlers.Dependency {
	deps := []handlers.Dependency{
		{Name: "postgres", Required: true, Ping: pg.Ping},
		{Name: "redis"},
		{Name: "rabbitmq"},
		{Name: "s3"},
	}
	if redisClient != nil {
		deps[1].Ping = redisClient.Ping
	}
	if rabbitClient != nil {
		deps[2].Ping = func(context.Context) error {
			if rabbitClient.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	if s3Client != nil {
		deps[3].Ping = s3Client.Ping
	}
	return deps
}

func requiredChecks(deps []handlers.Dependency) []server.Check {
	var checks []server.Check
	for _, dep := range deps {
		if dep.Required && dep.Ping != nil {
			checks = append(checks, server.Check(dep.Ping))
		}
	}
	return checks
}

// consumeQueue applies inbound room commands. Failed deliveries are dropped
// rather than requeued: the event id is already recorded, so a redelivery
// would be skipped anyway.
func consumeQueue(ctx context.Context, rabbitClient *messaging.RabbitMQClient, queueName string, handler func(context.Context, []byte) error) {
	msgs, err := rabbitClient.Consume(queueName)
	if err != nil {
		log.Printf("Failed to start consumer for queue %s: %v", queueName, err)
		return
	}

	log.Printf("Started consumer for queue: %s", queueName)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("Consumer for queue %s closed", queueName)
				return
			}
			if err := handler(ctx, msg.Body); err != nil {
				log.Printf("Error handling message from %s: %v", queueName, err)
				msg.Nack(false, false)
				continue
			}
			msg.Ack(false)
		}
	}
}
