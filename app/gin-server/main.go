package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/sashabaranov/go-openai"

	"github.com/takrit/linerelay/config"
	"github.com/takrit/linerelay/internal/api/handlers"
	"github.com/takrit/linerelay/internal/api/middleware"
	"github.com/takrit/linerelay/internal/api/routes"
	"github.com/takrit/linerelay/internal/cache"
	"github.com/takrit/linerelay/internal/logger"
	"github.com/takrit/linerelay/internal/providers/embed"
	"github.com/takrit/linerelay/internal/providers/llm"
	"github.com/takrit/linerelay/internal/providers/messaging"
	mongorepo "github.com/takrit/linerelay/internal/repositories/mongo"
	"github.com/takrit/linerelay/internal/services"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	app, err := config.LoadApp()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx := context.Background()

	// Mongo: chat history + knowledge-base vector index
	conn := config.NewMongoConn(app.MongoURI, app.MongoDB)
	db, err := conn.DB(ctx)
	if err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	if err := config.EnsureChatHistoryIndexes(ctx, db, app.SessionTTLSeconds); err != nil {
		log.WithError(err).Fatal("MongoDB index bootstrap error")
	}
	log.Info("MongoDB connected")

	// Redis is optional: without it, redelivered webhook events are simply
	// processed twice.
	var dedup cache.Deduper
	if app.RedisAddr != "" {
		rdb, err := config.NewRedis(ctx, app.RedisAddr)
		if err != nil {
			log.WithError(err).Fatal("Redis init error")
		}
		dedup = cache.NewRedisDeduper(rdb)
		log.Info("Redis connected, webhook dedup enabled")
	}

	bot, err := linebot.New(app.LineChannelSecret, app.LineChannelToken)
	if err != nil {
		log.WithError(err).Fatal("LINE client init error")
	}

	oa := openai.NewClient(app.OpenAIKey)

	histories := mongorepo.NewHistoryRepo(db, app.MaxMessagesInDB)
	documents := mongorepo.NewDocumentRepo(db)

	historySvc := services.NewHistoryService(histories, app.MaxMessagesInDB, log)
	retrievalSvc := services.NewRetrievalService(embed.NewOpenAI(oa, app.EmbedModel), documents)
	chatSvc := services.NewChatService(
		retrievalSvc,
		historySvc,
		llm.NewOpenAI(oa, app.ChatModel, app.Temperature),
		services.ChatOptions{
			HistoryWindow: app.LLMContextHistoryCount,
			RetrievalK:    app.RetrievalK,
		},
		log,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Webhook: handlers.NewWebhookHandler(bot, chatSvc, messaging.NewLineReplier(bot), dedup, log),
		History: handlers.NewHistoryHandler(historySvc),
	})

	log.WithField("port", app.Port).Info("LINE webhook listening")
	if err := r.Run(":" + app.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
