package config

import (
	"errors"
	"os"
	"strconv"
)

// App holds every recognized knob. Values come from the environment (main
// loads .env first); anything tunable has a default matching production.
type App struct {
	Port string

	MongoURI  string
	MongoDB   string
	RedisAddr string // optional; empty disables webhook dedup

	OpenAIKey   string
	ChatModel   string
	EmbedModel  string
	Temperature float32

	LineChannelSecret string
	LineChannelToken  string

	RetrievalK             int
	MaxMessagesInDB        int
	LLMContextHistoryCount int
	SessionTTLSeconds      int
}

func LoadApp() (App, error) {
	app := App{
		Port: getenv("PORT", "8080"),

		MongoURI:  os.Getenv("MONGO_URI"),
		MongoDB:   getenv("MONGO_DB", "rag_knowledge_base"),
		RedisAddr: os.Getenv("REDIS_ADDR"),

		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		ChatModel:   getenv("OPENAI_MODEL", "gpt-4o"),
		EmbedModel:  getenv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		Temperature: getenvFloat("LLM_TEMPERATURE", 0.4),

		LineChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:  os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),

		RetrievalK:             getenvInt("RETRIEVAL_K", 5),
		MaxMessagesInDB:        getenvInt("MAX_MESSAGES_IN_DB", 20),
		LLMContextHistoryCount: getenvInt("LLM_CONTEXT_HISTORY_COUNT", 3),
		SessionTTLSeconds:      getenvInt("SESSION_TTL_SECONDS", 300),
	}

	if app.MongoURI == "" {
		return app, errors.New("MONGO_URI environment variable is not set")
	}
	if app.OpenAIKey == "" {
		return app, errors.New("OPENAI_API_KEY environment variable is not set")
	}
	if app.LineChannelSecret == "" || app.LineChannelToken == "" {
		return app, errors.New("LINE_CHANNEL_SECRET and LINE_CHANNEL_ACCESS_TOKEN environment variables are required")
	}
	if app.LLMContextHistoryCount > app.MaxMessagesInDB {
		app.LLMContextHistoryCount = app.MaxMessagesInDB
	}
	return app, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f >= 0 {
			return float32(f)
		}
	}
	return def
}
