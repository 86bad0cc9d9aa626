package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/takrit/linerelay/internal/models"
)

// chatHistoryIndexModels builds the index set for chat_histories: one
// document per session, and the whole document auto-expires once the session
// has been idle for ttlSeconds (last_activity_timestamp is refreshed on
// every append).
func chatHistoryIndexModels(ttlSeconds int) []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_session_id").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "last_activity_timestamp", Value: 1}},
			Options: options.Index().
				SetName("ttl_last_activity").
				SetExpireAfterSeconds(int32(ttlSeconds)),
		},
	}
}

// EnsureChatHistoryIndexes sets up the chat_histories collection. Mongo
// rejects a TTL re-create with a different expireAfterSeconds; change
// SESSION_TTL_SECONDS only after dropping ttl_last_activity manually.
func EnsureChatHistoryIndexes(ctx context.Context, db *mongo.Database, ttlSeconds int) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	col := db.Collection(models.ChatHistoryCollection)
	_, err := col.Indexes().CreateMany(ctx, chatHistoryIndexModels(ttlSeconds))
	return err
}
