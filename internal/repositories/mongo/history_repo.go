package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/takrit/linerelay/internal/models"
)

type HistoryRepository interface {
	// Append pushes one message onto the session's log, creating the session
	// document if it does not exist yet (find-or-create; there is no explicit
	// session creation anywhere). It also refreshes last_activity_timestamp
	// and enforces the persistence cap afterwards.
	Append(ctx context.Context, sessionID string, msg models.Message) error
	// Get returns the full persisted log in conversation order. An unknown
	// session yields an empty slice, not an error.
	Get(ctx context.Context, sessionID string) ([]models.Message, error)
	// Recent returns the newest n messages of the persisted log.
	Recent(ctx context.Context, sessionID string, n int) ([]models.Message, error)
	// Clear empties the log but keeps the session document.
	Clear(ctx context.Context, sessionID string) error
}

type historyRepo struct {
	col   *mongo.Collection
	limit int
}

func NewHistoryRepo(db *mongo.Database, maxMessages int) HistoryRepository {
	if maxMessages <= 0 {
		maxMessages = 20
	}
	return &historyRepo{col: db.Collection(models.ChatHistoryCollection), limit: maxMessages}
}

func (r *historyRepo) Append(ctx context.Context, sessionID string, msg models.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	// Single atomic push-and-touch against one document. Durability of the
	// message does not depend on the trim below.
	push := func() error {
		_, err := r.col.UpdateOne(ctx,
			bson.M{"session_id": sessionID},
			bson.M{
				"$push": bson.M{"history": msg},
				"$set":  bson.M{"last_activity_timestamp": msg.Timestamp},
			},
			options.Update().SetUpsert(true),
		)
		return err
	}
	if err := retryOnDuplicateKey(push); err != nil {
		return err
	}

	// Trim to the persistence cap. This read-then-write is NOT atomic with
	// the push above: two concurrent appends to the same session can leave
	// the log transiently over the cap. Accepted inconsistency window; the
	// next append re-trims.
	var doc models.ChatHistory
	err := r.col.FindOne(ctx,
		bson.M{"session_id": sessionID},
		options.FindOne().SetProjection(bson.M{"history": bson.M{"$slice": -(r.limit + 1)}}),
	).Decode(&doc)
	if err != nil {
		return err
	}

	trimmed, over := trimToCap(doc.History, r.limit)
	if !over {
		return nil
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"history": trimmed}},
	)
	return err
}

func (r *historyRepo) Get(ctx context.Context, sessionID string) ([]models.Message, error) {
	var doc models.ChatHistory
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.History, nil
}

func (r *historyRepo) Recent(ctx context.Context, sessionID string, n int) ([]models.Message, error) {
	if n <= 0 {
		return nil, nil
	}

	var doc models.ChatHistory
	err := r.col.FindOne(ctx,
		bson.M{"session_id": sessionID},
		options.FindOne().SetProjection(bson.M{"history": bson.M{"$slice": -n}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.History, nil
}

func (r *historyRepo) Clear(ctx context.Context, sessionID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"history": []models.Message{}}},
	)
	return err
}

// retryOnDuplicateKey runs fn and retries it exactly once on a duplicate-key
// error. Two concurrent first appends to the same session can both take the
// upsert insert path; the unique session_id index fails one of them, but the
// document exists by then, so a single retry lands on the update path.
func retryOnDuplicateKey(fn func() error) error {
	err := fn()
	if mongo.IsDuplicateKeyError(err) {
		err = fn()
	}
	return err
}

// trimToCap keeps the newest limit entries, oldest discarded first, and
// reports whether the input was over the cap.
func trimToCap(history []models.Message, limit int) ([]models.Message, bool) {
	if len(history) <= limit {
		return history, false
	}
	return history[len(history)-limit:], true
}
