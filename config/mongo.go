package config

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/takrit/linerelay/internal/utils"
)

// MongoConn is the single store handle for the process. It is created eagerly
// but dials lazily, on the first DB call, and every later call returns the
// same cached handle (or the same cached failure; a bad URI is not worth
// retrying). Components receive the handle through their constructors instead
// of reading a package-level client.
type MongoConn struct {
	uri    string
	dbName string
	dial   func(ctx context.Context, uri string) (*mongo.Client, error)

	once sync.Once
	db   *mongo.Database
	err  error
}

func NewMongoConn(uri, dbName string) *MongoConn {
	return &MongoConn{uri: uri, dbName: dbName, dial: dialMongo}
}

func dialMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	// MongoDB client options - let driver handle TLS for Atlas automatically
	clientOpts := options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(20 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(1)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// DB connects on first use and caches the database handle for the process
// lifetime. Missing connection parameters fail with CodeConfig before any
// network activity; dial or ping failures fail with CodeUnavailable. Both
// propagate to the caller on this and every subsequent call.
func (c *MongoConn) DB(ctx context.Context) (*mongo.Database, error) {
	c.once.Do(func() {
		const op = "MongoConn.DB"

		if c.uri == "" || c.dbName == "" {
			c.err = utils.E(utils.CodeConfig, op, "MONGO_URI and MONGO_DB are required", nil)
			return
		}

		dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		client, err := c.dial(dialCtx, c.uri)
		if err != nil {
			c.err = utils.E(utils.CodeUnavailable, op, "failed to connect to MongoDB", err)
			return
		}
		c.db = client.Database(c.dbName)
	})
	return c.db, c.err
}

// Collection resolves a named collection, connecting first if needed.
func (c *MongoConn) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := c.DB(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}
