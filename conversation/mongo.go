package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetpotato0/tripflow/message"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store using MongoDB: one document per message,
// ordered by a per-thread sequence number.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "tripflow",
		Collection: "threads",
	}
}

// mongoMessage is the internal representation for MongoDB
type mongoMessage struct {
	ID         string         `bson:"_id"`
	ThreadID   string         `bson:"thread_id"`
	Seq        int            `bson:"seq"`
	Role       string         `bson:"role"`
	Content    string         `bson:"content"`
	ToolCalls  []mongoCall    `bson:"tool_calls,omitempty"`
	ToolCallID string         `bson:"tool_call_id,omitempty"`
	ToolName   string         `bson:"tool_name,omitempty"`
	Metadata   map[string]any `bson:"metadata,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
}

type mongoCall struct {
	ID   string         `bson:"id"`
	Name string         `bson:"name"`
	Args map[string]any `bson:"args"`
}

// NewMongoStore creates a new MongoDB-based conversation store
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}

	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return store, nil
}

// createIndexes creates indexes for efficient per-thread ordered reads
func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "thread_id", Value: 1}, {Key: "seq", Value: 1}},
	}

	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

// Messages returns the full thread history ordered by sequence number.
func (s *MongoStore) Messages(ctx context.Context, threadID string) ([]*message.Message, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"thread_id": threadID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}
	defer cursor.Close(ctx)

	var docs []mongoMessage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode thread %s: %w", threadID, err)
	}

	msgs := make([]*message.Message, 0, len(docs))
	for _, doc := range docs {
		msgs = append(msgs, fromMongo(doc))
	}
	return msgs, nil
}

// Append inserts messages at the end of a thread. The loop serializes turns
// per thread, so reading the current length before inserting is safe.
func (s *MongoStore) Append(ctx context.Context, threadID string, msgs ...*message.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	next, err := s.Len(ctx, threadID)
	if err != nil {
		return err
	}

	docs := make([]any, 0, len(msgs))
	for i, msg := range msgs {
		if msg == nil {
			return fmt.Errorf("message cannot be nil")
		}
		docs = append(docs, toMongo(threadID, next+i, msg))
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to append to thread %s: %w", threadID, err)
	}
	return nil
}

// Len returns the current thread length.
func (s *MongoStore) Len(ctx context.Context, threadID string) (int, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"thread_id": threadID})
	if err != nil {
		return 0, fmt.Errorf("failed to count thread %s: %w", threadID, err)
	}
	return int(count), nil
}

// Close closes the MongoDB connection
func (s *MongoStore) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}

// Ping checks if the MongoDB connection is alive
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func toMongo(threadID string, seq int, msg *message.Message) mongoMessage {
	doc := mongoMessage{
		ID:         msg.ID,
		ThreadID:   threadID,
		Seq:        seq,
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
		ToolName:   msg.ToolName,
		Metadata:   msg.Metadata,
		CreatedAt:  msg.CreatedAt,
	}
	for _, call := range msg.ToolCalls {
		doc.ToolCalls = append(doc.ToolCalls, mongoCall{ID: call.ID, Name: call.Name, Args: call.Args})
	}
	return doc
}

func fromMongo(doc mongoMessage) *message.Message {
	msg := &message.Message{
		ID:         doc.ID,
		Role:       message.Role(doc.Role),
		Content:    doc.Content,
		ToolCallID: doc.ToolCallID,
		ToolName:   doc.ToolName,
		Metadata:   doc.Metadata,
		CreatedAt:  doc.CreatedAt,
	}
	for _, call := range doc.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, message.ToolCall{ID: call.ID, Name: call.Name, Args: call.Args})
	}
	return msg
}
