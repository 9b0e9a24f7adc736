package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/pickupshop/pkg/config"
	"github.com/example/pickupshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditService = "reservation-service"

// MongoRepository keeps an append-only history of order events, one
// document per applied mutation.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to reach MongoDB: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create audit index: %w", err)
	}

	return &MongoRepository{client: client, collection: collection}, nil
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditLog is one recorded order event.
type AuditLog struct {
	ID        string    `bson:"_id,omitempty" json:"-"`
	Service   string    `bson:"service" json:"service"`
	Action    string    `bson:"action" json:"action"`
	EntityID  string    `bson:"entity_id" json:"order_id"`
	Data      bson.M    `bson:"data" json:"data"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Publish records an order event.
func (m *MongoRepository) Publish(ctx context.Context, event models.OrderEvent) error {
	_, err := m.collection.InsertOne(ctx, AuditLogFromEvent(event))
	return err
}

// History returns up to limit events for the order, newest first.
func (m *MongoRepository) History(ctx context.Context, orderID string, limit int64) ([]*AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := m.collection.Find(ctx, bson.M{"entity_id": orderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []*AuditLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func AuditLogFromEvent(event models.OrderEvent) *AuditLog {
	data := bson.M{
		"order_number": event.OrderNumber,
		"status":       string(event.Status),
		"customer_id":  event.CustomerID,
		"total":        event.Total.StringFixed(2),
	}
	if event.Justification != "" {
		data["justification"] = event.Justification
	}
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	return &AuditLog{
		Service:   auditService,
		Action:    string(event.Type),
		EntityID:  event.OrderID,
		Data:      data,
		CreatedAt: at,
	}
}
