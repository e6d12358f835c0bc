package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BITS4/babyshop/internal/domain"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) ProductRepository {
	return &mongoRepository{
		collection: db.Collection("products"),
	}
}

func (m *mongoRepository) List(ctx context.Context) ([]Record, error) {
	cursor, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "local_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var records []Record
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		records = append(records, normalizeDocument(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}

	return records, nil
}

func (m *mongoRepository) Insert(ctx context.Context, p domain.Product) (string, error) {
	res, err := m.collection.InsertOne(ctx, p)
	if err != nil {
		return "", fmt.Errorf("failed to insert product: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (m *mongoRepository) Update(ctx context.Context, remoteID string, p domain.Product) error {
	oid, err := primitive.ObjectIDFromHex(remoteID)
	if err != nil {
		return fmt.Errorf("invalid remote id %q: %w", remoteID, err)
	}

	update := bson.M{"$set": bson.M{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"image_url":   p.ImageURL,
		"category":    p.Category,
	}}
	res, err := m.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoRepository) Delete(ctx context.Context, remoteID string) error {
	oid, err := primitive.ObjectIDFromHex(remoteID)
	if err != nil {
		return fmt.Errorf("invalid remote id %q: %w", remoteID, err)
	}

	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoRepository) FindByLocalID(ctx context.Context, localID int64) (*Record, error) {
	var raw bson.M
	err := m.collection.FindOne(ctx, bson.M{"local_id": localID}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	rec := normalizeDocument(raw)
	return &rec, nil
}

func (m *mongoRepository) Watch(ctx context.Context) (<-chan struct{}, error) {
	stream, err := m.collection.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	events := make(chan struct{}, 1)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			select {
			case events <- struct{}{}:
			default: // a pending signal already covers this change
			}
		}
	}()

	return events, nil
}

// normalizeDocument absorbs the historical document shapes in one place so
// nothing downstream re-derives field fallbacks. Old records carry the local
// id under "id", prices as "$x.yz" strings, and images under "image".
func normalizeDocument(raw bson.M) Record {
	var rec Record

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		rec.RemoteID = oid.Hex()
	}

	rec.Product = domain.Product{
		LocalID:     asInt64(firstOf(raw, "local_id", "id")),
		Name:        asString(raw["name"]),
		Description: asString(raw["description"]),
		Price:       asPrice(raw["price"]),
		ImageURL:    asString(firstOf(raw, "image_url", "image")),
		Category:    asString(raw["category"]),
		CreatedAt:   asTime(raw["created_at"]),
	}
	return rec
}

func firstOf(raw bson.M, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asPrice(v interface{}) float64 {
	switch p := v.(type) {
	case float64:
		return p
	case int32:
		return float64(p)
	case int64:
		return float64(p)
	case string:
		trimmed := strings.TrimPrefix(strings.TrimSpace(p), "$")
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	return 0
}

func asTime(v interface{}) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time()
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
