package profile

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BITS4/babyshop/internal/domain"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository defines the profile document operations.
type ProfileRepository interface {
	Get(ctx context.Context, uid string) (*domain.UserProfile, error)
	Upsert(ctx context.Context, p *domain.UserProfile) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *mongoRepository {
	return &mongoRepository{
		collection: db.Collection("users"),
	}
}

func (m *mongoRepository) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := m.collection.FindOne(ctx, bson.M{"uid": uid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (m *mongoRepository) Upsert(ctx context.Context, p *domain.UserProfile) error {
	filter := bson.M{"uid": p.UID}
	update := bson.M{"$set": p}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "uid", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
