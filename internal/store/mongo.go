package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/researchkit/deep-research-mcp/internal/models"
)

// MongoStore handles report document CRUD in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("reports")}
}

func (s *MongoStore) Insert(ctx context.Context, rep *models.Report) (string, error) {
	rep.CreatedAt = time.Now()
	res, err := s.col.InsertOne(ctx, rep)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

// List returns report summaries newest-first. The markdown body is omitted;
// fetch a single report to get it.
func (s *MongoStore) List(ctx context.Context) ([]models.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"markdown": 0})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reps []models.Report
	if err := cur.All(ctx, &reps); err != nil {
		return nil, err
	}
	return reps, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var rep models.Report
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.col.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
