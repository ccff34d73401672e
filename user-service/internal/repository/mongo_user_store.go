package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusline/platform/shared/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type userDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	Username  string        `bson:"username"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	Role      string        `bson:"role"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoUserStore keeps users in the "users" collection with unique indexes on
// username and email.
type MongoUserStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewMongoUserStore connects, pings and ensures the unique indexes. Any
// failure here is fatal for the service.
func NewMongoUserStore(ctx context.Context, uri, database string) (*MongoUserStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := &MongoUserStore{
		client: client,
		users:  client.Database(database).Collection(usersTable),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

func (s *MongoUserStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailUniqueIndex),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usernameUniqueIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	id, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}
	doc := userDocument{
		ID:        id,
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return mongoDuplicateError(err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *MongoUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *MongoUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoUserStore) List(ctx context.Context) ([]*models.User, error) {
	cursor, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}

func (s *MongoUserStore) Update(ctx context.Context, user *models.User) error {
	oid, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return ErrUserNotFound
	}
	result, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "username", Value: user.Username},
			{Key: "email", Value: user.Email},
			{Key: "role", Value: string(user.Role)},
			{Key: "password", Value: user.PasswordHash},
			{Key: "updatedAt", Value: user.UpdatedAt},
		}}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return mongoDuplicateError(err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoUserStore) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}
	result, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoUserStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// The server reports the violated index by name in the error message.
func mongoDuplicateError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, emailUniqueIndex):
		return duplicateError(emailUniqueIndex, err)
	case strings.Contains(msg, usernameUniqueIndex):
		return duplicateError(usernameUniqueIndex, err)
	default:
		return duplicateError("", err)
	}
}
