package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"galleria/internal/config"
)

const (
	CollectionsCollection   = "collections"
	GalleriesCollection     = "galleries"
	PhotosCollection        = "photos"
	AdminsCollection        = "admins"
	RevokedTokensCollection = "revoked_tokens"
)

type Service interface {
	Health() map[string]string
	Client() *mongo.Client
	Database() *mongo.Database
	Close(ctx context.Context) error
}

type service struct {
	db     *mongo.Client
	dbName string
}

func New(ctx context.Context, cfg config.MongoConfig) (Service, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Str("database", cfg.Database).Msg("Connected to MongoDB")
	return &service{
		db:     client,
		dbName: cfg.Database,
	}, nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := s.db.Ping(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"message": "db down",
			"error":   err.Error(),
		}
	}

	return map[string]string{
		"message": "It's healthy",
	}
}

func (s *service) Client() *mongo.Client {
	return s.db
}

func (s *service) Database() *mongo.Database {
	return s.db.Database(s.dbName)
}

func (s *service) Close(ctx context.Context) error {
	log.Info().Msg("Disconnecting from MongoDB")
	return s.db.Disconnect(ctx)
}
