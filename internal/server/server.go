package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"galleria/internal/config"
	"galleria/internal/database"
	"galleria/internal/middlewares"
	"galleria/internal/repositories"
	"galleria/internal/services"
	"galleria/internal/storage"
)

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	db         database.Service
	gcs        *gcs.Client
	redis      *redis.Client
	limiter    *middlewares.RateLimiter

	authService       services.AuthService
	collectionService services.CollectionService
	galleryService    services.GalleryService
	photoService      services.PhotoService
	lifecycleService  services.LifecycleService
}

// NewServer connects every backend named in cfg and wires the services.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.New(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

	gcsClient, err := storage.NewGCSClient(ctx, cfg.Storage.CredentialsFile)
	if err != nil {
		_ = db.Close(context.Background())
		return nil, err
	}
	images := storage.NewGCSImageStore(gcsClient, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)

	s := &Server{cfg: cfg, db: db, gcs: gcsClient}

	var revocations repositories.RevocationStore
	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.closeBackends(context.Background())
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Token revocations stored in Redis")
		revocations = repositories.NewRedisRevocationStore(s.redis)
	} else {
		log.Info().Msg("Token revocations stored in MongoDB")
		revocations = repositories.NewMongoRevocationStore(db)
	}

	adminRepo := repositories.NewAdminRepository(db)
	collectionRepo := repositories.NewCollectionRepository(db)
	galleryRepo := repositories.NewGalleryRepository(db)
	photoRepo := repositories.NewPhotoRepository(db)

	if err := repositories.EnsureIndexes(ctx, adminRepo, collectionRepo, galleryRepo, photoRepo, revocations); err != nil {
		s.closeBackends(context.Background())
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	s.authService = services.NewAuthService(adminRepo, revocations, cfg.Auth)
	s.collectionService = services.NewCollectionService(collectionRepo, images)
	s.galleryService = services.NewGalleryService(galleryRepo, collectionRepo, images)
	s.photoService = services.NewPhotoService(photoRepo, galleryRepo, collectionRepo, images)
	s.lifecycleService = services.NewLifecycleService(collectionRepo, galleryRepo, photoRepo, images)
	s.limiter = middlewares.NewRateLimiter(cfg.RateLimit)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s, nil
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start(ctx context.Context) error {
	go s.limiter.Cleanup(ctx)

	log.Info().Int("port", s.cfg.Port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}
	s.closeBackends(ctx)

	log.Info().Msg("Server exiting")
	done <- true
}

func (s *Server) closeBackends(ctx context.Context) {
	if err := s.gcs.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close storage client")
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}
	if err := s.db.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
	}
}
