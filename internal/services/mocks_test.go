package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"galleria/internal/models"
	"galleria/internal/storage"
)

// captureLog redirects the global logger into a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

type MockCollectionRepository struct{ mock.Mock }

func (m *MockCollectionRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCollectionRepository) Create(ctx context.Context, col *models.Collection) (*models.Collection, error) {
	args := m.Called(ctx, col)
	if fn, ok := args.Get(0).(func(*models.Collection) *models.Collection); ok {
		return fn(col), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) FindBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) List(ctx context.Context) ([]models.Collection, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) Search(ctx context.Context, filter models.SearchFilter) ([]models.Collection, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Collection, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.DeleteResult), args.Error(1)
}

type MockGalleryRepository struct{ mock.Mock }

func (m *MockGalleryRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGalleryRepository) Create(ctx context.Context, g *models.Gallery) (*models.Gallery, error) {
	args := m.Called(ctx, g)
	if fn, ok := args.Get(0).(func(*models.Gallery) *models.Gallery); ok {
		return fn(g), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gallery), args.Error(1)
}

func (m *MockGalleryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Gallery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gallery), args.Error(1)
}

func (m *MockGalleryRepository) FindBySlug(ctx context.Context, collectionID primitive.ObjectID, slug string) (*models.Gallery, error) {
	args := m.Called(ctx, collectionID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gallery), args.Error(1)
}

func (m *MockGalleryRepository) FindByCollection(ctx context.Context, id primitive.ObjectID) ([]models.Gallery, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]models.Gallery), args.Error(1)
}

func (m *MockGalleryRepository) List(ctx context.Context, filter models.GalleryFilter) ([]models.GalleryView, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.GalleryView), args.Error(1)
}

func (m *MockGalleryRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Gallery, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gallery), args.Error(1)
}

func (m *MockGalleryRepository) Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.DeleteResult), args.Error(1)
}

func (m *MockGalleryRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockPhotoRepository struct{ mock.Mock }

func (m *MockPhotoRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPhotoRepository) Create(ctx context.Context, p *models.Photo) (*models.Photo, error) {
	args := m.Called(ctx, p)
	if fn, ok := args.Get(0).(func(*models.Photo) *models.Photo); ok {
		return fn(p), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Photo), args.Error(1)
}

func (m *MockPhotoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Photo), args.Error(1)
}

func (m *MockPhotoRepository) List(ctx context.Context, filter models.PhotoFilter) ([]models.PhotoView, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.PhotoView), args.Error(1)
}

func (m *MockPhotoRepository) Paginate(ctx context.Context, filter models.PhotoFilter, page, limit int64) (*models.Page[models.PhotoView], error) {
	args := m.Called(ctx, filter, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.PhotoView]), args.Error(1)
}

func (m *MockPhotoRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Photo, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Photo), args.Error(1)
}

func (m *MockPhotoRepository) Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.DeleteResult), args.Error(1)
}

func (m *MockPhotoRepository) DeleteByGalleries(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockAdminRepository struct{ mock.Mock }

func (m *MockAdminRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAdminRepository) Create(ctx context.Context, a *models.Admin) (*models.Admin, error) {
	args := m.Called(ctx, a)
	if fn, ok := args.Get(0).(func(*models.Admin) *models.Admin); ok {
		return fn(a), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

type MockRevocationStore struct{ mock.Mock }

func (m *MockRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	return m.Called(ctx, token, expiresAt).Error(0)
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

type MockImageStore struct{ mock.Mock }

func (m *MockImageStore) Upload(ctx context.Context, file storage.File, folder string) (models.Image, error) {
	args := m.Called(ctx, file, folder)
	return args.Get(0).(models.Image), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, remoteID string) error {
	return m.Called(ctx, remoteID).Error(0)
}

func (m *MockImageStore) DeleteFolder(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}
