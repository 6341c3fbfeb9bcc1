package repositories

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"galleria/internal/database"
	"galleria/internal/models"
	"galleria/internal/utils"
)

type AdminRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindByID(ctx context.Context, adminID primitive.ObjectID) (*models.Admin, error)
}

type adminRepository struct {
	db database.Service
}

func NewAdminRepository(db database.Service) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) collection() *mongo.Collection {
	return r.db.Database().Collection(database.AdminsCollection)
}

func (r *adminRepository) EnsureIndexes(ctx context.Context) error {
	return utils.CreateUniqueIndex(ctx, r.collection(), bson.D{{Key: "email", Value: 1}}, "email", nil)
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	timer := utils.NewQueryTimer("create", "admin")
	defer timer.Done()

	res, err := r.collection().InsertOne(ctx, admin)
	if err != nil {
		timer.Fail()
		log.Error().Err(err).Str("email", admin.Email).Msg("Failed to insert admin into database")
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		admin.ID = id
	}
	return admin, nil
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	timer := utils.NewQueryTimer("findByEmail", "admin")
	defer timer.Done()

	var admin models.Admin
	err := r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			timer.Fail()
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByID(ctx context.Context, adminID primitive.ObjectID) (*models.Admin, error) {
	timer := utils.NewQueryTimer("findByID", "admin")
	defer timer.Done()

	var admin models.Admin
	err := r.collection().FindOne(ctx, bson.M{"_id": adminID}).Decode(&admin)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			timer.Fail()
		}
		return nil, err // Can be mongo.ErrNoDocuments
	}
	return &admin, nil
}
