package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"harvest/internal/models"
)

const (
	mongoConnectTimeout = 10 * time.Second
	mongoPingTimeout    = 2 * time.Second
	mongoQueryTimeout   = 5 * time.Second
)

// MongoStore keeps the catalog in a MongoDB database: products, users and
// settings collections mirroring the flat-file document layout.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongoStore connects, pings and bootstraps indexes. A failure here is
// fatal to the caller: the process must not serve without its medium.
func OpenMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	s := &MongoStore{client: client, db: client.Database(dbName)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	_, err := s.db.Collection("products").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("updated_at_desc"),
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetName("username_unique").SetUnique(true),
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoPingTimeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func containsRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

func mongoProductFilter(f ProductFilter) bson.M {
	filter := bson.M{}

	if f.Search != "" {
		filter["$or"] = []bson.M{
			{"name": containsRegex(f.Search)},
			{"active_ingredient": containsRegex(f.Search)},
		}
	}

	switch f.Category {
	case "", CategoryAll:
	case CategoryPesticides:
		filter["category"] = bson.M{"$not": primitive.Regex{Pattern: fertilizersMarker, Options: "i"}}
	case CategoryFertilizers:
		filter["category"] = primitive.Regex{Pattern: fertilizersMarker, Options: "i"}
	default:
		filter["category"] = f.Category
	}

	return filter
}

func (s *MongoStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	sortKeys := bson.D{{Key: "updated_at", Value: -1}, {Key: "created_at", Value: -1}}
	if filter.SortByName {
		sortKeys = bson.D{{Key: "name", Value: 1}}
	}

	cursor, err := s.db.Collection("products").Find(ctx, mongoProductFilter(filter),
		options.Find().SetSort(sortKeys))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *MongoStore) GetProduct(ctx context.Context, id string) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	var p models.Product
	err := s.db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (s *MongoStore) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	if err := validateInput(in); err != nil {
		return models.Product{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	p := newProduct(primitive.NewObjectID().Hex(), in, time.Now().UTC())
	if _, err := s.db.Collection("products").InsertOne(ctx, p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (s *MongoStore) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.ExpirationDate != nil {
		set["expiration_date"] = *patch.ExpirationDate
	}
	if patch.ActiveIngredients != nil {
		set["active_ingredient"] = *patch.ActiveIngredients
	}
	if patch.PackageSize != nil {
		set["package_size"] = *patch.PackageSize
	}
	if patch.CartonSize != nil {
		set["carton_size"] = *patch.CartonSize
	}
	if patch.Origin != nil {
		set["origin"] = *patch.Origin
	}
	if patch.UnitType != nil {
		set["unit_type"] = *patch.UnitType
	}
	if patch.ImageURL != nil {
		set["image_url"] = *patch.ImageURL
	}

	result, err := s.db.Collection("products").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return models.Product{}, err
	}
	if result.MatchedCount == 0 {
		return models.Product{}, ErrNotFound
	}

	return s.GetProduct(ctx, id)
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id string) (models.Product, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	var removed models.Product
	err := s.db.Collection("products").FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&removed)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, err
	}
	return removed, true, nil
}

func (s *MongoStore) LastUpdated(ctx context.Context) (*time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	var p models.Product
	err := s.db.Collection("products").FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "created_at", Value: -1}})).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ts := p.Recency()
	return &ts, nil
}

type settingDoc struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

func (s *MongoStore) GetSetting(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	var doc settingDoc
	err := s.db.Collection("settings").FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.Value, nil
}

func (s *MongoStore) SetSetting(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	_, err := s.db.Collection("settings").UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) EnsureAdmin(ctx context.Context, username, password string) error {
	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	_, err = s.db.Collection("users").UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"password": hash, "role": models.RoleAdmin}},
		options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) VerifyAdmin(ctx context.Context, username, password string) (models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	var admin models.Admin
	err := s.db.Collection("users").FindOne(ctx, bson.M{"username": username}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Admin{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Admin{}, err
	}
	if !admin.ValidatePassword(password) {
		return models.Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}
