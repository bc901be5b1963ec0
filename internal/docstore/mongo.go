package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gophora/engine/internal/model"
)

// MongoStore is the production Store. The original per-user subcollections
// are flattened into one personalizedJobs collection keyed by userId.
type MongoStore struct {
	client       *mongo.Client
	users        *mongo.Collection
	general      *mongo.Collection
	personalized *mongo.Collection
}

// personalizedDoc wraps a posting with its owning user.
type personalizedDoc struct {
	UserID           string `bson:"userId"`
	model.JobPosting `bson:",inline"`
}

// NewMongoStore connects to MongoDB and ensures the dedup indexes exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:       client,
		users:        db.Collection("users"),
		general:      db.Collection("generalJobs"),
		personalized: db.Collection("personalizedJobs"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.general.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sourceLink", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating general job index: %w", err)
	}
	_, err = s.personalized.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "jobTitle", Value: 1},
			{Key: "company", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating personalized job index: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, userID string) (*model.UserProfile, error) {
	var u model.UserProfile
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return &u, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var u model.UserProfile
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return &u, nil
}

func (s *MongoStore) PutUser(ctx context.Context, profile model.UserProfile) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", profile.UserID, err)
	}
	return nil
}

func (s *MongoStore) ListUserIDs(ctx context.Context) ([]string, error) {
	cur, err := s.users.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding user id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

func (s *MongoStore) AddGeneralJob(ctx context.Context, job model.JobPosting) (string, error) {
	stamp(&job)
	job.ID = primitive.NewObjectID().Hex()
	if _, err := s.general.InsertOne(ctx, job); err != nil {
		return "", fmt.Errorf("inserting general job: %w", err)
	}
	return job.ID, nil
}

func (s *MongoStore) HasGeneralJob(ctx context.Context, sourceLink string) (bool, error) {
	n, err := s.general.CountDocuments(ctx, bson.M{"sourceLink": sourceLink},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("checking general job: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) ListGeneralJobs(ctx context.Context, opts ListOptions) ([]model.JobPosting, error) {
	filter := bson.M{}
	if opts.ActiveOnly {
		filter["isActive"] = true
	}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}

	cur, err := s.general.Find(ctx, filter, findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("listing general jobs: %w", err)
	}
	defer cur.Close(ctx)

	var jobs []model.JobPosting
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decoding general jobs: %w", err)
	}
	return jobs, nil
}

func (s *MongoStore) DeactivateGeneralJobs(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.general.UpdateMany(ctx,
		bson.M{"isActive": true, "scrapedAt": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return 0, fmt.Errorf("deactivating general jobs: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func (s *MongoStore) AddPersonalizedJob(ctx context.Context, userID string, job model.JobPosting) (string, error) {
	stamp(&job)
	job.ID = primitive.NewObjectID().Hex()
	doc := personalizedDoc{UserID: userID, JobPosting: job}
	if _, err := s.personalized.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("inserting personalized job: %w", err)
	}
	return job.ID, nil
}

func (s *MongoStore) HasPersonalizedJob(ctx context.Context, userID, title, company string) (bool, error) {
	n, err := s.personalized.CountDocuments(ctx,
		bson.M{"userId": userID, "jobTitle": title, "company": company},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("checking personalized job: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) ListPersonalizedJobs(ctx context.Context, userID string, opts ListOptions) ([]model.JobPosting, error) {
	filter := bson.M{"userId": userID}
	if opts.ActiveOnly {
		filter["isActive"] = true
	}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}

	cur, err := s.personalized.Find(ctx, filter, findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("listing personalized jobs: %w", err)
	}
	defer cur.Close(ctx)

	var jobs []model.JobPosting
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decoding personalized jobs: %w", err)
	}
	return jobs, nil
}

func (s *MongoStore) DeactivatePersonalizedJobs(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.personalized.UpdateMany(ctx,
		bson.M{"isActive": true, "scrapedAt": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return 0, fmt.Errorf("deactivating personalized jobs: %w", err)
	}
	return int(res.ModifiedCount), nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func findOptions(opts ListOptions) *options.FindOptions {
	fo := options.Find().SetSort(bson.D{{Key: "scrapedAt", Value: -1}})
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		fo.SetSkip(int64(opts.Offset))
	}
	return fo
}
