// Package mongo implements SubscriptionStore on top of a MongoDB collection.
// The compiled plan translates to a bson filter, a sort document and
// skip/limit; totals come from CountDocuments over the unsliced filter.
package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"subgrid/internal/storage"
	"subgrid/pkg/model"
)

const collectionName = "subscriptions"

// caseInsensitive makes $in and equality comparisons case-insensitive,
// matching the lower-cased comparison sets built by the filter compiler.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewStore(ctx context.Context, uri string, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

// EnsureIndexes creates the text index backing the full-text operator and
// the secondary indexes used by the common filters.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "search_text", Value: "text"}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "product.tag", Value: 1}}},
	}
	_, err := s.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.Subscription, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, model.BadRequestf("not a valid subscription id, must be a UUID: %q", id)
	}

	var sub model.Subscription
	err = s.coll.FindOne(ctx, bson.M{"_id": uid}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) Upsert(ctx context.Context, sub *model.Subscription) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": sub.SubscriptionID},
		sub,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *Store) Count(ctx context.Context, conds storage.Conditions) (int, error) {
	opts := options.Count()
	if !hasTextSearch(conds) {
		// $text does not combine with a custom collation.
		opts.SetCollation(caseInsensitive)
	}
	n, err := s.coll.CountDocuments(ctx, makeFilter(conds), opts)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) Select(ctx context.Context, plan storage.Plan) ([]model.Subscription, error) {
	opts := options.Find()
	if !hasTextSearch(plan.Conditions) {
		opts.SetCollation(caseInsensitive)
	}
	if len(plan.Orders) > 0 {
		opts.SetSort(makeSort(plan.Orders))
	}
	if plan.Range != nil {
		opts.SetSkip(int64(plan.Range.Start))
		opts.SetLimit(int64(plan.Range.End - plan.Range.Start))
	}

	cursor, err := s.coll.Find(ctx, makeFilter(plan.Conditions), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []model.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func hasTextSearch(conds storage.Conditions) bool {
	for _, c := range conds {
		if c.Op == storage.OpMatch {
			return true
		}
	}
	return false
}
