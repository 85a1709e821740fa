package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores records in a MongoDB database, one collection per name.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(client *mongo.Client, dbName string) *Mongo {
	return &Mongo{client: client, db: client.Database(dbName)}
}

func (m *Mongo) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	doc := bson.M{}
	for k, v := range data {
		doc[k] = v
	}
	id := primitive.NewObjectID()
	doc["_id"] = id
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("mongo insert %s: %w", collection, err)
	}
	return id.Hex(), nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Record{}, ErrNotFound
	}
	var doc bson.M
	err = m.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("mongo find %s/%s: %w", collection, id, err)
	}
	return fromBSON(doc), nil
}

func (m *Mongo) Query(ctx context.Context, collection string, q Query) ([]Record, error) {
	filter := bson.D{}
	for _, w := range q.Where {
		filter = append(filter, bson.E{Key: w.Field, Value: w.Value})
	}
	opts := options.Find()
	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, o := range q.OrderBy {
			dir := 1
			if o.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: o.Field, Value: dir})
		}
		opts.SetSort(sort)
	}

	cursor, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode %s: %w", collection, err)
	}
	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromBSON(d))
	}
	return out, nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	result, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("mongo update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("mongo delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

// fromBSON turns a decoded document into a Record, converting driver types
// into the plain Go values the rest of the code expects.
func fromBSON(doc bson.M) Record {
	rec := Record{Data: make(map[string]any, len(doc))}
	for k, v := range doc {
		if k == "_id" {
			if oid, ok := v.(primitive.ObjectID); ok {
				rec.ID = oid.Hex()
			} else {
				rec.ID = fmt.Sprint(v)
			}
			continue
		}
		if dt, ok := v.(primitive.DateTime); ok {
			rec.Data[k] = dt.Time().UTC()
			continue
		}
		rec.Data[k] = v
	}
	return rec
}
