package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFromBSON_ConvertsDriverTypes(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2025, 5, 4, 3, 2, 1, 0, time.UTC)

	rec := fromBSON(bson.M{
		"_id":       oid,
		"title":     "hello",
		"createdAt": primitive.NewDateTimeFromTime(created),
	})

	assert.Equal(t, oid.Hex(), rec.ID)
	assert.Equal(t, "hello", rec.Data["title"])
	assert.Equal(t, created, rec.Data["createdAt"])
	assert.NotContains(t, rec.Data, "_id")
}
