package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"subgrid/internal/storage"
)

func TestFieldName(t *testing.T) {
	assert.Equal(t, "status", fieldName(storage.EntitySubscription, "status"))
	assert.Equal(t, "_id", fieldName(storage.EntitySubscription, "subscription_id"))
	assert.Equal(t, "product.tag", fieldName(storage.EntityProduct, "tag"))
	assert.Equal(t, "search_text", fieldName(storage.EntitySearch, "tsv"))
}

func TestMakeFilter(t *testing.T) {
	tests := []struct {
		name  string
		conds storage.Conditions
		want  bson.M
	}{
		{"empty", nil, bson.M{}},
		{
			"single equals",
			storage.Conditions{{Entity: storage.EntitySubscription, Field: "insync", Op: storage.OpEq, Value: true}},
			bson.M{"insync": true},
		},
		{
			"membership on joined field",
			storage.Conditions{{Entity: storage.EntityProduct, Field: "tag", Op: storage.OpIn, Value: []string{"lp", "msp"}}},
			bson.M{"product.tag": bson.M{"$in": []string{"lp", "msp"}}},
		},
		{
			"comparison",
			storage.Conditions{{Entity: storage.EntitySubscription, Field: "note", Op: storage.OpGte, Value: "m"}},
			bson.M{"note": bson.M{"$gte": "m"}},
		},
		{
			"not equal",
			storage.Conditions{{Entity: storage.EntitySubscription, Field: "status", Op: storage.OpNe, Value: "active"}},
			bson.M{"status": bson.M{"$ne": "active"}},
		},
		{
			"text search",
			storage.Conditions{{Entity: storage.EntitySearch, Field: "tsv", Op: storage.OpMatch, Value: `fiber "status:active"`}},
			bson.M{"$text": bson.M{"$search": `fiber "status:active"`}},
		},
		{
			"multiple clauses wrapped in and",
			storage.Conditions{
				{Entity: storage.EntitySubscription, Field: "status", Op: storage.OpIn, Value: []string{"active"}},
				{Entity: storage.EntitySubscription, Field: "insync", Op: storage.OpEq, Value: true},
			},
			bson.M{"$and": []bson.M{
				{"status": bson.M{"$in": []string{"active"}}},
				{"insync": true},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, makeFilter(tt.conds))
		})
	}
}

func TestMakeClauseContains(t *testing.T) {
	got := makeClause(storage.Condition{
		Entity: storage.EntitySubscription,
		Field:  "description",
		Op:     storage.OpContains,
		Value:  "fib%link_",
	})

	re, ok := got["description"].(primitive.Regex)
	assert.True(t, ok)
	assert.Equal(t, "fib.*link.", re.Pattern)
	assert.Equal(t, "is", re.Options)
}

func TestLikePatternQuotesRegexMeta(t *testing.T) {
	assert.Equal(t, `a\.b\(c\)`, likePattern("a.b(c)"))
	assert.Equal(t, `\[x\]\+\$`, likePattern("[x]+$"))
}

func TestMakeSort(t *testing.T) {
	got := makeSort([]storage.Order{
		{Entity: storage.EntityProduct, Field: "name", Descending: true},
		{Entity: storage.EntitySubscription, Field: "start_date"},
	})

	want := bson.D{
		{Key: "product.name", Value: -1},
		{Key: "start_date", Value: 1},
	}
	assert.Equal(t, want, got)
}

func TestHasTextSearch(t *testing.T) {
	assert.False(t, hasTextSearch(nil))
	assert.False(t, hasTextSearch(storage.Conditions{
		{Entity: storage.EntitySubscription, Field: "status", Op: storage.OpEq, Value: "active"},
	}))
	assert.True(t, hasTextSearch(storage.Conditions{
		{Entity: storage.EntitySubscription, Field: "status", Op: storage.OpEq, Value: "active"},
		{Entity: storage.EntitySearch, Field: "tsv", Op: storage.OpMatch, Value: "fiber"},
	}))
}
