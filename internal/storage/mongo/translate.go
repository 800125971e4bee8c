package mongo

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"subgrid/internal/storage"
)

// fieldName maps a registry field reference to its document path. Product
// fields live on the embedded product document; the search projection is a
// single text-indexed field.
func fieldName(entity storage.Entity, field string) string {
	switch entity {
	case storage.EntityProduct:
		return "product." + field
	case storage.EntitySearch:
		return "search_text"
	default:
		if field == "subscription_id" {
			return "_id"
		}
		return field
	}
}

// makeFilter translates a conjunction of conditions into a bson filter.
// Clauses are wrapped in $and so repeated fields do not clobber each other.
func makeFilter(conds storage.Conditions) bson.M {
	clauses := make([]bson.M, 0, len(conds))
	for _, c := range conds {
		clauses = append(clauses, makeClause(c))
	}
	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}

func makeClause(c storage.Condition) bson.M {
	name := fieldName(c.Entity, c.Field)
	switch c.Op {
	case storage.OpEq:
		return bson.M{name: c.Value}
	case storage.OpNe:
		return bson.M{name: bson.M{"$ne": c.Value}}
	case storage.OpGt:
		return bson.M{name: bson.M{"$gt": c.Value}}
	case storage.OpGte:
		return bson.M{name: bson.M{"$gte": c.Value}}
	case storage.OpLt:
		return bson.M{name: bson.M{"$lt": c.Value}}
	case storage.OpLte:
		return bson.M{name: bson.M{"$lte": c.Value}}
	case storage.OpIn:
		return bson.M{name: bson.M{"$in": c.Value}}
	case storage.OpContains:
		pattern, _ := c.Value.(string)
		return bson.M{name: primitive.Regex{Pattern: likePattern(pattern), Options: "is"}}
	case storage.OpMatch:
		return bson.M{"$text": bson.M{"$search": c.Value}}
	default:
		return bson.M{}
	}
}

// likePattern rewrites SQL LIKE wildcards into a regex: % matches any run of
// characters, _ a single one, everything else literally.
func likePattern(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexQuote(r))
		}
	}
	return b.String()
}

func regexQuote(r rune) string {
	if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
		return `\` + string(r)
	}
	return string(r)
}

func makeSort(orders []storage.Order) bson.D {
	sort := make(bson.D, 0, len(orders))
	for _, o := range orders {
		dir := 1
		if o.Descending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: fieldName(o.Entity, o.Field), Value: dir})
	}
	return sort
}
