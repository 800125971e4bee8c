package storage

import (
	"subgrid/pkg/model"
)

// FieldKind declares how string filter values compare against a field:
// lexically for text and uuid, numerically for number, chronologically for
// time. Values for number and time fields are parsed at compile time and an
// unparsable value is a client error.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindTime
	KindBool
	KindUUID
)

// FieldSpec is one entry of the static field registry: the wire name of a
// field, its kind and an accessor reading it off a record.
type FieldSpec struct {
	Name  string
	Kind  FieldKind
	Value func(*model.Subscription) any
}

// The registry is declared statically per entity instead of resolving field
// names against a live schema at call time. Any name not listed here is
// unknown to the query layer.
var subscriptionFields = map[string]FieldSpec{
	"subscription_id": {Name: "subscription_id", Kind: KindUUID, Value: func(s *model.Subscription) any { return s.SubscriptionID.String() }},
	"customer_id":     {Name: "customer_id", Kind: KindUUID, Value: func(s *model.Subscription) any { return s.CustomerID.String() }},
	"description":     {Name: "description", Kind: KindText, Value: func(s *model.Subscription) any { return s.Description }},
	"status":          {Name: "status", Kind: KindText, Value: func(s *model.Subscription) any { return s.Status }},
	"insync":          {Name: "insync", Kind: KindBool, Value: func(s *model.Subscription) any { return s.InSync }},
	"start_date":      {Name: "start_date", Kind: KindTime, Value: func(s *model.Subscription) any { return s.StartDate }},
	"end_date":        {Name: "end_date", Kind: KindTime, Value: func(s *model.Subscription) any { return s.EndDate }},
	"note":            {Name: "note", Kind: KindText, Value: func(s *model.Subscription) any { return s.Note }},
}

var productFields = map[string]FieldSpec{
	"name":         {Name: "name", Kind: KindText, Value: func(s *model.Subscription) any { return s.Product.Name }},
	"description":  {Name: "description", Kind: KindText, Value: func(s *model.Subscription) any { return s.Product.Description }},
	"tag":          {Name: "tag", Kind: KindText, Value: func(s *model.Subscription) any { return s.Product.Tag }},
	"status":       {Name: "status", Kind: KindText, Value: func(s *model.Subscription) any { return s.Product.Status }},
	"product_type": {Name: "product_type", Kind: KindText, Value: func(s *model.Subscription) any { return s.Product.ProductType }},
}

var searchFields = map[string]FieldSpec{
	"tsv": {Name: "tsv", Kind: KindText, Value: func(s *model.Subscription) any { return s.SearchText }},
}

// LookupField resolves a field name within an entity's registry.
func LookupField(entity Entity, name string) (FieldSpec, bool) {
	switch entity {
	case EntitySubscription:
		spec, ok := subscriptionFields[name]
		return spec, ok
	case EntityProduct:
		spec, ok := productFields[name]
		return spec, ok
	case EntitySearch:
		spec, ok := searchFields[name]
		return spec, ok
	}
	return FieldSpec{}, false
}

// SubscriptionField resolves a field of the primary record.
func SubscriptionField(name string) (FieldSpec, bool) {
	return LookupField(EntitySubscription, name)
}
