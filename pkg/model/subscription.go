package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Product describes the product a subscription was created from.
type Product struct {
	ProductID   uuid.UUID `json:"product_id" bson:"product_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Tag         string    `json:"tag" bson:"tag"`
	Status      string    `json:"status" bson:"status"`
	ProductType string    `json:"product_type" bson:"product_type"`
}

// Subscription is the primary record served by the listing API.
//
// SearchText is a precomputed full-text projection of the record, maintained
// by whoever writes the record. It is never serialized to API consumers.
type Subscription struct {
	SubscriptionID uuid.UUID  `json:"subscription_id" bson:"_id"`
	CustomerID     uuid.UUID  `json:"customer_id" bson:"customer_id"`
	Description    string     `json:"description" bson:"description"`
	Status         string     `json:"status" bson:"status"`
	InSync         bool       `json:"insync" bson:"insync"`
	StartDate      *time.Time `json:"start_date" bson:"start_date"`
	EndDate        *time.Time `json:"end_date" bson:"end_date"`
	Note           string     `json:"note" bson:"note"`
	Product        Product    `json:"product" bson:"product"`
	SearchText     string     `json:"-" bson:"search_text"`
}

// AsTree returns the serialized form of the subscription as a nested
// mapping/sequence tree, suitable for path enumeration and path updates.
func (s *Subscription) AsTree() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// FromTree rebuilds a subscription from its serialized tree form.
// Fields absent from the tree keep their zero values.
func FromTree(tree map[string]any) (*Subscription, error) {
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var sub Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
