package query

import (
	"strings"

	"subgrid/internal/storage"
)

// CompileSort consumes a flat sort-token list in (field, direction) pairs.
// The product and tag keys order by the joined product's name and tag fields;
// every other key addresses the primary record directly and is not validated
// here. Direction is descending only on a case-insensitive DESC, anything
// else sorts ascending.
func CompileSort(tokens []string) []storage.Order {
	if len(tokens) < 2 {
		return nil
	}

	var orders []storage.Order
	for i := 0; i+1 < len(tokens); i += 2 {
		field, direction := tokens[i], tokens[i+1]
		desc := strings.EqualFold(direction, "DESC")

		switch field {
		case "product":
			orders = append(orders, storage.Order{Entity: storage.EntityProduct, Field: "name", Descending: desc})
		case "tag":
			orders = append(orders, storage.Order{Entity: storage.EntityProduct, Field: "tag", Descending: desc})
		default:
			orders = append(orders, storage.Order{Entity: storage.EntitySubscription, Field: field, Descending: desc})
		}
	}
	return orders
}
