package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"subgrid/internal/storage"
	"subgrid/pkg/model"
)

// FilterOptions controls compiler policy.
type FilterOptions struct {
	// IgnoreUnknownFields drops filter pairs whose field is neither a
	// special name nor a registered schema field. The permissiveness is
	// deliberate: table widgets send query params we do not serve.
	IgnoreUnknownFields bool
}

// DefaultFilterOptions returns the compiler policy used in production.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{IgnoreUnknownFields: true}
}

// truthy is the fixed token set parsed as boolean true for the insync filter.
var truthy = map[string]struct{}{
	"yes": {}, "y": {}, "ye": {}, "true": {}, "1": {}, "ja": {}, "insync": {},
}

var suffixOps = []struct {
	suffix string
	op     storage.CompareOp
}{
	{"_gte", storage.OpGte},
	{"_lte", storage.OpLte},
	{"_gt", storage.OpGt},
	{"_lt", storage.OpLt},
	{"_ne", storage.OpNe},
}

// CompileFilters consumes a flat filter-token list two at a time and compiles
// each (field, value) pair into one condition. A dangling trailing token is
// ignored. All conditions are ANDed by the store.
func CompileFilters(tokens []string, opts FilterOptions) (storage.Conditions, error) {
	var conds storage.Conditions
	for i := 0; i+1 < len(tokens); i += 2 {
		cond, ok, err := compilePair(tokens[i], tokens[i+1], opts)
		if err != nil {
			return nil, err
		}
		if ok {
			conds = append(conds, cond)
		}
	}
	return conds, nil
}

func compilePair(field, value string, opts FilterOptions) (storage.Condition, bool, error) {
	for _, s := range suffixOps {
		if strings.HasSuffix(field, s.suffix) {
			return compileSuffix(strings.TrimSuffix(field, s.suffix), s.op, value)
		}
	}

	switch field {
	case "insync":
		_, isTrue := truthy[strings.ToLower(value)]
		return storage.Condition{Entity: storage.EntitySubscription, Field: "insync", Op: storage.OpEq, Value: isTrue}, true, nil

	case "tags", "tag":
		return storage.Condition{Entity: storage.EntityProduct, Field: "tag", Op: storage.OpIn, Value: splitLower(value)}, true, nil

	case "product":
		return storage.Condition{Entity: storage.EntityProduct, Field: "name", Op: storage.OpIn, Value: splitLower(value)}, true, nil

	case "status", "statuses":
		return storage.Condition{Entity: storage.EntitySubscription, Field: "status", Op: storage.OpIn, Value: splitLower(value)}, true, nil

	case "organisation":
		id, err := uuid.Parse(value)
		if err != nil {
			return storage.Condition{}, false, model.BadRequestf("not a valid customer id, must be a UUID: %q", value)
		}
		return storage.Condition{Entity: storage.EntitySubscription, Field: "customer_id", Op: storage.OpEq, Value: id.String()}, true, nil

	case "tsv":
		return storage.Condition{Entity: storage.EntitySearch, Field: "tsv", Op: storage.OpMatch, Value: SanitizeTextQuery(value)}, true, nil
	}

	if _, ok := storage.SubscriptionField(field); ok {
		// Case-insensitive substring match over the field cast to text.
		// Wildcard characters in value keep their store-native meaning.
		return storage.Condition{Entity: storage.EntitySubscription, Field: field, Op: storage.OpContains, Value: value}, true, nil
	}

	if opts.IgnoreUnknownFields {
		return storage.Condition{}, false, nil
	}
	return storage.Condition{}, false, model.BadRequestf("unknown filter field: %q", field)
}

// compileSuffix builds a comparison condition for a suffix-operator filter.
// The field is not required to exist in the registry; an unknown field
// surfaces as a store-level error at execution time. For registered number
// and time fields the value is parsed up front and garbage is a client error.
func compileSuffix(field string, op storage.CompareOp, value string) (storage.Condition, bool, error) {
	typed := any(value)
	if spec, ok := storage.SubscriptionField(field); ok {
		switch spec.Kind {
		case storage.KindNumber:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return storage.Condition{}, false, model.BadRequestf("not a valid number for field %q: %q", field, value)
			}
			typed = n
		case storage.KindTime:
			t, err := parseTimeValue(value)
			if err != nil {
				return storage.Condition{}, false, model.BadRequestf("not a valid timestamp for field %q: %q", field, value)
			}
			typed = t
		}
	}
	return storage.Condition{Entity: storage.EntitySubscription, Field: field, Op: op, Value: typed}, true, nil
}

func parseTimeValue(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func splitLower(value string) []string {
	parts := strings.Split(value, "-")
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return parts
}
