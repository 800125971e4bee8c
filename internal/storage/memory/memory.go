// Package memory provides an in-memory SubscriptionStore used in standalone
// mode and by tests. Predicates are evaluated through the static field
// registry so its semantics stay aligned with the mongo backend.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	shlex "github.com/anmitsu/go-shlex"

	"subgrid/internal/storage"
	"subgrid/pkg/model"
)

type Store struct {
	mu   sync.RWMutex
	subs map[string]model.Subscription
}

func NewStore() *Store {
	return &Store{subs: make(map[string]model.Subscription)}
}

func (s *Store) Get(ctx context.Context, id string) (*model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &sub, nil
}

func (s *Store) Upsert(ctx context.Context, sub *model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.SubscriptionID.String()] = *sub
	return nil
}

func (s *Store) Count(ctx context.Context, conds storage.Conditions) (int, error) {
	matched, err := s.filter(conds)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (s *Store) Select(ctx context.Context, plan storage.Plan) ([]model.Subscription, error) {
	matched, err := s.filter(plan.Conditions)
	if err != nil {
		return nil, err
	}
	if err := sortSubscriptions(matched, plan.Orders); err != nil {
		return nil, err
	}
	if plan.Range != nil {
		matched = slicePage(matched, plan.Range.Start, plan.Range.End)
	}
	return matched, nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

func (s *Store) filter(conds storage.Conditions) ([]model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Subscription
	for _, sub := range s.subs {
		ok, err := matchesAll(&sub, conds)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, sub)
		}
	}
	return out, nil
}

func matchesAll(sub *model.Subscription, conds storage.Conditions) (bool, error) {
	for _, c := range conds {
		ok, err := matches(sub, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matches(sub *model.Subscription, c storage.Condition) (bool, error) {
	spec, ok := storage.LookupField(c.Entity, c.Field)
	if !ok {
		return false, fmt.Errorf("%w: %s.%s", model.ErrUnknownField, c.Entity, c.Field)
	}
	val := spec.Value(sub)

	switch c.Op {
	case storage.OpEq:
		return valuesEqual(val, c.Value), nil
	case storage.OpNe:
		return !valuesEqual(val, c.Value), nil
	case storage.OpGt, storage.OpGte, storage.OpLt, storage.OpLte:
		cmp, ok := compareValues(val, c.Value, spec.Kind)
		if !ok {
			return false, nil
		}
		switch c.Op {
		case storage.OpGt:
			return cmp > 0, nil
		case storage.OpGte:
			return cmp >= 0, nil
		case storage.OpLt:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case storage.OpIn:
		set, _ := c.Value.([]string)
		text, _ := val.(string)
		text = strings.ToLower(text)
		for _, candidate := range set {
			if text == candidate {
				return true, nil
			}
		}
		return false, nil
	case storage.OpContains:
		pattern, _ := c.Value.(string)
		return likeMatch(fieldText(val), pattern), nil
	case storage.OpMatch:
		q, _ := c.Value.(string)
		text, _ := val.(string)
		return textMatch(text, q), nil
	default:
		return false, fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func valuesEqual(a, b any) bool {
	switch bv := b.(type) {
	case bool:
		av, ok := a.(bool)
		return ok && av == bv
	case string:
		av, ok := a.(string)
		return ok && av == bv
	case time.Time:
		av, ok := a.(*time.Time)
		return ok && av != nil && av.Equal(bv)
	case float64:
		av, ok := toFloat(a)
		return ok && av == bv
	default:
		return false
	}
}

// compareValues orders a stored field value against a compiled filter value.
// A nil or type-mismatched stored value compares as no match, mirroring SQL
// NULL comparison semantics.
func compareValues(stored, filter any, kind storage.FieldKind) (int, bool) {
	switch kind {
	case storage.KindTime:
		t, ok := stored.(*time.Time)
		if !ok || t == nil {
			return 0, false
		}
		ft, ok := filter.(time.Time)
		if !ok {
			return 0, false
		}
		return t.Compare(ft), true
	case storage.KindNumber:
		sv, ok1 := toFloat(stored)
		fv, ok2 := toFloat(filter)
		if !ok1 || !ok2 {
			return 0, false
		}
		switch {
		case sv < fv:
			return -1, true
		case sv > fv:
			return 1, true
		default:
			return 0, true
		}
	default:
		sv, ok1 := stored.(string)
		fv, ok2 := filter.(string)
		if !ok1 || !ok2 {
			return 0, false
		}
		return strings.Compare(sv, fv), true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// fieldText renders a stored field value as text so substring filters can
// match against any field kind.
func fieldText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// likeMatch implements case-insensitive %value% semantics. The SQL wildcards
// keep their meaning: % matches any run of characters, _ a single one.
func likeMatch(text, pattern string) bool {
	var b strings.Builder
	b.WriteString("(?is)")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// textMatch is a simplified full-text operator: every token of the sanitized
// query, quoted phrases included, must occur in the search projection.
func textMatch(text, q string) bool {
	tokens, err := shlex.Split(q, true)
	if err != nil {
		tokens = strings.Fields(q)
	}
	haystack := strings.ToLower(text)
	for _, token := range tokens {
		if !strings.Contains(haystack, strings.ToLower(token)) {
			return false
		}
	}
	return true
}

func sortSubscriptions(subs []model.Subscription, orders []storage.Order) error {
	if len(orders) == 0 {
		// Deterministic default order.
		sort.Slice(subs, func(i, j int) bool {
			return subs[i].SubscriptionID.String() < subs[j].SubscriptionID.String()
		})
		return nil
	}

	specs := make([]storage.FieldSpec, len(orders))
	for i, o := range orders {
		spec, ok := storage.LookupField(o.Entity, o.Field)
		if !ok {
			return fmt.Errorf("%w: cannot sort by %s.%s", model.ErrUnknownField, o.Entity, o.Field)
		}
		specs[i] = spec
	}

	sort.SliceStable(subs, func(i, j int) bool {
		for k, o := range orders {
			cmp := orderCompare(specs[k].Value(&subs[i]), specs[k].Value(&subs[j]), specs[k].Kind)
			if cmp == 0 {
				continue
			}
			if o.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return nil
}

func orderCompare(a, b any, kind storage.FieldKind) int {
	switch kind {
	case storage.KindTime:
		at, _ := a.(*time.Time)
		bt, _ := b.(*time.Time)
		switch {
		case at == nil && bt == nil:
			return 0
		case at == nil:
			return -1
		case bt == nil:
			return 1
		default:
			return at.Compare(*bt)
		}
	case storage.KindNumber:
		av, _ := toFloat(a)
		bv, _ := toFloat(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case storage.KindBool:
		av, _ := a.(bool)
		bv, _ := b.(bool)
		switch {
		case av == bv:
			return 0
		case bv:
			return -1
		default:
			return 1
		}
	default:
		av, _ := a.(string)
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	}
}

func slicePage(subs []model.Subscription, start, end int) []model.Subscription {
	if start >= len(subs) {
		return nil
	}
	if end > len(subs) {
		end = len(subs)
	}
	return subs[start:end]
}
