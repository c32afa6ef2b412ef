package store

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
)

// Op оператор фильтра.
type Op string

const (
	// OpEq - равенство.
	OpEq Op = "=="
	// OpGte - больше или равно.
	OpGte Op = ">="
	// OpLte - меньше или равно.
	OpLte Op = "<="
)

// Filter - условие на поле документа. Вложенные поля задаются через точку.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq строит фильтр равенства.
func Eq(field string, value any) Filter { return Filter{Field: field, Op: OpEq, Value: value} }

// Gte строит фильтр «не меньше».
func Gte(field string, value any) Filter { return Filter{Field: field, Op: OpGte, Value: value} }

// Lte строит фильтр «не больше».
func Lte(field string, value any) Filter { return Filter{Field: field, Op: OpLte, Value: value} }

// Query - запрос к коллекции.
//
// Без OrderBy документы возвращаются в порядке идентификаторов. С OrderBy
// документы без этого поля в выборку не попадают. Limit <= 0 - без ограничения.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
}

// Apply фильтрует, сортирует и обрезает документы согласно запросу.
// Порядок входа должен быть упорядочен по идентификатору.
func (q Query) Apply(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.matches(d) {
			out = append(out, d)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c, ok := compare(lookup(out[i].Data, q.OrderBy), lookup(out[j].Data, q.OrderBy))
			if !ok {
				return false
			}
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (q Query) matches(d Document) bool {
	if q.OrderBy != "" && lookup(d.Data, q.OrderBy) == nil {
		return false
	}
	for _, f := range q.Filters {
		v := lookup(d.Data, f.Field)
		if v == nil {
			return false
		}
		c, ok := compare(v, f.Value)
		switch f.Op {
		case OpEq:
			if !(ok && c == 0) && !reflect.DeepEqual(v, f.Value) {
				return false
			}
		case OpGte:
			if !ok || c < 0 {
				return false
			}
		case OpLte:
			if !ok || c > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func lookup(data map[string]any, field string) any {
	var cur any = data
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// compare сравнивает два значения поля. Даты в любых представлениях
// сравниваются как моменты времени.
func compare(a, b any) (int, bool) {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), true
		}
	}
	if an, ok := toFloat(a); ok {
		if bn, ok := toFloat(b); ok {
			return cmpFloat(an, bn), true
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0, true
			case !ab:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	at, aok := daykey.From(a).Local(time.UTC)
	bt, bok := daykey.From(b).Local(time.UTC)
	if aok && bok {
		return at.Compare(bt), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
