package views

import (
	"strconv"
	"strings"
	"time"

	"github.com/nhle/planhub/internal/model"
)

// CondOp is a saved-filter comparison operator.
type CondOp string

const (
	OpEq       CondOp = "eq"
	OpNeq      CondOp = "neq"
	OpLt       CondOp = "lt"
	OpLte      CondOp = "lte"
	OpGt       CondOp = "gt"
	OpGte      CondOp = "gte"
	OpContains CondOp = "contains"
)

// Condition is one field/operator/value predicate of a saved filter.
type Condition struct {
	Field string `json:"field"`
	Op    CondOp `json:"op"`
	Value string `json:"value"`
}

// SavedFilter is a conjunction of conditions: an entity matches when
// every condition holds.
type SavedFilter struct {
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
}

// Resolver maps a field name to its value on an entity. The second
// return is false for unknown fields, which fail the condition.
type Resolver[E any] func(entity E, field string) (any, bool)

// Matches reports whether the entity satisfies every condition.
func Matches[E any](entity E, f SavedFilter, resolve Resolver[E]) bool {
	for _, c := range f.Conditions {
		val, ok := resolve(entity, c.Field)
		if !ok {
			return false
		}
		if !evalCondition(val, c) {
			return false
		}
	}
	return true
}

// Apply filters entities down to those matching the saved filter,
// preserving order.
func Apply[E any](entities []E, f SavedFilter, resolve Resolver[E]) []E {
	var out []E
	for _, e := range entities {
		if Matches(e, f, resolve) {
			out = append(out, e)
		}
	}
	return out
}

// TaskField resolves the filterable fields of a task.
func TaskField(t model.Task, field string) (any, bool) {
	switch field {
	case "title":
		return t.Title, true
	case "description":
		return t.Description, true
	case "status":
		return t.Status, true
	case "priority":
		return t.Priority, true
	case "project_id":
		if t.ProjectID == nil {
			return "", true
		}
		return *t.ProjectID, true
	case "workspace_id":
		return t.WorkspaceID, true
	case "due_date":
		if t.DueDate == nil {
			return nil, true
		}
		return *t.DueDate, true
	default:
		return nil, false
	}
}

// evalCondition compares a resolved field value against the
// condition's string value, coercing by the field's dynamic type.
func evalCondition(val any, c Condition) bool {
	switch v := val.(type) {
	case nil:
		// Only equality against the empty string matches an unset field.
		return c.Op == OpEq && c.Value == ""
	case string:
		return compareString(v, c)
	case int:
		want, err := strconv.Atoi(c.Value)
		if err != nil {
			return false
		}
		return compareOrdered(v, want, c.Op)
	case float64:
		want, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return false
		}
		return compareOrdered(v, want, c.Op)
	case bool:
		want, err := strconv.ParseBool(c.Value)
		if err != nil {
			return false
		}
		if c.Op == OpNeq {
			return v != want
		}
		return c.Op == OpEq && v == want
	case time.Time:
		want, err := parseTimeValue(c.Value)
		if err != nil {
			return false
		}
		switch c.Op {
		case OpEq:
			return v.Equal(want)
		case OpNeq:
			return !v.Equal(want)
		case OpLt:
			return v.Before(want)
		case OpLte:
			return !v.After(want)
		case OpGt:
			return v.After(want)
		case OpGte:
			return !v.Before(want)
		default:
			return false
		}
	default:
		return false
	}
}

func compareString(v string, c Condition) bool {
	switch c.Op {
	case OpEq:
		return v == c.Value
	case OpNeq:
		return v != c.Value
	case OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case OpLt:
		return v < c.Value
	case OpLte:
		return v <= c.Value
	case OpGt:
		return v > c.Value
	case OpGte:
		return v >= c.Value
	default:
		return false
	}
}

func compareOrdered[T int | float64](v, want T, op CondOp) bool {
	switch op {
	case OpEq:
		return v == want
	case OpNeq:
		return v != want
	case OpLt:
		return v < want
	case OpLte:
		return v <= want
	case OpGt:
		return v > want
	case OpGte:
		return v >= want
	default:
		return false
	}
}

// parseTimeValue accepts RFC 3339 instants or bare calendar days.
func parseTimeValue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(model.CheckinDateLayout, s)
}
