package field

import "fmt"

// #region role
// Role says how the evaluator treats a field.
type Role int

const (
	RoleInput Role = iota
	RoleOutput
	RoleIgnored
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	case RoleIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// ParseRole maps a script token to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "input":
		return RoleInput, nil
	case "output":
		return RoleOutput, nil
	case "ignored", "ignore":
		return RoleIgnored, nil
	}
	return RoleInput, fmt.Errorf("unknown field role %q", s)
}

// #endregion role

// #region action
// Action is the normalization applied to a field.
type Action int

const (
	ActionNormalize Action = iota // range
	ActionPassThrough
	ActionOneOf
	ActionEquilateral
	ActionSingleField
	ActionIgnore
)

var actionNames = map[string]Action{
	"normalize":    ActionNormalize,
	"range":        ActionNormalize,
	"pass-through": ActionPassThrough,
	"passthrough":  ActionPassThrough,
	"one-of":       ActionOneOf,
	"oneof":        ActionOneOf,
	"equilateral":  ActionEquilateral,
	"single-field": ActionSingleField,
	"singlefield":  ActionSingleField,
	"ignore":       ActionIgnore,
}

// ParseAction maps a script token to an Action. Empty means range normalization.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return ActionNormalize, nil
	}
	a, ok := actionNames[s]
	if !ok {
		return ActionNormalize, fmt.Errorf("unknown normalization action %q", s)
	}
	return a, nil
}

// IsClassify reports whether the action encodes a class rather than a number.
func (a Action) IsClassify() bool {
	return a == ActionOneOf || a == ActionEquilateral || a == ActionSingleField
}

// #endregion action

// #region class-item
// ClassItem is one named class of a categorical field.
type ClassItem struct {
	Code string
	Name string
}

// #endregion class-item

// #region vector
// Vector is a normalized numeric row.
type Vector []float64

// #endregion vector
