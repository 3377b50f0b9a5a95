package model

// Kind identifies an entity type managed by the sync engine.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
	KindGoal    Kind = "goal"
	KindHabit   Kind = "habit"
	KindCheckin Kind = "checkin"
)

// LocalIDPrefix marks identifiers synthesized for optimistic inserts
// before the server has assigned a canonical id.
const LocalIDPrefix = "local-"

// IsLocalID reports whether id is a temporary client-side identifier.
func IsLocalID(id string) bool {
	return len(id) > len(LocalIDPrefix) && id[:len(LocalIDPrefix)] == LocalIDPrefix
}
