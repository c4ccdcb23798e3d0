package models

// ReferenceKind names an entity set that leads point at.
type ReferenceKind string

const (
	ReferenceAccount   ReferenceKind = "account"
	ReferenceDirection ReferenceKind = "direction"
)

// UnknownAccountLabel is shown for leads whose owning account cannot be resolved.
// Unresolved directions are reported as a null label instead.
const UnknownAccountLabel = "Unknown"

// ReferenceEntity is an id/label pair of an account or a direction.
type ReferenceEntity struct {
	ID    string `db:"id" json:"id"`
	Label string `db:"label" json:"label"`
}
