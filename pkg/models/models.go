package models

// RelationshipStatus is the follow relationship between the signed-in account and a reposter
type RelationshipStatus string

const (
	NotFollowing RelationshipStatus = "not_following"
	Following    RelationshipStatus = "following"
)

// CollectedEntity is one account that reposted the target post
type CollectedEntity struct {
	Handle             string             `json:"handle"`
	DisplayName        string             `json:"displayName"`
	RelationshipStatus RelationshipStatus `json:"relationshipStatus"`
	Bio                string             `json:"bio"`
}

// Result is the persisted and served shape of a collection run
type Result struct {
	Users []CollectedEntity `json:"users"`
	Count int               `json:"count"`
}

// NewResult wraps users, keeping Count in sync and never encoding a null list
func NewResult(users []CollectedEntity) Result {
	if users == nil {
		users = []CollectedEntity{}
	}
	return Result{Users: users, Count: len(users)}
}

// DrawResult holds the winners of a draw
type DrawResult struct {
	Winners []CollectedEntity `json:"winners"`
	Count   int               `json:"count"`
}

// Credentials is the optional login pair for the target site
type Credentials struct {
	Identifier string
	Secret     string
}

// Complete reports whether both halves of the pair are present
func (c *Credentials) Complete() bool {
	return c != nil && c.Identifier != "" && c.Secret != ""
}
