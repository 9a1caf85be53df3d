package models

// Group represents a set of users who share expenses.
// Members are only ever added; adding an existing member is a no-op.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Trip to Lisbon").
	Name string `json:"name"`

	// Members is the list of member user IDs. Order carries no meaning.
	Members []string `json:"members"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// GroupDetail is a group with its members resolved to users.
type GroupDetail struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Members   []*User `json:"members"`
	CreatedAt int64   `json:"createdAt"`
}
