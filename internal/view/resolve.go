package view

import "github.com/alfredjeanlab/board/internal/model"

// UserIndex maps user IDs to users for owner resolution.
type UserIndex map[string]*model.User

// NewUserIndex indexes users by ID. When an ID repeats, the first user wins,
// matching a linear first-match search over the slice.
func NewUserIndex(users []*model.User) UserIndex {
	idx := make(UserIndex, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		if _, exists := idx[u.ID]; !exists {
			idx[u.ID] = u
		}
	}
	return idx
}

// ResolveOwner returns the user referenced by t's owner reference. The bool
// is false when the ticket is unassigned: the reference is absent or points
// at a user that is not in the index. Neither case is an error.
func ResolveOwner(t *model.Ticket, idx UserIndex) (*model.User, bool) {
	if t == nil || t.UserID == nil {
		return nil, false
	}
	u, ok := idx[*t.UserID]
	return u, ok
}
