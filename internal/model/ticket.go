package model

// Ticket is an immutable snapshot of a work item as supplied by the data source.
type Ticket struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	UserID   *string  `json:"userId"`
	Priority Priority `json:"priority"`
	Tag      []string `json:"tag"`
	Status   string   `json:"status"`
}

// OwnerID returns the owner reference, or "" when the ticket has none.
func (t *Ticket) OwnerID() string {
	if t.UserID == nil {
		return ""
	}
	return *t.UserID
}

// Well-known status values. Statuses come from an external vocabulary and are
// grouped verbatim, so any string is accepted.
const (
	StatusBacklog    = "Backlog"
	StatusTodo       = "Todo"
	StatusInProgress = "In progress"
	StatusDone       = "Done"
	StatusCancelled  = "Cancelled"
)

// User is an immutable snapshot of a person tickets can be assigned to.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is one retrieval from the data source. A nil slice means that part
// of the snapshot has not been loaded yet.
type Snapshot struct {
	Tickets []*Ticket `json:"tickets"`
	Users   []*User   `json:"users"`
}

// Loaded reports whether both tickets and users are present.
func (s *Snapshot) Loaded() bool {
	return s != nil && s.Tickets != nil && s.Users != nil
}

// StringPtr returns a pointer to s. Handy for building tickets in code.
func StringPtr(s string) *string {
	return &s
}
