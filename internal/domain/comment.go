package domain

import "time"

// Comment is a note posted on a ticket. Mentions holds the user ids
// referenced in the body.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	Mentions  []string
	CreatedAt time.Time
}

// Tag is a catalog label attachable to tickets.
type Tag struct {
	ID    string
	Name  string
	Color string
}
