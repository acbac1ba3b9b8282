package domain

import "time"

// Comment is a message in a ticket thread, ordered by creation time.
// Deleting a ticket cascades deletion of its comments.
type Comment struct {
	ID          int64
	TicketID    int64
	AuthorID    int64
	AuthorEmail string
	Content     string
	CreatedAt   time.Time
}
