package domain

// Department is an organizational unit owning tickets and support staff.
type Department struct {
	ID          int64
	Name        string
	Description string
}
