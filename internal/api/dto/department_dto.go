package dto

import "github.com/spec-kit/campus-support/internal/domain"

// DepartmentResponse is the public department view.
type DepartmentResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewDepartmentResponse maps a domain department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Description: d.Description}
}

// NewDepartmentResponses maps a department slice.
func NewDepartmentResponses(departments []domain.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(departments))
	for i := range departments {
		out = append(out, NewDepartmentResponse(&departments[i]))
	}
	return out
}
