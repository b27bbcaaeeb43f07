package dto

import "github.com/spec-kit/appointment-service/internal/domain"

// UserResponse is the wire form of an identity.
type UserResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	Specialization *string     `json:"specialization,omitempty"`
	Experience     *int        `json:"experience,omitempty"`
	TimeSlots      []string    `json:"availableTimeSlots,omitempty"`
}

// NewUserResponse maps a domain user, always omitting the password hash.
func NewUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		Specialization: user.Specialization,
		Experience:     user.Experience,
	}
	if user.Role == domain.RoleDoctor {
		resp.TimeSlots = domain.SlotStrings(user.DeclaredSlots)
	}
	return resp
}
