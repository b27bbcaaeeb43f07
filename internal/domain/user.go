package domain

import "time"

// Role classifies an identity within the clinic.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a wire value to a Role, defaulting to patient.
func ParseRole(value string) Role {
	switch Role(value) {
	case RoleDoctor:
		return RoleDoctor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RolePatient
	}
}

// User is the identity record for patients, doctors and admins. Doctors
// additionally carry their specialization, experience and the ordered set of
// slots they offer.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	Specialization *string
	Experience     *int
	DeclaredSlots  []TimeSlot
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDoctor reports whether the user can be booked.
func (u *User) IsDoctor() bool {
	return u != nil && u.Role == RoleDoctor
}
