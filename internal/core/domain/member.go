package domain

// MembershipStatus mirrors the backend's membership lifecycle.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipExpired   MembershipStatus = "EXPIRED"
	MembershipSuspended MembershipStatus = "SUSPENDED"
)

// Member is a library member. Password is never returned by the backend.
type Member struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Username         string           `json:"username"`
	Email            string           `json:"email"`
	RegistrationDate Date             `json:"registrationDate,omitzero"`
	Role             Role             `json:"role"`
	MembershipStatus MembershipStatus `json:"membershipStatus,omitempty"`
}

// Registration is the self-service sign-up payload.
type Registration struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// MemberInput is the admin payload for creating or updating a member.
type MemberInput struct {
	Name             string           `json:"name"                       validate:"required,min=2,max=100"`
	Username         string           `json:"username"                   validate:"required,min=3,max=50"`
	Email            string           `json:"email"                      validate:"required,email"`
	Password         string           `json:"password,omitempty"         validate:"omitempty,min=6"`
	Role             Role             `json:"role,omitempty"             validate:"omitempty,oneof=USER ADMIN"`
	MembershipStatus MembershipStatus `json:"membershipStatus,omitempty" validate:"omitempty,oneof=ACTIVE EXPIRED SUSPENDED"`
}

// ProfileUpdate is what a member may change about themselves.
type ProfileUpdate struct {
	Name     string `json:"name"               validate:"required,min=2,max=100"`
	Username string `json:"username"           validate:"required,min=3,max=50"`
	Email    string `json:"email"              validate:"required,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
}
