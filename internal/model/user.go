package model

import "github.com/google/uuid"

// User roles. Family admins may invalidate submitted logs; caregivers author
// them; family members view them.
const (
	RoleCaregiver   = "caregiver"
	RoleFamily      = "family"
	RoleFamilyAdmin = "family_admin"
)

type User struct {
	Base
	Email           string    `json:"email" db:"email"`
	Name            string    `json:"name" db:"name"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	Role            string    `json:"role" db:"role"`
	CareRecipientID uuid.UUID `json:"care_recipient_id" db:"care_recipient_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
