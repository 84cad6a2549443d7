package model

import (
	"fmt"
	"time"
)

// User is a registered account. Role and username never change after
// registration.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	BillAddress  string    `json:"bill_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Roles.
const (
	RoleStaff  = "staff"
	RoleDonor  = "donor"
	RoleClient = "client"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStaff, RoleDonor, RoleClient:
		return true
	}
	return false
}

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	return nil
}

// RegisterInput holds the fields of a registration request.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,alphanum,max=50"`
	Password    string `json:"password" validate:"required,max=72"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Role        string `json:"role" validate:"required,oneof=staff donor client"`
	BillAddress string `json:"bill_address" validate:"max=200"`
}
