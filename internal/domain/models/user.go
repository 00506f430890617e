// internal/domain/models/user.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the private profile document kept in the users collection.
// Only the owner reads it; partner search goes through PublicProfile.
//
// NOTE:
//   - IsApproved is flipped by an administrator outside this service.
//     Access to every data-bearing route requires it to be true.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	LastName     string             `bson:"last_name" json:"lastName"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	Role         string             `bson:"role" json:"role"`
	IsApproved   bool               `bson:"is_approved" json:"isApproved"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// FullName joins first and last name, trimmed.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name, falling back to the e-mail.
func (u User) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Email
}

// PublicProfile returns the least-privilege projection of u.
// Phone, approval flag and creation time are deliberately absent.
func (u User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		UID:       u.ID.Hex(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}
