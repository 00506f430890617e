// internal/domain/models/publicprofile.go
package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublicProfile lives in public_users and is readable by any approved user.
// _id equals the owning User's _id.
type PublicProfile struct {
	ID        primitive.ObjectID `bson:"_id" json:"-"`
	UID       string             `bson:"uid" json:"uid"`
	FirstName string             `bson:"first_name" json:"firstName"`
	LastName  string             `bson:"last_name" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Role      string             `bson:"role" json:"role"`

	FullNameCI string `bson:"full_name_ci" json:"-"`
}

// FullName joins first and last name, trimmed.
func (p PublicProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
