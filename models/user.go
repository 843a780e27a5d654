package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Phone struct {
	Number string `bson:"number" json:"number" binding:"required"`
	Type   string `bson:"type" json:"type"`
}

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username,omitempty" json:"username,omitempty"`
	FirstName  string             `bson:"firstName" json:"firstName"`
	LastName   string             `bson:"lastName" json:"lastName"`
	Email      string             `bson:"email" json:"email"`
	Phones     []Phone            `bson:"phones,omitempty" json:"phones,omitempty"`
	Role       string             `bson:"role" json:"role"`
	Photo      string             `bson:"photo" json:"photo"`
	City       string             `bson:"city" json:"city"`
	Country    string             `bson:"country" json:"country"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	IsActive   bool               `bson:"isActive" json:"-"`
	Password   string             `bson:"password" json:"-"`

	PasswordChangedAt    time.Time `bson:"passwordChangedAt,omitempty" json:"-"`
	PasswordResetToken   string    `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires time.Time `bson:"passwordResetExpires,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PasswordChangedAfter reports whether the password was changed after the
// given token issue time, in which case the token is no longer trustworthy.
func (u *User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}
