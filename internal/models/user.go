package models

import "go.mongodb.org/mongo-driver/v2/bson"

// User is the persisted shape of a document in the "user" collection.
// IsActive is a pointer because older documents may not carry the field;
// Public applies the defaults.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	IsActive     *bool         `bson:"is_active,omitempty"`
	Role         string        `bson:"role,omitempty"`
}

// PublicUser is the external projection of a User; it never carries the
// password hash.
type PublicUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	Role     string `json:"role"`
}

// Public projects u for responses, defaulting is_active to true and role to
// "user" when the stored document lacks them.
func (u User) Public() PublicUser {
	active := true
	if u.IsActive != nil {
		active = *u.IsActive
	}
	role := u.Role
	if role == "" {
		role = "user"
	}
	return PublicUser{
		ID:       u.ID.Hex(),
		Name:     u.Name,
		Email:    u.Email,
		IsActive: active,
		Role:     role,
	}
}
