package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleTeamMember     Role = "team_member"
	RoleClient         Role = "client"
)

// ValidRole reports whether s is one of the four known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleProjectManager, RoleTeamMember, RoleClient:
		return true
	}
	return false
}

type User struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name        string              `json:"name" bson:"name"`
	Email       string              `json:"email" bson:"email"`
	Password    string              `json:"-" bson:"password"`
	Role        Role                `json:"role" bson:"role"`
	IsActive    bool                `json:"isActive" bson:"isActive"`
	OnboardedBy *primitive.ObjectID `json:"onboardedBy,omitempty" bson:"onboardedBy,omitempty"`
	LastLogin   *time.Time          `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
}

// PublicUser is the reduced shape returned by auth endpoints.
type PublicUser struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Role  Role               `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
