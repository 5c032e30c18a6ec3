package models

import "time"

const RoleAdmin = "admin"

// User is a credential record. Email is the primary key; an empty Role means
// no elevated privileges.
type User struct {
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Address   string    `json:"address,omitempty" bson:"address,omitempty"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	Role      string    `json:"role,omitempty" bson:"role,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserProfile holds the fields a login may set. Empty fields leave the stored
// value unchanged.
type UserProfile struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Image   string `json:"image"`
}

func (p UserProfile) Apply(u *User) bool {
	changed := false
	set := func(dst *string, value string) {
		if value != "" && *dst != value {
			*dst = value
			changed = true
		}
	}
	set(&u.Name, p.Name)
	set(&u.Phone, p.Phone)
	set(&u.Address, p.Address)
	set(&u.Image, p.Image)
	return changed
}
