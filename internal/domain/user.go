package domain

import "time"

type User struct {
	ID        int32     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName is what other users see in notifications and request cards.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		if u.LastName != "" {
			return u.FirstName + " " + u.LastName
		}
		return u.FirstName
	}
	return u.Username
}

// AuthResult is returned by /auth/login/ and /auth/register/.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (r Registration) Validate() error {
	if r.Username == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	if r.Email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if len(r.Password) < 8 {
		return &ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	if r.Password2 != "" && r.Password2 != r.Password {
		return &ValidationError{Field: "password2", Message: "passwords do not match"}
	}
	return nil
}
