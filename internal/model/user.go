package model

import "time"

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	UserType  string     `json:"user_type"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}
