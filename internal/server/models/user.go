package models

import "time"

type User struct {
	ID            string
	Email         string
	PasswordHash  []byte
	EmailVerified bool
	CreatedAt     time.Time
}
