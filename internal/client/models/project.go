package models

import "time"

// Project is a worldbuilding project as cached locally.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Genre     string    `json:"genre"`
	UpdatedAt time.Time `json:"updated_at"`
}
