package models

import "time"

type Project struct {
	ID        string
	OwnerID   string
	Name      string
	Genre     string
	UpdatedAt time.Time
}
