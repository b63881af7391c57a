package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// JudgeLink ties a user to their handle on the external judge.
type JudgeLink struct {
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}
