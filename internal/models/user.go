package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:us"`

	ID           string    `bun:"id,pk" json:"_id"`
	Username     string    `bun:"username,unique,notnull" json:"username"`
	PasswordHash string    `bun:"password,notnull" json:"-"`
	IsAdmin      bool      `bun:"is_admin,notnull" json:"isAdmin"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"createdAt"`
}
