package entity

import "github.com/google/uuid"

type Client struct {
	BaseNoDelete
	UserID   uuid.UUID `db:"user_id"`
	Nickname string    `db:"nickname"`
}
