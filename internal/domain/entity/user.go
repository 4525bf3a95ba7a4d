package entity

import "time"

// Estados válidos para User.
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// User es el directorio de principales autenticados; solo se lee para validar y mostrar el actor.
type User struct {
	ID        string
	Name      string
	Email     string
	Status    string
	CreatedAt time.Time
}

func (u *User) IsActive() bool { return u.Status == UserStatusActive }
