package domain

import "time"

// Agent es un caller autenticado del arena, identificado por su DID.
// El DID es estable e inmutable una vez emitido.
type Agent struct {
	ID           string     `json:"id"`
	DID          string     `json:"did"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}
