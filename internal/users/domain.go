package users

import (
	"time"

	"github.com/vivenda-app/vivenda/internal/rbac"
)

// Account is a user as shown on the admin screen, with its profile role.
type Account struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      rbac.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
