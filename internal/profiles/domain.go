package profiles

import (
	"time"

	"github.com/vivenda-app/vivenda/internal/rbac"
)

// Profile associates a user account with its role and display attributes.
type Profile struct {
	ID        int64
	UserID    int64
	Name      string
	Role      rbac.Role
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
