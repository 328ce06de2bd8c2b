package types

import (
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"

	"github.com/samber/lo"
)

// UserRole is the authorization role claim embedded in access tokens
type UserRole string

const (
	UserRoleUser    UserRole = "user"
	UserRolePremium UserRole = "premium"
	UserRoleAdmin   UserRole = "admin"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) Validate() error {
	allowed := []UserRole{
		UserRoleUser,
		UserRolePremium,
		UserRoleAdmin,
	}
	if !lo.Contains(allowed, r) {
		return ierr.NewError("invalid user role").
			WithHint("Invalid user role").
			WithReportableDetails(map[string]any{
				"role":          r,
				"allowed_roles": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// HasPremiumAccess reports whether the role grants premium features
func (r UserRole) HasPremiumAccess() bool {
	return r == UserRolePremium || r == UserRoleAdmin
}
