// Package policy holds the role check applied at the top of every
// marketplace operation. Ownership of individual resources is verified by
// the operations themselves.
package policy

import (
	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/pkg/models"
)

// Authorize returns the caller when its role is one of allowed, and
// apperr.ErrForbidden otherwise. A nil caller is never authorized.
func Authorize(caller *models.User, allowed ...models.Role) (*models.User, error) {
	if caller == nil {
		return nil, apperr.ErrInvalidToken
	}
	for _, r := range allowed {
		if caller.Role == r {
			return caller, nil
		}
	}

	return nil, apperr.ErrForbidden
}
