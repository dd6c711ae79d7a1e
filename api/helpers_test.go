package api_test

import (
	"testing"
	"time"

	"github.com/garnizeh/devmarket/internal/identity"
	"github.com/garnizeh/devmarket/internal/validation"
	"github.com/garnizeh/devmarket/pkg/repository/mock"
	"github.com/garnizeh/devmarket/schemas"
	"golang.org/x/crypto/bcrypt"
)

const secret = "testsecret"

func newIdentity(t *testing.T, m *mock.Mocks) *identity.Service {
	t.Helper()
	ids, err := identity.NewService(m.Users, identity.NewTokenCodec(secret, time.Hour), bcrypt.MinCost, nil)
	if err != nil {
		t.Fatalf("identity.NewService: %v", err)
	}
	return ids
}

func newValidator(t *testing.T) *validation.Validator {
	t.Helper()
	v, err := validation.New(schemas.FS)
	if err != nil {
		t.Fatalf("validation.New: %v", err)
	}
	return v
}
