// Package mock provides in-memory repositories for handler and service tests.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/garnizeh/devmarket/pkg/models"
	"github.com/garnizeh/devmarket/pkg/repository"
)

// Test helpers and mocks
type Mocks struct {
	Users *UserRepo
}

func NewMocks() *Mocks {
	return &Mocks{Users: NewUserRepo()}
}

// UserRepo is a map-backed repository.UserRepo. Setting CreateErr or GetErr
// makes the corresponding calls fail.
type UserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.User

	CreateErr error
	GetErr    error
}

var _ repository.UserRepo = (*UserRepo)(nil)

func NewUserRepo() *UserRepo {
	return &UserRepo{byID: make(map[int64]models.User)}
}

func (m *UserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return 0, repository.ErrDuplicate
		}
	}

	m.nextID++
	stored := *u
	stored.ID = m.nextID
	stored.Created = time.Now().UnixMilli()
	m.byID[stored.ID] = stored
	u.ID, u.Created = stored.ID, stored.Created

	return stored.ID, nil
}

func (m *UserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if u, ok := m.byID[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.list(func(models.User) bool { return true }), nil
}

func (m *UserRepo) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return m.list(func(u models.User) bool { return u.Role == role }), nil
}

// Delete drops a user, simulating an account removed after a token was issued.
func (m *UserRepo) Delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

func (m *UserRepo) list(keep func(models.User) bool) []models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
