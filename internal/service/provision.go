package service

import (
	"context"
	"errors"
	"fmt"

	"opschecklist/internal/domain"
	"opschecklist/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSelfDelete = errors.New("cannot delete own account")
	ErrEmailTaken = errors.New("email already registered")
)

// ProvisionService creates and deletes user accounts. Creation is a single
// transaction-equivalent write (identity, profile and role live in one
// row), so a partial failure leaves nothing behind; deletion cascades
// assignments, completions, notifications and the profile through foreign
// keys.
type ProvisionService struct {
	users *repository.UserRepository
}

func NewProvisionService(db *pgxpool.Pool) *ProvisionService {
	return &ProvisionService{users: repository.NewUserRepository(db)}
}

func (s *ProvisionService) CreateUser(ctx context.Context, email, password, fullName, role, phone string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Email:    email,
		FullName: fullName,
		Phone:    phone,
		Role:     role,
	}
	if err := s.users.Create(ctx, u, string(hash)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the account and everything hanging off it. Callers
// may not delete themselves.
func (s *ProvisionService) DeleteUser(ctx context.Context, callerID, userID int64) error {
	if callerID == userID {
		return ErrSelfDelete
	}
	return s.users.Delete(ctx, userID)
}
