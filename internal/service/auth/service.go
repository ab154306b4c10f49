package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/umn33q/adom-testovoe/internal/models"
	"github.com/umn33q/adom-testovoe/internal/utils"
)

var (
	// ErrUnauthorized covers both a bad credential and a credential
	// from the wrong realm, so a login response never reveals which
	// realm an email belongs to.
	ErrUnauthorized = errors.New("invalid email or password")

	ErrValidation = errors.New("validation failed")
)

type userRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string, role models.UserRole) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Search(ctx context.Context, term string, limit int) ([]models.User, error)
}

// Service authenticates two disjoint realms over one identity table:
// the admin console only accepts role=admin credentials, the public
// app only role=user. The realm is selected by the caller and matched
// in the lookup itself.
type Service struct {
	repo userRepository
	auth *utils.AuthManager
}

func NewService(r userRepository, auth *utils.AuthManager) *Service {
	return &Service{repo: r, auth: auth}
}

func (s *Service) Login(ctx context.Context, realm models.UserRole, input models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, input.Email, realm)
	if err != nil || !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, ErrUnauthorized
	}

	token, err := s.auth.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &models.LoginResponse{Token: token, User: user.Summary()}, nil
}

// Register creates a public-realm account. Admin accounts are seeded
// out of band, never self-registered.
func (s *Service) Register(ctx context.Context, input models.RegisterRequest) (*models.LoginResponse, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.auth.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &models.LoginResponse{Token: token, User: user.Summary()}, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) SearchUsers(ctx context.Context, term string) ([]models.User, error) {
	return s.repo.Search(ctx, term, 20)
}
