package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
	"github.com/hms/frontdesk/pkg/pagination"
)

type Service struct {
	users      UserRepository
	patients   PatientRepository
	bcryptCost int
	logger     zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(users UserRepository, patients PatientRepository, bcryptCost int, logger zerolog.Logger) *Service {
	return &Service{users: users, patients: patients, bcryptCost: bcryptCost, logger: logger}
}

// -- Credentials --

// Register hashes the password and stores a new user.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	username := NormalizeUsername(req.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	p, err := auth.NewPrincipal(username, role, req.Specialization)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:       p.Username,
		PasswordHash:   string(hash),
		Role:           p.Role,
		Specialization: p.Specialization,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

// Authenticate returns the principal for a matching username and password.
// An unknown user and a wrong password both yield apperror.ErrAuthentication
// after a bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, username, password string) (auth.Principal, error) {
	username = NormalizeUsername(username)

	u, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		s.logger.Warn().Str("username", username).Msg("login failed")
		return auth.Principal{}, apperror.ErrAuthentication
	case err != nil:
		return auth.Principal{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("username", username).Msg("login failed")
		return auth.Principal{}, apperror.ErrAuthentication
	}

	p, err := auth.NewPrincipal(u.Username, u.Role, u.Specialization)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("stored user has an invalid role")
		return auth.Principal{}, apperror.ErrAuthentication
	}
	return p, nil
}

// dummy is compared against for unknown users so both failure paths cost
// one bcrypt comparison at the configured cost.
func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("frontdesk-unknown-user"), s.bcryptCost)
		if err != nil {
			h, _ = bcrypt.GenerateFromPassword([]byte("frontdesk-unknown-user"), bcrypt.DefaultCost)
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	p.CreatedBy = auth.UserIDFromContext(ctx)
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, pg pagination.Params) ([]*Patient, int, error) {
	return s.patients.List(ctx, pg)
}

func (s *Service) CountPatients(ctx context.Context) (int, error) {
	return s.patients.Count(ctx)
}
