package user

import "context"

// Service exposes the user lookups other modules depend on.
type Service interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePoints(ctx context.Context, id string, delta int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *service) UpdatePoints(ctx context.Context, id string, delta int64) error {
	return s.repo.UpdatePoints(ctx, id, delta)
}
