package catalog

import "context"

// Service is the read-only view of the hotel catalog used by bookings.
type Service interface {
	GetRoomType(ctx context.Context, id string) (*RoomType, error)
	ListRoomTypes(ctx context.Context, filter Filter) ([]*RoomType, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetRoomType(ctx context.Context, id string) (*RoomType, error) {
	return s.repo.GetRoomType(ctx, id)
}

func (s *service) ListRoomTypes(ctx context.Context, filter Filter) ([]*RoomType, int, error) {
	return s.repo.ListRoomTypes(ctx, filter)
}
