package service

import (
	"context"

	"moneyshelf/internal/models"
	"moneyshelf/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow makes followerID follow followedID. Following twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followedID); err != nil {
		return err
	}
	return s.followRepo.Follow(ctx, followerID, followedID)
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	return s.followRepo.Unfollow(ctx, followerID, followedID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.followRepo.IsFollowing(ctx, followerID, followedID)
}

func (s *FollowService) FollowedCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.FollowedCount(ctx, userID)
}

func (s *FollowService) FollowersCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.FollowersCount(ctx, userID)
}
