package service

import (
	"context"
	"strings"

	"moneyshelf/internal/cache"
	"moneyshelf/internal/media"
	"moneyshelf/internal/models"
	"moneyshelf/internal/repository"
	"moneyshelf/internal/validation"
)

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	icons      *media.IconStore
	cache      *cache.Cache
}

// UpdateProfileInput carries optional profile changes. Nil fields are left as they are.
type UpdateProfileInput struct {
	UserID   uint
	Username *string
	Bio      *string
	Icon     *string
}

func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	icons *media.IconStore,
	c *cache.Cache,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
		icons:      icons,
		cache:      c,
	}
}

// GetProfile loads a user with follow counts and whether viewerID follows them.
// viewerID 0 means anonymous.
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.FollowedCount, err = s.followRepo.FollowedCount(ctx, id); err != nil {
		return nil, err
	}
	if user.FollowersCount, err = s.followRepo.FollowersCount(ctx, id); err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != id {
		if user.IsFollowing, err = s.followRepo.IsFollowing(ctx, viewerID, id); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := validation.SanitizeText(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		taken, err := s.userRepo.UsernameTaken(ctx, username, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Username already taken")
		}
		user.Username = username
	}
	if in.Bio != nil {
		bio := validation.SanitizeText(*in.Bio)
		if err := validation.ValidateBio(bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Bio = bio
	}
	if in.Icon != nil {
		icon := strings.TrimSpace(*in.Icon)
		if icon == "" {
			icon = models.DefaultIcon
		}
		user.Icon = icon
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	// The cached feed embeds author names and icons.
	s.cache.InvalidateFeed(ctx)
	return user, nil
}

// SetIcon transcodes an uploaded image and records it as the user's icon.
func (s *UserService) SetIcon(ctx context.Context, userID uint, content []byte) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	name, err := s.icons.Save(ctx, userID, content)
	if err != nil {
		return nil, err
	}
	user.Icon = name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user together with everything they own.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	s.cache.InvalidateFeed(ctx)
	return nil
}
