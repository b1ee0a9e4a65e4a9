package service

import (
	"context"
	"strconv"
	"strings"

	"moneyshelf/internal/cache"
	"moneyshelf/internal/middleware"
	"moneyshelf/internal/models"
	"moneyshelf/internal/notifications"
	"moneyshelf/internal/observability"
	"moneyshelf/internal/repository"
	"moneyshelf/internal/validation"
)

// FeedPublisher receives feed mutations for realtime delivery.
type FeedPublisher interface {
	PublishFeedEvent(ctx context.Context, ev notifications.FeedEvent) error
	PublishUser(ctx context.Context, userID uint, ev notifications.FeedEvent) error
}

type FeedService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	cache       *cache.Cache
	publisher   FeedPublisher
}

// CreatePostInput is the payload for a new post.
type CreatePostInput struct {
	UserID        uint
	Title         string
	Content       string
	ImageFilename string
}

// LikeResult is the state after a like toggle.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// NewFeedService wires the feed. c and publisher may be nil.
func NewFeedService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	c *cache.Cache,
	publisher FeedPublisher,
) *FeedService {
	return &FeedService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		cache:       c,
		publisher:   publisher,
	}
}

// ListFeed returns every post, newest first, with comments and counts.
// The anonymous view is served from the cache when possible.
func (s *FeedService) ListFeed(ctx context.Context, viewerID uint) ([]*models.Post, error) {
	if viewerID == 0 {
		return cache.Aside(ctx, s.cache, cache.FeedKey, cache.FeedTTL, func() ([]*models.Post, error) {
			return s.postRepo.List(ctx, 0)
		})
	}
	return s.postRepo.List(ctx, viewerID)
}

func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := validation.SanitizeText(in.Title)
	content := validation.SanitizeText(in.Content)
	if err := validation.ValidatePostTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if content == "" {
		return nil, models.NewValidationError("content is required")
	}

	post := &models.Post{
		Title:         title,
		Content:       content,
		ImageFilename: strings.TrimSpace(in.ImageFilename),
		UserID:        in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, notifications.FeedEvent{
		Type:    notifications.EventPostCreated,
		PostID:  post.ID,
		ActorID: in.UserID,
		Payload: map[string]any{"title": post.Title},
	}, 0)
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *FeedService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, viewerID)
}

// ToggleLike flips the viewer's like and returns the new state and count.
func (s *FeedService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return nil, err
	}

	liked, count, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	observability.LikeToggles.WithLabelValues(strconv.FormatBool(liked)).Inc()

	var author uint
	if liked && post.UserID != userID {
		author = post.UserID
	}
	s.afterMutation(ctx, notifications.FeedEvent{
		Type:    notifications.EventPostLiked,
		PostID:  postID,
		ActorID: userID,
		Payload: LikeResult{Liked: liked, LikeCount: count},
	}, author)
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

// AddComment stores the comment and returns the post's comments, oldest first.
func (s *FeedService) AddComment(ctx context.Context, userID, postID uint, content string) ([]models.Comment, error) {
	content = validation.SanitizeText(content)
	if content == "" {
		return nil, models.NewValidationError("comment content is required")
	}
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, UserID: userID, PostID: postID}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	var author uint
	if post.UserID != userID {
		author = post.UserID
	}
	s.afterMutation(ctx, notifications.FeedEvent{
		Type:    notifications.EventCommentAdded,
		PostID:  postID,
		ActorID: userID,
		Payload: map[string]any{"comment_id": comment.ID, "content": comment.Content},
	}, author)
	return s.commentRepo.ListByPost(ctx, postID)
}

// AddRepost records a repost. Reposting the same post again adds another row.
func (s *FeedService) AddRepost(ctx context.Context, userID, postID uint) (*models.Repost, error) {
	ok, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Post", postID)
	}

	repost := &models.Repost{UserID: userID, PostID: postID}
	if err := s.postRepo.CreateRepost(ctx, repost); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, notifications.FeedEvent{
		Type:    notifications.EventPostReposted,
		PostID:  postID,
		ActorID: userID,
	}, 0)
	return repost, nil
}

// afterMutation drops the cached anonymous feed and publishes ev. A non-zero
// notifyUser also receives the event on their own channel.
func (s *FeedService) afterMutation(ctx context.Context, ev notifications.FeedEvent, notifyUser uint) {
	s.cache.InvalidateFeed(ctx)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishFeedEvent(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "publish feed event failed", "type", ev.Type, "error", err)
	}
	if notifyUser != 0 {
		if err := s.publisher.PublishUser(ctx, notifyUser, ev); err != nil {
			middleware.Logger.WarnContext(ctx, "publish user event failed", "type", ev.Type, "error", err)
		}
	}
}
