package repository

import (
	"context"
	"testing"
	"time"

	"moneyshelf/internal/models"
	"moneyshelf/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "hash", Icon: models.DefaultIcon}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "taro", Email: "taro@example.com", Password: "x"}))

	err := repo.Create(ctx, &models.User{Username: "jiro", Email: "taro@example.com", Password: "y"})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	var count int64
	db.Model(&models.User{}).Where("email = ?", "taro@example.com").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_GetNotFound(t *testing.T) {
	repo := NewUserRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 99)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_OTPLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "hanako")

	exp := time.Now().Add(10 * time.Minute)
	require.NoError(t, repo.SetOTP(ctx, u.ID, "123456", exp))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OTPCode)
	assert.Equal(t, "123456", *got.OTPCode)

	require.NoError(t, repo.ClearOTP(ctx, u.ID))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OTPCode)
	assert.Nil(t, got.OTPExpiration)

	assert.True(t, models.IsCode(repo.ClearOTP(ctx, 404), models.CodeNotFound))
}

func TestUserRepository_ClearExpiredOTPs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now()

	expired := createUser(t, db, "old")
	fresh := createUser(t, db, "new")
	require.NoError(t, repo.SetOTP(ctx, expired.ID, "111111", now.Add(-time.Minute)))
	require.NoError(t, repo.SetOTP(ctx, fresh.ID, "222222", now.Add(time.Minute)))

	n, err := repo.ClearExpiredOTPs(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := repo.GetByID(ctx, fresh.ID)
	require.NotNil(t, got.OTPCode)
	assert.Equal(t, "222222", *got.OTPCode)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "ichiro")
	createUser(t, db, "taken")

	u.Username = "ichiro2"
	u.Bio = "長期投資"
	u.Icon = "1.webp"
	require.NoError(t, repo.Update(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ichiro2", got.Username)
	assert.Equal(t, "長期投資", got.Bio)
	assert.Equal(t, "1.webp", got.Icon)

	taken, err := repo.UsernameTaken(ctx, "taken", u.ID)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.UsernameTaken(ctx, "ichiro2", u.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner")
	other := createUser(t, db, "other")

	own := &models.Post{Title: "t", Content: "c", UserID: owner.ID}
	theirs := &models.Post{Title: "t2", Content: "c2", UserID: other.ID}
	require.NoError(t, db.Omit("User", "Comments").Create(own).Error)
	require.NoError(t, db.Omit("User", "Comments").Create(theirs).Error)

	require.NoError(t, db.Create(&models.Like{UserID: other.ID, PostID: own.ID}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: owner.ID, PostID: theirs.ID}).Error)
	require.NoError(t, db.Omit("User").Create(&models.Comment{Content: "x", UserID: other.ID, PostID: own.ID}).Error)
	require.NoError(t, db.Omit("User").Create(&models.Comment{Content: "y", UserID: owner.ID, PostID: theirs.ID}).Error)
	require.NoError(t, db.Create(&models.Repost{UserID: other.ID, PostID: own.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: owner.ID, FollowedID: other.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: other.ID, FollowedID: owner.ID}).Error)

	require.NoError(t, repo.Delete(ctx, owner.ID))

	count := func(m any) int64 {
		var n int64
		db.Model(m).Count(&n)
		return n
	}
	assert.Equal(t, int64(1), count(&models.User{}))
	assert.Equal(t, int64(1), count(&models.Post{}))
	assert.Equal(t, int64(0), count(&models.Like{}))
	assert.Equal(t, int64(0), count(&models.Comment{}))
	assert.Equal(t, int64(0), count(&models.Repost{}))
	assert.Equal(t, int64(0), count(&models.Follow{}))

	assert.True(t, models.IsCode(repo.Delete(ctx, owner.ID), models.CodeNotFound))
}

func TestRepositories_RejectWritesForDeletedUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	gone := createUser(t, db, "gone")
	author := createUser(t, db, "author")
	p := createPost(t, db, author.ID, "kept", time.Now())
	require.NoError(t, users.Delete(ctx, gone.ID))

	notFound := func(err error) {
		t.Helper()
		assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	}
	notFound(posts.Create(ctx, &models.Post{Title: "orphan", Content: "c", UserID: gone.ID}))
	notFound(comments.Create(ctx, &models.Comment{Content: "orphan", UserID: gone.ID, PostID: p.ID}))
	notFound(posts.CreateRepost(ctx, &models.Repost{UserID: gone.ID, PostID: p.ID}))
	notFound(follows.Follow(ctx, gone.ID, author.ID))
	_, _, err := posts.ToggleLike(ctx, gone.ID, p.ID)
	notFound(err)

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Where("user_id = ?", gone.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Like{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
	assert.Zero(t, n)
}
