// Package seed creates demo data for local development: users who follow
// each other, a feed with likes and comments, and populated bookshelves.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moneyshelf/internal/middleware"
	"moneyshelf/internal/models"
	"moneyshelf/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

var financeTags = []string{"nisa", "index", "dividend", "saving", "tax", "crypto", "tech", "realestate"}

// Options controls how much data is generated.
type Options struct {
	Users         int
	PostsPerUser  int
	BooksPerShelf int
	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed int64
	// SkipBcrypt stores the plain demo password, which is much faster but cannot log in.
	SkipBcrypt bool
}

// DefaultOptions is a small, browsable data set.
func DefaultOptions() Options {
	return Options{Users: 8, PostsPerUser: 3, BooksPerShelf: 4}
}

// Summary reports what was created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
	Follows  int
	Books    int
}

// Factory builds domain entities and persists them.
type Factory struct {
	db     *gorm.DB
	shelf  *repository.ShelfStore
	opts   Options
	faker  *gofakeit.Faker
	nextNo int
}

// NewFactory binds a factory to db and, optionally, a shelf store.
func NewFactory(db *gorm.DB, shelf *repository.ShelfStore, opts Options) *Factory {
	return &Factory{db: db, shelf: shelf, opts: opts, faker: gofakeit.New(opts.Seed)}
}

// Run generates the whole data set. The database writes happen in one transaction.
func (f *Factory) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]*models.User, 0, f.opts.Users)
		for i := 0; i < f.opts.Users; i++ {
			u, err := f.CreateUser(tx)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		sum.Users = len(users)

		for i, u := range users {
			// Everyone follows the next two users, wrapping around.
			for step := 1; step <= 2 && step < len(users); step++ {
				target := users[(i+step)%len(users)]
				if err := tx.Create(&models.Follow{FollowerID: u.ID, FollowedID: target.ID}).Error; err != nil {
					return fmt.Errorf("seed follow: %w", err)
				}
				sum.Follows++
			}
		}

		for _, u := range users {
			for p := 0; p < f.opts.PostsPerUser; p++ {
				post, err := f.CreatePost(tx, u)
				if err != nil {
					return err
				}
				sum.Posts++

				for _, other := range users {
					if other.ID == u.ID || !f.faker.Bool() {
						continue
					}
					if err := tx.Create(&models.Like{UserID: other.ID, PostID: post.ID}).Error; err != nil {
						return fmt.Errorf("seed like: %w", err)
					}
					sum.Likes++
				}

				commenter := users[f.faker.Number(0, len(users)-1)]
				comment := &models.Comment{
					Content: f.faker.Sentence(8),
					UserID:  commenter.ID,
					PostID:  post.ID,
				}
				if err := tx.Omit("User").Create(comment).Error; err != nil {
					return fmt.Errorf("seed comment: %w", err)
				}
				sum.Comments++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if f.shelf != nil && f.opts.BooksPerShelf > 0 {
		n, err := f.FillShelves(ctx)
		if err != nil {
			return nil, err
		}
		sum.Books = n
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		"users", sum.Users, "posts", sum.Posts, "comments", sum.Comments,
		"likes", sum.Likes, "follows", sum.Follows, "books", sum.Books)
	return sum, nil
}

// CreateUser persists a user with a unique username and the demo password.
func (f *Factory) CreateUser(tx *gorm.DB) (*models.User, error) {
	f.nextNo++
	name := f.faker.Username()
	suffix := fmt.Sprintf("%d", f.nextNo)
	if len(name)+len(suffix) > 20 {
		name = name[:20-len(suffix)]
	}

	password := DemoPassword
	if !f.opts.SkipBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		password = string(hash)
	}

	user := &models.User{
		Username: name + suffix,
		Email:    strings.ToLower(fmt.Sprintf("demo%d.%s", f.nextNo, f.faker.Email())),
		Password: password,
		Icon:     models.DefaultIcon,
		Bio:      f.faker.Sentence(10),
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	return user, nil
}

// CreatePost persists a post for user dated somewhere in the last 90 days.
func (f *Factory) CreatePost(tx *gorm.DB, user *models.User) (*models.Post, error) {
	title := f.faker.Sentence(5)
	if len([]rune(title)) > 100 {
		title = string([]rune(title)[:100])
	}
	post := &models.Post{
		Title:     title,
		Content:   f.faker.Paragraph(1, 3, 12, "\n"),
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-time.Duration(f.faker.Number(0, 90*24)) * time.Hour),
	}
	if err := tx.Omit("User", "Comments").Create(post).Error; err != nil {
		return nil, fmt.Errorf("seed post: %w", err)
	}
	return post, nil
}

// FillShelves appends generated books to every fixed shelf except my shelf.
func (f *Factory) FillShelves(ctx context.Context) (int, error) {
	added := 0
	_, err := f.shelf.Update(ctx, func(shelves models.Shelves) error {
		for _, name := range models.FixedShelves {
			if name == models.MyShelf {
				continue
			}
			for i := 0; i < f.opts.BooksPerShelf; i++ {
				shelves[name] = append(shelves[name], f.Book())
				added++
			}
		}
		return nil
	})
	return added, err
}

// Book returns a generated book record with two finance tags.
func (f *Factory) Book() models.Book {
	tags := []string{
		financeTags[f.faker.Number(0, len(financeTags)-1)],
		financeTags[f.faker.Number(0, len(financeTags)-1)],
	}
	return models.Book{
		Title:     f.faker.BookTitle(),
		Author:    f.faker.BookAuthor(),
		ISBN:      f.faker.Numerify("978##########"),
		Price:     f.faker.Number(800, 4000),
		Tags:      strings.Join(tags, " "),
		Libraries: []models.Library{},
	}
}
