// Package seed fills a development database with demo users, categories,
// posts and comments.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"blog/internal/middleware"
	"blog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var categoryNames = []string{
	"Engineering", "Databases", "Go", "Infrastructure", "Security",
	"Frontend", "Career", "Open Source", "Observability", "Announcements",
}

// Options configures a seeding run.
type Options struct {
	Users           int
	Categories      int
	Posts           int
	CommentsPerPost int
	// Every DraftEvery-th post is left unpublished. Zero disables drafts.
	DraftEvery int
	// MaxDays bounds how far back publish dates are spread.
	MaxDays int
	// Clean deletes existing blog rows before seeding.
	Clean bool
	// Seed makes the generated content reproducible. Zero picks a random seed.
	Seed int64
}

// DefaultOptions returns a small but varied data set.
func DefaultOptions() Options {
	return Options{
		Users:           10,
		Categories:      5,
		Posts:           30,
		CommentsPerPost: 4,
		DraftEvery:      5,
		MaxDays:         90,
	}
}

// Summary counts the rows a run created.
type Summary struct {
	Users      int
	Categories int
	Posts      int
	Drafts     int
	Comments   int
	Pending    int
}

// Seeder writes generated rows through a GORM handle.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
	now   time.Time
}

// New creates a Seeder bound to db.
func New(db *gorm.DB, opts Options) *Seeder {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.Categories > len(categoryNames) {
		opts.Categories = len(categoryNames)
	}
	return &Seeder{
		db:    db,
		faker: gofakeit.New(opts.Seed),
		opts:  opts,
		now:   time.Now(),
	}
}

// Run seeds everything in one transaction.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.opts.Clean {
			if err := Clean(tx); err != nil {
				return err
			}
		}

		users, err := s.createUsers(tx)
		if err != nil {
			return err
		}
		summary.Users = len(users)

		categories, err := s.createCategories(tx)
		if err != nil {
			return err
		}
		summary.Categories = len(categories)

		posts, err := s.createPosts(tx, categories)
		if err != nil {
			return err
		}
		summary.Posts = len(posts)
		for _, p := range posts {
			if p.Published == models.PostDraft {
				summary.Drafts++
			}
		}

		comments, err := s.createComments(tx, posts, users)
		if err != nil {
			return err
		}
		summary.Comments = len(comments)
		for _, c := range comments {
			if c.Approved == models.CommentPending {
				summary.Pending++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", summary.Users),
		slog.Int("categories", summary.Categories),
		slog.Int("posts", summary.Posts),
		slog.Int("drafts", summary.Drafts),
		slog.Int("comments", summary.Comments),
		slog.Int("pending", summary.Pending))
	return summary, nil
}

// Clean removes all comments, posts, categories and users.
func Clean(db *gorm.DB) error {
	all := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.Category{}, &models.User{}} {
		if err := all.Delete(model).Error; err != nil {
			return fmt.Errorf("clean %T: %w", model, err)
		}
	}
	return nil
}

func (s *Seeder) createUsers(tx *gorm.DB) ([]models.User, error) {
	users := make([]models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		name := s.faker.Name()
		email := s.faker.Email()
		method := "seed"
		users = append(users, models.User{
			OpenID:       "seed-" + s.faker.UUID(),
			Name:         &name,
			Email:        &email,
			LoginMethod:  &method,
			Role:         models.RoleMember,
			LastSignedIn: s.pastTime(),
		})
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := tx.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

func (s *Seeder) createCategories(tx *gorm.DB) ([]models.Category, error) {
	categories := make([]models.Category, 0, s.opts.Categories)
	for _, name := range categoryNames[:s.opts.Categories] {
		var existing models.Category
		err := tx.Where("slug = ?", Slugify(name)).Limit(1).Find(&existing).Error
		if err != nil {
			return nil, fmt.Errorf("look up category %q: %w", name, err)
		}
		if existing.ID != 0 {
			categories = append(categories, existing)
			continue
		}

		c := models.Category{
			Name:        name,
			Slug:        Slugify(name),
			Description: strPtr(s.faker.Sentence(8)),
		}
		if err := tx.Create(&c).Error; err != nil {
			return nil, fmt.Errorf("create category %q: %w", name, err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (s *Seeder) createPosts(tx *gorm.DB, categories []models.Category) ([]models.Post, error) {
	posts := make([]models.Post, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		title := strings.TrimSuffix(s.faker.Sentence(s.faker.Number(3, 8)), ".")
		post := models.Post{
			Title:     title,
			Slug:      fmt.Sprintf("%s-%s", Slugify(title), strings.ToLower(s.faker.LetterN(6))),
			Content:   s.faker.Paragraph(s.faker.Number(3, 6), 5, 12, "\n\n"),
			Excerpt:   strPtr(s.faker.Sentence(20)),
			Published: models.PostPublished,
		}
		created := s.pastTime()
		post.CreatedAt = created
		post.UpdatedAt = created

		if s.opts.DraftEvery > 0 && (i+1)%s.opts.DraftEvery == 0 {
			post.Published = models.PostDraft
		} else {
			at := created.Add(time.Duration(s.faker.Number(0, 48)) * time.Hour)
			if at.After(s.now) {
				at = s.now
			}
			post.PublishedAt = &at
		}

		if len(categories) > 0 && s.faker.Number(0, 4) > 0 {
			id := categories[s.faker.Number(0, len(categories)-1)].ID
			post.CategoryID = &id
		}
		posts = append(posts, post)
	}
	if len(posts) == 0 {
		return posts, nil
	}
	if err := tx.CreateInBatches(&posts, 100).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

// createComments leaves roughly a third of the comments pending. Drafts get none.
func (s *Seeder) createComments(tx *gorm.DB, posts []models.Post, users []models.User) ([]models.Comment, error) {
	if len(users) == 0 || s.opts.CommentsPerPost <= 0 {
		return nil, nil
	}

	var comments []models.Comment
	for _, p := range posts {
		if p.Published != models.PostPublished {
			continue
		}
		n := s.faker.Number(0, s.opts.CommentsPerPost)
		for j := 0; j < n; j++ {
			approved := models.CommentApproved
			if s.faker.Number(0, 2) == 0 {
				approved = models.CommentPending
			}
			at := p.PublishedAt.Add(time.Duration(s.faker.Number(1, 72)) * time.Hour)
			if at.After(s.now) {
				at = s.now
			}
			comments = append(comments, models.Comment{
				PostID:    p.ID,
				UserID:    users[s.faker.Number(0, len(users)-1)].ID,
				Content:   s.faker.Paragraph(1, s.faker.Number(1, 3), 10, " "),
				Approved:  approved,
				CreatedAt: at,
			})
		}
	}
	if len(comments) == 0 {
		return comments, nil
	}
	if err := tx.CreateInBatches(&comments, 200).Error; err != nil {
		return nil, fmt.Errorf("create comments: %w", err)
	}
	return comments, nil
}

func (s *Seeder) pastTime() time.Time {
	return s.faker.DateRange(s.now.AddDate(0, 0, -s.opts.MaxDays), s.now.Add(-time.Hour))
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func strPtr(s string) *string { return &s }
