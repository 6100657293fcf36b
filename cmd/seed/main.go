// Command seed fills the configured database with demo content.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"blog/internal/cache"
	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "Number of users to create")
	categories := flag.Int("categories", defaults.Categories, "Number of categories to ensure")
	posts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Maximum comments per published post")
	draftEvery := flag.Int("draft-every", defaults.DraftEvery, "Leave every Nth post unpublished (0 disables drafts)")
	clean := flag.Bool("clean", false, "Delete existing blog data before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed for reproducible content (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	store := database.NewAccessor(cfg)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := store.DB(ctx)
	if db == nil {
		log.Fatal("No database available; set DATABASE_URL")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Seeding: %d users, %d categories, %d posts, clean=%v", *users, *categories, *posts, *clean)
	summary, err := seed.New(db, seed.Options{
		Users:           *users,
		Categories:      *categories,
		Posts:           *posts,
		CommentsPerPost: *comments,
		DraftEvery:      *draftEvery,
		MaxDays:         defaults.MaxDays,
		Clean:           *clean,
		Seed:            *seedValue,
	}).Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// Cached listings would otherwise hide the new content until they expire.
	if rdb := cache.Connect(cfg.RedisURL); rdb != nil {
		if err := rdb.FlushDB(ctx).Err(); err != nil {
			log.Printf("Failed to flush cache: %v", err)
		}
		_ = rdb.Close()
	}

	log.Printf("Done: %d posts (%d drafts), %d comments (%d pending)",
		summary.Posts, summary.Drafts, summary.Comments, summary.Pending)
}
