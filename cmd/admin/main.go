// Package main provides operator tooling for comment moderation and user roles.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"blog/internal/cache"
	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/models"
	"blog/internal/repository"
	"blog/internal/service"
)

const usage = `Usage:
  go run ./cmd/admin pending [limit]        - List comments awaiting approval
  go run ./cmd/admin approve <comment_id>   - Approve a pending comment
  go run ./cmd/admin promote <open_id>      - Grant the admin role
  go run ./cmd/admin demote <open_id>       - Revoke the admin role
  go run ./cmd/admin list-admins            - List all admins
  go run ./cmd/admin user <user_id>         - Show a user
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store := database.NewAccessor(cfg)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if !store.Available(ctx) {
		log.Fatal("No database available; set DATABASE_URL")
	}

	// Approving a comment drops the cached listing of its post, so the
	// admin tool shares the server's Redis when one is reachable.
	redisClient := cache.Connect(cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	a := newAdmin(store, cache.New(redisClient), cfg.OwnerOpenID, os.Stdout)
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type admin struct {
	moderation *service.ModerationService
	users      *service.UserService
	out        io.Writer
}

func newAdmin(store *database.Accessor, c *cache.Cache, ownerOpenID string, out io.Writer) *admin {
	commentRepo := repository.NewCommentRepository(store, c)
	userRepo := repository.NewUserRepository(store, ownerOpenID)
	return &admin{
		moderation: service.NewModerationService(commentRepo),
		users:      service.NewUserService(userRepo),
		out:        out,
	}
}

func (a *admin) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}

	switch args[0] {
	case "pending":
		limit := repository.DefaultPendingLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid limit %q", args[1])
			}
			limit = n
		}
		return a.listPending(ctx, limit)

	case "approve":
		if len(args) < 2 {
			return fmt.Errorf("usage: go run ./cmd/admin approve <comment_id>")
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid comment id %q", args[1])
		}
		return a.approve(ctx, uint(id))

	case "promote", "demote":
		if len(args) < 2 {
			return fmt.Errorf("usage: go run ./cmd/admin %s <open_id>", args[0])
		}
		role := models.RoleAdmin
		if args[0] == "demote" {
			role = models.RoleMember
		}
		return a.setRole(ctx, args[1], role)

	case "list-admins":
		return a.listAdmins(ctx)

	case "user":
		if len(args) < 2 {
			return fmt.Errorf("usage: go run ./cmd/admin user <user_id>")
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[1])
		}
		return a.showUser(ctx, uint(id))

	default:
		return fmt.Errorf("unknown command: %s\n\n%s", args[0], usage)
	}
}

func (a *admin) listPending(ctx context.Context, limit int) error {
	comments, err := a.moderation.ListPending(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch pending comments: %w", err)
	}
	if len(comments) == 0 {
		fmt.Fprintln(a.out, "No comments awaiting approval")
		return nil
	}

	fmt.Fprintf(a.out, "%d comment(s) awaiting approval:\n", len(comments))
	for _, c := range comments {
		fmt.Fprintf(a.out, "ID: %d | Post: %d | User: %d | %s | %s\n",
			c.ID, c.PostID, c.UserID, c.CreatedAt.Format(time.RFC3339), preview(c.Content, 60))
	}
	return nil
}

func (a *admin) approve(ctx context.Context, id uint) error {
	comment, err := a.moderation.Approve(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to approve comment %d: %w", id, err)
	}
	fmt.Fprintf(a.out, "Approved comment %d on post %d\n", comment.ID, comment.PostID)
	return nil
}

func (a *admin) setRole(ctx context.Context, openID string, role models.Role) error {
	user := a.users.GetByOpenID(ctx, openID)
	if user == nil {
		return fmt.Errorf("user with openId %s not found", openID)
	}
	if user.Role == role {
		fmt.Fprintf(a.out, "User %s (ID: %d) already has role %s\n", openID, user.ID, role)
		return nil
	}
	if err := a.users.SetRole(ctx, openID, role); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	fmt.Fprintf(a.out, "User %s (ID: %d) is now %s\n", openID, user.ID, role)
	return nil
}

func (a *admin) listAdmins(ctx context.Context) error {
	admins, err := a.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch admins: %w", err)
	}
	if len(admins) == 0 {
		fmt.Fprintln(a.out, "No admins found")
		return nil
	}
	for _, u := range admins {
		fmt.Fprintf(a.out, "ID: %d | OpenID: %s | Email: %s\n", u.ID, u.OpenID, deref(u.Email))
	}
	return nil
}

func (a *admin) showUser(ctx context.Context, id uint) error {
	u := a.users.GetByID(ctx, id)
	if u == nil {
		return fmt.Errorf("user with ID %d not found", id)
	}
	fmt.Fprintf(a.out, "ID: %d\nOpenID: %s\nName: %s\nEmail: %s\nLogin method: %s\nRole: %s\nLast signed in: %s\n",
		u.ID, u.OpenID, deref(u.Name), deref(u.Email), deref(u.LoginMethod), u.Role,
		u.LastSignedIn.Format(time.RFC3339))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
