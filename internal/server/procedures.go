package server

import (
	"encoding/json"
	"math"
	"time"

	"blog/internal/models"
	"blog/internal/service"
)

// Comment submissions allowed per user per window.
const (
	commentRateLimit  = 5
	commentRateWindow = time.Minute
)

type noInput struct{}

type successOutput struct {
	Success bool `json:"success"`
}

type slugInput struct {
	Slug string `json:"slug"`
}

type categoryInput struct {
	CategoryID json.Number `json:"categoryId"`
}

type postInput struct {
	PostID json.Number `json:"postId"`
}

// lookupID maps a numeric lookup key to a row id. Numbers no row can carry
// map to 0, which matches nothing.
func lookupID(n json.Number) uint {
	f, err := n.Float64()
	if err != nil || f <= 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return 0
	}
	return uint(f)
}

type createCommentInput struct {
	PostID  uint   `json:"postId"`
	Content string `json:"content"`
}

var (
	slugSchema = Schema{Fields: []Field{
		{Name: "slug", Type: TypeString, Required: true},
	}}
	categorySchema = Schema{Fields: []Field{
		{Name: "categoryId", Type: TypeNumber, Required: true},
	}}
	postSchema = Schema{Fields: []Field{
		{Name: "postId", Type: TypeNumber, Required: true},
	}}
	createCommentSchema = Schema{Fields: []Field{
		{Name: "postId", Type: TypeInteger, Required: true, Positive: true},
		{Name: "content", Type: TypeString, Required: true, MinLength: models.CommentMinLength, MaxLength: models.CommentMaxLength},
	}}
)

// registerProcedures wires every API procedure into r.
func (s *Server) registerProcedures(r *Registry) {
	Public(r, "auth.me", KindQuery, NoInput, func(req PublicRequest, _ noInput) (*models.User, error) {
		return req.User, nil
	})
	Public(r, "auth.logout", KindMutation, NoInput, func(req PublicRequest, _ noInput) (successOutput, error) {
		req.ClearSession()
		return successOutput{Success: true}, nil
	})

	Public(r, "blog.posts.list", KindQuery, NoInput, func(req PublicRequest, _ noInput) ([]models.Post, error) {
		return s.contentService.ListPublishedPosts(req.Ctx), nil
	})
	Public(r, "blog.posts.bySlug", KindQuery, slugSchema, func(req PublicRequest, in slugInput) (*models.Post, error) {
		return s.contentService.GetPostBySlug(req.Ctx, in.Slug), nil
	})
	Public(r, "blog.posts.byCategory", KindQuery, categorySchema, func(req PublicRequest, in categoryInput) ([]models.Post, error) {
		return s.contentService.ListPostsByCategory(req.Ctx, lookupID(in.CategoryID)), nil
	})
	Public(r, "blog.categories.list", KindQuery, NoInput, func(req PublicRequest, _ noInput) ([]models.Category, error) {
		return s.contentService.ListCategories(req.Ctx), nil
	})
	Public(r, "blog.comments.byPostId", KindQuery, postSchema, func(req PublicRequest, in postInput) ([]models.Comment, error) {
		return s.contentService.ListApprovedComments(req.Ctx, lookupID(in.PostID)), nil
	})

	Protected(r, "blog.comments.create", KindMutation, createCommentSchema, func(req ProtectedRequest, in createCommentInput) (successOutput, error) {
		_, err := s.commentService.CreateComment(req.Ctx, service.CreateCommentInput{
			UserID:  req.User.ID,
			PostID:  in.PostID,
			Content: in.Content,
		})
		if err != nil {
			return successOutput{}, err
		}
		return successOutput{Success: true}, nil
	}, WithRateLimit("comments.create", commentRateLimit, commentRateWindow))
}
