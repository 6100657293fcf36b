package cache

import (
	"fmt"
	"time"
)

const (
	PublishedPostsKey     = "posts:published"
	CategoriesKey         = "categories"
	PostSlugKeyPrefix     = "post:slug:%s"
	CategoryPostsPrefix   = "posts:category:%d"
	PostCommentsKeyPrefix = "comments:post:%d"
)

const (
	PublishedPostsTTL = 2 * time.Minute
	PostTTL           = 5 * time.Minute
	CategoryPostsTTL  = 2 * time.Minute
	CategoriesTTL     = 10 * time.Minute
	CommentsTTL       = 1 * time.Minute
)

func PostSlugKey(slug string) string {
	return fmt.Sprintf(PostSlugKeyPrefix, slug)
}

func CategoryPostsKey(categoryID uint) string {
	return fmt.Sprintf(CategoryPostsPrefix, categoryID)
}

func PostCommentsKey(postID uint) string {
	return fmt.Sprintf(PostCommentsKeyPrefix, postID)
}
