package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix    = "post:%d"
	GroupKeyPrefix   = "group:%s"
	ListingKeyPrefix = "pages:"
)

const (
	PostTTL  = 5 * time.Minute
	GroupTTL = 10 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

// ListingKey identifies one cached listing page by route path and page number.
func ListingKey(path string, page int) string {
	return fmt.Sprintf("%s%s?page=%d", ListingKeyPrefix, path, page)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateGroup(ctx context.Context, slug string) {
	Invalidate(ctx, GroupKey(slug))
}
