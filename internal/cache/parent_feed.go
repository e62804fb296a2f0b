package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const feedLength = 50

// FeedItem is one entry of a parent's activity feed.
type FeedItem struct {
	Kind      string    `json:"kind"`
	StudentID string    `json:"student_id"`
	SubjectID string    `json:"subject_id,omitempty"`
	Score     *int      `json:"score,omitempty"`
	At        time.Time `json:"at"`
}

// ParentFeed keeps the latest activity of each parent's children, newest first.
type ParentFeed struct {
	client *redis.Client
}

// NewParentFeed builds the store.
func NewParentFeed(client *redis.Client) *ParentFeed {
	return &ParentFeed{client: client}
}

func feedKey(parentID string) string {
	return "parent:feed:" + parentID
}

// Push prepends item and trims the feed.
func (f *ParentFeed) Push(ctx context.Context, parentID string, item FeedItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, feedKey(parentID), data)
		pipe.LTrim(ctx, feedKey(parentID), 0, feedLength-1)
		return nil
	})
	return err
}

// List returns up to limit items, newest first.
func (f *ParentFeed) List(ctx context.Context, parentID string, limit int) ([]FeedItem, error) {
	if limit <= 0 || limit > feedLength {
		limit = feedLength
	}
	raw, err := f.client.LRange(ctx, feedKey(parentID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	items := make([]FeedItem, 0, len(raw))
	for _, r := range raw {
		var item FeedItem
		if err := json.Unmarshal([]byte(r), &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
