package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	ThreadKeyPrefix      = "thread:%d"
	CategoryListKey      = "categories"
	ChannelHistoryPrefix = "chat:%s:messages"
	OnlineUsersKey       = "chat:online"
	AdminStatsKey        = "admin:stats"
)

const (
	UserTTL           = 5 * time.Minute
	ThreadTTL         = 10 * time.Minute
	CategoryListTTL   = 30 * time.Minute
	ChannelHistoryTTL = 30 * time.Second
	OnlineUsersTTL    = 30 * time.Second
	AdminStatsTTL     = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ThreadKey(threadID uint) string {
	return fmt.Sprintf(ThreadKeyPrefix, threadID)
}

func ChannelHistoryKey(channel string) string {
	return fmt.Sprintf(ChannelHistoryPrefix, channel)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateThread(ctx context.Context, threadID uint) {
	Invalidate(ctx, ThreadKey(threadID))
}

func InvalidateChannel(ctx context.Context, channel string) {
	Invalidate(ctx, ChannelHistoryKey(channel))
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoryListKey)
}
