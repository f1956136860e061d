package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"meridian/internal/shared/logger"
)

// MinutePoint is one minute of a user's traffic series.
type MinutePoint struct {
	Minute   time.Time `json:"minute"`
	Upload   int64     `json:"upload"`
	Download int64     `json:"download"`
}

// UserTrafficCache keeps a best-effort per-user per-minute traffic series in
// Redis. Writes happen after the relational settlement committed; a cache
// failure is logged and swallowed, the ledger stays canonical.
type UserTrafficCache struct {
	client *redis.Client
	logger logger.Interface
}

func NewUserTrafficCache(client *redis.Client, logger logger.Interface) *UserTrafficCache {
	return &UserTrafficCache{
		client: client,
		logger: logger,
	}
}

// One hash per user per UTC day, fields keyed by HH:MM with :up/:down
// suffixes. Two-day TTL keeps a rolling 24h window readable.
func dayKey(userID uint, day time.Time) string {
	return fmt.Sprintf("user:%d:traffic:%s", userID, day.UTC().Format("20060102"))
}

// RecordMinute accumulates traffic into the current minute bucket.
func (c *UserTrafficCache) RecordMinute(ctx context.Context, userID uint, upload, download int64) error {
	now := time.Now().UTC()
	key := dayKey(userID, now)
	field := now.Format("15:04")

	pipe := c.client.Pipeline()
	if upload > 0 {
		pipe.HIncrBy(ctx, key, field+":up", upload)
	}
	if download > 0 {
		pipe.HIncrBy(ctx, key, field+":down", download)
	}
	pipe.Expire(ctx, key, 48*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warnw("failed to record minute traffic",
			"user_id", userID, "upload", upload, "download", download, "error", err)
		return fmt.Errorf("failed to record minute traffic: %w", err)
	}
	return nil
}

// Last24h returns the user's minute series for the trailing 24 hours, oldest
// first.
func (c *UserTrafficCache) Last24h(ctx context.Context, userID uint) ([]MinutePoint, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour)

	points := make(map[time.Time]*MinutePoint)
	for _, day := range []time.Time{cutoff, now} {
		values, err := c.client.HGetAll(ctx, dayKey(userID, day)).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to read traffic series: %w", err)
		}
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		for field, raw := range values {
			// field layout is HH:MM:up / HH:MM:down
			var dir, hhmm string
			switch {
			case strings.HasSuffix(field, ":up"):
				dir = "up"
				hhmm = strings.TrimSuffix(field, ":up")
			case strings.HasSuffix(field, ":down"):
				dir = "down"
				hhmm = strings.TrimSuffix(field, ":down")
			default:
				continue
			}
			t, err := time.Parse("15:04", hhmm)
			if err != nil {
				continue
			}
			minute := dayStart.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
			if minute.Before(cutoff) || minute.After(now) {
				continue
			}
			bytes, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			p, found := points[minute]
			if !found {
				p = &MinutePoint{Minute: minute}
				points[minute] = p
			}
			if dir == "up" {
				p.Upload += bytes
			} else {
				p.Download += bytes
			}
		}
	}

	series := make([]MinutePoint, 0, len(points))
	for minute := cutoff.Truncate(time.Minute); !minute.After(now); minute = minute.Add(time.Minute) {
		if p, found := points[minute]; found {
			series = append(series, *p)
		}
	}
	return series, nil
}
