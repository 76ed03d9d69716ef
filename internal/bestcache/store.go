package bestcache

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"shrike/internal/support"
)

const bestProxyKey = "best_proxy"

// Store recalls the best endpoint of the previous run. The file under
// the output dir is the durable copy; redis, when configured, is a
// faster mirror shared between hosts. Every redis problem degrades to
// file state instead of failing the run.
type Store struct {
	filePath string
}

func New(filePath string) *Store {
	return &Store{filePath: filePath}
}

// Load returns the previous best endpoint, or "" when none is recorded.
func (store *Store) Load(ctx context.Context) string {
	if endpoint := store.loadRedis(ctx); endpoint != "" {
		return endpoint
	}
	return store.loadFile()
}

// Mirror pushes the endpoint of a finished run into redis. An empty
// endpoint clears the key so a demoted best cannot outlive its run.
func (store *Store) Mirror(ctx context.Context, endpoint string) {
	client, err := support.GetRedisClient()
	if err != nil {
		if !errors.Is(err, support.ErrRedisNotConfigured) {
			log.Warn("Redis unavailable for best-proxy mirror", "error", err)
		}
		return
	}

	if endpoint == "" {
		if err := client.Del(ctx, bestProxyKey).Err(); err != nil {
			log.Warn("Redis best-proxy clear failed", "error", err)
		}
		return
	}

	if err := client.Set(ctx, bestProxyKey, endpoint, 0).Err(); err != nil {
		log.Warn("Redis best-proxy mirror failed", "error", err)
	}
}

func (store *Store) loadRedis(ctx context.Context) string {
	client, err := support.GetRedisClient()
	if err != nil {
		if !errors.Is(err, support.ErrRedisNotConfigured) {
			log.Warn("Redis unavailable for best-proxy lookup", "error", err)
		}
		return ""
	}

	endpoint, err := client.Get(ctx, bestProxyKey).Result()
	if errors.Is(err, redis.Nil) {
		return ""
	}
	if err != nil {
		log.Warn("Redis best-proxy lookup failed", "error", err)
		return ""
	}

	return strings.TrimSpace(endpoint)
}

func (store *Store) loadFile() string {
	data, err := os.ReadFile(store.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("Could not read best-proxy file", "path", store.filePath, "error", err)
		}
		return ""
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
	return strings.TrimSpace(line)
}
