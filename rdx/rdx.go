package rdx

import (
	"os"
	"time"

	"avivia/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
}

// SetJSONString stores a pre-marshalled value under key.
func SetJSONString(key, val string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, val, ttl).Err()
}

// GetJSONString fetches a stored value; empty string when the key is absent.
func GetJSONString(key string) (string, error) {
	val, err := Conn.Get(globals.Ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
