package globals

import (
	"context"
	"os"

	"github.com/joho/godotenv"
)

var JwtSecret []byte

func init() {
	// load .env before anything reads configuration
	_ = godotenv.Load()
	JwtSecret = []byte(envOr("JWT_SECRET", "change_this_secret"))
}

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const SessionIDKey ContextKey = "sessionId"

var Ctx = context.Background()

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
