package utils

import (
	"os"
	"strconv"

	"github.com/google/uuid"
)

// DefaultSemaphoreLimit bounds concurrent LLM and database calls.
const DefaultSemaphoreLimit = 10

// GetSemaphoreLimit reads SEMAPHORE_LIMIT, falling back to DefaultSemaphoreLimit.
func GetSemaphoreLimit() int {
	val := os.Getenv("SEMAPHORE_LIMIT")
	if val == "" {
		return DefaultSemaphoreLimit
	}
	limit, err := strconv.Atoi(val)
	if err != nil || limit <= 0 {
		return DefaultSemaphoreLimit
	}
	return limit
}

// GenerateUUID returns a new random UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}
