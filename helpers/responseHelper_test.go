package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthPayload(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC)
	body := HealthPayload(3, now)

	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2025-03-14T12:30:00Z", body["timestamp"])
	assert.Equal(t, 3, body["connections"])
}
