package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"ops@example.com", "lead@example.com"}, splitList(" Ops@Example.com, ,lead@example.com "))
	assert.Nil(t, splitList(""))
}

func TestGetDuration(t *testing.T) {
	t.Setenv("CATALOG_TTL", "90s")
	assert.Equal(t, 90*time.Second, getDuration("CATALOG_TTL", time.Minute))
	assert.Equal(t, time.Minute, getDuration("UNSET_DURATION_KEY", time.Minute))
}

func TestGetInt(t *testing.T) {
	t.Setenv("REDIS_DB", "3")
	assert.Equal(t, 3, getInt("REDIS_DB", 0))
	assert.Equal(t, 7, getInt("UNSET_INT_KEY", 7))
}
