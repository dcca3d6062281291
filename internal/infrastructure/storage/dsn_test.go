package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "planner.db?_foreign_keys=on", withForeignKeys("planner.db"))
	assert.Equal(t, "planner.db?_busy_timeout=5000&_foreign_keys=on", withForeignKeys("planner.db?_busy_timeout=5000"))
	assert.Equal(t, ":memory:?_foreign_keys=on", withForeignKeys(":memory:"))
}
