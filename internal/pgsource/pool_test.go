package pgsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSNFormat(t *testing.T) {
	cfg := Config{Host: "db:5432", User: "sponsortimes", Password: "hunter2", Name: "sponsortimes"}
	assert.Equal(t, "postgres://sponsortimes:hunter2@db:5432/sponsortimes", cfg.dsn())
}
