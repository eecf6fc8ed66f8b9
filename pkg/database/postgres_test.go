package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cefib-pe/cefib-admin-api/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "cefib", Password: "secret", Name: "cefib_admin", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=cefib password=secret dbname=cefib_admin sslmode=disable application_name=cefib-admin-api", DSN(cfg))

	cfg.URL = "postgres://cefib:secret@db:5432/cefib_admin?sslmode=require"
	assert.Equal(t, cfg.URL, DSN(cfg))
}
