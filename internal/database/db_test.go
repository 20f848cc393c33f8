package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_DSN(t *testing.T) {
	s := Settings{User: "engine", Pass: "s3cret", Host: "db.local", Port: "3306", Name: "pricing"}
	assert.Equal(t,
		"engine:s3cret@tcp(db.local:3306)/pricing?charset=utf8mb4&parseTime=true&loc=UTC",
		s.dsn())
}

func TestSettings_DSNWithoutPassword(t *testing.T) {
	s := Settings{User: "engine", Host: "localhost", Port: "3306", Name: "pricing"}
	assert.Equal(t,
		"engine@tcp(localhost:3306)/pricing?charset=utf8mb4&parseTime=true&loc=UTC",
		s.dsn())
}
