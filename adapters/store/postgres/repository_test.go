package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIdentityRepository(t *testing.T) {
	db := &Connection{}
	repo := NewIdentityRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewCredentialRepository(t *testing.T) {
	db := &Connection{}
	repo := NewCredentialRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewChallengeRepository(t *testing.T) {
	db := &Connection{}
	repo := NewChallengeRepository(db, 5*time.Minute)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
	assert.Equal(t, 5*time.Minute, repo.ttl)
}

func TestNewSessionRepository(t *testing.T) {
	db := &Connection{}
	repo := NewSessionRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestConnectionPing_NilPool(t *testing.T) {
	conn := &Connection{}

	assert.Error(t, conn.Ping(t.Context()))
	assert.NoError(t, conn.Close())
}
