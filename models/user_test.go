package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPassword(t *testing.T) {
	u := &User{Name: "Reader", Email: "reader@lumina.local", Role: RoleUser}
	require.NoError(t, u.SetPassword("s3cret"))

	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, u.CheckPassword("s3cret"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.False(t, u.CheckPassword(""))
}

func TestIsLibrarian(t *testing.T) {
	assert.True(t, (&User{Role: RoleLibrarian}).IsLibrarian())
	assert.False(t, (&User{Role: RoleUser}).IsLibrarian())
}
