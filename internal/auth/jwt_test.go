package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssueParse(t *testing.T) {
	tok, err := Issue("sid-1", "attendance-console", "secret")
	assert.NoError(t, err)

	id, err := Parse(tok, "secret", "attendance-console")
	assert.NoError(t, err)
	assert.Equal(t, "sid-1", id)
}

func TestParseRejects(t *testing.T) {
	tok, err := Issue("sid-1", "attendance-console", "secret")
	assert.NoError(t, err)

	_, err = Parse(tok, "other-secret", "attendance-console")
	assert.Error(t, err)

	_, err = Parse(tok, "secret", "someone-else")
	assert.Error(t, err)

	_, err = Parse(tok+"x", "secret", "attendance-console")
	assert.Error(t, err)

	_, err = Issue("", "attendance-console", "secret")
	assert.Error(t, err)
}
