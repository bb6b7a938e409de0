package sinktoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeToken struct {
	closed *bool
}

func (t fakeToken) Close() { *t.closed = true }

func newFakeToken() (Token, *bool) {
	closed := false
	return fakeToken{closed: &closed}, &closed
}

func TestInstallReplacesAndClosesPrevious(t *testing.T) {
	r := NewRegistry()
	tok1, closed1 := newFakeToken()
	tok2, closed2 := newFakeToken()

	r.Install("sink", tok1)
	r.Install("sink", tok2)

	assert.True(t, *closed1)
	assert.False(t, *closed2)
}

func TestDeleteClosesAndRemoves(t *testing.T) {
	r := NewRegistry()
	tok, closed := newFakeToken()
	r.Install("sink", tok)

	r.Delete("sink")
	assert.True(t, *closed)

	assert.NotPanics(t, func() { r.Delete("sink") })
}

func TestDeleteAllClosesEverything(t *testing.T) {
	r := NewRegistry()
	tok1, closed1 := newFakeToken()
	tok2, closed2 := newFakeToken()
	r.Install("a", tok1)
	r.Install("b", tok2)

	r.DeleteAll()

	assert.True(t, *closed1)
	assert.True(t, *closed2)
}
