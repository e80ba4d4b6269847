package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyRoute(t *testing.T) {
	assert.Equal(t, "/auth/verify?phone=%2B254712345678", VerifyRoute("+254712345678"))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	assert.Equal(t, "", r.Last())

	var n Navigator = &r
	n.Navigate(Login)
	n.Navigate(Dashboard)
	assert.Equal(t, []string{Login, Dashboard}, r.Routes())
	assert.Equal(t, Dashboard, r.Last())
}

func TestFunc(t *testing.T) {
	var got string
	Func(func(route string) { got = route }).Navigate(Signup)
	assert.Equal(t, Signup, got)
}
