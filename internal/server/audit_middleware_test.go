package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathEntityID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want string
	}{
		{"/orders/order-1/status", "order-1"},
		{"/orders/order-1/slip", "order-1"},
		{"/returns/RET123/status", "RET123"},
		{"/tailors/tailor-9/review", "tailor-9"},
		{"/orders", ""},
		{"/", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, pathEntityID(tc.path), "path=%s", tc.path)
	}
}
