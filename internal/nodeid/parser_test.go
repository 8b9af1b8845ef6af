// internal/nodeid/parser_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		rawID     string
		expectErr bool
		expected  Address
	}{
		{name: "simple", rawID: "shop.orders", expected: New("shop", "orders")},
		{name: "underscore lead", rawID: "_pkg._tmp", expected: New("_pkg", "_tmp")},
		{name: "digits after first", rawID: "p2.stg_orders_v2", expected: New("p2", "stg_orders_v2")},
		{name: "error - empty", rawID: "", expectErr: true},
		{name: "error - unqualified", rawID: "orders", expectErr: true},
		{name: "error - digit lead", rawID: "shop.1orders", expectErr: true},
		{name: "error - extra segment", rawID: "a.b.c", expectErr: true},
		{name: "error - hyphen", rawID: "my-pkg.orders", expectErr: true},
		{name: "error - empty name", rawID: "shop.", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Parse(tc.rawID)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, addr)
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("orders"))
	assert.True(t, ValidIdentifier("_x"))
	assert.False(t, ValidIdentifier("9lives"))
	assert.False(t, ValidIdentifier("über"))
	assert.False(t, ValidIdentifier(""))
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
	assert.NotPanics(t, func() { MustParse("a.b") })
}
