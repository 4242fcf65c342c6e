package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, size, from, limit int
	}{
		{0, 0, 0, 10},
		{1, 10, 0, 10},
		{2, 10, 10, 10},
		{3, 25, 50, 25},
		{-1, -5, 0, 10},
		{1, 1000, 0, 10},
	}
	for _, tc := range cases {
		from, limit := Calculate(tc.page, tc.size)
		assert.Equal(t, tc.from, from, "page=%d size=%d", tc.page, tc.size)
		assert.Equal(t, tc.limit, limit, "page=%d size=%d", tc.page, tc.size)
	}
}
