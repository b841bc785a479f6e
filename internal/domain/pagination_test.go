package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Limit(t *testing.T) {
	tests := []struct {
		name string
		req  PageRequest
		want int
	}{
		{name: "zero uses default", req: PageRequest{}, want: DefaultMaxResults},
		{name: "negative uses default", req: PageRequest{MaxResults: -5}, want: DefaultMaxResults},
		{name: "within range", req: PageRequest{MaxResults: 50}, want: 50},
		{name: "clamped to max", req: PageRequest{MaxResults: 5000}, want: MaxMaxResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Limit())
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	t.Run("empty token is zero", func(t *testing.T) {
		assert.Equal(t, 0, PageRequest{}.Offset())
	})

	t.Run("round trip", func(t *testing.T) {
		token := EncodePageToken(250)
		assert.Equal(t, 250, PageRequest{PageToken: token}.Offset())
	})

	t.Run("garbage token is zero", func(t *testing.T) {
		assert.Equal(t, 0, PageRequest{PageToken: "not-base64!!"}.Offset())
	})
}

func TestNextPageToken(t *testing.T) {
	t.Run("more pages remain", func(t *testing.T) {
		token := NextPageToken(0, 100, 250)
		assert.NotEmpty(t, token)
		assert.Equal(t, 100, PageRequest{PageToken: token}.Offset())
	})

	t.Run("exactly exhausted", func(t *testing.T) {
		assert.Empty(t, NextPageToken(200, 100, 300))
	})

	t.Run("past the end", func(t *testing.T) {
		assert.Empty(t, NextPageToken(0, 100, 40))
	})
}

func TestUserBaseline_HasTable(t *testing.T) {
	b := UserBaseline{CommonTables: map[string]struct{}{"orders": {}, "users": {}}}
	assert.True(t, b.HasTable("orders"))
	assert.False(t, b.HasTable("shadow_table"))
	assert.False(t, UserBaseline{}.HasTable("orders"))
}
