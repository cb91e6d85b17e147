package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDigest(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, ContentDigest("lease terms"), ContentDigest("lease terms"))
	})

	t.Run("different content differs", func(t *testing.T) {
		assert.NotEqual(t, ContentDigest("lease terms"), ContentDigest("lease term"))
	})

	t.Run("hex encoded 256 bits", func(t *testing.T) {
		assert.Len(t, ContentDigest(""), 64)
	})
}

func TestNewDocumentID(t *testing.T) {
	a := NewDocumentID()
	b := NewDocumentID()
	assert.NotEqual(t, a, b)
	assert.Equal(t, 4, int(uuid.UUID(a).Version()))
}

func TestParseID(t *testing.T) {
	id := NewDocumentID()

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}

func TestAskRequestLimit(t *testing.T) {
	t.Run("absent uses default", func(t *testing.T) {
		req := &AskRequest{Query: "q"}
		assert.Equal(t, DefaultK, req.Limit())
	})

	tests := []struct {
		name string
		k    int
		want int
	}{
		{"explicit zero retrieves nothing", 0, 0},
		{"explicit", 3, 3},
		{"larger than default", 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := AskRequest{Query: "q"}.WithK(tt.k)
			assert.Equal(t, tt.want, req.Limit())
		})
	}
}

func TestAskRequestWithK(t *testing.T) {
	base := AskRequest{Query: "q", Address: "1 Main St"}
	req := base.WithK(0)

	require.NotNil(t, req.K)
	assert.Equal(t, 0, *req.K)
	assert.Equal(t, "1 Main St", req.Address)
	assert.Nil(t, base.K)
}
