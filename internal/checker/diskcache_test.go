package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)

	resp := &Response{
		Language: Language{Name: "German", Code: "de-DE"},
		Matches: []Match{{
			Message:      "Grammar",
			Offset:       5,
			Length:       3,
			Replacements: []Replacement{{Value: "ist"}},
			Rule: Rule{
				ID:        "DE_AGREEMENT",
				IssueType: "grammar",
				URLs:      []URL{{Value: "https://example.org"}},
				Category:  Category{ID: "GRAMMAR", Name: "Grammar"},
			},
		}},
	}
	require.NoError(t, c.Put("abcdef", resp))

	var out Response
	ok, err := c.Get("abcdef", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *resp, out)

	ok, err = c.Get("missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.DropAll())
	ok, err = c.Get("abcdef", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiskCacheNilIsNoop(t *testing.T) {
	var c *DiskCache
	assert.NoError(t, c.Put("k", &Response{}))
	ok, err := c.Get("k", &Response{})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.DropAll())
	assert.Equal(t, "", c.Dir())
}
