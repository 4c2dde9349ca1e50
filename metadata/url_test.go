package metadata_test

import (
	"testing"

	"github.com/fwojciec/itemize"
	"github.com/fwojciec/itemize/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"strips fragment", "https://example.com/page#section", "https://example.com/page"},
		{"strips default https port", "https://example.com:443/page", "https://example.com/page"},
		{"strips default http port", "http://example.com:80/page", "http://example.com/page"},
		{"keeps non-default port", "https://example.com:8443/page", "https://example.com:8443/page"},
		{"keeps query string", "https://example.com/page?a=1&b=2", "https://example.com/page?a=1&b=2"},
		{"trims whitespace", "  https://example.com/page  ", "https://example.com/page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := metadata.NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects relative URLs", func(t *testing.T) {
		t.Parallel()

		_, err := metadata.NormalizeURL("/just/a/path")
		require.Error(t, err)
		assert.Equal(t, itemize.EINVALID, itemize.ErrorCode(err))
	})

	t.Run("rejects unparseable URLs", func(t *testing.T) {
		t.Parallel()

		_, err := metadata.NormalizeURL("http://exa mple.com/%zz")
		require.Error(t, err)
		assert.Equal(t, itemize.EINVALID, itemize.ErrorCode(err))
	})
}
