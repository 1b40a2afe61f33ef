package persistence

import (
	"encoding/base64"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	start := time.Date(2024, 3, 1, 18, 30, 0, 123456789, time.FixedZone("BRT", -3*60*60))
	token := EncodeCursor(&domain.Cursor{StartedAt: start, ID: "3f0c6a4e-5d1b-4a8e-9c77-1f2b3c4d5e6f"})

	require.Equal(t, token, url.QueryEscape(token), "token must survive a query string unescaped")

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	require.True(t, decoded.StartedAt.Equal(start))
	require.Equal(t, "3f0c6a4e-5d1b-4a8e-9c77-1f2b3c4d5e6f", decoded.ID)
}

func TestCursorEmpty(t *testing.T) {
	require.Empty(t, EncodeCursor(nil))

	c, err := DecodeCursor("  ")
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestDecodeCursorRejectsMalformedTokens(t *testing.T) {
	for name, token := range map[string]string{
		"not base64": "%%%",
		"no sep":     base64.RawURLEncoding.EncodeToString([]byte("2024-03-01T00:00:00Z")),
		"bad time":   base64.RawURLEncoding.EncodeToString([]byte("yesterday|abc")),
		"empty id":   base64.RawURLEncoding.EncodeToString([]byte("2024-03-01T00:00:00Z|")),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(token)
			require.Error(t, err)
		})
	}
}
