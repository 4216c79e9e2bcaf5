package oauth

import (
	"net/url"
	"testing"

	"fareguard-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
)

func TestGenerateAuthURL(t *testing.T) {
	o := NewGmailOAuth("client-1", "secret", "", "http://localhost:8090/oauth2callback", logger.NewNopLogger())

	u, err := url.Parse(o.GenerateAuthURL("state-1"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, gmail.GmailSendScope, q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
}

func TestTokenToJSON(t *testing.T) {
	o := NewGmailOAuth("client-1", "secret", "", "", logger.NewNopLogger())
	out, err := o.TokenToJSON(&oauth2.Token{RefreshToken: "refresh-1"})
	require.NoError(t, err)
	assert.Contains(t, out, `"refresh_token": "refresh-1"`)
}
