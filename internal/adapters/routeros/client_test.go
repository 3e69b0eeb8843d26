package routeros

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/domain/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&Config{
		BaseURL:  srv.URL,
		Username: "admin",
		Password: "secret",
	}, srv.Client(), zap.NewNop())
}

func TestFindSecretByName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/ppp/secret", r.URL.Path)
		assert.Equal(t, "budi01@net", r.URL.Query().Get("name"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		w.Write([]byte(`[{".id":"*8A","name":"budi01@net","profile":"profile-10m"}]`))
	})

	id, err := c.FindSecretByName(context.Background(), "budi01@net")

	require.NoError(t, err)
	assert.Equal(t, "*8A", id)
}

func TestFindSecretByName_MissReturnsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.FindSecretByName(context.Background(), "ghost@net")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeSecretNotFound))
}

func TestSetSecretProfile_ResolvesNameFirst(t *testing.T) {
	var patched map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/ppp/secret":
			w.Write([]byte(`[{".id":"*8A","name":"budi01@net"}]`))
		case r.Method == http.MethodPatch && r.URL.Path == "/ppp/secret/*8A":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	err := c.SetSecretProfile(context.Background(), "budi01@net", "isolir", "suspended: overdue")

	require.NoError(t, err)
	assert.Equal(t, "isolir", patched["profile"])
	assert.Equal(t, "suspended: overdue", patched["comment"])
}

func TestSetSecretProfile_IDSkipsLookup(t *testing.T) {
	var gets, patches int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets++
		}
		if r.Method == http.MethodPatch {
			patches++
			assert.Equal(t, "/ppp/secret/*8A", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	})

	err := c.SetSecretProfile(context.Background(), "*8A", "profile-10m", "")

	require.NoError(t, err)
	assert.Equal(t, 0, gets)
	assert.Equal(t, 1, patches)
}

func TestListActiveSessionsAndDrop(t *testing.T) {
	var dropped []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/ppp/active":
			w.Write([]byte(`[{".id":"*F1","name":"budi01@net"},{".id":"*F2","name":"budi01@net"}]`))
		case r.Method == http.MethodDelete:
			dropped = append(dropped, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	ids, err := c.ListActiveSessions(context.Background(), "budi01@net")
	require.NoError(t, err)
	assert.Equal(t, []string{"*F1", "*F2"}, ids)

	for _, id := range ids {
		require.NoError(t, c.DropSession(context.Background(), id))
	}
	assert.Equal(t, []string{"/ppp/active/*F1", "/ppp/active/*F2"}, dropped)
}

func TestCreateProfile(t *testing.T) {
	var created map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/ppp/profile", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.Write([]byte(`{}`))
	})

	err := c.CreateProfile(context.Background(), ports.ProfileSpec{
		Name:      "isolir",
		RateLimit: "128k/128k",
		Comment:   "auto-created suspension profile",
	})

	require.NoError(t, err)
	assert.Equal(t, "isolir", created["name"])
	assert.Equal(t, "128k/128k", created["rate-limit"])
}

func TestErrorStatusIncludesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":400,"message":"invalid profile"}`))
	})

	err := c.CreateProfile(context.Background(), ports.ProfileSpec{Name: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "invalid profile")
}
