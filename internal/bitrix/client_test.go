package bitrix

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) EnsureValidToken(ctx context.Context, portal string) (string, error) {
	s.calls++
	return s.token, s.err
}

func newTestClient(t *testing.T, tokens TokenSource, handler http.HandlerFunc) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewClient(tokens, zap.NewNop(), WithScheme("http"), WithHTTPClient(srv.Client())), u.Host
}

func TestCall_BuildsTokenURLAndPostsJSON(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]any
	c, host := newTestClient(t, &staticTokens{token: "tok-1"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"result":[{"ID":"1"}],"total":1}`))
	})

	resp, err := c.Call(context.Background(), host, "crm.contact.list", map[string]any{"start": 0})
	require.NoError(t, err)
	assert.Equal(t, "/rest/1/tok-1/crm.contact.list", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, float64(0), gotBody["start"])
	assert.Equal(t, 1, resp.Total)

	var contacts []Contact
	require.NoError(t, resp.Decode(&contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, ID("1"), contacts[0].ID)
}

func TestCall_NilPayloadSendsEmptyObject(t *testing.T) {
	var raw string
	c, host := newTestClient(t, &staticTokens{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		_, _ = w.Write([]byte(`{"result":{"ID":"7"}}`))
	})

	_, err := c.Call(context.Background(), host, "user.current", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)
}

func TestCall_BodyErrorIsUpstream(t *testing.T) {
	c, host := newTestClient(t, &staticTokens{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"ERROR_CORE","error_description":"Parameter 'fields' must be array"}`))
	})

	_, err := c.Call(context.Background(), host, "crm.contact.add", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamAPI))
	assert.Equal(t, "Bitrix24 API error: Parameter 'fields' must be array", domain.Message(err))

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "ERROR_CORE", de.Code)
	assert.Equal(t, http.StatusBadRequest, de.Status)
}

func TestCall_BodyErrorOn200(t *testing.T) {
	c, host := newTestClient(t, &staticTokens{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"NOT_FOUND"}`))
	})

	_, err := c.Call(context.Background(), host, "crm.contact.get", nil)
	assert.True(t, errors.Is(err, domain.ErrUpstreamAPI))
	assert.Equal(t, "Bitrix24 API error: NOT_FOUND", domain.Message(err))
}

func TestCall_StatusWithoutBodyError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   domain.TransportKind
		msg    string
	}{
		{"client", http.StatusForbidden, domain.TransportClientStatus, "Client error: 403 - Forbidden"},
		{"server", http.StatusServiceUnavailable, domain.TransportServerStatus, "Server error: 503 - Bitrix24 server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, host := newTestClient(t, &staticTokens{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("oops"))
			})

			_, err := c.Call(context.Background(), host, "crm.deal.list", nil)
			var de *domain.Error
			require.True(t, errors.As(err, &de))
			assert.True(t, errors.Is(err, domain.ErrTransport))
			assert.Equal(t, tt.kind, de.Transport)
			assert.Equal(t, tt.msg, de.Message)
		})
	}
}

func TestCall_TokenErrorStopsBeforeRequest(t *testing.T) {
	hit := false
	tokens := &staticTokens{err: domain.NewError(domain.ErrNoCredential, "No active token found for this domain")}
	c, host := newTestClient(t, tokens, func(w http.ResponseWriter, r *http.Request) { hit = true })

	_, err := c.Call(context.Background(), host, "crm.contact.list", nil)
	assert.True(t, errors.Is(err, domain.ErrNoCredential))
	assert.False(t, hit)
}

func TestCall_TimeoutIsClassifiedAndTokenNotLeaked(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)
	u, _ := url.Parse(srv.URL)

	c := NewClient(&staticTokens{token: "secret-token"}, zap.NewNop(),
		WithScheme("http"), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	_, err := c.Call(context.Background(), u.Host, "crm.contact.list", nil)
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.TransportTimeout, de.Transport)
	assert.Equal(t, "Request timeout - Bitrix24 server is not responding", de.Message)
	assert.False(t, strings.Contains(err.Error(), "secret-token"))
}

func TestCall_SingleAttempt(t *testing.T) {
	hits := 0
	c, host := newTestClient(t, &staticTokens{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Call(context.Background(), host, "crm.lead.list", nil)
	require.Error(t, err)
	assert.Equal(t, 1, hits)
}

func TestResponse_IsNull(t *testing.T) {
	assert.True(t, (&Response{}).IsNull())
	assert.True(t, (&Response{Result: json.RawMessage(" null")}).IsNull())
	assert.False(t, (&Response{Result: json.RawMessage(`{}`)}).IsNull())
}

func TestLookups_Payloads(t *testing.T) {
	type captured struct {
		path string
		body map[string]any
	}
	var got captured
	c, host := newTestClient(t, &staticTokens{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.body = nil
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		_, _ = w.Write([]byte(`{"result":[]}`))
	})
	ctx := context.Background()

	_, err := c.Deals(ctx, host, nil)
	require.NoError(t, err)
	assert.Equal(t, "/rest/1/t/crm.deal.list", got.path)
	assert.Equal(t, []any{"ID", "TITLE", "STAGE_ID", "OPPORTUNITY", "CURRENCY_ID"}, got.body["select"])
	assert.Equal(t, map[string]any{}, got.body["filter"])

	_, err = c.Leads(ctx, host, map[string]any{"STATUS_ID": "NEW"})
	require.NoError(t, err)
	assert.Equal(t, []any{"ID", "TITLE", "STATUS_ID", "SOURCE_ID", "OPPORTUNITY"}, got.body["select"])
	assert.Equal(t, map[string]any{"STATUS_ID": "NEW"}, got.body["filter"])

	_, err = c.Contacts(ctx, host, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"ID", "NAME", "LAST_NAME", "EMAIL", "PHONE"}, got.body["select"])

	_, err = c.CurrentUser(ctx, host)
	require.NoError(t, err)
	assert.Equal(t, "/rest/1/t/user.current", got.path)
}
