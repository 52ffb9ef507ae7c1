package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	"github.com/felixgeelhaar/aira/internal/groups/application/queries"
	"github.com/felixgeelhaar/aira/pkg/config"
	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	groupCalls atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/waha/groups":
		f.groupCalls.Add(1)
		_, _ = io.WriteString(w, `{"groups":[{"w_id":"fam@g.us","chat_name":"Family"}],"chats":[]}`)
	case "/connectors":
		_, _ = io.WriteString(w, `[{"id":"whatsapp","is_connected":true}]`)
	default:
		http.NotFound(w, r)
	}
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		AppEnv:          "development",
		APIURL:          apiURL,
		APITimeout:      time.Second,
		Platform:        "web",
		BreakerFailures: 3,
		BreakerTimeout:  time.Second,
		GroupCacheTTL:   time.Minute,
	}
}

func TestNewContainer(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	c, err := NewContainer(ctx, testConfig(ts.URL), observability.Discard())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.GroupCache)

	deps, err := c.FormDeps(ctx)
	require.NoError(t, err)
	require.Len(t, deps.Groups, 1)
	assert.Equal(t, "Family", deps.Groups[0].ChatName)
	for _, conn := range deps.Connectors {
		assert.Equal(t, conn.ID == connectors.WhatsApp, conn.IsConnected)
	}
}

func TestNewContainer_RedisCache(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)
	mr := miniredis.RunT(t)

	cfg := testConfig(ts.URL)
	cfg.RedisURL = "redis://" + mr.Addr()
	c, err := NewContainer(ctx, cfg, observability.Discard())
	require.NoError(t, err)
	defer c.Close()
	require.NotNil(t, c.GroupCache)

	for i := 0; i < 3; i++ {
		res, err := c.GroupService.ListGroups(ctx, queries.ListGroupsQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
	}
	assert.Equal(t, int32(1), api.groupCalls.Load())
}

func TestNewContainer_RedisUnavailable(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(&fakeAPI{})
	t.Cleanup(ts.Close)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(ts.URL)
	cfg.RedisURL = "redis://" + addr

	c, err := NewContainer(ctx, cfg, observability.Discard())
	require.NoError(t, err)
	assert.Nil(t, c.GroupCache)
	c.Close()

	cfg.AppEnv = "production"
	_, err = NewContainer(ctx, cfg, observability.Discard())
	assert.Error(t, err)
}

func TestNewContainer_InvalidAPIURL(t *testing.T) {
	_, err := NewContainer(context.Background(), testConfig("ftp://nope"), observability.Discard())
	assert.Error(t, err)
}

func TestCacheNamespace(t *testing.T) {
	assert.Equal(t, "api.example.com:8443", cacheNamespace("https://api.example.com:8443/v1"))
	assert.Equal(t, "default", cacheNamespace("::"))
}
