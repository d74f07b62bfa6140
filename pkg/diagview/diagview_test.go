package diagview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentdb/diskquota/pkg/catalog"
	"github.com/segmentdb/diskquota/pkg/config"
	"github.com/segmentdb/diskquota/pkg/launcher"
	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	l := launcher.New(store, cfg, catalog.NewStaticCatalog(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, l.Start(ctx))
	require.NoError(t, l.Submit(ctx, launcher.CmdCreateExtension, 42))

	srv := NewServer(store, l)
	hsrv := httptest.NewServer(srv.Router())
	t.Cleanup(hsrv.Close)
	return srv, hsrv
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestShowDatabasesListsMonitoredDatabase(t *testing.T) {
	_, hsrv := newTestServer(t)

	var dbs []types.MonitoredDatabase
	getJSON(t, hsrv.URL+"/api/v1/databases", &dbs)
	require.Len(t, dbs, 1)
	assert.Equal(t, types.DatabaseID(42), dbs[0].DatabaseID)
}

func TestShowQuotaConfigsReflectsStore(t *testing.T) {
	srv, hsrv := newTestServer(t)
	require.NoError(t, srv.Store.UpsertQuotaConfig(types.QuotaConfig{
		Target: types.TargetID{PrimaryID: 1}, Type: types.QuotaTypeSchema, LimitMB: 100,
	}))

	var configs []types.QuotaConfig
	getJSON(t, hsrv.URL+"/api/v1/quota_configs", &configs)
	require.Len(t, configs, 1)
	assert.Equal(t, int64(100), configs[0].LimitMB)
}

func TestShowBlocklistForRunningDatabase(t *testing.T) {
	_, hsrv := newTestServer(t)

	var entries []types.BlocklistEntry
	resp := getJSON(t, hsrv.URL+"/api/v1/databases/42/blocklist", &entries)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, entries)
}

func TestShowBlocklistForUnknownDatabaseReturnsNotFound(t *testing.T) {
	_, hsrv := newTestServer(t)

	resp, err := http.Get(hsrv.URL + "/api/v1/databases/999/blocklist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
