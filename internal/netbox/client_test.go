package netbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kneutral-org/inventory-dashboard/internal/inventory"
	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

func newFixtureServer(t *testing.T, status int, body []byte) (*httptest.Server, *graphQLRequest) {
	t.Helper()
	seen := &graphQLRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestClient_Fetch(t *testing.T) {
	body, err := os.ReadFile("testdata/fetch_topology.json")
	require.NoError(t, err)
	srv, seen := newFixtureServer(t, http.StatusOK, body)

	client := New(srv.URL, "secret")
	assert.Equal(t, "netbox", client.Name())

	inv, err := client.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "FetchTopology", seen.OperationName)
	assert.Contains(t, seen.Query, "device_list")

	require.Len(t, inv.DeviceTypes, 2)
	assert.True(t, inv.DeviceTypes[0].HasTag("routeros"))

	require.Len(t, inv.Devices, 2)
	core := inv.Devices[0]
	assert.Equal(t, uint32(10), core.ID)
	assert.Equal(t, "core-1", core.Name)
	assert.Equal(t, "router", core.Role)
	require.NotNil(t, core.Location)
	assert.Equal(t, uint32(100), *core.Location)
	assert.Equal(t, inventory.RoleLoopback, core.Interfaces[0].IPAddresses[0].Role)
	assert.Equal(t, "", core.Interfaces[1].IPAddresses[0].Role)

	panel := inv.Devices[1]
	assert.Equal(t, "", panel.Name)
	assert.Nil(t, panel.Location)
	require.Len(t, panel.FrontPorts, 1)
	assert.Equal(t, uint32(2000), panel.FrontPorts[0].RearPort.ID)

	require.Len(t, inv.Cables, 1)
	assert.Equal(t, inventory.Cable{
		ID: 1,
		A:  inventory.Termination{Kind: inventory.TerminationInterface, Port: 1001},
		B:  inventory.Termination{Kind: inventory.TerminationFrontPort, Port: 2001},
	}, inv.Cables[0])
}

func TestClient_FetchBuildsTopology(t *testing.T) {
	body, err := os.ReadFile("testdata/fetch_topology.json")
	require.NoError(t, err)
	srv, _ := newFixtureServer(t, http.StatusOK, body)

	load := inventory.NewConverter().Loader(New(srv.URL, "secret"))
	topo, err := load(context.Background())
	require.NoError(t, err)

	core, ok := topo.DeviceByID(10)
	require.True(t, ok)
	assert.True(t, core.HasRouterOS())
	assert.Equal(t, topology.CategoryRouter, core.Category())
	addr, ok := core.LoopbackAddress()
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", addr.String())

	site, ok := topo.SiteByID(1)
	require.True(t, ok)
	assert.Equal(t, []string{"Main Street 1", "8000 Zurich"}, site.AddressLines())
	assert.Equal(t, 1, topo.LinkCount())
}

func TestClient_Errors(t *testing.T) {
	t.Run("graphql errors without data", func(t *testing.T) {
		srv, _ := newFixtureServer(t, http.StatusOK,
			[]byte(`{"data": null, "errors": [{"message": "permission denied"}]}`))

		_, err := New(srv.URL, "secret").Fetch(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGraphQL)

		var qe *QueryError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, "FetchTopology", qe.Operation)
		assert.Contains(t, err.Error(), "permission denied")
	})

	t.Run("non-2xx status", func(t *testing.T) {
		srv, _ := newFixtureServer(t, http.StatusForbidden, []byte(`{"detail": "Invalid token"}`))

		_, err := New(srv.URL, "secret").Fetch(context.Background())
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusForbidden, se.StatusCode)
		assert.Contains(t, se.Body, "Invalid token")
	})

	t.Run("invalid id", func(t *testing.T) {
		srv, _ := newFixtureServer(t, http.StatusOK,
			[]byte(`{"data": {"device_type_list": [{"id": "x1", "model": "RB"}]}}`))

		_, err := New(srv.URL, "secret").Fetch(context.Background())
		assert.ErrorIs(t, err, inventory.ErrInvalidRecord)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv, _ := newFixtureServer(t, http.StatusOK, []byte(`<html>`))

		_, err := New(srv.URL, "secret").Fetch(context.Background())
		assert.Error(t, err)
	})

	t.Run("no endpoint", func(t *testing.T) {
		_, err := New("", "secret").Fetch(context.Background())
		assert.ErrorIs(t, err, ErrNoEndpoint)
	})
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := New(srv.URL, "secret", WithTimeout(50*time.Millisecond))
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv, _ := newFixtureServer(t, http.StatusOK, []byte(`{"data": {}}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, "secret").Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
