//go:build e2e

package e2e_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_LiveEndpoint verifies the liveness probe returns 200 OK.
func TestE2E_LiveEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	status, body := ts.getJSON(t, "/health/live")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

// TestE2E_ReadyEndpoint verifies the readiness probe returns 200 OK when
// the database is reachable.
func TestE2E_ReadyEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	status, body := ts.getJSON(t, "/health/ready")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

// TestE2E_HealthEndpoint verifies the health endpoint reports version and
// database component status.
func TestE2E_HealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	status, body := ts.getJSON(t, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

// TestE2E_CartLifecycle walks a cart through add, duplicate add, remove,
// and clear, checking the list after every step.
func TestE2E_CartLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	const user = "e2e-cart-user"

	status, body := ts.getJSON(t, "/api/cart/"+user)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, itemIDs(t, body))

	status, body = ts.postJSON(t, "/api/cart/"+user, map[string]any{"id": 1, "name": "Samba", "price": 99.9})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []int{1}, itemIDs(t, body))

	status, body = ts.postJSON(t, "/api/cart/"+user, map[string]any{"id": 2, "name": "Gazelle", "price": 89.9})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []int{2, 1}, itemIDs(t, body))

	// Re-adding an existing id changes nothing.
	status, body = ts.postJSON(t, "/api/cart/"+user, map[string]any{"id": 1, "name": "Samba Again", "price": 1})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []int{2, 1}, itemIDs(t, body))

	status = ts.del(t, "/api/cart/"+user+"/items/2")
	assert.Equal(t, http.StatusOK, status)

	_, body = ts.getJSON(t, "/api/cart/"+user)
	assert.Equal(t, []int{1}, itemIDs(t, body))

	status = ts.del(t, "/api/cart/"+user)
	assert.Equal(t, http.StatusNoContent, status)

	_, body = ts.getJSON(t, "/api/cart/"+user)
	assert.Empty(t, itemIDs(t, body))
}

// TestE2E_CartSurvivesRestart adds items, then rebuilds the whole server
// on the same database and expects the cart to rehydrate.
func TestE2E_CartSurvivesRestart(t *testing.T) {
	ts := setupTestServer(t)
	const user = "e2e-restart-user"

	status, _ := ts.postJSON(t, "/api/cart/"+user, map[string]any{"id": 7, "name": "Pegasus", "price": 129})
	require.Equal(t, http.StatusOK, status)

	ts2 := setupTestServer(t)
	_, body := ts2.getJSON(t, "/api/cart/"+user)
	assert.Equal(t, []int{7}, itemIDs(t, body))
}

// TestE2E_RecentlyViewedEviction adds more products than the list holds
// and expects the oldest entries to fall off.
func TestE2E_RecentlyViewedEviction(t *testing.T) {
	ts := setupTestServer(t)
	const user = "e2e-eviction-user"

	for i := 1; i <= 12; i++ {
		status, _ := ts.postJSON(t, "/api/recently-viewed/"+user,
			map[string]any{"id": i, "name": fmt.Sprintf("shoe-%d", i), "price": 10})
		require.Equal(t, http.StatusOK, status)
	}

	_, body := ts.getJSON(t, "/api/recently-viewed/"+user)
	ids := itemIDs(t, body)
	require.Len(t, ids, 10)
	assert.Equal(t, 12, ids[0])
	assert.Equal(t, 3, ids[9])
}

// TestE2E_ReconcileRemovesGhosts views three products, retires one in the
// catalog, and expects reconciliation to drop it from the list.
func TestE2E_ReconcileRemovesGhosts(t *testing.T) {
	ts := setupTestServer(t)
	const user = "e2e-reconcile-user"

	ts.seedProducts(t, []int{101, 102, 103}, 102)

	for _, id := range []int{101, 102, 103} {
		status, _ := ts.postJSON(t, "/api/recently-viewed/"+user,
			map[string]any{"id": id, "name": "shoe", "price": 10})
		require.Equal(t, http.StatusOK, status)
	}

	status, body := ts.postJSON(t, "/api/recently-viewed/"+user+"/reconcile",
		map[string]any{"ids": []int{101, 102, 103}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["checked"])
	assert.Equal(t, []int{103, 101}, itemIDs(t, body))
}

// TestE2E_ReconcileNotMountedForCart verifies the cart has no reconcile
// endpoint.
func TestE2E_ReconcileNotMountedForCart(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := ts.postJSON(t, "/api/cart/someone/reconcile", map[string]any{"ids": []int{1}})
	assert.Equal(t, http.StatusNotFound, status)
}

// TestE2E_AIFilters drives the filter endpoint with a scripted model
// response and checks the resulting redirect URL.
func TestE2E_AIFilters(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedCatalogOptions(t)

	ts.AI.responses = []string{`{
		"brands": ["Adidas"],
		"categories": [],
		"colors": ["red"],
		"sizes": [42],
		"genders": [],
		"price_min": null,
		"price_max": 150,
		"searchTerm": "running shoes",
		"explain_short": "red adidas under 150"
	}`}

	resp, err := ts.Client.Post(ts.URL+"/api/ai/filters", "text/plain",
		strings.NewReader("red adidas running shoes under 150"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "/?searchTerm=running+shoes&brand=Adidas&color=Red&size=42&priceMax=150", body["redirectUrl"])
}

// TestE2E_AIFilters_ModelFailureDegrades verifies that a provider failure
// still answers 200 with the root redirect.
func TestE2E_AIFilters_ModelFailureDegrades(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedCatalogOptions(t)

	// No scripted responses: the stub fails.
	resp, err := ts.Client.Post(ts.URL+"/api/ai/filters", "text/plain", strings.NewReader("anything"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "/", body["redirectUrl"])
}

// TestE2E_AIDescription_RetriesOnGarbage scripts one garbage response and
// one valid one, and expects the endpoint to succeed on the retry.
func TestE2E_AIDescription_RetriesOnGarbage(t *testing.T) {
	ts := setupTestServer(t)

	ts.AI.responses = []string{
		"sorry, I cannot do that",
		`{"name": "Samba", "isBranded": true, "description": "A classic.", "confidence": 0.9}`,
	}

	status, body := ts.postJSON(t, "/api/ai/description", map[string]any{
		"name":        "Samba",
		"brand":       "Adidas",
		"category":    "Casual",
		"description": "classic indoor shoe",
		"gender":      "Men",
	})

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Samba", body["name"])
	assert.Equal(t, "A classic.", body["description"])
}
