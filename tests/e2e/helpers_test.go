//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/stridewear/shop-backend/internal/adapter/catalog"
	"github.com/stridewear/shop-backend/internal/adapter/postgres/testhelper"
	snapshotpg "github.com/stridewear/shop-backend/internal/adapter/storage/postgres"
	"github.com/stridewear/shop-backend/internal/config"
	"github.com/stridewear/shop-backend/internal/service/aifilter"
	"github.com/stridewear/shop-backend/internal/service/collection"
	"github.com/stridewear/shop-backend/internal/transport/middleware"
	"github.com/stridewear/shop-backend/internal/transport/rest"
)

// stubGenerator stands in for the LLM provider. Each call pops the next
// scripted response; running out of script is a test bug.
type stubGenerator struct {
	mu        sync.Mutex
	responses []string
	prompts   []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if len(g.responses) == 0 {
		return "", io.ErrUnexpectedEOF
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// testServer wraps the full-stack HTTP server for E2E tests.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	AI     *stubGenerator
}

// setupTestServer wires a real database behind the full router, with the
// LLM provider replaced by a scripted stub.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	snapshots := snapshotpg.New(pool)
	catalogRepo := catalog.New(pool)

	cart, err := collection.NewStore(ctx, "cart-storage", 0, snapshots, logger)
	require.NoError(t, err)
	wishlist, err := collection.NewStore(ctx, "wishlist-storage", 0, snapshots, logger)
	require.NoError(t, err)
	recent, err := collection.NewStore(ctx, "recently-viewed-products", 10, snapshots, logger)
	require.NoError(t, err)

	reconciler := collection.NewReconciler(recent, catalogRepo, logger)

	gen := &stubGenerator{}
	filterSvc := aifilter.NewService(gen, catalogRepo, logger)

	mux := http.NewServeMux()
	mount := func(name string, h *rest.CollectionHandler) {
		base := "/api/" + name
		mux.HandleFunc("GET "+base+"/{userID}", h.List)
		mux.HandleFunc("POST "+base+"/{userID}", h.Add)
		mux.HandleFunc("DELETE "+base+"/{userID}", h.Clear)
		mux.HandleFunc("DELETE "+base+"/{userID}/items/{productID}", h.Remove)
		mux.HandleFunc("POST "+base+"/{userID}/reconcile", h.Reconcile)
	}
	mount("cart", rest.NewCollectionHandler("cart", cart, nil, logger))
	mount("wishlist", rest.NewCollectionHandler("wishlist", wishlist, nil, logger))
	mount("recently-viewed", rest.NewCollectionHandler("recently-viewed", recent, reconciler, logger))

	ai := rest.NewAIHandler(filterSvc, logger)
	mux.HandleFunc("POST /api/ai/filters", ai.Filters)
	mux.HandleFunc("POST /api/ai/description", ai.Description)

	health := rest.NewHealthHandler(pool, "e2e-test")
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /health/live", health.Live)
	mux.HandleFunc("GET /health/ready", health.Ready)

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.CORS(config.CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,DELETE,OPTIONS",
			AllowedHeaders: "Authorization,Content-Type",
		}),
	)

	srv := httptest.NewServer(chain(mux))
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		AI:     gen,
	}
}

// seedProducts resets the products table and inserts rows with the given
// ids, marking the listed inactive ids accordingly.
func (ts *testServer) seedProducts(t *testing.T, ids []int, inactive ...int) {
	t.Helper()
	ctx := context.Background()

	_, err := ts.Pool.Exec(ctx, `TRUNCATE products RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	off := map[int]bool{}
	for _, id := range inactive {
		off[id] = true
	}
	for _, id := range ids {
		_, err := ts.Pool.Exec(ctx,
			`INSERT INTO products (id, name, price, is_active) VALUES ($1, $2, 10.0, $3)`,
			id, "product", !off[id])
		require.NoError(t, err)
	}
}

// seedCatalogOptions resets the filter dimension tables and loads the
// fixture the AI tests narrow against.
func (ts *testServer) seedCatalogOptions(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := ts.Pool.Exec(ctx, `TRUNCATE products, brands, categories, colors, sizes, genders RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	for _, stmt := range []string{
		`INSERT INTO brands (label) VALUES ('Adidas'), ('Nike')`,
		`INSERT INTO categories (label) VALUES ('Casual'), ('Running')`,
		`INSERT INTO colors (label) VALUES ('Red'), ('Blue')`,
		`INSERT INTO sizes (value) VALUES (41), (42)`,
		`INSERT INTO genders (label) VALUES ('Men'), ('Women')`,
	} {
		_, err := ts.Pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

// postJSON sends v as a JSON body and decodes the response into a map.
func (ts *testServer) postJSON(t *testing.T, path string, v any) (int, map[string]any) {
	t.Helper()

	body, err := json.Marshal(v)
	require.NoError(t, err)

	resp, err := ts.Client.Post(ts.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode, decodeBody(t, resp.Body)
}

// getJSON fetches path and decodes the response into a map.
func (ts *testServer) getJSON(t *testing.T, path string) (int, map[string]any) {
	t.Helper()

	resp, err := ts.Client.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode, decodeBody(t, resp.Body)
}

// del sends a DELETE request and returns the status code.
func (ts *testServer) del(t *testing.T, path string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	require.NoError(t, err)

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m), "body: %s", raw)
	return m
}

// itemIDs extracts the product ids from a list response body.
func itemIDs(t *testing.T, body map[string]any) []int {
	t.Helper()
	items, ok := body["items"].([]any)
	require.True(t, ok, "expected items array, got %v", body)

	out := make([]int, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		require.True(t, ok)
		id, ok := m["id"].(float64)
		require.True(t, ok)
		out = append(out, int(id))
	}
	return out
}
