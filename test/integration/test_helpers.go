//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-user-directory/internal/app"
	"go-user-directory/internal/config"
	"go-user-directory/internal/database"
)

func testDatabaseURL(t *testing.T) string {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return url
}

// openDB connects, applies migrations and empties the users table.
func openDB(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.New(ctx, testDatabaseURL(t), 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, "TRUNCATE users RESTART IDENTITY")
	require.NoError(t, err)
	return db
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	openDB(t)

	cfg := &config.Config{
		ServerPort:       "0",
		RequestTimeout:   10 * time.Second,
		StoreBackend:     config.StoreBackendPostgres,
		DatabaseURL:      testDatabaseURL(t),
		DBMaxConns:       4,
		DBMinConns:       1,
		JWTSecret:        "integration-access",
		JWTRefreshSecret: "integration-refresh",
		JWTAccessTTL:     time.Hour,
		JWTRefreshTTL:    24 * time.Hour,
		JWTClockSkew:     30 * time.Second,
		BcryptCost:       4,
		CORSOrigins:      []string{"*"},
		LogLevel:         "info",
		LogFormat:        "json",
	}
	require.NoError(t, cfg.Validate())

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method string, url string, token string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}
