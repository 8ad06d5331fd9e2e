package consumption

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCloseDay(t *testing.T) {
	svc, db := newTestService(t)
	seedAsset(t, db, 7, 12, true)

	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/consumption/close?day=2026-08-31", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "2026-08-31", body["day"])
	assert.Equal(t, float64(1), body["created"])
}

func TestHandleCloseDay_InvalidDay(t *testing.T) {
	svc, _ := newTestService(t)

	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/consumption/close?day=31-08-2026", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
