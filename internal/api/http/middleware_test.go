package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Realwahba/support-tickets/internal/observability"
	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

func newTestApp(t *testing.T) (*fiber.App, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), observability.NewMetrics(), time.Second)
	return app, logs
}

func TestErrorMiddlewareRendersDomainErrorEnvelope(t *testing.T) {
	app, _ := newTestApp(t)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, apperrors.CodeNotFound, body.Error.Code)
}

func TestRequestLoggerRecordsFinalStatus(t *testing.T) {
	app, logs := newTestApp(t)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	resp.Body.Close()

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(404), entries[0].ContextMap()["status"])
}

func TestPanicRecoveredAsInternalError(t *testing.T) {
	app, _ := newTestApp(t)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("unexpected")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 500, resp.StatusCode)
}
