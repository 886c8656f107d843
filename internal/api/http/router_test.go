package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/asistencia-app/attendance-service/internal/api/http/handlers"
	"github.com/asistencia-app/attendance-service/internal/auth"
	"github.com/asistencia-app/attendance-service/internal/config"
	"github.com/asistencia-app/attendance-service/internal/events"
	"github.com/asistencia-app/attendance-service/internal/observability"
	"github.com/asistencia-app/attendance-service/internal/persistence"
	"github.com/asistencia-app/attendance-service/internal/repository"
	"github.com/asistencia-app/attendance-service/internal/service"
	"github.com/asistencia-app/attendance-service/internal/worker"
)

type testServer struct {
	app *fiber.App
	now time.Time
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	cfg := config.Config{
		App:        config.AppConfig{Name: "attendance-service", Version: "test"},
		Auth:       config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 10, BcryptCost: bcrypt.MinCost},
		Attendance: config.AttendanceConfig{TimeZone: loc.String(), Location: loc},
		Bootstrap:  config.BootstrapConfig{AdminNationalID: "1", AdminPin: "0000", AdminName: "Administrador"},
	}
	srv := &testServer{now: time.Date(2024, time.March, 4, 8, 0, 0, 0, loc)}
	clock := handlers.Clock(func() time.Time { return srv.now })

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	users := repository.NewMemoryUserRepository()
	records := repository.NewMemoryAttendanceRepository()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	directory := service.NewDirectoryService(cfg, service.DirectoryDependencies{UserRepo: users, Dispatcher: dispatcher})
	ledger := service.NewLedgerService(cfg, service.LedgerDependencies{AttendanceRepo: records, UserRepo: users, Dispatcher: dispatcher})
	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: users, Ledger: ledger, Tokens: tokens})
	reports := service.NewReportService(ledger, users)

	created, err := directory.EnsureAdmin(context.Background(), cfg.Bootstrap)
	require.NoError(t, err)
	require.True(t, created)

	pg, err := persistence.NewPostgres(context.Background(), config.PostgresConfig{}, logger)
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{Logger: logger, Metrics: metrics, Timeout: 5 * time.Second, CORSOrigins: "*"})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, persistence.NewRedis(context.Background(), config.RedisConfig{}, logger)),
		Auth:           handlers.NewAuthHandler(authService, auth.NewGate(auth.NewVerifier()), clock),
		Profile:        handlers.NewProfileHandler(directory, ledger, clock),
		Directory:      handlers.NewDirectoryHandler(directory),
		Attendance:     handlers.NewAttendanceHandler(ledger, reports, clock),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, users),
		LoginLimiter:   NewMemoryLimiter(loginLimit, time.Minute),
		Metrics:        metrics.Handler(),
		Logger:         logger,
	})
	srv.app = app
	return srv
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (s *testServer) login(t *testing.T, cedula, pin string) map[string]any {
	t.Helper()
	status, body := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"cedula": cedula, "pin": pin})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		Message string `json:"message"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	assert.NotEmpty(t, out.Message)
	return out.Error.Code
}

func decodeList(t *testing.T, body []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestAttendanceFlow(t *testing.T) {
	srv := newTestServer(t, 100)

	admin := srv.login(t, "1", "0000")
	adminToken := admin["token"].(string)
	assert.Equal(t, "admin", admin["rol"])
	assert.Nil(t, admin["asistencia"], "administrators are not tracked")

	status, body := srv.do(t, fiber.MethodPost, "/admin/crear-usuario", adminToken,
		map[string]string{"cedula": "1001", "nombre": "Ana Torres", "pin": "1234", "rol": "user"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var ana map[string]any
	require.NoError(t, json.Unmarshal(body, &ana))
	assert.Equal(t, "1001", ana["cedula"])
	assert.NotContains(t, string(body), "pin")

	status, body = srv.do(t, fiber.MethodPost, "/admin/crear-usuario", adminToken,
		map[string]string{"cedula": "1002", "nombre": "Bea Ruiz", "pin": "5678"})
	require.Equal(t, fiber.StatusCreated, status, string(body))

	first := srv.login(t, "1001", "1234")
	userToken := first["token"].(string)
	assert.Equal(t, "user", first["rol"])
	assert.Equal(t, "Ana Torres", first["nombre"])
	asistencia := first["asistencia"].(map[string]any)
	assert.Equal(t, true, asistencia["registrada"])

	srv.now = srv.now.Add(4 * time.Hour)
	second := srv.login(t, "1001", "1234")
	assert.Equal(t, false, second["asistencia"].(map[string]any)["registrada"], "relogin the same day does not mark again")

	status, body = srv.do(t, fiber.MethodPost, "/user/marcar-asistencia", userToken, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ALREADY_RECORDED_TODAY", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodGet, "/user/perfil", "Bearer "+userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"nombre":"Ana Torres"`)

	status, body = srv.do(t, fiber.MethodGet, "/admin/asistencias/por-fecha?fecha=2024-03-04", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	entries := decodeList(t, body)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ana Torres", entries[0]["usuario"].(map[string]any)["nombre"])
	recordID := entries[0]["_id"].(string)

	status, body = srv.do(t, fiber.MethodGet, "/admin/asistencias/por-fecha?fecha=2024-03-04&busqueda=bea", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, decodeList(t, body))

	status, body = srv.do(t, fiber.MethodGet, "/admin/asistencias/por-fecha?fecha=04-03-2024", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_DATE", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodGet, "/admin/asistencias/resumen?fecha=2024-03-04", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	var summary struct {
		Presentes []map[string]any `json:"presentes"`
		Ausentes  []map[string]any `json:"ausentes"`
		Total     int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Len(t, summary.Presentes, 1)
	assert.Len(t, summary.Ausentes, 1)
	assert.Equal(t, 2, summary.Total)

	status, body = srv.do(t, fiber.MethodGet, "/admin/exportar-excel?fecha=2024-03-04", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1001", "Ana Torres", "2024-03-04", "08:00:00"}, rows[1])

	status, _ = srv.do(t, fiber.MethodDelete, "/admin/eliminar-asistencia/"+recordID, adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, body = srv.do(t, fiber.MethodDelete, "/admin/eliminar-asistencia/"+recordID, adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodPost, "/user/marcar-asistencia", userToken, nil)
	assert.Equal(t, fiber.StatusCreated, status, string(body))
}

func TestDirectoryEndpoints(t *testing.T) {
	srv := newTestServer(t, 100)
	adminToken := srv.login(t, "1", "0000")["token"].(string)

	status, body := srv.do(t, fiber.MethodPost, "/admin/crear-usuario", adminToken,
		map[string]string{"cedula": "2001", "nombre": "Luis Mora", "pin": "1111"})
	require.Equal(t, fiber.StatusCreated, status)
	var luis map[string]any
	require.NoError(t, json.Unmarshal(body, &luis))
	luisID := luis["_id"].(string)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode string
		wantHTTP int
	}{
		{name: "duplicate", body: map[string]string{"cedula": "2001", "nombre": "Otro", "pin": "1"}, wantCode: "DUPLICATE_NATIONAL_ID", wantHTTP: fiber.StatusConflict},
		{name: "bad name", body: map[string]string{"cedula": "2002", "nombre": "R2D2", "pin": "1"}, wantCode: "INVALID_NAME", wantHTTP: fiber.StatusBadRequest},
		{name: "bad pin", body: map[string]string{"cedula": "2003", "nombre": "Rosa", "pin": "12ab"}, wantCode: "INVALID_PIN", wantHTTP: fiber.StatusBadRequest},
		{name: "bad cedula", body: map[string]string{"cedula": "abc", "nombre": "Rosa", "pin": "1"}, wantCode: "INVALID_NATIONAL_ID", wantHTTP: fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := srv.do(t, fiber.MethodPost, "/admin/crear-usuario", adminToken, tt.body)
			assert.Equal(t, tt.wantHTTP, status)
			assert.Equal(t, tt.wantCode, errorCode(t, body))
		})
	}

	status, body = srv.do(t, fiber.MethodPut, "/admin/actualizar-usuario/"+luisID, adminToken,
		map[string]string{"nombre": "Luis Alberto Mora", "pin": ""})
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Contains(t, string(body), "Luis Alberto Mora")
	srv.login(t, "2001", "1111")

	status, body = srv.do(t, fiber.MethodPut, "/admin/actualizar-usuario/"+luisID, adminToken,
		map[string]string{"cedula": "9999"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "IMMUTABLE_FIELD", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodPut, "/admin/actualizar-usuario/"+luisID, adminToken,
		map[string]string{"rol": "admin"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "IMMUTABLE_FIELD", errorCode(t, body))

	status, _ = srv.do(t, fiber.MethodPut, "/admin/actualizar-usuario/does-not-exist", adminToken,
		map[string]string{"nombre": "Nadie"})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = srv.do(t, fiber.MethodGet, "/admin/usuarios?busqueda=MORA", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	listed := decodeList(t, body)
	require.Len(t, listed, 1)
	assert.Equal(t, luisID, listed[0]["_id"])

	status, body = srv.do(t, fiber.MethodGet, "/admin/usuarios?rol=user", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decodeList(t, body), 1)

	status, body = srv.do(t, fiber.MethodPut, "/admin/cambiar-rol/"+luisID, adminToken, map[string]string{"rol": "admin"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"rol":"admin"`)

	status, _ = srv.do(t, fiber.MethodDelete, "/admin/eliminar-usuario/"+luisID, adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = srv.do(t, fiber.MethodDelete, "/admin/eliminar-usuario/"+luisID, adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = srv.do(t, fiber.MethodGet, "/admin/usuarios", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decodeList(t, body), 1, "only the bootstrap administrator remains")
}

func TestDeletedUserRecordsStayListed(t *testing.T) {
	srv := newTestServer(t, 100)
	adminToken := srv.login(t, "1", "0000")["token"].(string)

	status, body := srv.do(t, fiber.MethodPost, "/admin/crear-usuario", adminToken,
		map[string]string{"cedula": "3001", "nombre": "Temp", "pin": "1"})
	require.Equal(t, fiber.StatusCreated, status)
	var temp map[string]any
	require.NoError(t, json.Unmarshal(body, &temp))

	srv.login(t, "3001", "1")
	status, _ = srv.do(t, fiber.MethodDelete, "/admin/eliminar-usuario/"+temp["_id"].(string), adminToken, nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status, body = srv.do(t, fiber.MethodGet, "/admin/asistencias/por-fecha?fecha=2024-03-04", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	entries := decodeList(t, body)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0]["usuario"])

	status, body = srv.do(t, fiber.MethodGet, "/admin/asistencias/resumen?fecha=2024-03-04", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"sin_resolver":1`)
}

func TestAuthorizationBoundary(t *testing.T) {
	srv := newTestServer(t, 100)
	adminToken := srv.login(t, "1", "0000")["token"].(string)
	status, _ := srv.do(t, fiber.MethodPost, "/admin/crear-usuario", adminToken,
		map[string]string{"cedula": "4001", "nombre": "Eva", "pin": "4444"})
	require.Equal(t, fiber.StatusCreated, status)
	userToken := srv.login(t, "4001", "4444")["token"].(string)

	status, body := srv.do(t, fiber.MethodGet, "/admin/usuarios", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodGet, "/admin/usuarios", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, _ = srv.do(t, fiber.MethodPost, "/user/marcar-asistencia", adminToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	parts := strings.Split(userToken, ".")
	forged := parts[0] + "." + strings.TrimRight(segmentOf(`{"rol":"admin","sub":"x"}`), "=") + "." + parts[2]
	status, _ = srv.do(t, fiber.MethodGet, "/admin/usuarios", forged, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status, "an edited role claim never passes the server")

	status, body = srv.do(t, fiber.MethodGet, "/auth/session?rol=admin", forged, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"admit":true`, "the view gate only reads claims")

	status, body = srv.do(t, fiber.MethodGet, "/auth/session?rol=admin", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"admit":false`)

	status, _ = srv.do(t, fiber.MethodGet, "/auth/session?rol=root", userToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = srv.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"cedula": "4001", "pin": "0000"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIAL", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t, 2)
	creds := map[string]string{"cedula": "1", "pin": "9999"}

	for i := 0; i < 2; i++ {
		status, _ := srv.do(t, fiber.MethodPost, "/auth/login", "", creds)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}
	status, body := srv.do(t, fiber.MethodPost, "/auth/login", "", creds)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "TOO_MANY_REQUESTS", errorCode(t, body))
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t, 100)

	status, body := srv.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "alive")

	status, body = srv.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"postgres":"disabled"`)

	srv.login(t, "1", "0000")
	status, body = srv.do(t, fiber.MethodGet, "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "http_requests_total")
}
