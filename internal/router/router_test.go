package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquirydesk/internal/auth"
	"inquirydesk/internal/cache"
	"inquirydesk/internal/config"
	"inquirydesk/internal/db"
	"inquirydesk/internal/events"
	"inquirydesk/internal/handler"
	"inquirydesk/internal/repository"
	"inquirydesk/internal/service"
)

func newTestServer(t *testing.T, staticDir string) *echo.Echo {
	t.Helper()
	return newTestServerWithCache(t, staticDir, nil)
}

// newRedisTestServer backs the server with an in-memory Redis.
func newRedisTestServer(t *testing.T) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return newTestServerWithCache(t, t.TempDir(), c), mr
}

func newTestServerWithCache(t *testing.T, staticDir string, cacheClient *cache.Client) *echo.Echo {
	t.Helper()

	gormDB, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() { _ = db.Close(gormDB) })

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		StaticDir:      staticDir,
		AllowedOrigin:  "*",
		RequestTimeout: 5 * time.Second,
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(repository.NewAdminUserRepository(gormDB), jwtService, auth.NewTokenStore(cacheClient))
	_, err = authService.EnsureAdmin(context.Background(), "admin", "s3cret", false)
	require.NoError(t, err)
	inquiryService := service.NewInquiryService(repository.NewInquiryRepository(gormDB), cacheClient, events.NopPublisher{})

	e := echo.New()
	e.HideBanner = true
	Register(e, cfg, authService,
		handler.NewInquiryHandler(inquiryService),
		handler.NewAdminInquiryHandler(inquiryService),
		handler.NewAuthHandler(authService),
	)
	return e
}

func do(e *echo.Echo, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func login(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestSubmitThenAdminGet(t *testing.T) {
	e := newTestServer(t, t.TempDir())

	rec := do(e, http.MethodPost, "/api/inquiries", `{"name":"Acme","email":"buyer@acme.test","certifications":["ISO 22000","HACCP"]}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "Inquiry submitted successfully", body["message"])

	token := login(t, e)
	rec = do(e, http.MethodGet, "/api/admin/inquiries/1", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data, ok := decode(t, rec)["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Acme", data["name"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "general", data["inquiry_type"])
	assert.Equal(t, "website", data["source"])
	assert.Equal(t, []interface{}{"ISO 22000", "HACCP"}, data["certifications"])
	assert.Nil(t, data["phone"])
}

func TestLegacyPHPPaths(t *testing.T) {
	e := newTestServer(t, t.TempDir())

	rec := do(e, http.MethodPost, "/api/inquiries.php", `{"name":"Acme","email":"buyer@acme.test"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodPost, "/api/admin/login.php", `{"username":"admin","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode(t, rec)["token"].(string)

	rec = do(e, http.MethodGet, "/api/admin/inquiries.php/1", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitValidation(t *testing.T) {
	e := newTestServer(t, t.TempDir())

	rec := do(e, http.MethodPost, "/api/inquiries", `{"email":"buyer@acme.test"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Name and email are required","code":"BAD_REQUEST"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/inquiries", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	e := newTestServer(t, t.TempDir())
	require.Equal(t, http.StatusCreated,
		do(e, http.MethodPost, "/api/inquiries", `{"name":"Acme","email":"buyer@acme.test"}`, "").Code)

	rec := do(e, http.MethodDelete, "/api/admin/inquiries/1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Access denied","code":"UNAUTHORIZED"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/admin/inquiries", "", "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Access denied", body["message"])
	assert.Equal(t, "invalid or expired token", body["error"])

	forged, _, err := auth.NewJWTService("other-secret", time.Hour).GenerateToken(1, "admin")
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/api/admin/verify", "", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The rejected delete never reached the store.
	rec = do(e, http.MethodGet, "/api/admin/inquiries/1", "", login(t, e))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPreflight(t *testing.T) {
	e := newTestServer(t, t.TempDir())

	for _, target := range []string{"/api/admin/inquiries/1", "/api/inquiries", "/anything"} {
		rec := do(e, http.MethodOptions, target, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Empty(t, rec.Body.String(), target)
		assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
		assert.Equal(t, "Content-Type, Authorization", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
	}

	rec := do(e, http.MethodPost, "/api/inquiries", `{"name":"Acme","email":"buyer@acme.test"}`, "")
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestLogin(t *testing.T) {
	e := newTestServer(t, t.TempDir())

	rec := do(e, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"id": float64(1), "username": "admin"}, body["user"])
	assert.Len(t, strings.Split(body["token"].(string), "."), 3)

	rec = do(e, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "Invalid credentials", body["error"])
	assert.Nil(t, body["token"])

	rec = do(e, http.MethodPost, "/api/admin/login", `{"username":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminInquiryLifecycle(t *testing.T) {
	e := newTestServer(t, t.TempDir())
	token := login(t, e)

	for _, name := range []string{"First", "Second"} {
		rec := do(e, http.MethodPost, "/api/inquiries", `{"name":"`+name+`","email":"buyer@acme.test"}`, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(e, http.MethodGet, "/api/admin/inquiries", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["data"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].(map[string]interface{})["name"])

	// A non-numeric id lists on GET and is rejected on mutations.
	rec = do(e, http.MethodGet, "/api/admin/inquiries/abc", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"].([]interface{}), 2)
	rec = do(e, http.MethodPut, "/api/admin/inquiries/abc", `{"status":"closed"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Inquiry ID is required", decode(t, rec)["error"])

	rec = do(e, http.MethodPut, "/api/admin/inquiries/1", `{"status":"reviewed","note":"Called the buyer"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Inquiry updated successfully"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/admin/inquiries/1", "", token)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "reviewed", data["status"])
	notes := data["notes"].([]interface{})
	require.Len(t, notes, 1)
	assert.Equal(t, "Called the buyer", notes[0].(map[string]interface{})["note"])

	rec = do(e, http.MethodGet, "/api/admin/stats", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total"])
	assert.Equal(t, float64(2), stats["new_last_7_days"])

	rec = do(e, http.MethodPut, "/api/admin/inquiries/99", `{"status":"closed"}`, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodDelete, "/api/admin/inquiries/1", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Inquiry deleted successfully"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/admin/inquiries/1", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Inquiry not found","code":"NOT_FOUND"}`, rec.Body.String())

	rec = do(e, http.MethodDelete, "/api/admin/inquiries/1", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyAndLogout(t *testing.T) {
	e, mr := newRedisTestServer(t)
	token := login(t, e)

	rec := do(e, http.MethodGet, "/api/admin/verify", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"valid":true,"user":{"id":1,"username":"admin"}}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/admin/logout", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Logged out successfully"}`, rec.Body.String())
	assert.Len(t, mr.Keys(), 1)

	rec = do(e, http.MethodGet, "/api/admin/verify", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = do(e, http.MethodGet, "/api/admin/inquiries", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A fresh login is unaffected by the earlier revocation.
	fresh := login(t, e)
	rec = do(e, http.MethodGet, "/api/admin/verify", "", fresh)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutFailsWhenRevocationCannotBeStored(t *testing.T) {
	for name, cacheClient := range map[string]*cache.Client{
		"no redis":          nil,
		"unreachable redis": cache.New("127.0.0.1:1", "", 0),
	} {
		t.Run(name, func(t *testing.T) {
			t.Cleanup(func() { _ = cacheClient.Close() })
			e := newTestServerWithCache(t, t.TempDir(), cacheClient)
			token := login(t, e)

			rec := do(e, http.MethodPost, "/api/admin/logout", "", token)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, false, decode(t, rec)["success"])
		})
	}
}

func TestAdminReadsWithRedis(t *testing.T) {
	e, mr := newRedisTestServer(t)
	token := login(t, e)

	rec := do(e, http.MethodPost, "/api/inquiries", `{"name":"Acme","email":"buyer@acme.test"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodGet, "/api/admin/inquiries/1", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mr.Exists("inquiry:1"))

	rec = do(e, http.MethodPut, "/api/admin/inquiries/1", `{"status":"closed"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mr.Exists("inquiry:1"))

	rec = do(e, http.MethodGet, "/api/admin/inquiries/1", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := decode(t, rec)["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "closed", data["status"])
}

func TestListFiltersAndExport(t *testing.T) {
	e := newTestServer(t, t.TempDir())
	for _, name := range []string{"a", "b", "c"} {
		rec := do(e, http.MethodPost, "/api/inquiries", `{"name":"`+name+`","email":"`+name+`@acme.test"}`, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	token := login(t, e)
	rec := do(e, http.MethodPut, "/api/admin/inquiries/2", `{"status":"closed"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/admin/inquiries?status=pending", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["data"], 2)

	rec = do(e, http.MethodGet, "/api/admin/inquiries.php?limit=1&offset=1", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(1), body["limit"])
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, float64(2), data[0].(map[string]interface{})["id"])

	rec = do(e, http.MethodGet, "/api/admin/inquiries?limit=x", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/admin/export/inquiries?status=closed", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/admin/export/inquiries?status=closed", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,name,email"))
	assert.True(t, strings.HasPrefix(lines[1], "2,b,b@acme.test"))
}

func TestUnknownRoutesAndMethods(t *testing.T) {
	e := newTestServer(t, t.TempDir())

	rec := do(e, http.MethodGet, "/api/inquiries", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decode(t, rec)["code"])

	rec = do(e, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = do(e, http.MethodPost, "/api/inquiries/", `{"name":"Acme","email":"buyer@acme.test"}`, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestStaticResponder(t *testing.T) {
	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "app.js"), []byte("console.log(1)"), 0o644))
	e := newTestServer(t, dist)

	rec := do(e, http.MethodGet, "/app.js", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = do(e, http.MethodGet, "/admin/dashboard", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")

	rec = do(e, http.MethodGet, "/api/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", strings.Split(rec.Header().Get(echo.HeaderContentType), ";")[0])
}

func TestStaticResponderWithoutBuild(t *testing.T) {
	e := newTestServer(t, filepath.Join(t.TempDir(), "missing"))

	rec := do(e, http.MethodGet, "/admin/dashboard", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}
