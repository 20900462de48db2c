package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/http/handler"
	"github.com/inkpress/content-platform/internal/http/middleware"
	"github.com/inkpress/content-platform/internal/http/router"
	"github.com/inkpress/content-platform/internal/repository"
	"github.com/inkpress/content-platform/internal/security"
	"github.com/inkpress/content-platform/internal/service"
)

type gateTestOptions struct {
	RateLimitThreshold int64
	RateLimitWindow    time.Duration
	SessionTTL         time.Duration
	AccessTokenTTL     time.Duration
}

type gateTestServer struct {
	BaseURL string
	Client  *http.Client
	Users   repository.UserRepository
	Redis   *miniredis.Miniredis
}

func newGateTestServer(t *testing.T, opts gateTestOptions) *gateTestServer {
	t.Helper()

	if opts.RateLimitThreshold == 0 {
		opts.RateLimitThreshold = 1000
	}
	if opts.RateLimitWindow == 0 {
		opts.RateLimitWindow = 10 * time.Second
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.AccessTokenTTL == 0 {
		opts.AccessTokenTTL = 15 * time.Minute
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}, &domain.Post{}, &domain.Comment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	redisServer := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	jwtMgr := security.NewJWTManager(
		"content-platform-test",
		"content-platform-clients",
		strings.Repeat("a", 32),
		strings.Repeat("r", 32),
	)

	events := repository.NewRedisEventStore(redisClient, "ratelimit:events")
	limiter := service.NewRateLimiter(events, opts.RateLimitWindow, 2*opts.RateLimitWindow, opts.RateLimitThreshold, nil)
	gate := service.NewAccessGate(limiter, jwtMgr)

	users := repository.NewUserRepository(db)
	sessions := service.NewSessionService(repository.NewSessionRepository(db), jwtMgr, opts.SessionTTL, opts.AccessTokenTTL, nil)
	auth := service.NewAuthService(users, sessions, nil)
	content := service.NewContentService(repository.NewPostRepository(db), repository.NewCommentRepository(db))

	h := router.NewRouter(router.Dependencies{
		AuthHandler:        handler.NewAuthHandler(auth, sessions, opts.SessionTTL, false),
		DeviceHandler:      handler.NewDeviceHandler(sessions),
		UserHandler:        handler.NewUserHandler(auth),
		PostHandler:        handler.NewPostHandler(content),
		CommentHandler:     handler.NewCommentHandler(content),
		Gate:               gate,
		RateLimitThreshold: opts.RateLimitThreshold,
		RateLimitWindow:    opts.RateLimitWindow,
		RateLimitMode:      middleware.FailClosed,
	})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &gateTestServer{
		BaseURL: server.URL,
		Client:  &http.Client{Jar: jar},
		Users:   users,
		Redis:   redisServer,
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, apiEnvelope) {
	t.Helper()
	return doRaw(t, client, method, url, body, headers, nil)
}

func doRaw(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string, cookies []*http.Cookie) (*http.Response, apiEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode response envelope: %v", err)
		}
	}
	return resp, env
}

// registerAndConfirm runs the full signup path and returns the issued tokens.
// The confirmation code is read straight from the store; mail delivery is the
// host's concern and not under test.
func registerAndConfirm(t *testing.T, ts *gateTestServer, login, email, password string) tokenPayload {
	t.Helper()

	resp, env := doJSON(t, ts.Client, http.MethodPost, ts.BaseURL+"/api/v1/auth/registration", map[string]string{
		"login":    login,
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("register failed: status=%d success=%v", resp.StatusCode, env.Success)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode register payload: %v", err)
	}

	user, err := ts.Users.FindByID(t.Context(), created.ID)
	if err != nil {
		t.Fatalf("find registered user: %v", err)
	}
	if user.ConfirmationCode == nil {
		t.Fatal("registered user has no confirmation code")
	}

	resp, env = doJSON(t, ts.Client, http.MethodPost, ts.BaseURL+"/api/v1/auth/registration-confirmation", map[string]string{
		"code": *user.ConfirmationCode,
	}, nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("confirmation failed: status=%d success=%v", resp.StatusCode, env.Success)
	}
	var tokens tokenPayload
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		t.Fatalf("decode token payload: %v", err)
	}
	return tokens
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
