package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/craftid/internal/api"
	"github.com/charlesng35/craftid/internal/app"
	"github.com/charlesng35/craftid/internal/credential"
	sharedtestutil "github.com/charlesng35/craftid/internal/database/testutil"
	"github.com/charlesng35/craftid/internal/models"
	"github.com/charlesng35/craftid/internal/monitoring"
	"github.com/charlesng35/craftid/internal/services"
	"github.com/charlesng35/craftid/internal/store"
	"github.com/charlesng35/craftid/pkg/response"
)

// SigningKey is the credential secret used by every test environment.
const SigningKey = "test-suite-super-secret-key-32-bytes!!"

// BaseURL prefixes absolute links in test responses.
const BaseURL = "http://craftid.test"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T       *testing.T
	Store   store.Store
	Service *services.CraftIDService
	Signer  *credential.Signer
	Jobs    *monitoring.JobTracker
	Router  *gin.Engine
}

// EnvOption customises NewEnv.
type EnvOption func(*envConfig)

type envConfig struct {
	store   func(store.Store) store.Store
	timeout time.Duration
}

// WithStoreWrapper decorates the sqlite store, typically to inject failures.
func WithStoreWrapper(wrap func(store.Store) store.Store) EnvOption {
	return func(cfg *envConfig) {
		cfg.store = wrap
	}
}

// WithStoreTimeout overrides the per-operation store timeout.
func WithStoreTimeout(timeout time.Duration) EnvOption {
	return func(cfg *envConfig) {
		cfg.timeout = timeout
	}
}

// NewEnv provisions a fresh handler test environment with the schema applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	envCfg := envConfig{timeout: services.DefaultStoreTimeout}
	for _, opt := range opts {
		opt(&envCfg)
	}

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithMigrations())
	var st store.Store = store.NewDatabaseStore(db)
	if envCfg.store != nil {
		st = envCfg.store(st)
	}

	cfg := &app.Config{
		CraftID: app.CraftIDConfig{
			SigningKey:    SigningKey,
			Issuer:        "craftid-test",
			CredentialTTL: credential.DefaultTTL,
			BaseURL:       BaseURL,
		},
		Store: app.StoreConfig{
			Backend: app.StoreBackendDatabase,
			Timeout: envCfg.timeout,
			Counter: "craftid_seq",
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}

	signer, err := credential.NewSigner(cfg.CraftID.SignerConfig())
	require.NoError(t, err)

	svc, err := services.NewCraftIDService(st, signer, cfg.Store.ServiceConfig())
	require.NoError(t, err)

	jobs := monitoring.NewJobTracker()
	health := monitoring.NewHealthManager()

	router, err := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Store:    st,
		CraftIDs: svc,
		Health:   health,
		Jobs:     jobs,
	})
	require.NoError(t, err)

	return &Env{
		T:       t,
		Store:   st,
		Service: svc,
		Signer:  signer,
		Jobs:    jobs,
		Router:  router,
	}
}

// Onboarding returns a valid onboarding payload for the given art name.
func Onboarding(artName string) models.OnboardingData {
	return models.OnboardingData{
		Artisan: models.Artisan{
			Name:          "Asha Devi",
			Location:      "Jaipur",
			ContactNumber: "+91-9000000000",
			Email:         "asha@example.com",
			AadhaarNumber: "1234-5678-9012",
		},
		Art: models.Art{
			Name:        artName,
			Description: "Hand painted blue pottery",
			Photo:       "aGVsbG8=",
		},
	}
}

// ErrorResponse represents the error envelope returned by failing handlers.
type ErrorResponse struct {
	Success bool                `json:"success"`
	Error   *response.ErrorInfo `json:"error"`
}

// DecodeError parses the error envelope from a recorder.
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.False(t, resp.Success, w.Body.String())
	require.NotNil(t, resp.Error, w.Body.String())
	return resp
}

// DecodeJSON unmarshals the recorder body into the provided destination.
func DecodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

// Request executes an HTTP request against the test router, applying JSON encoding automatically.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// RawRequest sends body verbatim, for malformed payload tests.
func (e *Env) RawRequest(method, path, body string) *httptest.ResponseRecorder {
	e.T.Helper()

	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
