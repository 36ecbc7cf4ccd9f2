package endpoint

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "endpoint-test-secret"

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("APPENV", "test")
	util.SetJWTSecret(testSecret)
	util.SetSecurityLoggerForTest(log.New(&bytes.Buffer{}, "", 0))
	os.Exit(m.Run())
}

type requestSpec struct {
	method string
	path   string
	body   interface{}
	token  string
}

func performRequest(r http.Handler, in requestSpec) (*httptest.ResponseRecorder, util.APIResponse) {
	var reader *strings.Reader
	switch v := in.body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(v)
	default:
		b, _ := json.Marshal(v)
		reader = strings.NewReader(string(b))
	}

	method := in.method
	if method == "" {
		method = http.MethodPost
	}
	req := httptest.NewRequest(method, in.path, reader)
	req.Header.Set("Content-Type", "application/json")
	if in.token != "" {
		req.Header.Set("Authorization", "Bearer "+in.token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp util.APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := util.HashPassword(plain)
	require.NoError(t, err)
	return hashed
}

func tokenFor(t *testing.T, email string, roleID uint32) string {
	t.Helper()
	token, err := util.IssueToken(email, roleID, time.Hour)
	require.NoError(t, err)
	return token
}

type handlerMocks struct {
	users        *mockUserService
	measurements *mockMeasurementService
	adapter      *mockAdapter
	scorer       *mockScorer
}

func (m handlerMocks) assertExpectations(t *testing.T) {
	m.users.AssertExpectations(t)
	m.measurements.AssertExpectations(t)
	m.adapter.AssertExpectations(t)
	m.scorer.AssertExpectations(t)
}

// newMockedRouter wires the handlers to mocks behind the real router.
func newMockedRouter() (*gin.Engine, handlerMocks) {
	mocks := handlerMocks{
		users:        &mockUserService{},
		measurements: &mockMeasurementService{},
		adapter:      &mockAdapter{},
		scorer:       &mockScorer{},
	}
	log := zap.NewNop().Sugar()
	router := NewRouter(RouterConfig{
		Log: log,
		Measurements: &MeasurementHandler{
			Users:        mocks.users,
			Measurements: mocks.measurements,
			Adapter:      mocks.adapter,
			Scorer:       mocks.scorer,
			Log:          log,
			Now:          func() time.Time { return testNow },
		},
		Auth: &AuthHandler{Users: mocks.users, TokenTTL: time.Hour},
	})
	return router, mocks
}

func patientUser() model.User {
	return model.User{
		Model:       gorm.Model{ID: 12},
		Name:        "Mario Rossi",
		Email:       "mario@example.com",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      "M",
		RoleID:      model.RolePatient,
	}
}

func doctorUser() model.User {
	return model.User{
		Model:  gorm.Model{ID: 20},
		Email:  "anna@example.com",
		Gender: "F",
		RoleID: model.RoleDoctor,
	}
}
