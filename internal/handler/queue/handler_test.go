package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/opd-queue/internal/config"
	providerHandler "github.com/jwalitptl/opd-queue/internal/handler/provider"
	queuepkg "github.com/jwalitptl/opd-queue/internal/queue"
	"github.com/jwalitptl/opd-queue/internal/registry"
	"github.com/jwalitptl/opd-queue/internal/service/admission"
	"github.com/jwalitptl/opd-queue/internal/service/query"
	"github.com/jwalitptl/opd-queue/internal/service/transition"
	"github.com/jwalitptl/opd-queue/internal/store"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)

	reg := registry.New([]config.ProviderConfig{
		{ID: "doc1", Name: "Dr. Sarah Johnson", Specialization: "General Physician", AvgServiceMinutes: 15},
	})
	st := store.New()
	rng := rand.New(rand.NewSource(7))
	est := queuepkg.NewEstimator(reg, rng, 0)

	admissionSvc := admission.NewService(st, reg, est, rng, nil, zerolog.Nop())
	transitionSvc := transition.NewService(st, est, nil, zerolog.Nop())
	querySvc := query.NewService(st, reg)

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewHandler(admissionSvc, transitionSvc, querySvc).RegisterRoutes(api)
	providerHandler.NewHandler(querySvc).RegisterRoutes(api)
	return engine
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func admit(t *testing.T, engine *gin.Engine) string {
	t.Helper()
	w, env := do(t, engine, http.MethodPost, "/api/v1/queue/requests", gin.H{
		"provider_id": "doc1",
		"name":        "John Smith",
		"contact":     "+1234567890",
		"case_type":   "Routine Checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestAdmitEndpoint(t *testing.T) {
	engine := newTestEngine()

	token := admit(t, engine)

	assert.Regexp(t, `^T\d{3}$`, token)
}

func TestAdmitMissingFields(t *testing.T) {
	engine := newTestEngine()

	w, env := do(t, engine, http.MethodPost, "/api/v1/queue/requests", gin.H{
		"provider_id": "doc1",
		"name":        "John Smith",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", env.Status)
}

func TestAdmitUnknownProvider(t *testing.T) {
	engine := newTestEngine()

	w, _ := do(t, engine, http.MethodPost, "/api/v1/queue/requests", gin.H{
		"provider_id": "ghost",
		"name":        "John Smith",
		"contact":     "+1234567890",
		"case_type":   "Routine Checkup",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransitionEndpoint(t *testing.T) {
	engine := newTestEngine()
	token := admit(t, engine)

	_, env := do(t, engine, http.MethodGet, "/api/v1/sessions/"+token, nil)
	var session struct {
		Request struct {
			ID uuid.UUID `json:"id"`
		} `json:"request"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	w, _ := do(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/queue/requests/%s/transitions", session.Request.ID),
		gin.H{"status": "inside"})
	assert.Equal(t, http.StatusOK, w.Code)

	// waiting is not reachable from inside
	w, _ = do(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/queue/requests/%s/transitions", session.Request.ID),
		gin.H{"status": "waiting"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTransitionUnknownRequest(t *testing.T) {
	engine := newTestEngine()

	w, _ := do(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/queue/requests/%s/transitions", uuid.New()),
		gin.H{"status": "inside"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransitionMalformedID(t *testing.T) {
	engine := newTestEngine()

	w, _ := do(t, engine, http.MethodPost,
		"/api/v1/queue/requests/not-a-uuid/transitions",
		gin.H{"status": "inside"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionEndpointAbsentToken(t *testing.T) {
	engine := newTestEngine()

	w, env := do(t, engine, http.MethodGet, "/api/v1/sessions/T999", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var session struct {
		Request  *json.RawMessage `json:"request"`
		Position int              `json:"position"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Nil(t, session.Request)
	assert.Equal(t, 0, session.Position)
}

func TestProvidersEndpoint(t *testing.T) {
	engine := newTestEngine()

	w, env := do(t, engine, http.MethodGet, "/api/v1/providers", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var providers []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &providers))
	require.Len(t, providers, 1)
	assert.Equal(t, "doc1", providers[0].ID)
}

func TestProviderQueueEndpoint(t *testing.T) {
	engine := newTestEngine()
	admit(t, engine)
	admit(t, engine)

	w, env := do(t, engine, http.MethodGet, "/api/v1/providers/doc1/queue", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var queue []struct {
		Position int `json:"position"`
		ETA      int `json:"eta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &queue))
	require.Len(t, queue, 2)
	assert.Equal(t, 1, queue[0].Position)
	assert.Equal(t, 15, queue[1].ETA)

	w, _ = do(t, engine, http.MethodGet, "/api/v1/providers/ghost/queue", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
