package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/niche-detector/internal/pipeline"
	"github.com/BerylCAtieno/niche-detector/internal/researcher"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	painPointsJSON = `{"painPoints":[` +
		`{"summary":"House training","quote":"He pees on the rug."},` +
		`{"summary":"Leash pulling","quote":"She drags me down the street."},` +
		`{"summary":"Separation anxiety","quote":"He howls when I leave."}]}`
	ideasJSON = `{"productIdeas":[` +
		`{"name":"Calm Crate Course","description":"Video lessons."},` +
		`{"name":"Alone Time Tracker","description":"An app."}]}`
	anglesJSON = `{"sellingAngles":["a1","a2","a3","a4","a5"]}`
)

// scriptedGenerator answers by the envelope key named in the prompt.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	calls   int

	entered chan struct{}
	release chan struct{}
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{replies: map[string]string{
		`"painPoints"`:    painPointsJSON,
		`"productIdeas"`:  ideasJSON,
		`"sellingAngles"`: anglesJSON,
	}}
}

func (g *scriptedGenerator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	g.mu.Lock()
	g.calls++
	entered, release := g.entered, g.release
	g.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	for key, reply := range g.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "", errors.New("unexpected prompt")
}

type fakeRelay struct {
	resp   *genai.GenerateContentResponse
	err    error
	prompt string
}

func (f *fakeRelay) Relay(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	f.prompt = prompt
	return f.resp, f.err
}

func newTestRouter(gen researcher.Generator, relay Relayer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	client := researcher.NewClient(gen, researcher.Options{}, zap.NewNop())
	store := pipeline.NewStore(client, time.Hour, zap.NewNop())

	router := gin.New()
	NewHandler(store, relay, zap.NewNop()).Register(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path, body, lang string) (int, sessionResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	code, resp := do(t, router, http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, pipeline.StateIdle, resp.View.State)
	assert.True(t, resp.View.InputEnabled)
	return resp.SessionID
}

func TestFullFlow(t *testing.T) {
	router := newTestRouter(newScriptedGenerator(), &fakeRelay{})
	id := createSession(t, router)
	base := "/api/sessions/" + id

	code, resp := do(t, router, http.MethodPost, base+"/search", `{"niche":"first-time dog owners"}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, pipeline.StateProblemsReady, resp.View.State)
	require.Len(t, resp.View.PainPoints, 3)
	assert.Equal(t, "Leash pulling", resp.View.PainPoints[1].Summary)
	assert.Empty(t, resp.Error)

	code, resp = do(t, router, http.MethodPost, base+"/pain-point", `{"index":2}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, pipeline.StateIdeasReady, resp.View.State)
	assert.Equal(t, "Separation anxiety", resp.View.SelectedPainPoint.Summary)
	require.Len(t, resp.View.ProductIdeas, 2)

	code, resp = do(t, router, http.MethodPost, base+"/idea", `{"index":1}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, pipeline.StateAnglesReady, resp.View.State)
	assert.Equal(t, "Alone Time Tracker", resp.View.SelectedIdea.Name)
	assert.Equal(t, []string{"a1", "a2", "a3", "a4", "a5"}, resp.View.SellingAngles)

	code, resp = do(t, router, http.MethodGet, base, "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, pipeline.StateAnglesReady, resp.View.State)

	code, resp = do(t, router, http.MethodDelete, base, "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, pipeline.StateIdle, resp.View.State)
	assert.Empty(t, resp.View.PainPoints)
}

func TestSearchBlankNicheIsLocalized(t *testing.T) {
	gen := newScriptedGenerator()
	router := newTestRouter(gen, &fakeRelay{})
	id := createSession(t, router)

	tests := []struct {
		lang string
		want string
	}{
		{lang: "", want: "Por favor, introduce un nicho para analizar."},
		{lang: "en-US,en;q=0.9", want: "Please enter a niche to analyze."},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			code, resp := do(t, router, http.MethodPost, "/api/sessions/"+id+"/search", `{"niche":"   "}`, tt.lang)
			assert.Equal(t, http.StatusUnprocessableEntity, code)
			assert.Equal(t, tt.want, resp.Error)
			assert.Equal(t, pipeline.FailureValidation, resp.View.Failure.Kind)
		})
	}
	assert.Zero(t, gen.calls)
}

func TestSearchFailureHidesProviderError(t *testing.T) {
	gen := newScriptedGenerator()
	gen.err = errors.New("googleapi: Error 403: API key sk-secret leaked")
	router := newTestRouter(gen, &fakeRelay{})
	id := createSession(t, router)

	code, resp := do(t, router, http.MethodPost, "/api/sessions/"+id+"/search", `{"niche":"drones"}`, "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Ocurrió un error al analizar el nicho. Por favor, inténtalo de nuevo.", resp.Error)
	assert.NotContains(t, resp.Error, "sk-secret")
	assert.Equal(t, pipeline.StateIdle, resp.View.State)
	assert.True(t, resp.View.InputEnabled)
	assert.Empty(t, resp.View.PainPoints)

	// The failure overlay survives a reload.
	_, resp = do(t, router, http.MethodGet, "/api/sessions/"+id, "", "en")
	assert.Equal(t, "An error occurred while analyzing the niche. Please try again.", resp.Error)
}

func TestMalformedIdeasAreARequestError(t *testing.T) {
	gen := newScriptedGenerator()
	gen.replies[`"productIdeas"`] = "Here are some great ideas: 1) an app 2) a course"
	router := newTestRouter(gen, &fakeRelay{})
	id := createSession(t, router)
	base := "/api/sessions/" + id

	code, _ := do(t, router, http.MethodPost, base+"/search", `{"niche":"vegan cooking"}`, "")
	require.Equal(t, http.StatusOK, code)

	code, resp := do(t, router, http.MethodPost, base+"/pain-point", `{"index":0}`, "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "No se pudieron generar las ideas de producto.", resp.Error)
	assert.Equal(t, pipeline.StateProblemsReady, resp.View.State)
	assert.Len(t, resp.View.PainPoints, 3)
	assert.Nil(t, resp.View.ProductIdeas)
}

func TestSelectionErrors(t *testing.T) {
	router := newTestRouter(newScriptedGenerator(), &fakeRelay{})
	id := createSession(t, router)
	base := "/api/sessions/" + id

	code, _ := do(t, router, http.MethodPost, base+"/pain-point", `{"index":0}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	_, _ = do(t, router, http.MethodPost, base+"/search", `{"niche":"drones"}`, "")

	code, resp := do(t, router, http.MethodPost, base+"/pain-point", `{"index":7}`, "en")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "That option is no longer available.", resp.Error)

	code, _ = do(t, router, http.MethodPost, base+"/pain-point", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodPost, base+"/search", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, code)

	// Idea selection before any pain point is guarded and leaves the view alone.
	code, resp = do(t, router, http.MethodPost, base+"/idea", `{"index":0}`, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, pipeline.StateProblemsReady, resp.View.State)
}

func TestUnknownSession(t *testing.T) {
	router := newTestRouter(newScriptedGenerator(), &fakeRelay{})

	code, resp := do(t, router, http.MethodPost, "/api/sessions/nope/search", `{"niche":"drones"}`, "en")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Your session has expired. Please start a new search.", resp.Error)
}

func TestConcurrentSearchIsRejected(t *testing.T) {
	gen := newScriptedGenerator()
	gen.entered = make(chan struct{})
	gen.release = make(chan struct{})
	router := newTestRouter(gen, &fakeRelay{})
	id := createSession(t, router)
	base := "/api/sessions/" + id

	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, base+"/search", strings.NewReader(`{"niche":"drones"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)
		done <- rec.Code
	}()
	<-gen.entered

	code, resp := do(t, router, http.MethodPost, base+"/search", `{"niche":"vegan cooking"}`, "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Espera a que termine la solicitud en curso.", resp.Error)
	assert.Equal(t, pipeline.StagePainPoints, resp.View.Loading)
	assert.False(t, resp.View.InputEnabled)

	close(gen.release)
	assert.Equal(t, http.StatusOK, <-done)

	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.Equal(t, 1, gen.calls)
}

func TestSessionsDoNotInterfere(t *testing.T) {
	router := newTestRouter(newScriptedGenerator(), &fakeRelay{})
	first := createSession(t, router)
	second := createSession(t, router)

	_, _ = do(t, router, http.MethodPost, "/api/sessions/"+first+"/search", `{"niche":"drones"}`, "")

	_, resp := do(t, router, http.MethodGet, "/api/sessions/"+second, "", "")
	assert.Equal(t, pipeline.StateIdle, resp.View.State)
	assert.Empty(t, resp.View.Niche)
}

func TestRelay(t *testing.T) {
	relay := &fakeRelay{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []genai.Part{genai.Text("Three pain points...")}},
			FinishReason: genai.FinishReasonStop,
			SafetyRatings: []*genai.SafetyRating{{
				Category:    genai.HarmCategoryHarassment,
				Probability: genai.HarmProbabilityNegligible,
			}},
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 4, CandidatesTokenCount: 6, TotalTokenCount: 10},
	}}
	router := newTestRouter(newScriptedGenerator(), relay)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"prompt":"Analyze dog owners"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Analyze dog owners", relay.prompt)

	// Clients read data.candidates[0].content.parts[0].text.
	var body struct {
		Candidates []struct {
			Content struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason  string `json:"finishReason"`
			SafetyRatings []struct {
				Category    string `json:"category"`
				Probability string `json:"probability"`
			} `json:"safetyRatings"`
		} `json:"candidates"`
		UsageMetadata struct {
			TotalTokenCount int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	require.Len(t, body.Candidates, 1)
	cand := body.Candidates[0]
	assert.Equal(t, "model", cand.Content.Role)
	require.Len(t, cand.Content.Parts, 1)
	assert.Equal(t, "Three pain points...", cand.Content.Parts[0].Text)
	assert.Equal(t, "STOP", cand.FinishReason)
	require.Len(t, cand.SafetyRatings, 1)
	assert.Equal(t, "HARM_CATEGORY_HARASSMENT", cand.SafetyRatings[0].Category)
	assert.Equal(t, "NEGLIGIBLE", cand.SafetyRatings[0].Probability)
	assert.Equal(t, 10, body.UsageMetadata.TotalTokenCount)
	assert.NotContains(t, rec.Body.String(), `"Candidates"`)
}

func TestRelayBlockedPrompt(t *testing.T) {
	relay := &fakeRelay{resp: &genai.GenerateContentResponse{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	}}
	router := newTestRouter(newScriptedGenerator(), relay)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"prompt":"hi"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"promptFeedback":{"blockReason":"SAFETY"}}`, rec.Body.String())
}

func TestRelayErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		err   error
		code  int
		wantE string
	}{
		{name: "missing prompt", body: `{}`, code: http.StatusBadRequest, wantE: "prompt is required"},
		{name: "blank prompt", body: `{"prompt":"  "}`, code: http.StatusBadRequest, wantE: "prompt is required"},
		{name: "bad json", body: `{`, code: http.StatusBadRequest, wantE: "prompt is required"},
		{name: "provider failure", body: `{"prompt":"hi"}`, err: errors.New("quota exceeded for key abc"), code: http.StatusInternalServerError, wantE: "relay request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(newScriptedGenerator(), &fakeRelay{err: tt.err})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(tt.body)))

			assert.Equal(t, tt.code, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantE, body["error"])
		})
	}
}

func TestServePage(t *testing.T) {
	router := newTestRouter(newScriptedGenerator(), &fakeRelay{})

	for lang, title := range map[string]string{"": "Detector de Nichos", "en": "Niche Detector"} {
		t.Run(fmt.Sprintf("lang=%q", lang), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if lang != "" {
				req.Header.Set("Accept-Language", lang)
			}
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "<title>"+title+"</title>")
			assert.Contains(t, body, "search-form")
		})
	}
}

func TestServePageScript(t *testing.T) {
	router := newTestRouter(newScriptedGenerator(), &fakeRelay{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	// Failure messages the page falls back to when a call returns no view.
	assert.Contains(t, body, `"requestFailed":"The request could not be completed. Please try again."`)
	assert.Contains(t, body, `"ideasFailed":"Product ideas could not be generated."`)
	assert.Contains(t, body, `"newSearch":"New search"`)

	// The in-flight view drops everything downstream of the new selection.
	assert.Contains(t, body, "productIdeas: null")
	assert.Contains(t, body, "sellingAngles: null")
	assert.Contains(t, body, "await recover(before")
}
