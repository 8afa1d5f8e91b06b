package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/captionly/internal/config"
	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/repository"
	"github.com/timmy/captionly/internal/service"
)

type apiResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors"`
}

type brokenModel struct{}

func (brokenModel) Name() string { return "broken" }

func (brokenModel) GenerateCaption(context.Context, string, *domain.ImageInput) (*service.ModelCaption, error) {
	return nil, errors.New("no JSON found in response")
}

// countingModel records how many model calls were attempted.
type countingModel struct {
	calls atomic.Int32
}

func (m *countingModel) Name() string { return "counting" }

func (m *countingModel) GenerateCaption(context.Context, string, *domain.ImageInput) (*service.ModelCaption, error) {
	m.calls.Add(1)
	return &service.ModelCaption{Caption: "model caption", Hashtags: []string{"#model"}}, nil
}

func newTestRouter(t *testing.T, model service.CaptionModel, genCfg service.CaptionServiceConfig, maxImage int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewCaptionService(repository.NewMemoryCaptionStore(), model, service.NewFallbackGenerator(3), nil, nil, &genCfg)
	return SetupRouter(&config.ServerConfig{
		Mode: "test",
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}, RouterDeps{
		Captions:  svc,
		Validator: service.NewValidator(maxImage),
	})
}

func defaultRouter(t *testing.T) *gin.Engine {
	return newTestRouter(t, nil, service.CaptionServiceConfig{FallbackEnabled: true}, config.DefaultMaxImageBytes)
}

func do(t *testing.T, r http.Handler, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func jsonRequest(t *testing.T, payload interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/captions/generate", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/captions/generate", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	r := defaultRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGenerate_JSONThenFetch(t *testing.T) {
	r := defaultRouter(t)

	rec, body := do(t, r, jsonRequest(t, map[string]interface{}{
		"description": "A steaming cup of coffee on a rustic wooden table",
		"tones":       []string{"witty", "professional"},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, body.Success)

	var generated struct {
		ID      string                 `json:"id"`
		Results []domain.CaptionResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &generated))
	require.NotEmpty(t, generated.ID)
	require.Len(t, generated.Results, 2)
	assert.Equal(t, "witty", generated.Results[0].Tone)
	assert.Equal(t, "professional", generated.Results[1].Tone)
	assert.Contains(t, generated.Results[0].SuggestedHashtags, "#coffee")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/captions/"+generated.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &stored))
	assert.Equal(t, generated.ID, stored["id"])
	assert.Contains(t, stored, "createdAt")
	assert.Contains(t, stored, "results")

	rec, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/captions?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.CaptionRecord
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, generated.ID, list[0].ID)
}

func TestGenerate_JSONToneStringForm(t *testing.T) {
	r := defaultRouter(t)

	rec, body := do(t, r, jsonRequest(t, map[string]interface{}{
		"description": "Golden sunset over the calm ocean waves",
		"tones":       `["poetic"]`,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, body.Success)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	r := defaultRouter(t)

	rec, body := do(t, r, jsonRequest(t, map[string]interface{}{
		"description": "too short",
		"tones":       []string{},
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid request data", body.Message)
	assert.Contains(t, body.Errors, domain.FieldError{Field: "description", Message: service.MsgDescriptionTooShort})
	assert.Contains(t, body.Errors, domain.FieldError{Field: "tones", Message: service.MsgTonesMin})

	rec, body = do(t, r, httptest.NewRequest(http.MethodGet, "/api/captions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(body.Data), "invalid requests must not be stored")
}

func TestGenerate_InvalidRequestNeverCallsModel(t *testing.T) {
	model := &countingModel{}
	r := newTestRouter(t, model, service.CaptionServiceConfig{FallbackEnabled: true}, config.DefaultMaxImageBytes)

	tests := []struct {
		name    string
		payload map[string]interface{}
		field   string
	}{
		{
			name:    "nine character description",
			payload: map[string]interface{}{"description": "123456789", "tones": []string{"witty"}},
			field:   "description",
		},
		{
			name: "four tones",
			payload: map[string]interface{}{
				"description": "A steaming cup of coffee on a rustic wooden table",
				"tones":       []string{"witty", "casual", "poetic", "professional"},
			},
			field: "tones",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, r, jsonRequest(t, tt.payload))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotEmpty(t, body.Errors)
			assert.Equal(t, tt.field, body.Errors[0].Field)
		})
	}
	assert.Equal(t, int32(0), model.calls.Load())

	rec, _ := do(t, r, jsonRequest(t, map[string]interface{}{
		"description": "A steaming cup of coffee on a rustic wooden table",
		"tones":       []string{"witty"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), model.calls.Load())
}

func TestGenerate_MalformedJSONBody(t *testing.T) {
	r := defaultRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/captions/generate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec, body := do(t, r, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, body.Success)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "body", body.Errors[0].Field)
}

func TestGenerate_Multipart(t *testing.T) {
	r := defaultRouter(t)

	rec, body := do(t, r, multipartRequest(t, map[string]string{
		"description": "A cozy coffee shop corner with warm light",
		"tones":       `["casual","witty"]`,
	}, "photo.png", pngBytes(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, body.Success)
}

func TestGenerate_MultipartRejectsNonImage(t *testing.T) {
	r := defaultRouter(t)

	rec, body := do(t, r, multipartRequest(t, map[string]string{
		"description": "A cozy coffee shop corner with warm light",
		"tones":       `["casual"]`,
	}, "notes.txt", []byte("plain text, not an image")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Errors, domain.FieldError{Field: "image", Message: service.MsgImageNotImage})
}

func TestGenerate_MultipartMalformedTones(t *testing.T) {
	r := defaultRouter(t)

	rec, body := do(t, r, multipartRequest(t, map[string]string{
		"description": "A cozy coffee shop corner with warm light",
		"tones":       `["casual",`,
	}, "", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []domain.FieldError{{Field: "tones", Message: service.MsgTonesMalformed}}, body.Errors)
}

func TestGenerate_ImageSizeLimit(t *testing.T) {
	const limit = 1024
	r := newTestRouter(t, nil, service.CaptionServiceConfig{FallbackEnabled: true}, limit)
	fields := map[string]string{
		"description": "A cozy coffee shop corner with warm light",
		"tones":       `["casual"]`,
	}

	atLimit := make([]byte, limit)
	copy(atLimit, pngBytes(t))
	rec, _ := do(t, r, multipartRequest(t, fields, "a.png", atLimit))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	overLimit := make([]byte, limit+1)
	copy(overLimit, pngBytes(t))
	rec, body := do(t, r, multipartRequest(t, fields, "b.png", overLimit))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body.Errors, domain.FieldError{Field: "image", Message: "Image must be 1024 bytes or smaller"})
}

func TestGenerate_ProviderFailureWithoutFallback(t *testing.T) {
	r := newTestRouter(t, brokenModel{}, service.CaptionServiceConfig{FallbackEnabled: false}, config.DefaultMaxImageBytes)

	rec, body := do(t, r, jsonRequest(t, map[string]interface{}{
		"description": "A steaming cup of coffee on a rustic wooden table",
		"tones":       []string{"witty"},
	}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Failed to generate captions", body.Message)
	assert.NotContains(t, rec.Body.String(), "no JSON found")
}

func TestGetCaption_NotFound(t *testing.T) {
	r := defaultRouter(t)

	rec, body := do(t, r, httptest.NewRequest(http.MethodGet, "/api/captions/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Caption not found", body.Message)
}

func TestListTones(t *testing.T) {
	r := defaultRouter(t)

	rec, body := do(t, r, httptest.NewRequest(http.MethodGet, "/api/tones", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var tones []struct {
		ID     string   `json:"id"`
		Emojis []string `json:"emojis"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &tones))
	require.Len(t, tones, 4)
	assert.Equal(t, "witty", tones[0].ID)
	assert.NotEmpty(t, tones[0].Emojis)
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := defaultRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	r := defaultRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/captions/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/captions/generate", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
