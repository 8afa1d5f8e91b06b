package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/captionly/internal/api/middleware"
	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/repository"
	"github.com/timmy/captionly/internal/service"
	"github.com/timmy/captionly/internal/tone"
)

// multipartOverhead is allowed on top of the image limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// CaptionHandler handles caption generation and history endpoints.
type CaptionHandler struct {
	captions  *service.CaptionService
	validator *service.Validator
}

// NewCaptionHandler creates a new caption handler.
// Parameters:
//   - captions: caption orchestration service.
//   - validator: request validator carrying the image size limit.
//
// Returns:
//   - *CaptionHandler: initialized handler.
func NewCaptionHandler(captions *service.CaptionService, validator *service.Validator) *CaptionHandler {
	return &CaptionHandler{
		captions:  captions,
		validator: validator,
	}
}

type generateResponse struct {
	ID      string                 `json:"id"`
	Results []domain.CaptionResult `json:"results"`
}

type generateJSONRequest struct {
	Description string          `json:"description"`
	Tones       json.RawMessage `json:"tones"`
	ImageBase64 string          `json:"imageBase64"`
}

// Generate handles POST /api/captions/generate.
// Accepts multipart/form-data (description, tones as a JSON array string, optional image)
// or a JSON body with an optional base64 image.
func (h *CaptionHandler) Generate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.validator.MaxImageBytes()*2+multipartOverhead)

	var (
		raw service.RawGenerationRequest
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		raw, err = h.readMultipart(c)
	} else {
		raw, err = h.readJSON(c)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusBadRequest, MsgInvalidRequest, []domain.FieldError{{
				Field:   "image",
				Message: h.validator.ImageTooLargeMessage(),
			}})
			return
		}
		msg := MsgBodyNotJSON
		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			msg = MsgBodyUnreadable
		}
		respondError(c, http.StatusBadRequest, MsgInvalidRequest, []domain.FieldError{{
			Field:   "body",
			Message: msg,
		}})
		return
	}

	req, err := h.validator.Validate(raw)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			respondError(c, http.StatusBadRequest, MsgInvalidRequest, verr.Errors)
			return
		}
		respondError(c, http.StatusBadRequest, MsgInvalidRequest, nil)
		return
	}

	rec, err := h.captions.Generate(c.Request.Context(), req)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Caption generation failed")
		respondError(c, http.StatusInternalServerError, MsgGenerateFailed, nil)
		return
	}

	respondOK(c, http.StatusOK, generateResponse{ID: rec.ID, Results: rec.Results})
}

func (h *CaptionHandler) readMultipart(c *gin.Context) (service.RawGenerationRequest, error) {
	var raw service.RawGenerationRequest

	form, err := c.MultipartForm()
	if err != nil {
		return raw, err
	}

	if values := form.Value["description"]; len(values) > 0 {
		raw.Description = values[0]
	}

	if values := form.Value["tones"]; len(values) > 0 {
		tones, err := service.DecodeTones(values)
		if err != nil {
			raw.DecodeErrors = append(raw.DecodeErrors, domain.FieldError{Field: "tones", Message: service.MsgTonesMalformed})
		} else {
			raw.Tones = tones
		}
	}

	if files := form.File["image"]; len(files) > 0 {
		image, err := h.readImageFile(files[0])
		if err != nil {
			raw.DecodeErrors = append(raw.DecodeErrors, domain.FieldError{Field: "image", Message: MsgImageUnreadable})
		} else {
			raw.Image = image
		}
	}

	return raw, nil
}

// readImageFile reads at most limit+1 bytes so oversize files fail validation.
func (h *CaptionHandler) readImageFile(fh *multipart.FileHeader) (*domain.ImageInput, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.validator.MaxImageBytes()+1))
	if err != nil {
		return nil, err
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		info, _ := service.SniffImage(data)
		mimeType = info.MIMEType
	}

	return &domain.ImageInput{
		Data:     data,
		MIMEType: mimeType,
		Filename: fh.Filename,
	}, nil
}

func (h *CaptionHandler) readJSON(c *gin.Context) (service.RawGenerationRequest, error) {
	var raw service.RawGenerationRequest

	var body generateJSONRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return raw, err
	}
	raw.Description = body.Description

	if len(body.Tones) > 0 && string(body.Tones) != "null" {
		tones, err := decodeJSONTones(body.Tones)
		if err != nil {
			raw.DecodeErrors = append(raw.DecodeErrors, domain.FieldError{Field: "tones", Message: service.MsgTonesMalformed})
		} else {
			raw.Tones = tones
		}
	}

	if body.ImageBase64 != "" {
		data, mimeType, err := service.DecodeImageBase64(body.ImageBase64)
		if err != nil {
			raw.DecodeErrors = append(raw.DecodeErrors, domain.FieldError{Field: "image", Message: MsgImageBadEncoding})
		} else {
			raw.Image = &domain.ImageInput{Data: data, MIMEType: mimeType}
		}
	}

	return raw, nil
}

// decodeJSONTones accepts an array of strings or a string holding one.
func decodeJSONTones(msg json.RawMessage) ([]string, error) {
	var tones []string
	if err := json.Unmarshal(msg, &tones); err == nil {
		return tones, nil
	}
	var encoded string
	if err := json.Unmarshal(msg, &encoded); err != nil {
		return nil, err
	}
	return service.DecodeTones([]string{encoded})
}

// List handles GET /api/captions?limit=N.
func (h *CaptionHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(repository.DefaultListLimit)))
	if err != nil {
		limit = repository.DefaultListLimit
	}

	records, err := h.captions.ListRecent(c.Request.Context(), limit)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list captions")
		respondError(c, http.StatusInternalServerError, MsgFetchFailed, nil)
		return
	}
	if records == nil {
		records = []domain.CaptionRecord{}
	}

	respondOK(c, http.StatusOK, records)
}

// Get handles GET /api/captions/:id.
func (h *CaptionHandler) Get(c *gin.Context) {
	rec, err := h.captions.GetCaption(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(c, http.StatusNotFound, MsgCaptionNotFound, nil)
			return
		}
		middleware.GetLogger(c).WithError(err).Error("Failed to fetch caption")
		respondError(c, http.StatusInternalServerError, MsgFetchOneFailed, nil)
		return
	}

	respondOK(c, http.StatusOK, rec)
}

type toneResponse struct {
	ID     string   `json:"id"`
	Emojis []string `json:"emojis"`
}

// Tones handles GET /api/tones.
func (h *CaptionHandler) Tones(c *gin.Context) {
	defs := tone.All()
	out := make([]toneResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, toneResponse{ID: string(def.ID), Emojis: def.Emojis})
	}
	respondOK(c, http.StatusOK, out)
}
