package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"modelhub/internal/backend"
	"modelhub/internal/registry"
	"modelhub/pkg/types"
)

type handlers struct {
	svc Service
}

// decodeJSON reads a size-limited JSON body into v. An empty body leaves v
// untouched when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	if r.ContentLength != 0 {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return false
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

// queryFromRequest builds a capability query from language, min_context,
// gpu and max_memory parameters.
func queryFromRequest(r *http.Request) (registry.Query, error) {
	v := r.URL.Query()
	q := registry.Query{Language: strings.TrimSpace(v.Get("language"))}
	if s := v.Get("min_context"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, errors.New("min_context must be a non-negative integer")
		}
		q.MinContext = n
	}
	if s := v.Get("gpu"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, errors.New("gpu must be a boolean")
		}
		q.SupportsGPU = &b
	}
	if s := v.Get("max_memory"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return q, errors.New("max_memory must be a non-negative number")
		}
		q.MaxMemoryGB = f
	}
	return q, nil
}

func (h *handlers) listModels(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var models []types.Model
	if q == (registry.Query{}) {
		models = h.svc.ListModels()
	} else {
		models = h.svc.FindModels(q)
	}
	if models == nil {
		models = []types.Model{}
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models, DefaultModel: h.svc.DefaultModel()})
}

func (h *handlers) listLoaded(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.LoadedResponse{Models: h.svc.ListLoaded()})
}

func (h *handlers) loadModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req types.LoadRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	ctx, cancel := requestContext(r, false)
	defer cancel()
	start := time.Now()
	if _, err := h.svc.LoadModel(ctx, name, req.Path); err != nil {
		writeError(w, r, err)
		return
	}
	zlog.Info().Str("model", name).Dur("dur", time.Since(start)).Msg("http event=model_loaded")
	writeJSON(w, http.StatusOK, types.LoadedResponse{Models: h.svc.ListLoaded()})
}

func (h *handlers) unloadModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.svc.UnloadModel(name) {
		writeJSONError(w, http.StatusNotFound, "model not loaded: "+name)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) modelHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetModelHealth(r.Context(), chi.URLParam(r, "name")))
}

func (h *handlers) allHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{Models: h.svc.CheckAllHealth(r.Context())})
}

func (h *handlers) switchDefault(w http.ResponseWriter, r *http.Request) {
	var req types.DefaultRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	if err := h.svc.SwitchDefault(req.Model); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.DefaultRequest{Model: h.svc.DefaultModel()})
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	params := backend.DefaultGenerateParams()
	if req.MaxTokens > 0 {
		params.MaxTokens = req.MaxTokens
	}
	if req.Temperature != 0 {
		params.Temperature = req.Temperature
	}
	if req.TopP != 0 {
		params.TopP = req.TopP
	}
	if req.TopK > 0 {
		params.TopK = req.TopK
	}
	params.Stop = req.Stop

	ctx, cancel := requestContext(r, true)
	defer cancel()
	model, text, err := h.svc.Generate(ctx, req.Model, req.Prompt, params)
	if err != nil {
		if clientGone(r) {
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.GenerateResponse{Model: model, Text: text})
}

func (h *handlers) translate(w http.ResponseWriter, r *http.Request) {
	var req types.TranslateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		writeJSONError(w, http.StatusBadRequest, "instruction is required")
		return
	}
	ctx, cancel := requestContext(r, true)
	defer cancel()
	model, code, err := h.svc.Translate(ctx, req.Model, req.Instruction, req.Context)
	if err != nil {
		if clientGone(r) {
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.TranslateResponse{Model: model, Code: code})
}

func (h *handlers) cleanup(w http.ResponseWriter, r *http.Request) {
	var req types.CleanupRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	ttl := h.svc.TTL()
	if req.TTLMinutes != nil {
		ttl = time.Duration(*req.TTLMinutes) * time.Minute
	}
	resp := types.CleanupResponse{Unloaded: h.svc.CleanupIdle(ttl)}
	n, err := h.svc.CleanupTempFiles()
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp.TempFilesRemoved = n
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

func (h *handlers) sanity(w http.ResponseWriter, r *http.Request) {
	rep := h.svc.SanityCheck()
	status := http.StatusOK
	if rep.Error != "" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, rep)
}
