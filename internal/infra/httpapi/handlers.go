package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"whisper-web/internal/application"
	"whisper-web/internal/domain"
	"whisper-web/internal/engine"
	"whisper-web/internal/recommend"
)

type modelsResponse struct {
	Models      map[string]domain.ModelVariant `json:"models"`
	Current     *string                        `json:"current"`
	Available   []string                       `json:"available"`
	Recommended *domain.Recommendation         `json:"recommended"`
	HasGPU      bool                           `json:"has_gpu"`
	ModelDir    string                         `json:"model_dir"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	available := s.catalog.Scan(s.modelDir)
	caps := s.probe(r.Context())

	resp := modelsResponse{
		Models:    map[string]domain.ModelVariant{},
		Available: available,
		HasGPU:    caps.GPUPresent,
		ModelDir:  s.modelDir,
	}
	for _, v := range s.catalog.All() {
		resp.Models[v.ID] = v
	}

	if variant, loaded := s.engine.Current(); loaded {
		resp.Current = &variant
	}

	if rec := recommend.Recommend(available, caps); rec.Model != "" {
		resp.Recommended = &rec
	}

	writeJSON(w, http.StatusOK, resp)
}

type changeModelRequest struct {
	Model string `json:"model"`
}

func (s *Server) handleChangeModel(w http.ResponseWriter, r *http.Request) {
	var req changeModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.engine.Load(r.Context(), req.Model); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownVariant):
			writeError(w, http.StatusBadRequest, "invalid model: "+req.Model)
		case errors.Is(err, engine.ErrArtifactMissing):
			writeError(w, http.StatusBadRequest, "model "+req.Model+" is not available, download its weights first")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"model":   req.Model,
		"message": "model changed to " + req.Model,
	})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio upload")
		return
	}

	result, err := s.service.Transcribe(r.Context(), audio)
	if err != nil {
		s.logger.Error("transcription failed", "error", err)
		if errors.Is(err, application.ErrNoAudio) {
			writeError(w, http.StatusBadRequest, "No audio file provided")
			return
		}
		// NoModelLoaded is a server-state error: recoverable by loading a
		// model, but still the server's fault from the client's view.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"transcription": result.Text,
		"language":      result.Language,
		"model_used":    result.Model,
		"timestamp":     result.Timestamp.Format(time.RFC3339),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.progress.Current())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	var model *string
	if variant, loaded := s.engine.Current(); loaded {
		model = &variant
	} else {
		status = "no_model"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":           status,
		"model":            model,
		"gpu_available":    s.probe(r.Context()).GPUPresent,
		"available_models": s.catalog.Scan(s.modelDir),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
