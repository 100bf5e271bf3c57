package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"plextube/internal/channelsettings"
	"plextube/internal/domain/consts"
	"plextube/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// handleGetChannelSettings returns a channel's settings view.
func (s *Server) handleGetChannelSettings(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	settings, err := s.settings.GetChannelSettings(channelID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateChannelSettings applies a partial settings update. Fields
// absent from the body are untouched; explicit nulls clear them.
func (s *Server) handleUpdateChannelSettings(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	patch, err := decodePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := s.settings.UpdateChannelSettings(r.Context(), channelID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleListSubfolders returns the named subfolders currently in use.
func (s *Server) handleListSubfolders(w http.ResponseWriter, _ *http.Request) {
	subfolders, err := s.settings.ListSubfolders()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"subfolders": subfolders})
}

// handleValidateVideo validates an ad-hoc video URL. The response always
// carries status 200; failures are encoded in its shape.
func (s *Server) handleValidateVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := s.validator.Validate(r.Context(), body.URL)
	writeJSON(w, http.StatusOK, resp)
}

// handleDownloadVideo queues a download for a user-submitted URL and returns
// the job ID immediately; progress is polled through the jobs endpoints.
func (s *Server) handleDownloadVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job := s.jobs.Create(consts.JobTypeManualDownload, "")
	go s.runDownload(job.ID, body.URL)

	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": job.ID})
}

func (s *Server) runDownload(jobID, url string) {
	s.jobs.SetStatus(jobID, consts.JobStatusInProgress, "")

	summary, err := s.downloader.DownloadVideo(context.Background(), jobID, url)
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Download job failed")
		s.jobs.SetStatus(jobID, consts.JobStatusError, err.Error())
		return
	}
	s.jobs.SetStatus(jobID, consts.JobStatusComplete, summary)
}

// handleListJobs lists all jobs, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.List())
}

// handleGetJob returns a single job.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, ok := s.jobs.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// decodePatch reads a partial settings body, distinguishing absent fields
// from explicit nulls.
func decodePatch(r *http.Request) (models.SettingsPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return models.SettingsPatch{}, errors.New("invalid request body")
	}

	var patch models.SettingsPatch
	var err error
	if patch.SubFolder, err = optString(raw, "sub_folder"); err != nil {
		return patch, err
	}
	if patch.VideoQuality, err = optStringOrNumber(raw, "video_quality"); err != nil {
		return patch, err
	}
	if patch.MinDuration, err = optInt(raw, "min_duration"); err != nil {
		return patch, err
	}
	if patch.MaxDuration, err = optInt(raw, "max_duration"); err != nil {
		return patch, err
	}
	if patch.TitleFilterRegex, err = optString(raw, "title_filter_regex"); err != nil {
		return patch, err
	}
	if patch.DefaultRating, err = optString(raw, "default_rating"); err != nil {
		return patch, err
	}
	return patch, nil
}

func optString(raw map[string]json.RawMessage, key string) (models.OptString, error) {
	msg, ok := raw[key]
	if !ok {
		return models.OptString{}, nil
	}
	if string(msg) == "null" {
		return models.OptString{Set: true, Null: true}, nil
	}
	var v string
	if err := json.Unmarshal(msg, &v); err != nil {
		return models.OptString{}, fmt.Errorf("field %q must be a string or null", key)
	}
	return models.OptString{Set: true, Value: v}, nil
}

// optStringOrNumber accepts "1080" and 1080 interchangeably.
func optStringOrNumber(raw map[string]json.RawMessage, key string) (models.OptString, error) {
	msg, ok := raw[key]
	if !ok {
		return models.OptString{}, nil
	}
	if string(msg) == "null" {
		return models.OptString{Set: true, Null: true}, nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return models.OptString{Set: true, Value: s}, nil
	}
	var n int
	if err := json.Unmarshal(msg, &n); err == nil {
		return models.OptString{Set: true, Value: fmt.Sprintf("%d", n)}, nil
	}
	return models.OptString{}, fmt.Errorf("field %q must be a string, number, or null", key)
}

func optInt(raw map[string]json.RawMessage, key string) (models.OptInt, error) {
	msg, ok := raw[key]
	if !ok {
		return models.OptInt{}, nil
	}
	if string(msg) == "null" {
		return models.OptInt{Set: true, Null: true}, nil
	}
	var v int
	if err := json.Unmarshal(msg, &v); err != nil {
		return models.OptInt{}, fmt.Errorf("field %q must be an integer or null", key)
	}
	return models.OptInt{Set: true, Value: v}, nil
}

// writeServiceError maps settings-service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var vErr *channelsettings.ValidationError
	var mvErr *channelsettings.MoveError
	switch {
	case errors.Is(err, channelsettings.ErrChannelNotFound):
		writeError(w, http.StatusNotFound, "Channel not found")
	case errors.Is(err, channelsettings.ErrActiveDownloads):
		writeError(w, http.StatusConflict, "Cannot change subfolder while downloads are in progress")
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, channelsettings.ErrEmptyUpdate):
		writeError(w, http.StatusBadRequest, "No settings provided")
	case errors.Is(err, channelsettings.ErrDestinationExists):
		writeError(w, http.StatusInternalServerError, "Destination folder already exists")
	case errors.As(err, &mvErr):
		log.Error().Err(err).Msg("Channel folder move failed")
		writeError(w, http.StatusInternalServerError, mvErr.Error())
	default:
		log.Error().Err(err).Msg("Settings request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
