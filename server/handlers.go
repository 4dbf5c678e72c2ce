package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/tsawler/ocrlayout/format"
	"github.com/tsawler/ocrlayout/jobs"
)

const maxJSONBody = 1 << 20

// Status is the body of GET /status.
type Status struct {
	QueueDepth int `json:"queue_depth"`
	InFlight   int `json:"in_flight"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, Status{
		QueueDepth: s.runner.QueueDepth(),
		InFlight:   s.runner.InFlight(),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		job *jobs.Job
		err error
	)
	switch mediaType {
	case "multipart/form-data":
		job, err = s.submitUpload(w, r)
	default:
		job, err = s.submitPath(r)
	}

	if err != nil {
		var reqErr *requestError
		switch {
		case errors.As(err, &reqErr):
			writeError(w, reqErr.status, reqErr.err)
		case errors.Is(err, jobs.ErrQueueFull):
			writeError(w, http.StatusServiceUnavailable, err)
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("submit failed")
			writeError(w, http.StatusInternalServerError, nil)
		}
		return
	}

	writeJson(w, http.StatusAccepted, job)
}

func (s *Server) submitPath(r *http.Request) (*jobs.Job, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return nil, badRequest(err)
	}
	if len(body) > maxJSONBody {
		return nil, &requestError{status: http.StatusRequestEntityTooLarge, err: errors.New("request body too large")}
	}

	req, err := decodeSubmit(body)
	if err != nil {
		return nil, badRequest(err)
	}
	if err := s.paths.check(req.Path); err != nil {
		return nil, &requestError{status: http.StatusForbidden, err: err}
	}

	return s.runner.SubmitPath(r.Context(), req.Path, req.multiDoc())
}

func (s *Server) submitUpload(w http.ResponseWriter, r *http.Request) (*jobs.Job, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, err: errors.New("upload too large")}
		}
		return nil, badRequest(err)
	}
	defer r.MultipartForm.RemoveAll()

	multiDoc := false
	if v := r.FormValue("single_file"); v != "" {
		single, err := strconv.ParseBool(v)
		if err != nil {
			return nil, badRequest(fmt.Errorf("invalid single_file: %q", v))
		}
		multiDoc = !single
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest(errors.New("missing file"))
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !format.Uploadable(name) {
		return nil, badRequest(fmt.Errorf("%w: %s", format.ErrUnsupportedFormat, name))
	}

	tmp, err := os.CreateTemp(s.opts.SpoolDir, "upload-*"+filepath.Ext(name))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	job, err := s.runner.SubmitUpload(r.Context(), jobs.Upload{Filename: name, TempPath: tmp.Name()}, multiDoc)
	if err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return job, nil
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.runner.Store().Get(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJson(w, http.StatusOK, job)
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	job, err := s.runner.Abort(r.Context(), chi.URLParam(r, "task_id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJson(w, http.StatusOK, job)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	hlog.FromRequest(r).Error().Err(err).Msg("job lookup failed")
	writeError(w, http.StatusInternalServerError, nil)
}

type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{status: http.StatusBadRequest, err: err}
}

func writeJson(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	writeJson(w, code, map[string]string{"error": text})
}
