package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/chartpad/pkg/core/chart"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
	"github.com/matzehuels/chartpad/pkg/session"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// CreateResponse is returned by POST /api/v1/sessions.
type CreateResponse struct {
	ID   string     `json:"id"`
	Spec chart.Spec `json:"spec"`
}

// OpsResponse is returned by POST /api/v1/sessions/{id}/ops. Applied has
// one entry per submitted op.
type OpsResponse struct {
	Applied []bool     `json:"applied"`
	Mode    string     `json:"mode"`
	Spec    chart.Spec `json:"spec"`
}

// SessionResponse is returned by GET /api/v1/sessions/{id}.
type SessionResponse struct {
	*session.Snapshot
	Mode   string `json:"mode"`
	Rename string `json:"rename,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	body.Error.Message = errors.UserMessage(err)
	s.writeJSON(w, status, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Live()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []session.Summary{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// uploadFormat picks the dataset format of a request body. The format
// query parameter wins over Content-Type; anything unrecognized is JSON.
func uploadFormat(r *http.Request) (pio.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return pio.ParseFormat(f)
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mt == "text/csv":
		return pio.FormatCSV, nil
	case strings.Contains(mt, "spreadsheetml"):
		return pio.FormatXLSX, nil
	}
	return pio.FormatJSON, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	format, err := uploadFormat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	opts := s.cfg.Session
	if ct := q.Get("chartType"); ct != "" {
		opts.ChartType = mapping.ChartType(ct)
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	data, err := pio.Read(body, format, pio.XLSXOptions{
		TableOptions: pio.TableOptions{KeyColumn: q.Get("key"), Palette: opts.Palette},
		Sheet:        q.Get("sheet"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := session.New(data, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Set(r.Context(), sess.Snapshot()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.adopt(sess)
	s.logger.Info("session created", "id", sess.ID(), "rows", sess.Dataset().Rows.Len(), "format", format)
	s.writeJSON(w, http.StatusCreated, CreateResponse{ID: sess.ID(), Spec: sess.Spec()})
}

// withSession runs fn on the locked live session named by the id route
// parameter.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session)) {
	h, err := s.acquire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.release(h)
	fn(h.sess)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) {
		resp := SessionResponse{Snapshot: sess.Snapshot(), Mode: sess.Mode().String()}
		if _, text, ok := sess.RenameBuffer(); ok {
			resp.Rename = text
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) {
		s.writeJSON(w, http.StatusOK, sess.Spec())
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	slot, ok := mapping.ParseSlot(chi.URLParam(r, "slot"))
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unknown slot %q", chi.URLParam(r, "slot")))
		return
	}
	s.withSession(w, r, func(sess *session.Session) {
		s.writeJSON(w, http.StatusOK, sess.Options(slot))
	})
}

func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	ops, err := session.ReadOps(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) {
		resp := OpsResponse{Applied: make([]bool, len(ops))}
		changed := false
		for i, op := range ops {
			resp.Applied[i] = sess.Apply(op)
			changed = changed || resp.Applied[i]
		}
		if changed {
			if err := s.store.Set(r.Context(), sess.Snapshot()); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		resp.Mode = sess.Mode().String()
		resp.Spec = sess.Spec()
		s.writeJSON(w, http.StatusOK, resp)
	})
}

var contentTypes = map[pio.Format]string{
	pio.FormatJSON: "application/json",
	pio.FormatCSV:  "text/csv",
	pio.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := pio.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		var err error
		if format, err = pio.ParseFormat(f); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.withSession(w, r, func(sess *session.Session) {
		var buf bytes.Buffer
		if err := pio.Write(sess.Dataset().Data(), &buf, format); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentTypes[format])
		w.Header().Set("Content-Disposition", `attachment; filename="`+sess.ID()+"."+string(format)+`"`)
		if _, err := io.Copy(w, &buf); err != nil {
			s.logger.Debug("write export failed", "err", err)
		}
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeSessionNotFound, err, "session %s", id))
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.forget(id)
	w.WriteHeader(http.StatusNoContent)
}
