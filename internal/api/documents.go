package api

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/dharsanguruparan/DocFlow/internal/attachment"
	"github.com/dharsanguruparan/DocFlow/internal/config"
	"github.com/dharsanguruparan/DocFlow/internal/document"
	"github.com/dharsanguruparan/DocFlow/internal/model"
	"github.com/dharsanguruparan/DocFlow/internal/query"
)

const (
	headerUser   = "X-User"
	headerGroups = "X-Approval-Groups"

	defaultTopAuthors = 10
)

func (s *Server) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := strings.TrimSpace(r.Header.Get(headerUser))
	if u == "" {
		respondError(w, http.StatusUnauthorized, "missing "+headerUser+" header")
		return "", false
	}
	return u, true
}

func pathID(r *http.Request) int64 {
	// The route pattern only admits digits.
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func criteria(r *http.Request) (query.Criteria, error) {
	q := r.URL.Query()
	c := query.Criteria{Title: q.Get("title")}
	if raw := q.Get("status"); raw != "" {
		st, ok := model.ParseStatus(strings.ToUpper(raw))
		if !ok {
			return c, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, raw)
		}
		c.Status = st
	}
	return c, nil
}

// pagination reports whether page or size was supplied; size defaults to 10.
func pagination(r *http.Request) (index, size int, paged bool, err error) {
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("size") == "" {
		return 0, 0, false, nil
	}
	size = 10
	if raw := q.Get("page"); raw != "" {
		if index, err = strconv.Atoi(raw); err != nil {
			return 0, 0, false, fmt.Errorf("%w: page must be an integer", model.ErrInvalidInput)
		}
	}
	if raw := q.Get("size"); raw != "" {
		if size, err = strconv.Atoi(raw); err != nil {
			return 0, 0, false, fmt.Errorf("%w: size must be an integer", model.ErrInvalidInput)
		}
	}
	return index, size, true, nil
}

func (s *Server) handleListOwn(w http.ResponseWriter, r *http.Request) {
	author, ok := s.user(w, r)
	if !ok {
		return
	}
	c, err := criteria(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	index, size, paged, err := pagination(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if paged {
		page, err := s.query.PageByAuthor(r.Context(), author, c, index, size)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
		return
	}
	list, err := s.query.ListByAuthor(r.Context(), author, c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.user(w, r); !ok {
		return
	}
	groups := config.ParseList(r.Header.Get(headerGroups))
	c, err := criteria(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	index, size, paged, err := pagination(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if paged {
		page, err := s.query.PageForApproval(r.Context(), groups, c, index, size)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
		return
	}
	list, err := s.query.ListForApproval(r.Context(), groups, c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	author, ok := s.user(w, r)
	if !ok {
		return
	}
	view, err := s.engine.GetOne(r.Context(), author, pathID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// documentForm reads the multipart form: document fields plus any number of
// "files" parts. The returned closer releases the uploaded files.
func (s *Server) documentForm(w http.ResponseWriter, r *http.Request) (model.Fields, []attachment.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return model.Fields{}, nil, func() {}, fmt.Errorf("%w: expecting multipart form: %v", model.ErrInvalidInput, err)
	}
	f := model.Fields{
		DocType:     r.FormValue("docType"),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	var (
		uploads []attachment.Upload
		opened  []multipart.File
	)
	closeAll := func() {
		for _, of := range opened {
			of.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}
	for _, fh := range r.MultipartForm.File["files"] {
		file, err := fh.Open()
		if err != nil {
			closeAll()
			return model.Fields{}, nil, func() {}, fmt.Errorf("%w: open upload %q: %w", model.ErrStorageFailure, fh.Filename, err)
		}
		opened = append(opened, file)
		uploads = append(uploads, attachment.Upload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     file,
		})
	}
	return f, uploads, closeAll, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	author, ok := s.user(w, r)
	if !ok {
		return
	}
	fields, uploads, done, err := s.documentForm(w, r)
	defer done()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	fields.Author = author
	submit, _ := strconv.ParseBool(r.FormValue("submit"))
	var created document.Created
	switch {
	case submit && len(uploads) > 0:
		created, err = s.engine.SubmitWithFiles(r.Context(), fields, uploads)
	case submit:
		created, err = s.engine.Submit(r.Context(), fields)
	default:
		created, err = s.engine.CreateDraft(r.Context(), fields, uploads)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleEditDraft(submit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, ok := s.user(w, r)
		if !ok {
			return
		}
		id := pathID(r)
		// Only the author may edit; other authors see not found.
		if _, err := s.engine.GetOne(r.Context(), author, id); err != nil {
			s.fail(w, r, err)
			return
		}
		fields, uploads, done, err := s.documentForm(w, r)
		defer done()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		var results []model.UploadResult
		if submit {
			results, err = s.engine.SubmitAfterDraft(r.Context(), id, fields, uploads)
		} else {
			results, err = s.engine.SaveAfterDraft(r.Context(), id, fields, uploads)
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, results)
	}
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := s.user(w, r)
	if !ok {
		return
	}
	if err := s.engine.Approve(r.Context(), pathID(r), reviewer); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := s.user(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, fmt.Errorf("%w: expecting JSON body with reason: %v", model.ErrInvalidInput, err))
		return
	}
	if err := s.engine.Reject(r.Context(), pathID(r), reviewer, body.Reason); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.user(w, r); !ok {
		return
	}
	if err := s.engine.Delete(r.Context(), pathID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	att, err := s.engine.GetAttachment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(att.Data)
	}
}

// parseBound accepts RFC 3339 timestamps or plain dates. A plain date used as
// the upper bound covers the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", model.ErrInvalidInput, raw)
	}
	if upper {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return d, nil
}

type statsRequest struct {
	docType  string
	from, to time.Time
}

func parseStatsRequest(r *http.Request) (statsRequest, error) {
	q := r.URL.Query()
	var (
		req statsRequest
		err error
	)
	req.docType = q.Get("docType")
	if q.Get("from") == "" || q.Get("to") == "" {
		return req, fmt.Errorf("%w: from and to are required", model.ErrInvalidInput)
	}
	if req.from, err = parseBound(q.Get("from"), false); err != nil {
		return req, err
	}
	if req.to, err = parseBound(q.Get("to"), true); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	req, err := parseStatsRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	counts, err := s.query.Statistics(r.Context(), req.docType, req.from, req.to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func (s *Server) handleTopAuthors(w http.ResponseWriter, r *http.Request) {
	req, err := parseStatsRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	n := defaultTopAuthors
	if raw := r.URL.Query().Get("n"); raw != "" {
		if n, err = strconv.Atoi(raw); err != nil {
			s.fail(w, r, fmt.Errorf("%w: n must be an integer", model.ErrInvalidInput))
			return
		}
	}
	top, err := s.query.TopAuthors(r.Context(), req.docType, req.from, req.to, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, top)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	list, err := s.roles.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.roles.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, role)
}
