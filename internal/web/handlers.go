package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/analysis"
	"github.com/ziadkadry99/fee-web/internal/api"
	"github.com/ziadkadry99/fee-web/internal/chat"
	"github.com/ziadkadry99/fee-web/internal/session"
	"github.com/ziadkadry99/fee-web/internal/workspace"
)

var (
	errBadRequest      = errors.New("bad request")
	errUnknownDocument = errors.New("unknown document")
)

// actionFunc mutates a session in response to a form post. Failures that
// the page shows on its own (analysis errors, upload errors, chat bubbles)
// are returned for logging only.
type actionFunc func(r *http.Request, s *session.Session) error

// statusFor maps errors that the page cannot display to an HTTP status.
// It returns 0 for errors already reflected in the session state.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnknownDocument):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, workspace.ErrUnknownView),
		errors.Is(err, workspace.ErrNoDocument),
		errors.Is(err, chat.ErrUnknownTab),
		errors.Is(err, chat.ErrNoDocument),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, analysis.ErrUnknownTab):
		return http.StatusBadRequest
	}
	return 0
}

// wantsJSON reports whether the caller asked for the session view
// instead of a redirect.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// action wraps fn in the post/redirect/get cycle. JSON callers get the
// resulting session view instead of the redirect.
func (h *Web) action(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := h.sessions.FromRequest(w, r)
		err := fn(r, s)
		h.sessions.Save(r.Context(), s)

		if err != nil {
			if status := statusFor(err); status != 0 {
				h.log.Debug("rejected action", zap.String("path", r.URL.Path), zap.Error(err))
				if wantsJSON(r) {
					writeJSON(w, status, map[string]string{"error": err.Error()})
				} else {
					http.Error(w, err.Error(), status)
				}
				return
			}
			h.log.Debug("action failed", zap.String("path", r.URL.Path), zap.String("session", s.ID), zap.Error(err))
		}

		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, s.View())
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// report wraps fn for background calls from page scripts, which only
// need a status code.
func (h *Web) report(fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := h.sessions.FromRequest(w, r)
		if err := fn(r, s); err != nil {
			status := statusFor(err)
			if status == 0 {
				status = http.StatusInternalServerError
			}
			http.Error(w, err.Error(), status)
			return
		}
		h.sessions.Save(r.Context(), s)
		w.WriteHeader(http.StatusNoContent)
	}
}

// formFile reads the named multipart file into an upload. A missing file
// yields nil and no error.
func formFile(r *http.Request, name string) (*api.Upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	file, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", errBadRequest, name, err)
	}
	return newUpload(file, header), nil
}

func newUpload(file multipart.File, header *multipart.FileHeader) *api.Upload {
	return &api.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
}

func refreshDocuments(r *http.Request, s *session.Session) error {
	return s.Documents.Load(r.Context())
}

func toggleDocuments(r *http.Request, s *session.Session) error {
	s.Workspace.ToggleDocuments()
	return nil
}

func selectDocument(r *http.Request, s *session.Session) error {
	id := api.ID(strings.TrimSpace(r.FormValue("id")))
	if id == "" {
		return fmt.Errorf("%w: document id is required", errBadRequest)
	}
	doc, ok := s.Documents.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownDocument, id)
	}
	return s.Workspace.SelectDocument(r.Context(), doc)
}

func deselectDocument(r *http.Request, s *session.Session) error {
	s.Workspace.Deselect(r.Context())
	return nil
}

func submitUpload(r *http.Request, s *session.Session) error {
	file, err := formFile(r, "file")
	if err != nil {
		return err
	}
	if file != nil {
		defer closeUpload(file)
	}
	if err := s.Workspace.SubmitUpload(r.Context(), file, r.FormValue("title")); err != nil {
		return err
	}
	// The new document is not in the list yet.
	return s.Documents.Load(r.Context())
}

func closeUpload(u *api.Upload) {
	if c, ok := u.Content.(multipart.File); ok {
		c.Close()
	}
}

func toggleUpload(r *http.Request, s *session.Session) error {
	if s.Workspace.State().ShowUpload {
		s.Workspace.CloseUpload()
	} else {
		s.Workspace.OpenUpload()
	}
	return nil
}

func setView(r *http.Request, s *session.Session) error {
	return s.Workspace.SetView(workspace.View(r.FormValue("view")))
}

func retryAnalysis(r *http.Request, s *session.Session) error {
	return s.Workspace.RetryAnalysis(r.Context())
}

func setAnalysisTab(r *http.Request, s *session.Session) error {
	return s.Analysis.SetTab(r.FormValue("tab"))
}

func toggleFacet(r *http.Request, s *session.Session) error {
	s.Analysis.ToggleFacet(chi.URLParam(r, "facet"))
	return nil
}

func setChatTab(r *http.Request, s *session.Session) error {
	return s.Chat.SetTab(chat.Tab(r.FormValue("tab")))
}

func sendMessage(r *http.Request, s *session.Session) error {
	return s.Chat.Send(r.Context(), r.FormValue("message"))
}

func uploadInChat(r *http.Request, s *session.Session) error {
	file, err := formFile(r, "file")
	if err != nil {
		return err
	}
	if file == nil {
		return fmt.Errorf("%w: no file attached", errBadRequest)
	}
	defer closeUpload(file)
	if err := s.Chat.UploadDocument(r.Context(), *file); err != nil {
		return err
	}
	return s.Documents.Load(r.Context())
}

func retryConversations(r *http.Request, s *session.Session) error {
	return s.Chat.RetryConversations(r.Context())
}

func dismissChatError(r *http.Request, s *session.Session) error {
	s.Chat.DismissError()
	return nil
}

func loadMoreHistory(r *http.Request, s *session.Session) error {
	return s.Chat.LoadMoreHistory(r.Context())
}

func toggleHistory(r *http.Request, s *session.Session) error {
	s.Workspace.ToggleHistory()
	return nil
}

func prevPage(r *http.Request, s *session.Session) error {
	s.Viewer.PrevPage()
	return nil
}

func nextPage(r *http.Request, s *session.Session) error {
	s.Viewer.NextPage()
	return nil
}

func zoomIn(r *http.Request, s *session.Session) error {
	s.Viewer.ZoomIn()
	return nil
}

func zoomOut(r *http.Request, s *session.Session) error {
	s.Viewer.ZoomOut()
	return nil
}

func zoomReset(r *http.Request, s *session.Session) error {
	s.Viewer.ResetZoom()
	return nil
}

func viewerLoaded(r *http.Request, s *session.Session) error {
	pages, err := strconv.Atoi(r.FormValue("pages"))
	if err != nil {
		return fmt.Errorf("%w: pages: %v", errBadRequest, err)
	}
	if err := s.Viewer.LoadSucceeded(r.FormValue("url"), pages); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func viewerFailed(r *http.Request, s *session.Session) error {
	s.Viewer.LoadFailed(r.FormValue("url"), r.FormValue("message"))
	return nil
}
