package workspace

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/api"
)

// ToggleDocuments shows or hides the documents overlay.
func (w *Workspace) ToggleDocuments() {
	w.mu.Lock()
	w.showDocuments = !w.showDocuments
	w.mu.Unlock()
}

// SetDocumentsVisible shows or hides the documents overlay.
func (w *Workspace) SetDocumentsVisible(visible bool) {
	w.mu.Lock()
	w.showDocuments = visible
	w.mu.Unlock()
}

// OpenUpload shows the upload panel and closes the documents overlay.
func (w *Workspace) OpenUpload() {
	w.mu.Lock()
	w.showUpload = true
	w.showDocuments = false
	w.uploadErr = ""
	w.mu.Unlock()
}

// CloseUpload hides the upload panel.
func (w *Workspace) CloseUpload() {
	w.mu.Lock()
	w.showUpload = false
	w.uploadErr = ""
	w.mu.Unlock()
}

// ToggleHistory shows or hides the chat history sidebar.
func (w *Workspace) ToggleHistory() {
	w.mu.Lock()
	w.showHistory = !w.showHistory
	w.mu.Unlock()
}

// SubmitUpload validates and uploads a document from the upload form,
// then hands it to HandleUploadSuccess. A blank title defaults to the
// file name without its .pdf extension. Validation and upload errors are
// kept on the form.
func (w *Workspace) SubmitUpload(ctx context.Context, file *api.Upload, title string) error {
	title = strings.TrimSpace(title)
	if file != nil && title == "" {
		title = api.TitleFromFilename(file.Filename)
	}
	if file == nil || title == "" {
		return w.uploadFailed(api.ErrTitleRequired)
	}
	if err := api.ValidatePDF(file.Filename, file.ContentType); err != nil {
		return w.uploadFailed(err)
	}

	w.mu.Lock()
	if w.uploading {
		w.mu.Unlock()
		return ErrBusy
	}
	w.uploading = true
	w.uploadErr = ""
	w.mu.Unlock()

	doc, err := w.backend.UploadDocument(ctx, *file, title)

	w.mu.Lock()
	w.uploading = false
	w.mu.Unlock()
	if err != nil {
		w.log.Error("upload failed", zap.String("file", file.Filename), zap.Error(err))
		return w.uploadFailed(err)
	}
	return w.HandleUploadSuccess(ctx, *doc)
}

func (w *Workspace) uploadFailed(err error) error {
	w.mu.Lock()
	w.uploadErr = err.Error()
	w.mu.Unlock()
	return err
}

// State is a copy of the workspace state. It doubles as the persisted
// snapshot; Loading and Uploading are dropped on restore.
type State struct {
	Selected      *api.Document `json:"selected,omitempty"`
	Analysis      *api.Analysis `json:"analysis,omitempty"`
	PDFURL        string        `json:"pdf_url,omitempty"`
	View          View          `json:"view"`
	Loading       bool          `json:"loading"`
	Error         string        `json:"error,omitempty"`
	ShowUpload    bool          `json:"show_upload"`
	ShowDocuments bool          `json:"show_documents"`
	ShowHistory   bool          `json:"show_history"`
	Uploading     bool          `json:"uploading"`
	UploadError   string        `json:"upload_error,omitempty"`
}

// HasDocument reports whether a document is selected.
func (s State) HasDocument() bool { return s.Selected != nil }

// State returns the current state. Pointers in the result are copies.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := State{
		PDFURL:        w.pdfURL,
		View:          w.view,
		Loading:       w.loading,
		Error:         w.err,
		ShowUpload:    w.showUpload,
		ShowDocuments: w.showDocuments,
		ShowHistory:   w.showHistory,
		Uploading:     w.uploading,
		UploadError:   w.uploadErr,
	}
	if w.selected != nil {
		d := *w.selected
		s.Selected = &d
	}
	if w.analysis != nil {
		a := *w.analysis
		s.Analysis = &a
	}
	return s
}

// Restore replaces the state with s. An analysis that was still running
// when s was saved is not resumed; its result will be discarded.
func (w *Workspace) Restore(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selected = nil
	if s.Selected != nil {
		d := *s.Selected
		w.selected = &d
	}
	w.analysis = nil
	if s.Analysis != nil && w.selected != nil {
		a := *s.Analysis
		w.analysis = &a
	}
	w.pdfURL = ""
	if w.selected != nil {
		w.pdfURL = s.PDFURL
	}
	w.view = s.View
	switch {
	case w.view != ViewDocument && w.view != ViewAnalysis:
		w.view = ViewChat
	case w.selected == nil:
		w.view = ViewChat
	}
	w.err = s.Error
	if s.Loading && w.selected != nil && w.err == "" && w.analysis == nil {
		// The analysis was interrupted; surface it so it can be retried.
		w.err = analyzeFailed
	}
	w.loading = false
	w.showUpload = s.ShowUpload
	w.showDocuments = s.ShowDocuments
	w.showHistory = s.ShowHistory
	w.uploading = false
	w.uploadErr = s.UploadError
	w.token++
}
