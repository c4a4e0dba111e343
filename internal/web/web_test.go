package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/fee-web/internal/api"
	"github.com/ziadkadry99/fee-web/internal/chat"
	"github.com/ziadkadry99/fee-web/internal/session"
)

// feeAPI fakes the Fee backend.
func feeAPI(t *testing.T) *api.Client {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("GET /api/documents/{$}", func(w http.ResponseWriter, r *http.Request) {
		write(w, []map[string]any{
			{"id": 1, "title": "Policy", "file": "/media/policy.pdf", "uploaded_at": "2026-01-02T10:00:00Z"},
		})
	})
	mux.HandleFunc("POST /api/documents/{$}", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"id": 2, "title": r.FormValue("title"), "file": "/media/new.pdf", "uploaded_at": "2026-01-03T10:00:00Z"})
	})
	mux.HandleFunc("POST /api/documents/{id}/analyze/", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"fee_perspective_analysis": map[string]any{
			"overall_assessment": map[string]any{"inclusivity_score": 0.82, "major_concerns": []string{"Jargon"}},
			"facet_analysis": map[string]any{
				"technology": map[string]any{"assumptions": []string{"Assumes broadband"}},
			},
		}})
	})
	mux.HandleFunc("GET /api/documents/{id}/conversations/", func(w http.ResponseWriter, r *http.Request) {
		write(w, []any{})
	})
	mux.HandleFunc("GET /api/conversations/{$}", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"results": []any{}, "next": nil})
	})
	mux.HandleFunc("POST /api/chat/{$}", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Message string }
		json.NewDecoder(r.Body).Decode(&body)
		write(w, map[string]any{"conversation": []map[string]any{
			{"id": 7, "message": body.Message, "is_fee": false},
			{"id": 8, "message": "You said **" + body.Message + "**", "is_fee": true},
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL + "/api")
}

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	m := session.NewManager(feeAPI(t), nil, session.Options{FileHost: "http://files.local"})
	r := chi.NewRouter()
	New(m, Options{}).RegisterRoutes(r)
	return r
}

// browser replays the session cookie across requests.
type browser struct {
	t      *testing.T
	r      http.Handler
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) state() session.View {
	b.t.Helper()
	w := b.do(httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if w.Code != http.StatusOK {
		b.t.Fatalf("state: expected 200, got %d", w.Code)
	}
	var v session.View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		b.t.Fatalf("decoding state: %v", err)
	}
	return v
}

func multipartBody(t *testing.T, fields map[string]string, filename, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("creating part: %v", err)
		}
		part.Write([]byte("%PDF-1.4"))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestServeIndex(t *testing.T) {
	b := &browser{t: t, r: setupRouter(t)}
	w := b.do(httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"Fee SESMag", "Hello! I&#39;m Fee.", "Policy", "Chat with Fee or upload a document..."} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	if b.cookie == nil {
		t.Error("expected a session cookie")
	}
}

func TestSelectDocumentRedirects(t *testing.T) {
	b := &browser{t: t, r: setupRouter(t)}
	b.do(httptest.NewRequest(http.MethodGet, "/", nil))

	w := b.post("/documents/select", url.Values{"id": {"1"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", w.Code, w.Header().Get("Location"))
	}

	v := b.state()
	if v.Workspace.Selected == nil || v.Workspace.Selected.File != "http://files.local/media/policy.pdf" {
		t.Fatalf("unexpected selection %+v", v.Workspace.Selected)
	}
	if v.Analysis == nil || v.Analysis.Overview.Percent != "82.0%" || v.Analysis.Overview.Tier.Name != "success" {
		t.Errorf("unexpected analysis %+v", v.Analysis)
	}
	if v.Viewer.File != v.Workspace.PDFURL {
		t.Errorf("viewer file %q does not follow pdf url %q", v.Viewer.File, v.Workspace.PDFURL)
	}

	page := b.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if !strings.Contains(page, "Analysis View") {
		t.Error("expected the view toggle once a document is selected")
	}
}

func TestRejectedActions(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		form   url.Values
		status int
	}{
		{"unknown document", "/documents/select", url.Values{"id": {"99"}}, http.StatusNotFound},
		{"missing document id", "/documents/select", nil, http.StatusBadRequest},
		{"view without document", "/view", url.Values{"view": {"analysis"}}, http.StatusBadRequest},
		{"unknown view", "/view", url.Values{"view": {"map"}}, http.StatusBadRequest},
		{"unknown analysis tab", "/analysis/tab", url.Values{"tab": {"summary"}}, http.StatusBadRequest},
		{"document tab without document", "/chat/tab", url.Values{"tab": {"document"}}, http.StatusBadRequest},
		{"blank message", "/chat/send", url.Values{"message": {"  "}}, http.StatusBadRequest},
		{"chat upload without file", "/chat/upload", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &browser{t: t, r: setupRouter(t)}
			b.do(httptest.NewRequest(http.MethodGet, "/", nil))
			if w := b.post(tt.path, tt.form); w.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestChatSendJSON(t *testing.T) {
	b := &browser{t: t, r: setupRouter(t)}
	b.do(httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodPost, "/chat/send", strings.NewReader("message=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	w := b.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var v session.View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding view: %v", err)
	}
	msgs := v.Chat.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected welcome, message and reply, got %d messages", len(msgs))
	}
	if msgs[1].Message != "hi" || msgs[1].IsFee || msgs[2].Message != "You said **hi**" || !msgs[2].IsFee {
		t.Errorf("unexpected thread %+v", msgs)
	}

	page := b.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if !strings.Contains(page, "You said <strong>hi</strong>") {
		t.Error("expected the Fee reply rendered as markdown")
	}
}

func TestUploadForm(t *testing.T) {
	b := &browser{t: t, r: setupRouter(t)}
	b.do(httptest.NewRequest(http.MethodGet, "/", nil))
	b.post("/upload/toggle", nil)
	if !b.state().Workspace.ShowUpload {
		t.Fatal("upload panel not opened")
	}

	body, ct := multipartBody(t, nil, "Handbook.pdf", "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	if w := b.do(req); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", w.Code, w.Body.String())
	}

	v := b.state()
	if v.Workspace.Selected == nil || v.Workspace.Selected.Title != "Handbook" {
		t.Fatalf("uploaded document not selected: %+v", v.Workspace.Selected)
	}
	if v.Workspace.ShowUpload {
		t.Error("upload panel should close after a successful upload")
	}
}

func TestUploadFormRejectsNonPDF(t *testing.T) {
	b := &browser{t: t, r: setupRouter(t)}
	b.do(httptest.NewRequest(http.MethodGet, "/", nil))

	body, ct := multipartBody(t, map[string]string{"title": "Notes"}, "notes.txt", "text/plain")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	b.do(req)

	v := b.state()
	if v.Workspace.UploadError != api.ErrNotPDF.Error() {
		t.Errorf("expected %q, got %q", api.ErrNotPDF.Error(), v.Workspace.UploadError)
	}
	if v.Workspace.Selected != nil {
		t.Error("nothing should be selected")
	}
}

func TestViewerReports(t *testing.T) {
	b := &browser{t: t, r: setupRouter(t)}
	b.do(httptest.NewRequest(http.MethodGet, "/", nil))
	b.post("/documents/select", url.Values{"id": {"1"}})
	b.post("/view", url.Values{"view": {"document"}})

	file := b.state().Viewer.File
	if w := b.post("/viewer/loaded", url.Values{"url": {file}, "pages": {"3"}}); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := b.post("/viewer/loaded", url.Values{"url": {file}, "pages": {"zero"}}); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad page count, got %d", w.Code)
	}

	b.post("/viewer/next", nil)
	b.post("/viewer/zoom-in", nil)
	st := b.state().Viewer
	if st.Page != 2 || st.NumPages != 3 || st.Percent() != 110 {
		t.Errorf("unexpected viewer state %+v", st)
	}

	page := b.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if !strings.Contains(page, "pdf.js/"+DefaultPDFJSVersion+"/pdf.min.js") || !strings.Contains(page, "2 / 3") {
		t.Error("expected the pdf.js viewer on page 2 of 3")
	}

	b.post("/viewer/failed", url.Values{"url": {file}})
	if got := b.state().Viewer.Error; got != "Failed to load PDF. Please ensure the file is accessible and try again." {
		t.Errorf("unexpected viewer error %q", got)
	}
}

func TestAnalysisPanel(t *testing.T) {
	b := &browser{t: t, r: setupRouter(t)}
	b.do(httptest.NewRequest(http.MethodGet, "/", nil))
	b.post("/documents/select", url.Values{"id": {"1"}})
	b.post("/view", url.Values{"view": {"analysis"}})
	b.post("/analysis/tab", url.Values{"tab": {"perspective"}})
	b.post("/analysis/facets/technology/toggle", nil)

	v := b.state()
	if v.Analysis == nil || v.Analysis.Tab != "perspective" || !v.Analysis.Expanded["technology"] {
		t.Fatalf("unexpected analysis panel %+v", v.Analysis)
	}
	page := b.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	for _, want := range []string{"Fee&#39;s Analysis Lens", "Technology Analysis", "Assumes broadband"} {
		if !strings.Contains(page, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	r := setupRouter(t)
	for _, path := range []string{"/static/style.css", "/static/fee.svg"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func dialChat(t *testing.T) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(setupRouter(t))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	return conn
}

func TestWebSocketMessage(t *testing.T) {
	conn := dialChat(t)

	if err := conn.WriteJSON(chatRequest{Type: "message", Content: "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "messages" || resp.Scope != chat.General {
		t.Fatalf("unexpected response %+v", resp)
	}
	last := resp.Messages[len(resp.Messages)-1]
	if !last.IsFee || last.Message != "You said **hello**" {
		t.Errorf("unexpected last message %+v", last)
	}
}

func TestWebSocketErrors(t *testing.T) {
	tests := []struct {
		name string
		req  chatRequest
		want string
	}{
		{"empty content", chatRequest{Type: "message"}, "content is required"},
		{"blank content", chatRequest{Type: "message", Content: "   "}, "content is required"},
		{"unknown type", chatRequest{Type: "ask", Content: "hello"}, "unknown message type"},
		{"document tab without document", chatRequest{Type: "tab", Content: "document"}, "no document selected"},
	}
	conn := dialChat(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteJSON(tt.req); err != nil {
				t.Fatalf("write: %v", err)
			}
			var resp chatResponse
			if err := conn.ReadJSON(&resp); err != nil {
				t.Fatalf("read: %v", err)
			}
			if resp.Type != "error" {
				t.Errorf("expected error type, got %q", resp.Type)
			}
			if !strings.Contains(resp.Content, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, resp.Content)
			}
		})
	}
}

func TestWebSocketOrigin(t *testing.T) {
	tests := []struct {
		name     string
		origin   func(serverURL string) string
		allowAll bool
		wantOK   bool
	}{
		{"same host", func(u string) string { return u }, false, true},
		{"local dev server", func(string) string { return "http://localhost:5173" }, false, true},
		{"foreign site", func(string) string { return "http://evil.example" }, false, false},
		{"local host over other scheme", func(string) string { return "chrome-extension://localhost" }, false, false},
		{"foreign site when all allowed", func(string) string { return "http://evil.example" }, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := session.NewManager(feeAPI(t), nil, session.Options{})
			r := chi.NewRouter()
			New(m, Options{AllowAllOrigins: tt.allowAll}).RegisterRoutes(r)
			server := httptest.NewServer(r)
			defer server.Close()

			wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat"
			header := http.Header{"Origin": []string{tt.origin(server.URL)}}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("websocket dial: %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("expected the handshake to be rejected")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("expected 403, got %+v", resp)
			}
		})
	}
}

func TestWebSocketKeepsSessionAlive(t *testing.T) {
	m := session.NewManager(feeAPI(t), nil, session.Options{})
	r := chi.NewRouter()
	New(m, Options{}).RegisterRoutes(r)
	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	time.Sleep(150 * time.Millisecond)
	if err := conn.WriteJSON(chatRequest{Type: "tab", Content: "general"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	m.Sweep(t.Context(), 100*time.Millisecond, 0)
	if m.Len() != 1 {
		t.Error("a session chatting over the websocket must not be evicted as idle")
	}
}
