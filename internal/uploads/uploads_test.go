package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/fee-web/internal/api"
	"github.com/ziadkadry99/fee-web/internal/db"
	"github.com/ziadkadry99/fee-web/internal/progress"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Policy.pdf"), "%PDF-1.4 policy")
	writeFile(t, filepath.Join(root, "guides", "Handbook.PDF"), "%PDF-1.4 handbook")
	writeFile(t, filepath.Join(root, "guides", "notes.txt"), "not a pdf")
	writeFile(t, filepath.Join(root, "drafts", "Draft.pdf"), "%PDF-1.4 draft")
	writeFile(t, filepath.Join(root, ".cache", "Hidden.pdf"), "%PDF-1.4 hidden")
	return root
}

func relPaths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestCollectDirectory(t *testing.T) {
	root := tree(t)

	files, err := Collect([]string{root}, []string{"**/.*", "drafts/**"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	got := relPaths(files)
	if len(got) != 2 || got[0] != "Policy.pdf" || got[1] != "guides/Handbook.PDF" {
		t.Fatalf("unexpected files %v", got)
	}
	if files[1].Title != "Handbook" {
		t.Errorf("title = %q, want Handbook", files[1].Title)
	}
	if len(files[0].Checksum) != 64 || files[0].Size != int64(len("%PDF-1.4 policy")) {
		t.Errorf("unexpected metadata %+v", files[0])
	}
}

func TestCollectGlobAndDuplicates(t *testing.T) {
	root := tree(t)
	pattern := filepath.Join(root, "**", "*.pdf")

	files, err := Collect([]string{pattern, filepath.Join(root, "Policy.pdf")}, []string{"**/.*"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected Policy and Draft once each, got %v", relPaths(files))
	}
}

func TestCollectRejectsNonPDF(t *testing.T) {
	root := tree(t)
	_, err := Collect([]string{filepath.Join(root, "guides", "notes.txt")}, nil)
	if !errors.Is(err, api.ErrNotPDF) {
		t.Errorf("expected ErrNotPDF, got %v", err)
	}
	if _, err := Collect([]string{filepath.Join(root, "missing.pdf")}, nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// fakeBackend records calls and hands out sequential document ids.
type fakeBackend struct {
	mu        sync.Mutex
	uploads   []string
	analyzed  []api.ID
	failTitle string
}

func (f *fakeBackend) UploadDocument(_ context.Context, file api.Upload, title string) (*api.Document, error) {
	if title == f.failTitle {
		return nil, errors.New("Failed to upload document")
	}
	io.Copy(io.Discard, file.Content)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, file.Filename)
	return &api.Document{
		ID:         api.ID(strconv.Itoa(len(f.uploads))),
		Title:      title,
		UploadedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeBackend) AnalyzeDocument(_ context.Context, id api.ID) (*api.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed = append(f.analyzed, id)
	return &api.Analysis{}, nil
}

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewLedger(database)
}

func TestUploaderSkipsKnownFiles(t *testing.T) {
	root := tree(t)
	files, err := Collect([]string{root}, []string{"**/.*"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	backend := &fakeBackend{}
	ledger := testLedger(t)
	var out bytes.Buffer

	u := New(backend, Options{
		Concurrency: 2,
		Analyze:     true,
		Ledger:      ledger,
		Reporter:    progress.NewLineReporter(&out),
	})
	res := u.Run(t.Context(), files)
	if len(res.Errors) != 0 || len(res.Uploaded) != 3 {
		t.Fatalf("first run: %s %v", res.Summary(), res.Errors)
	}
	if len(backend.analyzed) != 3 {
		t.Errorf("expected 3 analyses, got %d", len(backend.analyzed))
	}
	if !bytes.Contains(out.Bytes(), []byte("3 uploaded, 0 already uploaded, 0 failed")) {
		t.Errorf("summary not reported: %q", out.String())
	}

	res = u.Run(t.Context(), files)
	if len(res.Uploaded) != 0 || len(res.Skipped) != 3 {
		t.Fatalf("second run: %s", res.Summary())
	}
	if len(backend.uploads) != 3 || len(backend.analyzed) != 3 {
		t.Errorf("known files sent again: %d uploads, %d analyses", len(backend.uploads), len(backend.analyzed))
	}

	recs, err := ledger.List(t.Context())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, r := range recs {
		if !r.Analyzed || r.DocumentID == "" {
			t.Errorf("incomplete record %+v", r)
		}
	}
}

func TestUploaderForceAndFailures(t *testing.T) {
	root := tree(t)
	files, _ := Collect([]string{root}, []string{"**/.*"})
	backend := &fakeBackend{failTitle: "Draft"}
	ledger := testLedger(t)

	New(backend, Options{Ledger: ledger}).Run(t.Context(), files)
	res := New(backend, Options{Ledger: ledger, Force: true}).Run(t.Context(), files)

	if len(res.Errors) != 1 || len(res.Uploaded) != 2 {
		t.Fatalf("unexpected result %s", res.Summary())
	}
	if len(backend.uploads) != 4 {
		t.Errorf("force should re-upload, got %d uploads", len(backend.uploads))
	}
	if len(backend.analyzed) != 0 {
		t.Error("analysis requested without Analyze")
	}
	if backend.uploads[0] == "" || filepath.Base(backend.uploads[0]) != backend.uploads[0] {
		t.Errorf("expected a bare file name, got %q", backend.uploads[0])
	}
}

func TestUploaderCancelled(t *testing.T) {
	root := tree(t)
	files, _ := Collect([]string{root}, nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res := New(&fakeBackend{}, Options{}).Run(ctx, files)
	if len(res.Errors) != len(files) {
		t.Errorf("expected every file to fail, got %s", res.Summary())
	}
}

func TestLedgerLookup(t *testing.T) {
	ledger := testLedger(t)
	ctx := t.Context()

	if _, ok, err := ledger.Lookup(ctx, "/a.pdf", "abc"); err != nil || ok {
		t.Fatalf("expected no record, got ok=%v err=%v", ok, err)
	}
	if err := ledger.Put(ctx, Record{Path: "/a.pdf", Checksum: "abc", DocumentID: "7", Title: "A"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := ledger.MarkAnalyzed(ctx, "7"); err != nil {
		t.Fatalf("MarkAnalyzed: %v", err)
	}
	r, ok, err := ledger.Lookup(ctx, "/a.pdf", "abc")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if r.DocumentID != "7" || !r.Analyzed || r.UploadedAt.IsZero() {
		t.Errorf("unexpected record %+v", r)
	}
	if _, ok, _ := ledger.Lookup(ctx, "/a.pdf", "changed"); ok {
		t.Error("a changed checksum must not match")
	}
}
