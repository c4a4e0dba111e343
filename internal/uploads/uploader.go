package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/api"
	"github.com/ziadkadry99/fee-web/internal/progress"
)

// Backend is the part of the Fee API used for bulk uploads.
type Backend interface {
	UploadDocument(ctx context.Context, file api.Upload, title string) (*api.Document, error)
	AnalyzeDocument(ctx context.Context, documentID api.ID) (*api.Analysis, error)
}

// Options configure an Uploader.
type Options struct {
	Concurrency int
	// Analyze requests an analysis after each upload.
	Analyze bool
	// Force uploads files the ledger has already seen.
	Force    bool
	Ledger   *Ledger
	Reporter progress.Reporter
	Logger   *zap.Logger
}

// Result is the outcome of one Run.
type Result struct {
	Uploaded []Record
	Skipped  []Record
	Errors   []error
}

// Summary describes r in one line.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d uploaded, %d already uploaded, %d failed",
		len(r.Uploaded), len(r.Skipped), len(r.Errors))
}

// Uploader sends local PDFs to the Fee API with bounded parallelism.
type Uploader struct {
	backend Backend
	opts    Options
	log     *zap.Logger
}

// New creates an Uploader.
func New(backend Backend, opts Options) *Uploader {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{backend: backend, opts: opts, log: log.Named("uploads")}
}

// Run uploads files. Failures are collected per file; Run itself only
// stops early when ctx is cancelled.
func (u *Uploader) Run(ctx context.Context, files []File) *Result {
	total := len(files)
	result := &Result{}
	u.opts.Reporter.Start(total)
	if total == 0 {
		u.opts.Reporter.Finish(result.Summary())
		return result
	}

	sem := make(chan struct{}, u.opts.Concurrency)
	var mu sync.Mutex
	var processed int64

	step := func(f File) {
		n := atomic.AddInt64(&processed, 1)
		u.opts.Reporter.Step(int(n), f.RelPath)
	}
	fail := func(err error) {
		mu.Lock()
		result.Errors = append(result.Errors, err)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, file := range files {
		acquired := false
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case sem <- struct{}{}:
				acquired = true
			}
		}
		if err := ctx.Err(); err != nil {
			if acquired {
				<-sem
			}
			fail(fmt.Errorf("upload %s: %w", file.RelPath, err))
			step(file)
			continue
		}

		wg.Add(1)
		go func(f File) {
			defer wg.Done()
			defer func() { <-sem }()
			defer step(f)

			rec, skipped, err := u.one(ctx, f)
			if err != nil {
				u.log.Warn("upload failed", zap.String("path", f.Path), zap.Error(err))
				fail(err)
				return
			}
			mu.Lock()
			if skipped {
				result.Skipped = append(result.Skipped, *rec)
			} else {
				result.Uploaded = append(result.Uploaded, *rec)
			}
			mu.Unlock()
		}(file)
	}

	wg.Wait()
	u.opts.Reporter.Finish(result.Summary())
	return result
}

// one uploads a single file unless the ledger already has it, then
// analyzes it when requested and not yet done.
func (u *Uploader) one(ctx context.Context, f File) (*Record, bool, error) {
	var rec *Record
	if u.opts.Ledger != nil && !u.opts.Force {
		existing, ok, err := u.opts.Ledger.Lookup(ctx, f.Path, f.Checksum)
		if err != nil {
			return nil, false, err
		}
		if ok {
			rec = existing
		}
	}

	skipped := rec != nil
	if rec == nil {
		doc, err := u.upload(ctx, f)
		if err != nil {
			return nil, false, err
		}
		rec = &Record{
			Path:       f.Path,
			Checksum:   f.Checksum,
			DocumentID: doc.ID,
			Title:      doc.Title,
			UploadedAt: doc.UploadedAt,
		}
		u.log.Info("uploaded document", zap.String("path", f.RelPath), zap.String("document_id", doc.ID.String()))
		if err := u.record(ctx, *rec); err != nil {
			return nil, false, err
		}
	}

	if u.opts.Analyze && !rec.Analyzed {
		if _, err := u.backend.AnalyzeDocument(ctx, rec.DocumentID); err != nil {
			return nil, false, fmt.Errorf("analyze %s: %w", f.RelPath, err)
		}
		rec.Analyzed = true
		if u.opts.Ledger != nil {
			if err := u.opts.Ledger.MarkAnalyzed(ctx, rec.DocumentID); err != nil {
				return nil, false, err
			}
		}
	}
	return rec, skipped, nil
}

func (u *Uploader) upload(ctx context.Context, f File) (*api.Document, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.RelPath, err)
	}
	defer fh.Close()

	doc, err := u.backend.UploadDocument(ctx, api.Upload{
		Filename:    filepath.Base(f.Path),
		ContentType: "application/pdf",
		Content:     fh,
	}, f.Title)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", f.RelPath, err)
	}
	return doc, nil
}

func (u *Uploader) record(ctx context.Context, r Record) error {
	if u.opts.Ledger == nil {
		return nil
	}
	return u.opts.Ledger.Put(ctx, r)
}
