package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress while a batch of files is uploaded.
type Reporter interface {
	Start(total int)
	Step(done int, file string)
	Finish(summary string)
}

// NewReporter returns a LineReporter writing to w when running under CI,
// and a bar otherwise.
func NewReporter(w io.Writer) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LineReporter{w: w}
	}
	return &BarReporter{w: w}
}

// BarReporter draws a progress bar.
type BarReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (r *BarReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *BarReporter) Step(done int, file string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(file)
	_ = r.bar.Set(done)
}

func (r *BarReporter) Finish(summary string) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintln(r.w, summary)
}

// LineReporter prints one line per file, for logs.
type LineReporter struct {
	w     io.Writer
	total int
}

// NewLineReporter returns a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (r *LineReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(r.w, "Uploading %d file(s)\n", total)
}

func (r *LineReporter) Step(done int, file string) {
	fmt.Fprintf(r.w, "[%d/%d] %s\n", done, r.total, file)
}

func (r *LineReporter) Finish(summary string) {
	fmt.Fprintln(r.w, summary)
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int)        {}
func (Nop) Step(int, string) {}
func (Nop) Finish(string)    {}
