package progress

import (
	"bytes"
	"testing"
)

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf)
	r.Start(2)
	r.Step(1, "a.pdf")
	r.Step(2, "b.pdf")
	r.Finish("2 uploaded")

	want := "Uploading 2 file(s)\n[1/2] a.pdf\n[2/2] b.pdf\n2 uploaded\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewReporterUnderCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter(&bytes.Buffer{}).(*LineReporter); !ok {
		t.Error("expected a line reporter under CI")
	}
}

func TestNewReporterInteractive(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	var buf bytes.Buffer
	r := NewReporter(&buf)
	if _, ok := r.(*BarReporter); !ok {
		t.Fatalf("expected a bar reporter, got %T", r)
	}
	r.Start(1)
	r.Step(1, "a.pdf")
	r.Finish("done")
	if !bytes.Contains(buf.Bytes(), []byte("done")) {
		t.Errorf("summary not written: %q", buf.String())
	}
}
