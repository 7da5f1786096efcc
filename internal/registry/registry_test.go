package registry

import (
	"context"
	"testing"

	"doctrans/internal/apperrors"
	"doctrans/internal/task"
)

type fakeHandler struct{}

func (fakeHandler) TranslateStream(_ context.Context, _ *task.Task, _ Options) <-chan task.Snapshot {
	ch := make(chan task.Snapshot)
	close(ch)
	return ch
}

func TestHandlerForNormalizesExtension(t *testing.T) {
	Register("fake", func() FormatHandler { return fakeHandler{} })

	for _, ext := range []string{"fake", "FAKE", ".fake", ".Fake"} {
		h, err := HandlerFor(ext)
		if err != nil {
			t.Errorf("HandlerFor(%q): %v", ext, err)
		}
		if h == nil {
			t.Errorf("HandlerFor(%q) returned nil handler", ext)
		}
	}
}

func TestHandlerForUnknown(t *testing.T) {
	_, err := HandlerFor("docx")
	if err == nil {
		t.Fatal("expected error for unregistered extension")
	}
	kind, ok := apperrors.KindOf(err)
	if !ok || kind != apperrors.KindUnsupportedFormat {
		t.Errorf("kind = %q (ok=%v), want unsupported_format", kind, ok)
	}
	if Supported("docx") {
		t.Error("Supported must agree with HandlerFor")
	}
}
