package logging

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler().(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for no handlers")
	}
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	single := slog.NewJSONHandler(&buf, nil)
	if got := newFanoutHandler(nil, single); got != single {
		t.Fatal("expected the single non-nil handler to be returned as-is")
	}
}

func TestFanoutHandlerRespectsChildLevels(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(newFanoutHandler(infoHandler, debugHandler))
	logger.Debug("debug only message")

	if infoBuf.Len() != 0 {
		t.Error("info handler should not receive debug messages")
	}
	if debugBuf.Len() == 0 {
		t.Error("debug handler should receive debug messages")
	}
}

func TestFanoutHandlerWithAttrsReachesEveryChild(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))
	slog.New(h.WithAttrs([]slog.Attr{slog.String("key", "value")})).Info("test")

	for name, buf := range map[string]*bytes.Buffer{"buf1": &buf1, "buf2": &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"key"`)) {
			t.Errorf("expected key attribute in %s", name)
		}
	}
}

func TestTeeLogger(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&baseBuf, nil))
	logger := TeeLogger(base, slog.NewJSONHandler(&teeBuf, nil))

	logger.Info("teed message")

	if baseBuf.Len() == 0 {
		t.Error("expected output in base buffer")
	}
	if teeBuf.Len() == 0 {
		t.Error("expected output in tee buffer")
	}

	var onlyTee bytes.Buffer
	TeeLogger(nil, slog.NewJSONHandler(&onlyTee, nil)).Info("no base")
	if onlyTee.Len() == 0 {
		t.Error("expected output with nil base")
	}
}
