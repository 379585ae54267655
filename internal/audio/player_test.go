package audio

import (
	"context"
	"errors"
	"testing"

	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/testsupport"
)

func TestCommandPlayerRunsPlayer(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	p := NewCommandPlayer(runner, "aplay", "/usr/local/share/remoteaccessd", logging.NewNop())
	if err := p.Play(context.Background(), Rebooting); err != nil {
		t.Fatal(err)
	}
	if !runner.Called("aplay /usr/local/share/remoteaccessd/rebooting.wav") {
		t.Fatalf("unexpected calls %v", runner.Calls())
	}
}

func TestCommandPlayerReportsFailure(t *testing.T) {
	runner := testsupport.NewFakeRunner().On("aplay /snd/failed.wav", "", errors.New("no soundcard"))
	p := NewCommandPlayer(runner, "aplay", "/snd", logging.NewNop())
	if err := p.Play(context.Background(), Failed); err == nil {
		t.Fatal("expected error")
	}
}

func TestSilent(t *testing.T) {
	var p Player = Silent{}
	if err := p.Play(context.Background(), WirelessOn); err != nil {
		t.Fatal(err)
	}
}
