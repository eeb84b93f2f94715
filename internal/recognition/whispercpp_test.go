package recognition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWhisperCPPLoadRequiresWeights(t *testing.T) {
	modelDir := t.TempDir()
	backend := NewWhisperCPP(WhisperCPPOptions{ModelDir: modelDir}).
		WithLookPath(func(name string) (string, error) { return "/opt/" + name, nil })

	if _, err := backend.Load(context.Background(), Small); !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad for missing weights, got %v", err)
	}
	if err := os.WriteFile(backend.WeightsPath(Small), []byte("ggml"), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	if _, err := backend.Load(context.Background(), Small); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := filepath.Base(backend.WeightsPath(Large)); got != "ggml-large-v3.bin" {
		t.Fatalf("unexpected weights name %s", got)
	}

	backend.WithLookPath(func(string) (string, error) { return "", errors.New("not found") })
	if _, err := backend.Load(context.Background(), Small); !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad for missing binary, got %v", err)
	}
}

func TestWhisperCPPTranscribeConvertsOffsets(t *testing.T) {
	modelDir := t.TempDir()
	var gotArgs []string
	backend := NewWhisperCPP(WhisperCPPOptions{ModelDir: modelDir, Language: "de"}).
		WithLookPath(func(name string) (string, error) { return name, nil }).
		WithCommandRunner(func(_ context.Context, _ []string, _ string, args ...string) (string, error) {
			gotArgs = args
			payload := `{"transcription":[` +
				`{"offsets":{"from":0,"to":0},"text":"[_BEG_]"},` +
				`{"offsets":{"from":120,"to":480},"text":" Guten"},` +
				`{"offsets":{"from":480,"to":910},"text":" Tag"}]}`
			return "", os.WriteFile(argValue(args, "-of")+".json", []byte(payload), 0o644)
		})
	if err := os.WriteFile(backend.WeightsPath(Base), []byte("ggml"), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}

	model, err := backend.Load(context.Background(), Base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	words, err := model.Transcribe(context.Background(), testAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(words) != 2 || words[0].Start != 0.12 || words[1].End != 0.91 || !words[1].Timed {
		t.Fatalf("unexpected words %+v", words)
	}
	if argValue(gotArgs, "-ml") != "1" || argValue(gotArgs, "-l") != "de" || argValue(gotArgs, "-m") != backend.WeightsPath(Base) {
		t.Fatalf("unexpected args %v", gotArgs)
	}
}

func TestWhisperCPPFailure(t *testing.T) {
	modelDir := t.TempDir()
	backend := NewWhisperCPP(WhisperCPPOptions{ModelDir: modelDir}).
		WithLookPath(func(name string) (string, error) { return name, nil }).
		WithCommandRunner(func(context.Context, []string, string, ...string) (string, error) {
			return "whisper_init: failed to load model", errors.New("exit status 3")
		})
	_ = os.WriteFile(backend.WeightsPath(Tiny), []byte("ggml"), 0o644)
	model, err := backend.Load(context.Background(), Tiny)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := model.Transcribe(context.Background(), testAudio(t)); !errors.Is(err, ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
}
