package imagegen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"speedrush/internal/domain"
	"speedrush/internal/prompt"
	"speedrush/internal/providers/image"
	"speedrush/internal/stats"
)

type stubPicker struct{}

func (stubPicker) Pick(category string) (string, error) {
	return "/refs/" + category + "/1.png", nil
}

type stubImages struct {
	mu      sync.Mutex
	prompts []string
	failOn  string
}

func (s *stubImages) Name() string { return "stub" }

func (s *stubImages) Generate(_ context.Context, req image.GenerateRequest) ([]byte, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()
	if s.failOn != "" && strings.Contains(req.ReferencePath, "/"+s.failOn+"/") {
		return nil, fmt.Errorf("%w: status 500", domain.ErrProvider)
	}
	return []byte("raw:" + req.ReferencePath), nil
}

type stubRemover struct{}

func (stubRemover) RemoveBackground(_ context.Context, data []byte) ([]byte, error) {
	return append([]byte("cut:"), data...), nil
}

type stubUploader struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	failOn   string
}

func (u *stubUploader) Name() string { return "stub" }

func (u *stubUploader) Upload(_ context.Context, name string, data []byte) (string, error) {
	if name == u.failOn {
		return "", fmt.Errorf("%w: lighthouse: status 500", domain.ErrUpload)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.uploaded == nil {
		u.uploaded = map[string][]byte{}
	}
	u.uploaded[name] = data
	return "ipfs://" + name, nil
}

func newOrchestrator(t *testing.T, images *stubImages, uploader *stubUploader) *Orchestrator {
	t.Helper()
	o, err := New(Options{
		Prompts:  prompt.NewBuilder(stubPicker{}, rand.NewPCG(1, 2)),
		Images:   images,
		Remover:  stubRemover{},
		Uploader: uploader,
		Stats:    stats.New(rand.NewPCG(3, 4)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

var testConfig = domain.CarConfig{
	Prompt:           "red race car",
	Style:            domain.CarStyleCartoon,
	EngineType:       "v8",
	TransmissionType: "manual",
	WheelsType:       "sport",
}

func TestGenerateAssemblesResult(t *testing.T) {
	images := &stubImages{}
	uploader := &stubUploader{}
	o := newOrchestrator(t, images, uploader)

	result, err := o.Generate(context.Background(), testConfig)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if err := result.Validate(); err != nil {
		t.Fatalf("invalid result: %v", err)
	}
	if result.CarImageURI != "ipfs://car.png" {
		t.Fatalf("carImageURI = %q", result.CarImageURI)
	}
	for i, want := range []string{"ipfs://engine.png", "ipfs://transmission.png", "ipfs://wheels.png"} {
		if result.Parts[i].ImageURI != want {
			t.Fatalf("parts[%d].imageURI = %q, want %q", i, result.Parts[i].ImageURI, want)
		}
	}
	if got := string(uploader.uploaded["wheels.png"]); got != "cut:raw:/refs/wheels/1.png" {
		t.Fatalf("wheels payload = %q", got)
	}
	if len(images.prompts) != 4 {
		t.Fatalf("generator calls = %d, want 4", len(images.prompts))
	}
	var sawCar bool
	for _, p := range images.prompts {
		if strings.HasSuffix(p, ". red race car") {
			sawCar = true
		}
	}
	if !sawCar {
		t.Fatalf("no car prompt ends with the user prompt: %v", images.prompts)
	}
}

func TestGenerateUploadFailureFailsWholeCall(t *testing.T) {
	o := newOrchestrator(t, &stubImages{}, &stubUploader{failOn: "transmission.png"})

	result, err := o.Generate(context.Background(), testConfig)
	if result != nil {
		t.Fatalf("expected no partial result, got %+v", result)
	}
	if !errors.Is(err, domain.ErrUpload) {
		t.Fatalf("err = %v, want ErrUpload", err)
	}
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %T, want *GenerationError", err)
	}
	if genErr.Stage != domain.StageUpload || genErr.Role != "transmission" {
		t.Fatalf("stage=%q role=%q", genErr.Stage, genErr.Role)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	uploader := &stubUploader{}
	o := newOrchestrator(t, &stubImages{failOn: "engine"}, uploader)

	_, err := o.Generate(context.Background(), testConfig)
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Stage != domain.StageGenerate || genErr.Role != "engine" {
		t.Fatalf("unexpected error detail: %v", err)
	}
	if len(uploader.uploaded) != 0 {
		t.Fatalf("uploads happened after a provider failure: %v", uploader.uploaded)
	}
}

type emptyPicker struct{}

func (emptyPicker) Pick(string) (string, error) {
	return "", fmt.Errorf("%w: no reference images", domain.ErrConfiguration)
}

func TestGeneratePromptFailure(t *testing.T) {
	o, err := New(Options{
		Prompts:  prompt.NewBuilder(emptyPicker{}, nil),
		Images:   &stubImages{},
		Remover:  stubRemover{},
		Uploader: &stubUploader{},
		Stats:    stats.New(nil),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = o.Generate(context.Background(), testConfig)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
