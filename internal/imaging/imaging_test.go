package imaging

import (
	"context"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func whiteWithSquare(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 250, G: 252, B: 255, A: 255})
		}
	}
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	// white hole inside the square must survive
	img.SetNRGBA(10, 10, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestKeyRemoverClearsBorderConnectedWhite(t *testing.T) {
	out, err := NewKeyRemover(0).RemoveBackground(context.Background(), whiteWithSquare(t))
	if err != nil {
		t.Fatalf("RemoveBackground error: %v", err)
	}
	img, err := Decode(out)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	alpha := func(x, y int) uint32 {
		_, _, _, a := img.At(x, y).RGBA()
		return a
	}
	if a := alpha(0, 0); a != 0 {
		t.Fatalf("corner alpha = %d, want 0", a)
	}
	if a := alpha(7, 7); a == 0 {
		t.Fatalf("subject pixel became transparent")
	}
	if a := alpha(10, 10); a == 0 {
		t.Fatalf("interior white pixel became transparent")
	}
}

func TestKeyRemoverRejectsGarbage(t *testing.T) {
	if _, err := NewKeyRemover(0).RemoveBackground(context.Background(), []byte("not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestResize(t *testing.T) {
	out, err := Resize(whiteWithSquare(t), 64, 32)
	if err != nil {
		t.Fatalf("Resize error: %v", err)
	}
	img, err := Decode(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Fatalf("size = %dx%d, want 64x32", b.Dx(), b.Dy())
	}
}

func TestRemoteRemover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/remove" {
			http.NotFound(w, r)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		_, _ = w.Write(append([]byte("cut:"), data...))
	}))
	defer srv.Close()

	rr, err := NewRemoteRemover(RemoteOptions{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewRemoteRemover error: %v", err)
	}
	out, err := rr.RemoveBackground(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("RemoveBackground error: %v", err)
	}
	if string(out) != "cut:png" {
		t.Fatalf("output = %q", out)
	}
}

func TestRemoteRemoverStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rr, _ := NewRemoteRemover(RemoteOptions{BaseURL: srv.URL})
	_, err := rr.RemoveBackground(context.Background(), []byte("png"))
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("err = %v, want status 503", err)
	}
}

type slowRemover struct {
	active  int32
	maxSeen int32
}

func (s *slowRemover) RemoveBackground(ctx context.Context, data []byte) ([]byte, error) {
	n := atomic.AddInt32(&s.active, 1)
	for {
		m := atomic.LoadInt32(&s.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&s.maxSeen, m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	atomic.AddInt32(&s.active, -1)
	return data, nil
}

func TestSerializedAllowsOneCallAtATime(t *testing.T) {
	inner := &slowRemover{}
	s := Serialize(inner)
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RemoveBackground(context.Background(), []byte("x"))
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&inner.maxSeen); got != 1 {
		t.Fatalf("max concurrent calls = %d, want 1", got)
	}
}
