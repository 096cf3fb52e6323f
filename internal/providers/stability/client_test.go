package stability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateImagePayload(t *testing.T) {
	var gotFields map[string]string
	var gotImage []byte
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != structurePath {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotImage, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	out, err := client.GenerateImage(context.Background(), ImageRequest{
		Image:          []byte("ref"),
		Prompt:         "a v8 engine",
		NegativePrompt: "blurry",
		StylePreset:    "comic-book",
	})
	if err != nil {
		t.Fatalf("GenerateImage error: %v", err)
	}
	if string(out) != "\x89PNG" {
		t.Fatalf("output = %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotAccept != "image/*" {
		t.Fatalf("Accept = %q", gotAccept)
	}
	want := map[string]string{
		"prompt":           "a v8 engine",
		"negative_prompt":  "blurry",
		"control_strength": "0.7",
		"seed":             "0",
		"output_format":    "png",
		"style_preset":     "comic-book",
	}
	for k, v := range want {
		if gotFields[k] != v {
			t.Fatalf("field %s = %q, want %q", k, gotFields[k], v)
		}
	}
	if string(gotImage) != "ref" {
		t.Fatalf("image = %q", gotImage)
	}
}

func TestGenerateImageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"name":"bad_request","errors":["prompt too long"]}`))
	}))
	defer srv.Close()

	client, _ := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	_, err := client.GenerateImage(context.Background(), ImageRequest{Image: []byte("x"), Prompt: "p"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || !strings.Contains(apiErr.Error(), "prompt too long") {
		t.Fatalf("unexpected api error: %v", apiErr)
	}
}

func TestGenerateImageRequiresKey(t *testing.T) {
	client, _ := NewClient(Options{})
	if _, err := client.GenerateImage(context.Background(), ImageRequest{Image: []byte("x"), Prompt: "p"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}
