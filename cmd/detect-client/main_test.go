package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"vision-worker-go/internal/models"
)

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.png")
	if err := os.WriteFile(path, []byte("fake-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectSendsMultipartAndParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" || r.URL.Query().Get("annotate") != "true" || r.URL.Query().Get("threshold") != "0.5" {
			t.Errorf("unexpected request %s", r.URL)
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		f.Close()
		if hdr.Filename != "card.png" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		json.NewEncoder(w).Encode(detectResponse{
			Detections:     []models.Detection{{ClassName: "TH", Confidence: 0.8}},
			AnnotatedImage: "aGk=",
			ImageFormat:    "jpeg",
		})
	}))
	defer srv.Close()

	got, err := detect(context.Background(), srv.URL, writeTempImage(t), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Detections) != 1 || got.Detections[0].ClassName != "TH" || got.AnnotatedImage != "aGk=" {
		t.Errorf("response = %+v", got)
	}
}

func TestDetectAcceptsBareList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"class_name":"AS","confidence":0.9}]`))
	}))
	defer srv.Close()

	got, err := detect(context.Background(), srv.URL, writeTempImage(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Detections) != 1 || got.AnnotatedImage != "" {
		t.Errorf("response = %+v", got)
	}
}

func TestDetectSurfacesWorkerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Could not decode image"}`))
	}))
	defer srv.Close()

	_, err := detect(context.Background(), srv.URL, writeTempImage(t), 0)
	if err == nil || err.Error() != "worker returned 400: Could not decode image" {
		t.Errorf("err = %v", err)
	}
}
