package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestImageClient_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ImagePath {
			http.NotFound(w, r)
			return
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		if header.Filename != "portrait.jpg" || string(data) != "jpegbytes" {
			t.Errorf("upload = %q/%q", header.Filename, data)
		}
		if got := r.FormValue("scale_factor"); got != "1.1" {
			t.Errorf("scale_factor = %q", got)
		}
		if got := r.FormValue("min_neighbors"); got != "5" {
			t.Errorf("min_neighbors = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"faces_count":2,"detection_time_ms":19.4,"image_data":"data:image/jpeg;base64,YW5ub3RhdGVk"}`))
	}))
	defer srv.Close()

	c := NewImageClient(srv.URL)

	result, err := c.Detect(context.Background(), "portrait.jpg", []byte("jpegbytes"), 1.1, 5)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if result.FacesCount != 2 {
		t.Errorf("FacesCount = %d, want 2", result.FacesCount)
	}
	if !strings.HasPrefix(result.ImageData, "data:image/jpeg;base64,") {
		t.Errorf("ImageData = %q, want data URI", result.ImageData)
	}
}

func TestImageClient_DetectorReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error":"no face cascade loaded"}`))
	}))
	defer srv.Close()

	_, err := NewImageClient(srv.URL).Detect(context.Background(), "a.jpg", []byte("x"), 1.1, 5)
	if err == nil {
		t.Fatal("Detect() succeeded, want error")
	}
	if !strings.Contains(err.Error(), "no face cascade loaded") {
		t.Errorf("error %q does not carry the detector message", err)
	}
}

func TestImageClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	if _, err := NewImageClient(srv.URL).Detect(context.Background(), "a.jpg", []byte("x"), 1.1, 5); err == nil {
		t.Error("Detect() against closed server succeeded")
	}
}
