package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/dalemusser/eventportal/internal/app/features/upload"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/uploadsec"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.uber.org/zap"
)

func pngBytes() []byte {
	return append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
}

func jpegBytes() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)
}

// multipartRequest builds POST /upload with one file part and extra fields.
func multipartRequest(t *testing.T, filename, contentType string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if filename != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return auth.WithUser(req, testutil.MemberUser())
}

type harness struct {
	h      *upload.Handler
	sec    *testutil.Security
	images *testutil.FakeImageHost
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sec := testutil.NewSecurity(t)
	images := testutil.NewFakeImageHost()
	checker := uploadsec.New(sec.Limiter, sec.Sec, zap.NewNop())
	return &harness{h: upload.NewHandler(checker, images, zap.NewNop()), sec: sec, images: images}
}

func TestHandleUpload_Stores(t *testing.T) {
	hs := newHarness(t)

	req := multipartRequest(t, "poster.png", "image/png", pngBytes(), map[string]string{"folder": "events"})
	rec := httptest.NewRecorder()
	hs.h.HandleUpload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		URL      string `json:"url"`
		PublicID string `json:"publicId"`
		Hash     string `json:"hash"`
		MIME     string `json:"mime"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(body.PublicID, "events/") {
		t.Errorf("publicId = %q, want events/ prefix", body.PublicID)
	}
	if body.URL == "" || len(body.Hash) != 64 || body.MIME != "image/png" {
		t.Errorf("response = %+v", body)
	}
	if len(hs.images.Uploaded) != 1 || hs.images.Uploaded[0].ContentType != "image/png" {
		t.Errorf("uploaded = %+v", hs.images.Uploaded)
	}
	if !hs.sec.Logged(seclog.FileUploaded) {
		t.Error("expected a FILE_UPLOADED security event")
	}
}

func TestHandleUpload_UnknownFolderFallsBack(t *testing.T) {
	hs := newHarness(t)

	req := multipartRequest(t, "me.jpg", "image/jpeg", jpegBytes(), map[string]string{"folder": "../secrets"})
	rec := httptest.NewRecorder()
	hs.h.HandleUpload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := hs.images.Uploaded[0].Folder; got != "uploads" {
		t.Errorf("folder = %q, want uploads", got)
	}
}

func TestHandleUpload_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mime     string
		data     []byte
	}{
		{"no file", "", "", nil},
		{"spoofed content", "photo.png", "image/png", jpegBytes()},
		{"disallowed type", "page.svg", "image/svg+xml", []byte("<svg></svg>")},
		{"double extension", "photo.php.png", "image/png", pngBytes()},
		{"embedded script", "photo.png", "image/png", append(pngBytes(), []byte("<?php echo 1; ?>")...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			req := multipartRequest(t, tt.filename, tt.mime, tt.data, nil)
			rec := httptest.NewRecorder()
			hs.h.HandleUpload(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(hs.images.Uploaded) != 0 {
				t.Error("rejected file reached the image host")
			}
		})
	}
}

func TestHandleUpload_RateLimited(t *testing.T) {
	hs := newHarness(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		last = httptest.NewRecorder()
		hs.h.HandleUpload(last, multipartRequest(t, "a.png", "image/png", pngBytes(), nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Errorf("11th upload status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if len(hs.images.Uploaded) != 10 {
		t.Errorf("uploads stored = %d, want 10", len(hs.images.Uploaded))
	}
}

type failingHost struct{ testutil.FakeImageHost }

func (*failingHost) Upload(context.Context, imagehost.Object) (imagehost.Stored, error) {
	return imagehost.Stored{}, errors.New("host down")
}

func TestHandleUpload_HostFailure(t *testing.T) {
	sec := testutil.NewSecurity(t)
	h := upload.NewHandler(uploadsec.New(nil, sec.Sec, zap.NewNop()), &failingHost{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, multipartRequest(t, "a.png", "image/png", pngBytes(), nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestRoutes_RequireSignIn(t *testing.T) {
	hs := newHarness(t)
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	upload.Routes(hs.h).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
