// internal/app/system/uploadsec/uploadsec.go
//
// Package uploadsec screens image uploads before they reach the image host.
//
// Stages run in order and the first failure stops the pipeline:
// rate limit, allow-list (type, extension, filename, size), magic-number
// signature, simulated malware scan. An upload that passes every stage is
// tagged with its SHA-256 hash.
package uploadsec

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dalemusser/eventportal/internal/app/system/metrics"
	"github.com/dalemusser/eventportal/internal/app/system/ratelimit"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// MaxSize is the largest accepted upload in bytes.
const MaxSize = 5 << 20

// Stage names a pipeline step.
type Stage string

const (
	StageRateLimit Stage = "rate_limit"
	StageAllowList Stage = "allow_list"
	StageSignature Stage = "signature"
	StageScan      Stage = "malware_scan"
)

// RejectError reports which stage refused an upload and why. Reason is
// safe to show to the uploader.
type RejectError struct {
	Stage      Stage
	Reason     string
	RetryAfter time.Duration
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("upload rejected at %s: %s", e.Stage, e.Reason)
}

// allowedTypes maps each accepted MIME type to its permitted extensions.
var allowedTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

// executableExts may not appear anywhere in a filename's extension chain.
var executableExts = map[string]bool{
	"exe": true, "dll": true, "bat": true, "cmd": true, "com": true, "scr": true,
	"msi": true, "sh": true, "bash": true, "ps1": true, "vbs": true, "js": true,
	"jar": true, "php": true, "phtml": true, "asp": true, "aspx": true, "jsp": true,
	"cgi": true, "pl": true, "py": true, "html": true, "htm": true, "svg": true,
	"hta": true,
}

// File is an upload as received.
type File struct {
	Filename     string
	DeclaredMIME string
	Data         []byte
}

// Accepted is an upload that passed every stage.
type Accepted struct {
	Filename     string
	MIME         string
	DetectedMIME string
	Ext          string
	Size         int64
	SHA256       string
	Data         []byte
}

// Checker runs the pipeline.
type Checker struct {
	limiter *ratelimit.Limiter
	sec     *seclog.Logger
	log     *zap.Logger
	maxSize int64
}

// New returns a Checker. limiter may be nil to skip the rate-limit stage.
func New(limiter *ratelimit.Limiter, sec *seclog.Logger, logger *zap.Logger) *Checker {
	return &Checker{limiter: limiter, sec: sec, log: logger, maxSize: MaxSize}
}

// Meta identifies who sent an upload, for rate limiting and logging.
type Meta struct {
	IP        string
	UserID    string
	UserAgent string
}

// Check runs f through every stage. The returned error is a *RejectError
// for policy failures.
func (c *Checker) Check(ctx context.Context, m Meta, f File) (*Accepted, error) {
	if c.limiter != nil {
		d, err := c.limiter.Check(ctx, ratelimit.FileUpload, m.IP)
		if err != nil {
			c.log.Warn("upload rate limit check failed", zap.Error(err))
		} else if !d.Allowed {
			return nil, c.reject(m, f, &RejectError{
				Stage:      StageRateLimit,
				Reason:     "Too many uploads. Please try again later.",
				RetryAfter: d.RetryAfter,
			})
		}
	}

	mime := strings.ToLower(strings.TrimSpace(f.DeclaredMIME))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	ext, err := checkAllowList(f.Filename, mime, int64(len(f.Data)), c.maxSize)
	if err != nil {
		return nil, c.reject(m, f, err)
	}

	if !MatchesSignature(mime, f.Data) {
		return nil, c.reject(m, f, &RejectError{
			Stage:  StageSignature,
			Reason: "File content does not match its declared type.",
		})
	}

	if reason := Scan(f.Filename, f.Data); reason != "" {
		return nil, c.reject(m, f, &RejectError{Stage: StageScan, Reason: reason})
	}

	sum := sha256.Sum256(f.Data)
	acc := &Accepted{
		Filename:     f.Filename,
		MIME:         mime,
		DetectedMIME: mimetype.Detect(f.Data).String(),
		Ext:          ext,
		Size:         int64(len(f.Data)),
		SHA256:       hex.EncodeToString(sum[:]),
		Data:         f.Data,
	}
	c.sec.Log(seclog.Event{
		Type:      seclog.FileUploaded,
		UserID:    m.UserID,
		IP:        m.IP,
		UserAgent: m.UserAgent,
		Details: map[string]any{
			"filename": f.Filename,
			"mime":     mime,
			"size":     acc.Size,
			"sha256":   acc.SHA256,
		},
	})
	return acc, nil
}

func (c *Checker) reject(m Meta, f File, rej *RejectError) error {
	metrics.UploadRejections.WithLabelValues(string(rej.Stage)).Inc()
	t := seclog.FileUploadRejected
	if rej.Stage == StageScan {
		t = seclog.SuspiciousFile
	}
	c.sec.Log(seclog.Event{
		Type:      t,
		UserID:    m.UserID,
		IP:        m.IP,
		UserAgent: m.UserAgent,
		Details: map[string]any{
			"stage":    string(rej.Stage),
			"reason":   rej.Reason,
			"filename": f.Filename,
			"mime":     f.DeclaredMIME,
			"size":     len(f.Data),
		},
	})
	return rej
}

// checkAllowList validates type, extension, filename and size, returning
// the lower-cased extension.
func checkAllowList(filename, mime string, size, maxSize int64) (string, *RejectError) {
	fail := func(reason string) (string, *RejectError) {
		return "", &RejectError{Stage: StageAllowList, Reason: reason}
	}

	exts, ok := allowedTypes[mime]
	if !ok {
		return fail("Only JPEG, PNG, GIF and WebP images are allowed.")
	}
	if size == 0 {
		return fail("The file is empty.")
	}
	if size > maxSize {
		return fail(fmt.Sprintf("The file is larger than %d MB.", maxSize>>20))
	}
	if reason := CheckFilename(filename); reason != "" {
		return fail(reason)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if e == ext {
			return ext, nil
		}
	}
	return fail("The file extension does not match its type.")
}

// CheckFilename returns "" for an acceptable name, otherwise the reason it
// is refused.
func CheckFilename(name string) string {
	if name == "" || len(name) > 255 {
		return "The file name is missing or too long."
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "The file name may not contain path separators."
	}
	for _, r := range name {
		if r == 0 || unicode.IsControl(r) {
			return "The file name contains invalid characters."
		}
	}
	if strings.HasPrefix(name, ".") {
		return "Hidden files are not allowed."
	}
	parts := strings.Split(strings.ToLower(name), ".")
	for _, p := range parts[1:] {
		if executableExts[strings.TrimSpace(p)] {
			return "Executable file types are not allowed."
		}
	}
	return ""
}

var (
	sigJPEG  = []byte{0xFF, 0xD8, 0xFF}
	sigPNG   = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	sigGIF87 = []byte("GIF87a")
	sigGIF89 = []byte("GIF89a")
	sigRIFF  = []byte("RIFF")
	sigWEBP  = []byte("WEBP")
)

// MatchesSignature reports whether data begins with the magic number of
// the declared mime type.
func MatchesSignature(mime string, data []byte) bool {
	switch mime {
	case "image/jpeg":
		return bytes.HasPrefix(data, sigJPEG)
	case "image/png":
		return bytes.HasPrefix(data, sigPNG)
	case "image/gif":
		return bytes.HasPrefix(data, sigGIF87) || bytes.HasPrefix(data, sigGIF89)
	case "image/webp":
		return len(data) >= 12 && bytes.Equal(data[0:4], sigRIFF) && bytes.Equal(data[8:12], sigWEBP)
	}
	return false
}

// suspiciousNames are filename fragments the scan refuses.
var suspiciousNames = []string{"eicar", "virus", "malware", "trojan", "ransom", "exploit", "payload", "shell"}

// embeddedMarkers are byte sequences that have no business inside an image.
// Each is long enough that compressed image data will not produce it by chance.
var embeddedMarkers = [][]byte{
	[]byte("<?php"),
	[]byte("<script"),
	[]byte("X5O!P%@AP[4\\PZX54(P^)7CC)7}$EICAR"),
}

// Scan is a stand-in for a real antivirus hook: it flags suspicious file
// names and script markers embedded in the content. It returns "" when
// nothing was found.
func Scan(filename string, data []byte) string {
	lower := strings.ToLower(filename)
	for _, s := range suspiciousNames {
		if strings.Contains(lower, s) {
			return "The file was flagged by the malware scan."
		}
	}
	content := bytes.ToLower(data)
	for _, m := range embeddedMarkers {
		if bytes.Contains(content, bytes.ToLower(m)) {
			return "The file was flagged by the malware scan."
		}
	}
	return ""
}
