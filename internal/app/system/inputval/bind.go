// internal/app/system/inputval/bind.go
package inputval

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/dalemusser/eventportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/gorilla/schema"
)

// MaxBodyBytes bounds JSON and urlencoded bodies read by Bind.
const MaxBodyBytes = 1 << 20

// ErrMalformedBody is returned by Decode when the body cannot be parsed.
var ErrMalformedBody = errors.New("malformed request body")

var (
	formDecoder     *schema.Decoder
	formDecoderOnce sync.Once
)

func decoder() *schema.Decoder {
	formDecoderOnce.Do(func() {
		d := schema.NewDecoder()
		d.SetAliasTag("form")
		d.IgnoreUnknownKeys(true)
		d.ZeroEmpty(true)
		formDecoder = d
	})
	return formDecoder
}

// Bind decodes r into dst, sanitizes its tagged fields and validates it.
// A non-nil error means the body could not be decoded at all; validation
// failures are reported in the Result.
func Bind(r *http.Request, dst any) (*Result, error) {
	if err := Decode(r, dst); err != nil {
		return nil, err
	}
	htmlsanitize.Fields(dst)
	return Validate(dst), nil
}

// BindValues is Bind for values that did not come from a request body
// (query strings, route params collected into url.Values).
func BindValues(vals url.Values, dst any) (*Result, error) {
	if err := decoder().Decode(dst, vals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	htmlsanitize.Fields(dst)
	return Validate(dst), nil
}

// Decode fills dst from a JSON body or from form values. Unknown fields
// are dropped in both cases.
func Decode(r *http.Request, dst any) error {
	if isJSON(r) {
		dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		return nil
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
	} else {
		r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
	}
	vals := r.PostForm
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		vals = r.Form
	}
	if err := decoder().Decode(dst, vals); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

// CheckAnswers validates the dynamic answers of a recruitment application
// against its form definition. get returns the submitted value for a field
// name. Answers for names not in fields are ignored.
func CheckAnswers(fields []models.FormField, get func(name string) string) (map[string]string, *Result) {
	res := &Result{}
	answers := make(map[string]string, len(fields))
	for _, f := range fields {
		val := strings.TrimSpace(get(f.Name))
		if val == "" {
			if f.Required {
				res.Add(f.Name, f.Label+" is required.")
			}
			continue
		}
		switch f.Type {
		case "email":
			if !IsValidEmail(val) {
				res.Add(f.Name, f.Label+" must be a valid email address.")
				continue
			}
			val = strings.ToLower(val)
		case "url":
			if !IsValidHTTPURL(val) {
				res.Add(f.Name, f.Label+" must be a valid http or https URL.")
				continue
			}
		case "number":
			if !isNumber(val) {
				res.Add(f.Name, f.Label+" must be a number.")
				continue
			}
		case "select":
			if !contains(f.Options, val) {
				res.Add(f.Name, f.Label+" must be one of the listed options.")
				continue
			}
		case "textarea":
			val = htmlsanitize.Basic(val)
		default:
			val = htmlsanitize.Strict(val)
		}
		if len(val) > 5000 {
			res.Add(f.Name, f.Label+" is too long.")
			continue
		}
		answers[f.Name] = val
	}
	return answers, res
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
