// internal/app/system/imagehost/publicid.go
package imagehost

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

// ExtractPublicID maps a Cloudinary delivery URL to its public id:
//
//	https://res.cloudinary.com/demo/image/upload/v1234567890/folder/img.jpg -> folder/img
//	https://res.cloudinary.com/demo/image/upload/folder/img.jpg             -> folder/img
//
// Non-Cloudinary or malformed URLs yield "".
func ExtractPublicID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(u.Host), "cloudinary.com") {
		return ""
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	up := -1
	for i, s := range segs {
		if s == "upload" {
			up = i
			break
		}
	}
	if up < 0 {
		return ""
	}
	rest := segs[up+1:]

	// Transformations may sit between "upload" and the version.
	for i, s := range rest {
		if versionSegment.MatchString(s) {
			rest = rest[i+1:]
			break
		}
	}
	if len(rest) == 0 {
		return ""
	}

	last := rest[len(rest)-1]
	ext := path.Ext(last)
	if ext == "" || ext == last {
		return ""
	}
	rest[len(rest)-1] = strings.TrimSuffix(last, ext)
	for _, s := range rest {
		if s == "" {
			return ""
		}
	}
	return strings.Join(rest, "/")
}
