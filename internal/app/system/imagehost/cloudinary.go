// internal/app/system/imagehost/cloudinary.go
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary stores images in a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	prefix string
}

// NewCloudinary builds a client from account credentials. prefix is
// prepended to every folder ("eventportal" -> "eventportal/clubs").
func NewCloudinary(cloudName, apiKey, apiSecret, prefix string) (*Cloudinary, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary: cloud name, api key and api secret are required")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, prefix: prefix}, nil
}

func (c *Cloudinary) folder(f string) string {
	switch {
	case c.prefix == "":
		return f
	case f == "":
		return c.prefix
	default:
		return c.prefix + "/" + f
	}
}

func (c *Cloudinary) Upload(ctx context.Context, obj Object) (Stored, error) {
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(obj.Data), uploader.UploadParams{
		Folder:       c.folder(obj.Folder),
		PublicID:     obj.Name,
		ResourceType: "image",
	})
	if err != nil {
		return Stored{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Stored{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return Stored{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (c *Cloudinary) Destroy(ctx context.Context, publicID string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
		Invalidate:   boolPtr(true),
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, res.Error.Message)
	}
	switch res.Result {
	case "ok":
		return nil
	case "not found":
		return ErrNotFound
	default:
		return fmt.Errorf("cloudinary destroy %s: unexpected result %q", publicID, res.Result)
	}
}

// PublicID parses a Cloudinary delivery URL.
func (c *Cloudinary) PublicID(url string) string {
	return ExtractPublicID(url)
}

func boolPtr(b bool) *bool { return &b }
