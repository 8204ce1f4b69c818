package printing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"
)

// imageTypes maps image.DecodeConfig formats to backend image types
var imageTypes = map[string]string{
	"png":  "PNG",
	"jpeg": "JPG",
	"gif":  "GIF",
}

// DecodeImage validates raw image bytes and wraps them in an asset
func DecodeImage(name string, data []byte) (*ImageAsset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", name)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image %s cannot be decoded: %w", name, err)
	}
	typ, ok := imageTypes[format]
	if !ok {
		return nil, fmt.Errorf("image %s has unsupported format %s", name, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image %s has no pixels", name)
	}
	return &ImageAsset{
		Name:   name,
		Type:   typ,
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// DecodeBase64Image decodes a base64 payload, optionally prefixed by a
// data URI header, into a validated asset
func DecodeBase64Image(name, encoded string) (*ImageAsset, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("image %s is not valid base64: %w", name, err)
		}
	}
	return DecodeImage(name, data)
}

// Fit returns the size of the asset scaled to fit inside a w x h box while
// keeping its aspect ratio
func (a *ImageAsset) Fit(w, h float64) (float64, float64) {
	if a == nil || a.Width == 0 || a.Height == 0 {
		return w, h
	}
	ratio := float64(a.Width) / float64(a.Height)
	if w/h > ratio {
		return h * ratio, h
	}
	return w, w / ratio
}
