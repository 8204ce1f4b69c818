package printing

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

// QRGenerator rasterises a string into image bytes
type QRGenerator interface {
	Generate(content string) ([]byte, error)
}

// PNGQRGenerator encodes QR codes as in-memory PNG images
type PNGQRGenerator struct {
	Size  int
	Level qrcode.RecoveryLevel
}

// NewPNGQRGenerator creates a generator producing size x size pixel images
func NewPNGQRGenerator(size int) *PNGQRGenerator {
	if size <= 0 {
		size = 256
	}
	return &PNGQRGenerator{Size: size, Level: qrcode.Medium}
}

// Generate encodes content. Every call returns a new buffer owned by the caller.
func (g *PNGQRGenerator) Generate(content string) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr content is empty")
	}
	return qrcode.Encode(content, g.Level, g.Size)
}

// Ensure PNGQRGenerator implements QRGenerator
var _ QRGenerator = (*PNGQRGenerator)(nil)
