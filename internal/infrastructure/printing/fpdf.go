package printing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// FPDFSinkConfig contains document metadata for the fpdf sink
type FPDFSinkConfig struct {
	Title   string
	Author  string
	Creator string
	// CreatedAt is written as both creation and modification date. Zero uses
	// the current time.
	CreatedAt time.Time
}

// FPDFSink writes replayed pages with github.com/go-pdf/fpdf
type FPDFSink struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	images   map[string]bool
	rotating int
	pages    int
}

// NewFPDFSink creates a sink for a new document
func NewFPDFSink(cfg FPDFSinkConfig) *FPDFSink {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: 612, Ht: 792},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(true)

	created := cfg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	if cfg.Title != "" {
		pdf.SetTitle(cfg.Title, true)
	}
	if cfg.Author != "" {
		pdf.SetAuthor(cfg.Author, true)
	}
	if cfg.Creator != "" {
		pdf.SetCreator(cfg.Creator, true)
	}

	return &FPDFSink{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		images: make(map[string]bool),
	}
}

// AddPage starts a page of the given size
func (s *FPDFSink) AddPage(width, height float64) error {
	if s.rotating > 0 {
		return fmt.Errorf("page ended inside %d open rotation(s)", s.rotating)
	}
	s.pdf.AddPageFormat("P", fpdf.SizeType{Wd: width, Ht: height})
	s.pdf.SetFont("Helvetica", "", 7)
	s.pages++
	return s.err()
}

// Draw applies one operation
func (s *FPDFSink) Draw(op Op) error {
	if s.pages == 0 {
		return fmt.Errorf("draw before first page")
	}
	p := s.pdf
	switch op.Kind {
	case OpSetFont:
		p.SetFont(op.Family, op.Style, op.Size)
	case OpSetTextColor:
		p.SetTextColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
	case OpSetFillColor:
		p.SetFillColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
	case OpSetDrawColor:
		p.SetDrawColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
	case OpSetLineWidth:
		p.SetLineWidth(op.W)
	case OpSetAlpha:
		p.SetAlpha(op.Alpha, "Normal")
	case OpText:
		text := s.tr(op.Text)
		x := op.X
		switch op.Align {
		case AlignRight:
			x -= p.GetStringWidth(text)
		case AlignCenter:
			x -= p.GetStringWidth(text) / 2
		}
		p.Text(x, op.Y, text)
	case OpRect:
		p.Rect(op.X, op.Y, op.W, op.H, op.Style)
	case OpLine:
		p.Line(op.X, op.Y, op.X2, op.Y2)
	case OpImage:
		s.image(op)
	case OpRotateBegin:
		p.TransformBegin()
		p.TransformRotate(op.Angle, op.X, op.Y)
		s.rotating++
	case OpRotateEnd:
		if s.rotating == 0 {
			return fmt.Errorf("unbalanced rotation end")
		}
		p.TransformEnd()
		s.rotating--
	default:
		return fmt.Errorf("unknown operation kind %d", op.Kind)
	}
	return s.err()
}

func (s *FPDFSink) image(op Op) {
	asset := op.Image
	opts := fpdf.ImageOptions{ImageType: asset.Type, ReadDpi: false}
	if !s.images[asset.Name] {
		s.pdf.RegisterImageOptionsReader(asset.Name, opts, bytes.NewReader(asset.Data))
		s.images[asset.Name] = true
	}
	s.pdf.ImageOptions(asset.Name, op.X, op.Y, op.W, op.H, false, opts, 0, "")
}

// Close writes the document and returns its bytes
func (s *FPDFSink) Close() ([]byte, error) {
	if s.pages == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	var buf bytes.Buffer
	if err := s.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *FPDFSink) err() error {
	if s.pdf.Err() {
		return s.pdf.Error()
	}
	return nil
}

// Ensure FPDFSink implements Sink
var _ Sink = (*FPDFSink)(nil)
