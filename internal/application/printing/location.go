package printing

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/domain/shared"
)

// Location is where an assembled document is uploaded
type Location struct {
	Bucket   string
	Key      string
	Filename string
}

// FileName builds "{prefix}_{id}_{YYYYMMDD_HHMMSS_mmm}.pdf"
func FileName(doc *printing.Document, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%03d.pdf",
		doc.Template.FilePrefix(),
		safeSegment(doc.FileID()),
		now.Format("20060102_150405"),
		now.Nanosecond()/int(time.Millisecond))
}

// ResolveLocation derives the upload location of doc. An explicit target URL
// supplies the bucket (host) and key (path); otherwise the key is
// "{recipient}/{YYYY}/{MM}/{DD}/{filename}" in defaultBucket.
func ResolveLocation(doc *printing.Document, defaultBucket string, now time.Time) (Location, error) {
	name := FileName(doc, now)

	if target := strings.TrimSpace(doc.Info.TargetURL); target != "" {
		u, err := url.Parse(target)
		if err != nil || u.Host == "" {
			return Location{}, shared.NewDomainError("INVALID_TARGET_URL",
				fmt.Sprintf("target URL %q must look like s3://bucket/key", target))
		}
		switch u.Scheme {
		case "s3", "http", "https":
		default:
			return Location{}, shared.NewDomainError("INVALID_TARGET_URL",
				fmt.Sprintf("unsupported target URL scheme %q", u.Scheme))
		}
		key := strings.TrimPrefix(u.Path, "/")
		if key == "" || strings.HasSuffix(key, "/") {
			key += name
		}
		return Location{Bucket: u.Host, Key: key, Filename: path.Base(key)}, nil
	}

	if defaultBucket == "" {
		return Location{}, shared.NewDomainError("INVALID_BUCKET", "no target URL given and no default bucket configured")
	}
	key := path.Join(
		safeSegment(doc.Recipient.ID),
		now.Format("2006"),
		now.Format("01"),
		now.Format("02"),
		name,
	)
	return Location{Bucket: defaultBucket, Key: key, Filename: name}, nil
}

// PublicURL returns the URL handed back to callers for an uploaded object
func PublicURL(publicBaseURL string, loc Location) string {
	if publicBaseURL != "" {
		return strings.TrimRight(publicBaseURL, "/") + "/" + loc.Key
	}
	return "https://" + loc.Bucket + "/" + loc.Key
}

// safeSegment makes s usable as a single key segment
func safeSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '?', '#', '%', '"', ';':
			return '-'
		}
		if unicode.IsControl(r) {
			return '-'
		}
		return r
	}, s)
}
