package series

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrDescriptorUnavailable marks a series whose source could not be read.
	ErrDescriptorUnavailable = errors.New("descriptor unavailable")
	// ErrMalformedDescriptor marks a series whose document is not valid JSON
	// of the expected shape.
	ErrMalformedDescriptor = errors.New("malformed descriptor")
)

// Loader gives read access to series descriptors.
//
// LoadDescriptor returns (nil, nil) when the series has no descriptor yet.
type Loader interface {
	ListSeriesIDs(ctx context.Context) ([]string, error)
	LoadDescriptor(ctx context.Context, id string) (*Descriptor, error)
}

// Decode parses a raw descriptor document. Upload records with a missing
// chapter or an unparseable time are dropped from the upload history; the
// rest of the series is kept. Chapters still lists records with a bad time.
func Decode(id string, data []byte) (*Descriptor, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDescriptor, id, err)
	}

	d := &Descriptor{
		ID:             id,
		DisplayName:    strings.TrimSpace(doc.Name),
		CoverImageRef:  doc.ImageLogo,
		UpdateImageRef: doc.UpdateChap,
		SideImageRef:   doc.SideImage,
		ChaptersAmount: doc.ChaptersAmount,
		Synopsis:       doc.Synopsis,
		Author:         doc.Author,
		Artist:         doc.Artist,
		Genres:         doc.Genres,
		Keywords:       doc.Keywords,
		UploadHistory:  make([]UploadEvent, 0, len(doc.UploadTime)),
		Chapters:       make([]ChapterNumber, 0, len(doc.UploadTime)),
	}

	for i, record := range doc.UploadTime {
		if record.Chapter.IsZero() {
			slog.Warn("Skipping upload record without chapter", "series", id, "index", i)
			continue
		}
		d.Chapters = append(d.Chapters, record.Chapter)

		rawTime, instant, err := record.parseTime()
		if err != nil {
			slog.Warn("Skipping upload record", "series", id, "index", i, "chapter", record.Chapter.String(), "error", err)
			continue
		}

		d.UploadHistory = append(d.UploadHistory, UploadEvent{
			Chapter: record.Chapter,
			RawTime: rawTime,
			Instant: instant,
		})
	}

	return d, nil
}

// ValidID reports whether id can name a series without escaping its directory.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
