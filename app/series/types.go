package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChapterNumber keeps a chapter identifier the way the descriptor stored it.
// Descriptors written by older scrapers use strings ("12.5"), newer ones use
// JSON numbers; both are accepted and re-encoded in the same JSON kind.
type ChapterNumber struct {
	value   string
	numeric bool
}

func ChapterFromInt(n int) ChapterNumber {
	return ChapterNumber{value: strconv.Itoa(n), numeric: true}
}

func ChapterFromString(s string) ChapterNumber {
	return ChapterNumber{value: strings.TrimSpace(s)}
}

func (n ChapterNumber) String() string {
	return n.value
}

func (n ChapterNumber) IsZero() bool {
	return n.value == ""
}

func (n ChapterNumber) MarshalJSON() ([]byte, error) {
	if n.numeric {
		return []byte(n.value), nil
	}
	return json.Marshal(n.value)
}

func (n *ChapterNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = ChapterNumber{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = ChapterFromString(s)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("chapter must be a string or a number: %w", err)
	}
	*n = ChapterNumber{value: num.String(), numeric: true}
	return nil
}

// UploadEvent is one recorded chapter publication.
type UploadEvent struct {
	Chapter ChapterNumber
	RawTime string
	Instant time.Time // UTC
}

// Descriptor is the parsed form of a series' manwhaDescription.json.
type Descriptor struct {
	ID             string
	DisplayName    string
	CoverImageRef  string
	UpdateImageRef string
	SideImageRef   string
	ChaptersAmount *int
	Synopsis       string
	Author         string
	Artist         string
	Genres         []string
	Keywords       []string

	// UploadHistory is oldest-first; the last element is the newest upload.
	UploadHistory []UploadEvent

	// Chapters lists every chapter of the document in document order, including
	// uploads left out of UploadHistory because their time did not parse.
	Chapters []ChapterNumber
}

// LatestEvent returns the newest upload event.
func (d *Descriptor) LatestEvent() (UploadEvent, bool) {
	if len(d.UploadHistory) == 0 {
		return UploadEvent{}, false
	}
	return d.UploadHistory[len(d.UploadHistory)-1], true
}

// OutOfOrderAt returns the index of the first event that is older than its
// predecessor, or -1 when the history is time-ascending.
func (d *Descriptor) OutOfOrderAt() int {
	for i := 1; i < len(d.UploadHistory); i++ {
		if d.UploadHistory[i].Instant.Before(d.UploadHistory[i-1].Instant) {
			return i
		}
	}
	return -1
}

// document mirrors the on-disk JSON shape.
type document struct {
	Name           string         `json:"name"`
	ImageLogo      string         `json:"imagelogo"`
	UpdateChap     string         `json:"updateChap"`
	SideImage      string         `json:"sideImage"`
	Synopsis       string         `json:"synopsis"`
	Author         string         `json:"author"`
	Artist         string         `json:"artist"`
	Genres         []string       `json:"genres"`
	Keywords       []string       `json:"keywords"`
	ChaptersAmount *int           `json:"chaptersAmount"`
	UploadTime     []uploadRecord `json:"uploadTime"`
}

type uploadRecord struct {
	Chapter ChapterNumber   `json:"chapter"`
	Time    json.RawMessage `json:"time"`
}

// parseTime returns the record's time string and the instant it denotes.
// A time stored as anything but a JSON string is a malformed timestamp.
func (r uploadRecord) parseTime() (string, time.Time, error) {
	var raw string
	if len(r.Time) > 0 {
		if err := json.Unmarshal(r.Time, &raw); err != nil {
			return "", time.Time{}, fmt.Errorf("%w: time %s is not a string", ErrMalformedTimestamp, r.Time)
		}
	}

	instant, err := ParseTime(raw)
	return raw, instant, err
}
