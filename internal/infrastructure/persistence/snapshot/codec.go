package snapshot

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

// FormatVersion is the record layout written by Encode.
const FormatVersion = 1

// magic opens every snapshot file.
var magic = []byte("FHT\x01")

var (
	errBadMagic         = errors.New("not a feedback snapshot")
	errChecksumMismatch = errors.New("snapshot checksum mismatch")
	errTruncated        = errors.New("snapshot truncated")
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRE RECORDS
// Integer keys keep the encoding compact and let fields be renamed in Go
// without touching the file format.
// ══════════════════════════════════════════════════════════════════════════════

type record struct {
	Version       uint             `cbor:"1,keyasint"`
	Title         string           `cbor:"2,keyasint"`
	Headings      []string         `cbor:"3,keyasint"`
	Style         styleRecord      `cbor:"4,keyasint"`
	Documents     []documentRecord `cbor:"5,keyasint"`
	CustomPhrases []customRecord   `cbor:"6,keyasint"`
}

type styleRecord struct {
	HeadingPrefix string `cbor:"1,keyasint"`
	Underline     string `cbor:"2,keyasint,omitempty"`
	BlankLines    int    `cbor:"3,keyasint"`
	LineMarker    string `cbor:"4,keyasint"`
}

type documentRecord struct {
	StudentID string          `cbor:"1,keyasint"`
	Sections  []sectionRecord `cbor:"2,keyasint"`
	Grade     float64         `cbor:"3,keyasint"`
}

type sectionRecord struct {
	Heading string `cbor:"1,keyasint"`
	Text    string `cbor:"2,keyasint"`
}

type customRecord struct {
	Heading string   `cbor:"1,keyasint"`
	Phrases []string `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: cbor encoder: %v", err))
	}
	// Section text is stored as typed, so text strings may hold bytes that
	// are not valid UTF-8.
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
		UTF8:      cbor.UTF8DecodeInvalid,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: cbor decoder: %v", err))
	}
}

// Encode serialises the snapshot: magic, CBOR payload, BLAKE2b-256 of the payload.
func Encode(s *Snapshot) ([]byte, error) {
	rec := record{
		Version:  FormatVersion,
		Title:    s.Title,
		Headings: s.Headings,
		Style: styleRecord{
			HeadingPrefix: s.Style.HeadingPrefix,
			Underline:     s.Style.UnderlineString(),
			BlankLines:    s.Style.BlankLines,
			LineMarker:    s.Style.LineMarker,
		},
	}
	for _, d := range s.Documents {
		dr := documentRecord{StudentID: d.StudentID.String(), Grade: d.Grade}
		// Sections follow heading order so equal states encode to equal bytes.
		for _, h := range s.Headings {
			dr.Sections = append(dr.Sections, sectionRecord{Heading: h, Text: d.Sections[h]})
		}
		rec.Documents = append(rec.Documents, dr)
	}
	for _, h := range s.Headings {
		rec.CustomPhrases = append(rec.CustomPhrases, customRecord{Heading: h, Phrases: s.CustomPhrases[h]})
	}

	payload, err := encMode.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	sum := blake2b.Sum256(payload)

	var buf bytes.Buffer
	buf.Grow(len(magic) + len(payload) + len(sum))
	buf.Write(magic)
	buf.Write(payload)
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

// Decode parses and verifies bytes produced by Encode. The returned snapshot
// has no Directory; the loader sets it.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < len(magic)+blake2b.Size256 {
		return nil, errTruncated
	}
	if !bytes.Equal(data[:len(magic)], magic) {
		return nil, errBadMagic
	}
	payload := data[len(magic) : len(data)-blake2b.Size256]
	want := data[len(data)-blake2b.Size256:]
	got := blake2b.Sum256(payload)
	if !bytes.Equal(got[:], want) {
		return nil, errChecksumMismatch
	}

	var rec record
	if err := decMode.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if rec.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", rec.Version)
	}

	style, err := assignment.NewExportStyle(rec.Style.HeadingPrefix, rec.Style.Underline, rec.Style.BlankLines, rec.Style.LineMarker)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Title:         rec.Title,
		Headings:      rec.Headings,
		Style:         style,
		CustomPhrases: make(map[string][]string, len(rec.CustomPhrases)),
	}
	for _, dr := range rec.Documents {
		id, err := shared.NewStudentID(dr.StudentID)
		if err != nil {
			return nil, err
		}
		sections := make(map[string]string, len(dr.Sections))
		for _, sec := range dr.Sections {
			sections[sec.Heading] = sec.Text
		}
		s.Documents = append(s.Documents, assignment.DocumentState{
			StudentID: id,
			Sections:  sections,
			Grade:     dr.Grade,
		})
	}
	for _, cr := range rec.CustomPhrases {
		s.CustomPhrases[cr.Heading] = cr.Phrases
	}
	return s, nil
}
