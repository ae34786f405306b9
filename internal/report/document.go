package report

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oralvis/oralvis-api/internal/types"
)

// Notes longer than this are cut and suffixed with an ellipsis
const NoteLimit = 200

const ellipsis = "..."

// Everything the layout needs. Rendering is a pure function of this value.
type Document struct {
	SubmittedAt  time.Time
	GeneratedAt  time.Time
	SubmissionID string
	PatientID    string
	Name         string
	Email        string
	Note         string
	Status       types.SubmissionStatus
	// Encoded photograph (PNG, JPEG, GIF or WebP). Empty renders the placeholder.
	Image []byte
}

// Collapses whitespace and cuts the note at NoteLimit runes
func TruncateNote(note string) string {
	note = strings.Join(strings.Fields(note), " ")
	if utf8.RuneCountInString(note) <= NoteLimit {
		return note
	}

	runes := []rune(note)
	return strings.TrimRight(string(runes[:NoteLimit]), " ") + ellipsis
}
