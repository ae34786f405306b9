package artifact

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"sync"
	"time"
)

const (
	DirImages    = "images"
	DirOverlays  = "overlays"
	DirAnnotated = "annotated"
	DirReports   = "reports"

	maxNameLength = 100
)

// Qualifies caller supplied names with a strictly increasing unix nanosecond stamp
type Namer struct {
	now  func() time.Time
	last int64
	mu   sync.Mutex
}

func NewNamer(now func() time.Time) *Namer {
	return &Namer{now: now}
}

var DefaultNamer = NewNamer(time.Now)

// Returns `<stamp>-<sanitized name>`. Stamps never repeat within a process even when the clock does.
func (n *Namer) Qualify(name string) string {
	n.mu.Lock()
	stamp := n.now().UnixNano()
	if stamp <= n.last {
		stamp = n.last + 1
	}
	n.last = stamp
	n.mu.Unlock()

	return fmt.Sprintf("%d-%s", stamp, Sanitize(name))
}

// Reduces a client supplied file name to a safe single path segment
func Sanitize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxNameLength {
		out = out[len(out)-maxNameLength:]
	}
	if out == "" {
		return "file"
	}
	return out
}

func Join(elem ...string) string {
	return path.Join(elem...)
}

// References are relative, slash separated and never escape the store root
func ValidateRef(ref string) error {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.Contains(ref, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if path.Clean(ref) != ref {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	for _, segment := range strings.Split(ref, "/") {
		if segment == ".." || segment == "." {
			return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
		}
	}
	return nil
}

// Download name for a report, keyed by patient id when there is one
func ReportFilename(submissionID string, patientID string) string {
	stem := Sanitize(patientID)
	if strings.TrimSpace(patientID) == "" {
		stem = submissionID
	}
	return stem + "_report.pdf"
}

// Stable reference of the persisted report; regenerating overwrites it
func ReportRef(submissionID string, patientID string) string {
	return Join(DirReports, submissionID, ReportFilename(submissionID, patientID))
}

// ContentType guesses a media type from the reference's extension.
func ContentType(ref string) string {
	if t := mime.TypeByExtension(path.Ext(ref)); t != "" {
		return t
	}
	return "application/octet-stream"
}
