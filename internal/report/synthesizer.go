package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/types"
)

var tracer = otel.Tracer("github.com/oralvis/oralvis-api/internal/report")
var meter = otel.Meter("github.com/oralvis/oralvis-api/internal/report")

var ErrOverflow = errors.New("report content does not fit on one page")

const DefaultTitle = "Oral Health Screening Report"

// A4 portrait, millimetres
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 15.0
	contentWidth = pageWidth - 2*margin
	bottomLimit  = pageHeight - margin

	headerHeight   = 24.0
	rowHeight      = 6.5
	labelWidth     = 24.0
	noteLineHeight = 5.0
	maxNoteLines   = 4
	gap            = 4.0

	legendTitleHeight = 7.0
	legendRowHeight   = 11.0
	legendRows        = float64((len(Legend) + 1) / 2)
	legendHeight      = legendTitleHeight + legendRows*legendRowHeight
	swatchSize        = 5.0

	disclaimerLineHeight = 4.0
	footerHeight         = 6.0

	maxImageHeight    = 110.0
	minImageHeight    = 30.0
	placeholderHeight = 40.0

	photoName = "photograph"
)

const disclaimerText = "This report is based on a remote review of patient supplied photographs and is " +
	"intended for screening only. It is not a diagnosis. Findings should be confirmed by a clinical " +
	"examination before any treatment is planned."

type Options struct {
	Location *time.Location
	Title    string
	Subtitle string
	Clinic   string
}

// Renders Documents into single page PDFs. Safe for concurrent use.
type Synthesizer struct {
	duration metric.Float64Histogram
	opts     Options
	compress bool
}

func New(opts Options) *Synthesizer {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	duration, err := meter.Float64Histogram(
		"oralvis.report.synthesis.duration",
		metric.WithUnit("s"),
		metric.WithDescription("time spent laying out and encoding a report"),
	)
	if err != nil {
		logger.Logger.Warn("failed to create synthesis histogram", "error", err)
		duration = noop.Float64Histogram{}
	}

	return &Synthesizer{opts: opts, duration: duration, compress: true}
}

// Vertical positions computed before anything is drawn
type layout struct {
	image           *embeddedImage
	placeholder     string
	noteLines       []string
	disclaimerLines []string
	patientTop      float64
	imageTop        float64
	imageX          float64
	imageW          float64
	imageH          float64
	legendTop       float64
	disclaimerTop   float64
	footerTop       float64
	hasDisclaimer   bool
	hasFooter       bool
}

// Shortens s until it fits in width w, marking the cut with an ellipsis
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	// s is already translated to the single byte core font encoding
	for n := len(s) - 1; n >= 0; n-- {
		candidate := s[:n] + ellipsis
		if pdf.GetStringWidth(candidate) <= w {
			return candidate
		}
	}
	return ""
}

// splitEncoded wraps a translated string. SplitText indexes its width table
// by rune, so every byte is widened to the rune of the same value and the
// lines are narrowed back afterwards.
func splitEncoded(pdf *fpdf.Fpdf, s string, w float64) []string {
	widened := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		widened[i] = rune(s[i])
	}
	lines := pdf.SplitText(string(widened), w)
	for i, line := range lines {
		narrowed := make([]byte, 0, len(line))
		for _, r := range line {
			narrowed = append(narrowed, byte(r))
		}
		lines[i] = string(narrowed)
	}
	return lines
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func placeholderText(doc Document) string {
	if doc.Status == types.SubmissionStatusUploaded {
		return "Preview: the photograph has not been annotated yet"
	}
	return "Annotated image unavailable"
}

func (s *Synthesizer) plan(pdf *fpdf.Fpdf, doc Document, note string, img *embeddedImage) (*layout, error) {
	l := &layout{image: img}

	l.patientTop = margin + headerHeight + gap
	y := l.patientTop + 3*rowHeight

	if note != "" {
		pdf.SetFont("Helvetica", "", 10)
		lines := splitEncoded(pdf, note, contentWidth-labelWidth)
		if len(lines) > maxNoteLines {
			lines = lines[:maxNoteLines]
			last := lines[maxNoteLines-1]
			lines[maxNoteLines-1] = fit(pdf, last+ellipsis, contentWidth-labelWidth)
		}
		l.noteLines = lines
		y += float64(len(lines))*noteLineHeight + 1.5
	}

	l.imageTop = y + gap

	pdf.SetFont("Helvetica", "I", 8)
	l.disclaimerLines = pdf.SplitText(disclaimerText, contentWidth)
	disclaimerHeight := float64(len(l.disclaimerLines)) * disclaimerLineHeight
	footerReserve := gap + disclaimerHeight + footerHeight

	budget := bottomLimit - footerReserve - legendHeight - gap - l.imageTop
	if budget < minImageHeight {
		// disclaimer and footer are optional, give their space to the image
		budget = bottomLimit - legendHeight - gap - l.imageTop
	}
	box := min(budget, maxImageHeight)

	if img != nil && box >= minImageHeight {
		scale := min(contentWidth/float64(img.width), box/float64(img.height))
		l.imageW = float64(img.width) * scale
		l.imageH = float64(img.height) * scale
		l.imageX = margin + (contentWidth-l.imageW)/2
	} else {
		l.image = nil
		l.placeholder = placeholderText(doc)
		l.imageX = margin
		l.imageW = contentWidth
		l.imageH = max(min(placeholderHeight, box), 12)
	}

	l.legendTop = l.imageTop + l.imageH + gap
	y = l.legendTop + legendHeight
	if y > bottomLimit {
		return nil, fmt.Errorf("%w: legend ends at %.1fmm", ErrOverflow, y)
	}

	if y+gap+disclaimerHeight <= bottomLimit-footerHeight {
		l.hasDisclaimer = true
		l.disclaimerTop = y + gap
		y = l.disclaimerTop + disclaimerHeight
	}

	if y+footerHeight <= bottomLimit {
		l.hasFooter = true
		l.footerTop = bottomLimit - footerHeight
	}

	return l, nil
}

func (s *Synthesizer) field(pdf *fpdf.Fpdf, tr func(string) string, x, y, w float64, label, value string) {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelWidth, rowHeight, tr(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(w-labelWidth, rowHeight, fit(pdf, tr(value), w-labelWidth), "", 0, "L", false, 0, "")
}

func (s *Synthesizer) render(pdf *fpdf.Fpdf, tr func(string) string, doc Document, l *layout) {
	pdf.AddPage()

	// header
	pdf.SetTextColor(20, 40, 80)
	pdf.SetXY(margin, margin)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentWidth, 10, tr(s.opts.Title), "", 0, "L", false, 0, "")
	if s.opts.Clinic != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(margin, margin)
		pdf.CellFormat(contentWidth, 10, tr(s.opts.Clinic), "", 0, "R", false, 0, "")
	}
	if s.opts.Subtitle != "" {
		pdf.SetTextColor(100, 100, 100)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(margin, margin+11)
		pdf.CellFormat(contentWidth, 6, tr(s.opts.Subtitle), "", 0, "L", false, 0, "")
	}
	pdf.SetDrawColor(20, 40, 80)
	pdf.SetLineWidth(0.4)
	pdf.Line(margin, margin+headerHeight-2, pageWidth-margin, margin+headerHeight-2)

	// patient block
	pdf.SetTextColor(0, 0, 0)
	half := contentWidth / 2
	y := l.patientTop
	s.field(pdf, tr, margin, y, half, "Patient ID", doc.PatientID)
	s.field(pdf, tr, margin+half, y, half, "Date", doc.SubmittedAt.In(s.opts.Location).Format("2006-01-02"))
	y += rowHeight
	s.field(pdf, tr, margin, y, half, "Name", doc.Name)
	s.field(pdf, tr, margin+half, y, half, "Status", string(doc.Status))
	y += rowHeight
	s.field(pdf, tr, margin, y, contentWidth, "Email", doc.Email)
	y += rowHeight

	if len(l.noteLines) > 0 {
		pdf.SetXY(margin, y)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(labelWidth, noteLineHeight, "Note", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for i, line := range l.noteLines {
			pdf.SetXY(margin+labelWidth, y+float64(i)*noteLineHeight)
			pdf.CellFormat(contentWidth-labelWidth, noteLineHeight, line, "", 0, "L", false, 0, "")
		}
	}

	// image block
	if l.image != nil {
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(photoName, opts, bytes.NewReader(l.image.jpeg))
		pdf.ImageOptions(photoName, l.imageX, l.imageTop, l.imageW, l.imageH, false, opts, 0, "")
	} else {
		pdf.SetDrawColor(160, 160, 160)
		pdf.SetLineWidth(0.2)
		pdf.Rect(l.imageX, l.imageTop, l.imageW, l.imageH, "D")
		pdf.SetTextColor(120, 120, 120)
		pdf.SetFont("Helvetica", "I", 11)
		pdf.SetXY(l.imageX, l.imageTop)
		pdf.CellFormat(l.imageW, l.imageH, tr(l.placeholder), "", 0, "C", false, 0, "")
	}

	// legend
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(margin, l.legendTop)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentWidth, legendTitleHeight, "Treatment legend", "", 0, "L", false, 0, "")
	colWidth := contentWidth / 2
	for i, entry := range Legend {
		x := margin + float64(i%2)*colWidth
		ey := l.legendTop + legendTitleHeight + float64(i/2)*legendRowHeight

		pdf.SetFillColor(entry.R, entry.G, entry.B)
		pdf.Rect(x, ey+0.5, swatchSize, swatchSize, "F")

		pdf.SetXY(x+swatchSize+2, ey)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(colWidth-swatchSize-4, 5, tr(entry.Label), "", 0, "L", false, 0, "")
		pdf.SetXY(x+swatchSize+2, ey+5)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(colWidth-swatchSize-4, 4.5, fit(pdf, tr(entry.Description), colWidth-swatchSize-4), "", 0, "L", false, 0, "")
	}

	if l.hasDisclaimer {
		pdf.SetTextColor(90, 90, 90)
		pdf.SetFont("Helvetica", "I", 8)
		for i, line := range l.disclaimerLines {
			pdf.SetXY(margin, l.disclaimerTop+float64(i)*disclaimerLineHeight)
			pdf.CellFormat(contentWidth, disclaimerLineHeight, line, "", 0, "L", false, 0, "")
		}
	}

	if l.hasFooter {
		pdf.SetTextColor(120, 120, 120)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(margin, l.footerTop)
		generated := "Generated " + doc.GeneratedAt.In(s.opts.Location).Format("2006-01-02 15:04 MST")
		pdf.CellFormat(contentWidth/2, footerHeight, generated, "T", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth/2, footerHeight, tr("Submission "+doc.SubmissionID), "T", 0, "R", false, 0, "")
	}
}

// Lays out `doc` on a single A4 page and writes the PDF to `w`.
// A missing or unreadable image renders a placeholder instead of failing.
func (s *Synthesizer) Synthesize(ctx context.Context, doc Document, w io.Writer) error {
	ctx, span := tracer.Start(ctx, "Synthesizer.Synthesize", trace.WithAttributes(
		attribute.String("submission.id", doc.SubmissionID),
		attribute.String("submission.status", string(doc.Status)),
	))
	defer span.End()
	start := time.Now()

	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = doc.SubmittedAt
	}

	img, err := prepareImage(ctx, doc.Image)
	if err != nil {
		if !errors.Is(err, errNoImage) || doc.Status != types.SubmissionStatusUploaded {
			logger.Logger.WarnContext(
				ctx,
				"report image unavailable, rendering placeholder",
				"submissionID", doc.SubmissionID,
				"error", err,
			)
		}
		img = nil
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(s.compress)
	pdf.SetTitle(s.opts.Title, !isASCII(s.opts.Title))
	pdf.SetSubject("Submission "+doc.SubmissionID, true)
	pdf.SetCreator("oralvis", false)
	if s.opts.Clinic != "" {
		pdf.SetAuthor(s.opts.Clinic, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	note := tr(TruncateNote(doc.Note))
	l, err := s.plan(pdf, doc, note, img)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to plan layout")
		return err
	}

	s.render(pdf, tr, doc, l)

	if pages := pdf.PageCount(); pages != 1 {
		err := fmt.Errorf("%w: rendered %d pages", ErrOverflow, pages)
		span.RecordError(err)
		span.SetStatus(codes.Error, "overflowed page")
		return err
	}

	if err := pdf.Output(w); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write pdf")
		return err
	}

	s.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.Bool("placeholder", l.image == nil),
	))
	span.SetAttributes(
		attribute.Bool("placeholder", l.image == nil),
		attribute.Bool("disclaimer", l.hasDisclaimer),
		attribute.Bool("footer", l.hasFooter),
		attribute.Int("note.lines", len(l.noteLines)),
		attribute.Int("note.runes", utf8.RuneCountInString(doc.Note)),
	)
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "synthesized report")
	return nil
}
