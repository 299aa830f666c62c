package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
)

// CoreFont is the built-in family used when the preferred font is missing
// or fails.
const CoreFont = "Arial"

// Messages printed in place of the map.
const (
	NoMarkersText  = "No markers to display."
	MapErrorText   = "[Map Generation Error - No details available]"
	NoIncidentText = "No incidents recorded."
)

// DefaultOrganization is named in the footer notice.
const DefaultOrganization = "Boardwalk Investments Group"

const titleDateLayout = "January 02, 2006"

// fontFiles maps fpdf styles to file name suffixes under FontDir.
var fontFiles = []struct{ style, suffix string }{
	{"", ""},
	{"B", "-Bold"},
	{"I", "-Italic"},
	{"BI", "-Bold-Italic"},
}

// Assembler builds the incident report.
type Assembler struct {
	FontDir      string
	FontFamily   string
	BannerPath   string
	Organization string
	Now          func() time.Time
	Logger       zerolog.Logger
}

// Assemble renders the report. mapPNG is the location map; nil prints the
// map error notice. The preferred font is used only when its regular and
// bold files exist, and any failure with it rebuilds with CoreFont.
func (a *Assembler) Assemble(p project.Project, mapPNG []byte) ([]byte, error) {
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}

	family := CoreFont
	if a.preferredAvailable() {
		family = a.FontFamily
	}
	out, err := a.build(p, mapPNG, family, now)
	if err != nil && family != CoreFont {
		a.Logger.Error().Err(err).Str("font", family).Msg("report failed with preferred font, falling back")
		out, err = a.build(p, mapPNG, CoreFont, now)
	}
	if err != nil {
		return nil, err
	}
	return optimize(out, a.Logger), nil
}

func (a *Assembler) fontPath(suffix string) string {
	return filepath.Join(a.FontDir, a.FontFamily+suffix+".ttf")
}

func (a *Assembler) preferredAvailable() bool {
	if a.FontFamily == "" || a.FontFamily == CoreFont {
		return false
	}
	for _, f := range fontFiles[:2] {
		if _, err := os.Stat(a.fontPath(f.suffix)); err != nil {
			return false
		}
	}
	return true
}

// doc wraps fpdf with the report's font fallback rules.
type doc struct {
	*fpdf.Fpdf
	family string
	styles map[string]bool
	tr     func(string) string
}

func (d *doc) font(style string, size float64) {
	if !d.styles[style] {
		style = ""
	}
	d.SetFont(d.family, style, size)
}

func (d *doc) line(w, h float64, text string, ln int, align string) {
	d.CellFormat(w, h, d.tr(text), "", ln, align, false, 0, "")
}

func (a *Assembler) newDoc(family string, now time.Time) (*doc, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	d := &doc{Fpdf: pdf, family: family, styles: map[string]bool{"": true}}

	if family == CoreFont {
		d.styles = map[string]bool{"": true, "B": true, "I": true, "BI": true}
		d.tr = pdf.UnicodeTranslatorFromDescriptor("")
	} else {
		d.tr = func(s string) string { return s }
		for _, f := range fontFiles {
			b, err := os.ReadFile(a.fontPath(f.suffix))
			if err != nil {
				continue
			}
			pdf.AddUTF8FontFromBytes(family, f.style, b)
			if pdf.Err() {
				return nil, fmt.Errorf("register font %s %q: %w", family, f.style, pdf.Error())
			}
			d.styles[f.style] = true
		}
	}

	org := a.Organization
	if org == "" {
		org = DefaultOrganization
	}
	notice := fmt.Sprintf("© %d %s. Proprietary & Confidential. Internal use only. "+
		"Unauthorized reproduction or distribution is strictly prohibited.", now.Year(), org)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		d.font("I", 7)
		pdf.SetTextColor(128, 128, 128)
		d.line(0, 8, notice, 1, "C")
		pdf.SetY(-10)
		d.font("I", 8)
		d.line(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), 0, "C")
	})
	return d, nil
}

// build renders one attempt. fpdf panics on some malformed font files, so
// panics are returned as errors to trigger the core font fallback.
func (a *Assembler) build(p project.Project, mapPNG []byte, family string, now time.Time) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("build pdf with %s: %v", family, r)
		}
	}()
	d, err := a.newDoc(family, now)
	if err != nil {
		return nil, err
	}
	a.titlePage(d, p, now)

	incidents, cameras := marker.Split(p.Markers)
	d.AddPage()
	section(d, "Location Map")
	locationMap(d, len(p.Markers) > 0, mapPNG)
	d.Ln(8)

	section(d, "Camera Statistics")
	cameraStats(d, Cameras(cameras))
	d.Ln(5)

	section(d, "Incident Statistics")
	incidentStats(d, Incidents(incidents))
	d.Ln(5)

	section(d, "Incident Details")
	incidentTable(d, incidents)

	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Assembler) titlePage(d *doc, p project.Project, now time.Time) {
	d.AddPage()
	if a.BannerPath != "" {
		if _, err := os.Stat(a.BannerPath); err == nil {
			d.ImageOptions(a.BannerPath, 25, 100, 160, 0, false, fpdf.ImageOptions{}, 0, "")
		}
	}
	d.SetY(150)

	title := p.Property
	if title == "" {
		title = p.Name
	}
	if title == "" {
		title = "Property"
	}
	d.font("B", 28)
	d.line(0, 20, title, 1, "C")

	year := string(p.Year)
	if year == "" {
		year = fmt.Sprint(now.Year())
	}
	d.font("", 16)
	d.line(0, 10, year+" - Incidents & Claims Map", 1, "C")

	d.Ln(10)
	d.font("", 12)
	d.line(0, 10, "Date: "+now.Format(titleDateLayout), 1, "C")
	if p.Author != "" {
		d.Ln(5)
		d.line(0, 10, "Prepared by: "+p.Author, 1, "C")
	}
}

func section(d *doc, title string) {
	d.font("B", 14)
	d.SetFillColor(50, 50, 50)
	d.SetTextColor(255, 255, 255)
	d.CellFormat(0, 10, d.tr("  "+title), "", 1, "", true, 0, "")
	d.SetTextColor(0, 0, 0)
	d.Ln(2)
}

func locationMap(d *doc, hasMarkers bool, mapPNG []byte) {
	d.font("", 10)
	if !hasMarkers {
		d.line(0, 10, NoMarkersText, 1, "")
		return
	}
	if _, err := png.DecodeConfig(bytes.NewReader(mapPNG)); err != nil {
		d.line(0, 10, MapErrorText, 1, "")
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.RegisterImageOptionsReader("location-map", opts, bytes.NewReader(mapPNG))
	d.ImageOptions("location-map", 10, d.GetY(), 190, 0, true, opts, 0, "")
}

func cameraStats(d *doc, s CameraStats) {
	d.font("", 10)
	d.line(60, 8, fmt.Sprintf("Total Cameras: %d", s.Total), 0, "")
	d.line(60, 8, fmt.Sprintf("Functioning: %d", s.Functioning), 0, "")
	d.line(60, 8, fmt.Sprintf("Dysfunctioning: %d", s.NotFunctioning), 1, "")
}

func incidentStats(d *doc, s IncidentStats) {
	d.font("", 10)
	d.line(95, 8, fmt.Sprintf("Total Claims: %d", s.Total), 0, "")
	d.line(95, 8, "Total Compensation: "+FormatCurrency(s.TotalCompensation), 1, "")
	d.line(60, 8, fmt.Sprintf("Serious: %d", s.Serious), 0, "")
	d.line(60, 8, fmt.Sprintf("Medium: %d", s.Medium), 0, "")
	d.line(60, 8, fmt.Sprintf("Light: %d", s.Light), 1, "")

	if s.Total == 0 {
		return
	}
	d.Ln(3)
	d.font("B", 10)
	d.line(0, 8, "Top 5 Claims by Compensation:", 1, "")
	d.font("", 9)
	for i, in := range s.TopClaims {
		d.line(0, 6, fmt.Sprintf("  %d. %s - %s - %s", i+1, in.ID, in.Description, FormatCurrency(in.Compensation)), 1, "")
	}
}

var tableColumns = []struct {
	title string
	width float64
}{
	{"ID", 15},
	{"Level", 20},
	{"Date", 25},
	{"Comp ($)", 30},
	{"Incident Type", 100},
}

func incidentTable(d *doc, incidents []marker.Marker) {
	if len(incidents) == 0 {
		d.font("", 10)
		d.line(0, 10, NoIncidentText, 1, "")
		return
	}

	d.SetFillColor(0, 0, 0)
	d.SetTextColor(255, 255, 255)
	d.font("B", 9)
	for i, c := range tableColumns {
		ln := 0
		if i == len(tableColumns)-1 {
			ln = 1
		}
		d.CellFormat(c.width, 8, d.tr(c.title), "1", ln, "C", true, 0, "")
	}

	d.SetTextColor(0, 0, 0)
	d.font("", 8)
	for _, in := range incidents {
		d.CellFormat(15, 7, d.tr(in.ID), "1", 0, "C", false, 0, "")
		d.CellFormat(20, 7, d.tr(string(in.Level)), "1", 0, "C", false, 0, "")
		d.CellFormat(25, 7, d.tr(TruncateDate(in.Date)), "1", 0, "C", false, 0, "")
		d.CellFormat(30, 7, d.tr(FormatCurrency(in.Compensation)), "1", 0, "R", false, 0, "")
		d.CellFormat(100, 7, d.tr(TruncateText(in.Description, DescriptionWidth)), "1", 1, "L", false, 0, "")
	}
}

// optimize runs the output through pdfcpu. The unoptimized bytes are kept
// when pdfcpu rejects them.
func optimize(raw []byte, log zerolog.Logger) []byte {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(raw), &buf, model.NewDefaultConfiguration()); err != nil {
		log.Warn().Err(err).Msg("pdf optimize failed, keeping raw output")
		return raw
	}
	return buf.Bytes()
}

// PageCount validates a PDF and reports its page count.
func PageCount(b []byte) (int, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(b), model.NewDefaultConfiguration())
	if err != nil {
		return 0, err
	}
	if ctx.PageCount == 0 {
		return 0, errors.New("pdf has no pages")
	}
	return ctx.PageCount, nil
}
