package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// writeReportPDF renders the manifest as a one page benchmark summary: run
// details followed by a table with one row per variant.
func writeReportPDF(m Manifest, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.AddPage()
	pdf.CellFormat(0, 8, "snapstrip report: "+m.Snapshot, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	details := []string{
		"Generated: " + m.GeneratedAt.UTC().Format(time.RFC3339),
		"Version: " + m.Version,
		"Encoding: " + m.Encoding,
		fmt.Sprintf("Pagelets: %d, preserved selectors: %d", len(m.PageletIDs), m.Selectors),
		fmt.Sprintf("Resources fetched: %d saved, %d cached on disk, %d failed, %d still missing",
			m.Fetched.Saved, m.Fetched.Skipped, m.Fetched.Failed, m.Missing),
		fmt.Sprintf("Anonymized images: %d", m.Images),
	}
	for _, d := range details {
		pdf.CellFormat(0, 5, d, "", 1, "L", false, 0, "")
	}
	if len(m.Resources) > 0 {
		var parts []string
		for _, k := range []string{"css", "js", "img", "cssimage", "misc"} {
			if n, ok := m.Resources[k]; ok {
				parts = append(parts, k+"="+strconv.Itoa(n))
			}
		}
		pdf.CellFormat(0, 5, "Listed resources: "+strings.Join(parts, ", "), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	cols := []struct {
		title string
		width float64
	}{
		{"Variant", 38}, {"Bytes", 24}, {"Elements", 22}, {"Scripts", 18},
		{"Inline", 16}, {"Styles", 16}, {"Images", 16}, {"Handlers", 20}, {"Words", 18},
	}
	pdf.SetFont("Helvetica", "B", 9)
	for _, c := range cols {
		pdf.CellFormat(c.width, 6, c.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, v := range m.Variants {
		s := v.Stats
		row := []string{
			v.Name,
			strconv.Itoa(v.Bytes),
			strconv.Itoa(s.Total()),
			strconv.Itoa(s.Scripts),
			strconv.Itoa(s.InlineScripts),
			strconv.Itoa(s.Stylesheets + s.StyleBlocks),
			strconv.Itoa(s.Images),
			strconv.Itoa(s.Handlers),
			strconv.Itoa(s.Words),
		}
		for i, c := range cols {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(c.width, 6, row[i], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.OutputFileAndClose(outPath)
}
