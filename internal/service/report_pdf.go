package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"digcomp_backend/internal/quiz"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 20.0
	pdfBreakAt   = 260.0
	pdfFooterGap = 10.0
)

var (
	pdfInk         = [3]int{61, 68, 73}
	pdfMuted       = [3]int{100, 100, 100}
	pdfHighColor   = [3]int{220, 38, 38}
	pdfMediumColor = [3]int{71, 85, 105}
	pdfLinkColor   = [3]int{245, 106, 106}
)

type reportPDF struct {
	*fpdf.Fpdf
	tr    func(string) string
	width float64
}

func (p *reportPDF) ink(c [3]int) {
	p.SetTextColor(c[0], c[1], c[2])
}

func (p *reportPDF) ensureSpace(h float64) {
	if p.GetY()+h > pdfBreakAt {
		p.AddPage()
		p.SetY(25)
	}
}

func (p *reportPDF) heading(text string) {
	p.ensureSpace(20)
	p.SetFont("Times", "B", 16)
	p.ink(pdfInk)
	p.CellFormat(0, 10, p.tr(text), "", 1, "L", false, 0, "")
	p.Ln(2)
}

// renderReportPDF lays out the report as an A4 document: header, global
// score and level, per-area results, qualitative feedback and the learning
// plan built from the recommendations.
func renderReportPDF(r *AttemptReport, generatedAt time.Time) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pdfMargin, 25, pdfMargin)
	doc.SetAutoPageBreak(true, 20)
	doc.AliasNbPages("")
	doc.SetTitle("Informe de Competencias Digitales", true)

	pageW, pageH := doc.GetPageSize()
	p := &reportPDF{Fpdf: doc, tr: doc.UnicodeTranslatorFromDescriptor(""), width: pageW - 2*pdfMargin}

	doc.SetFooterFunc(func() {
		doc.SetY(pageH - pdfFooterGap - 5)
		doc.SetFont("Helvetica", "", 9)
		doc.SetTextColor(150, 150, 150)
		doc.CellFormat(0, 5, p.tr(fmt.Sprintf("Página %d de {nb} - Generado por Herramienta DigComp", doc.PageNo())),
			"", 0, "C", false, 0, "")
	})

	doc.AddPage()
	writeHeader(p, r, generatedAt)
	writeScores(p, r)
	writeAreas(p, r)
	writeFeedback(p, r.Feedback)
	writeLearningPlan(p, r.Recommendations)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(p *reportPDF, r *AttemptReport, generatedAt time.Time) {
	p.SetFont("Times", "B", 22)
	p.ink(pdfInk)
	p.CellFormat(0, 12, p.tr("Informe de Competencias Digitales"), "", 1, "C", false, 0, "")
	p.Ln(4)

	name, occupation := defaultUserName, ""
	if r.User != nil {
		if r.User.Name != "" {
			name = r.User.Name
		}
		occupation = r.User.Occupation
	}

	half := p.width / 2
	p.SetFont("Helvetica", "", 10)
	p.ink(pdfMuted)
	p.CellFormat(half, 5, p.tr("USUARIO: "+strings.ToUpper(name)), "", 0, "L", false, 0, "")
	p.CellFormat(half, 5, p.tr("FECHA: "+generatedAt.Format("02/01/2006")), "", 1, "R", false, 0, "")
	p.CellFormat(half, 5, p.tr("OCUPACIÓN: "+strings.ToUpper(occupation)), "", 0, "L", false, 0, "")
	p.CellFormat(half, 5, p.tr("DURACIÓN: "+strings.ToUpper(r.Duration)), "", 1, "R", false, 0, "")
	p.Ln(6)
}

func writeScores(p *reportPDF, r *AttemptReport) {
	y := p.GetY()
	p.SetFillColor(248, 250, 252)
	p.SetDrawColor(220, 220, 220)
	p.Rect(pdfMargin, y, p.width, 28, "FD")

	half := p.width / 2
	p.SetXY(pdfMargin, y+5)
	p.SetFont("Helvetica", "B", 9)
	p.ink(pdfMuted)
	p.CellFormat(half, 6, p.tr("PUNTUACIÓN GLOBAL"), "", 0, "C", false, 0, "")
	p.CellFormat(half, 6, p.tr("NIVEL ALCANZADO"), "", 1, "C", false, 0, "")

	p.SetX(pdfMargin)
	p.SetFont("Helvetica", "B", 16)
	p.ink(r.Performance.RGB)
	p.CellFormat(half, 10, fmt.Sprintf("%d/100", r.GlobalScore), "", 0, "C", false, 0, "")
	p.CellFormat(half, 10, p.tr(r.Band.String()), "", 1, "C", false, 0, "")

	p.SetY(y + 34)
}

func writeAreas(p *reportPDF, r *AttemptReport) {
	p.heading("Resultados Detallados por Área")

	for _, a := range r.Areas {
		p.ensureSpace(22)

		p.SetFont("Times", "B", 11)
		p.ink(pdfInk)
		p.CellFormat(p.width-45, 6, p.tr(a.Area.Name), "", 0, "L", false, 0, "")

		p.SetFont("Helvetica", "", 9)
		p.CellFormat(15, 6, fmt.Sprintf("%d%%", a.Percent), "", 0, "R", false, 0, "")
		p.SetFont("Helvetica", "B", 9)
		p.ink(a.Performance.RGB)
		p.CellFormat(30, 6, p.tr(a.Performance.Label), "", 1, "R", false, 0, "")

		p.SetFont("Helvetica", "", 9)
		p.ink(pdfMuted)
		p.MultiCell(0, 4.5, p.tr(a.Area.Description), "", "L", false)

		barY := p.GetY() + 1
		p.SetFillColor(230, 230, 230)
		p.Rect(pdfMargin, barY, p.width, 2, "F")
		if a.Percent > 0 {
			c := a.Performance.RGB
			p.SetFillColor(c[0], c[1], c[2])
			p.Rect(pdfMargin, barY, p.width*float64(a.Percent)/100, 2, "F")
		}
		p.SetY(barY + 7)
	}
}

func writeFeedback(p *reportPDF, fb quiz.Feedback) {
	const gap, boxH = 6.0, 65.0

	p.heading("Análisis Cualitativo")
	p.ensureSpace(boxH)

	boxW := (p.width - 2*gap) / 3
	top := p.GetY()
	boxes := []struct{ title, text string }{
		{"Conocimientos", fb.Knowledge},
		{"Habilidades", fb.Skills},
		{"Actitudes", fb.Attitudes},
	}
	for i, b := range boxes {
		x := pdfMargin + float64(i)*(boxW+gap)
		p.SetFillColor(252, 252, 252)
		p.SetDrawColor(220, 220, 220)
		p.RoundedRect(x, top, boxW, boxH, 2, "1234", "FD")

		p.SetXY(x+5, top+5)
		p.SetFont("Times", "B", 11)
		p.ink(pdfInk)
		p.CellFormat(boxW-10, 6, p.tr(b.title), "", 2, "L", false, 0, "")

		p.SetX(x + 5)
		p.SetFont("Helvetica", "", 9)
		p.ink(pdfMuted)
		p.MultiCell(boxW-10, 4.5, p.tr(b.text), "", "L", false)
	}
	p.SetY(top + boxH + 8)
}

func writeLearningPlan(p *reportPDF, recs []quiz.Recommendation) {
	if len(recs) == 0 {
		return
	}
	p.AddPage()
	p.SetY(25)
	p.heading("Plan de Aprendizaje Personalizado")

	var high, medium []quiz.Recommendation
	for _, rec := range recs {
		if rec.Priority == quiz.High {
			high = append(high, rec)
		} else {
			medium = append(medium, rec)
		}
	}
	writeResourceBlock(p, "PRIORIDAD ALTA", pdfHighColor, high)
	writeResourceBlock(p, "REFUERZO SUGERIDO", pdfMediumColor, medium)
}

func writeResourceBlock(p *reportPDF, title string, c [3]int, recs []quiz.Recommendation) {
	if len(recs) == 0 {
		return
	}
	p.ensureSpace(20)

	p.SetFont("Helvetica", "B", 12)
	p.ink(c)
	p.CellFormat(0, 7, fmt.Sprintf("%s (%d)", title, len(recs)), "", 1, "L", false, 0, "")
	p.SetDrawColor(c[0], c[1], c[2])
	p.SetLineWidth(0.5)
	p.Line(pdfMargin, p.GetY()+1, pdfMargin+p.width, p.GetY()+1)
	p.Ln(5)

	for _, rec := range recs {
		p.ensureSpace(18)

		area := rec.Area
		if area == "" {
			area = "General"
		}
		p.SetFont("Helvetica", "B", 8)
		p.SetTextColor(150, 150, 150)
		p.CellFormat(0, 4, p.tr(strings.ToUpper(area)), "", 1, "L", false, 0, "")

		p.SetFont("Times", "B", 10)
		p.ink(pdfLinkColor)
		p.CellFormat(0, 5, p.fit("• "+rec.Title, p.width), "", 1, "L", false, 0, rec.URL)

		if rec.Description != "" {
			p.SetFont("Helvetica", "", 9)
			p.SetTextColor(80, 80, 80)
			p.CellFormat(0, 5, p.fit(rec.Description, p.width), "", 1, "L", false, 0, "")
		}
		p.Ln(4)
	}
	p.Ln(6)
}

// fit encodes text for the core fonts and cuts it to one line of width,
// marking cuts. The result is already encoded and must not go through tr.
func (p *reportPDF) fit(text string, width float64) string {
	enc := p.tr(text)
	if p.GetStringWidth(enc) <= width {
		return enc
	}
	limit := width - p.GetStringWidth("...")
	n := len(enc)
	for n > 0 && p.GetStringWidth(enc[:n]) > limit {
		n--
	}
	return strings.TrimRight(enc[:n], " ") + "..."
}
