// Package hinereport renders reconstructed HINE exams as PDF documents and
// XLSX workbooks for download.
package hinereport

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/hine/hine/internal/domain/exam"
)

const (
	DefaultTitle     = "El Comité"
	DefaultCopyright = "Todos los derechos reservados a sus creadores"

	pageMarginX  = 15.0
	pageMarginY  = 18.0
	lineHeight   = 6.0
	headingSize  = 14.0
	bodyFontSize = 9.5
)

// Options customizes the document branding.
type Options struct {
	Title     string
	Copyright string
	// Now is used for the generation timestamp; defaults to time.Now.
	Now func() time.Time
}

// PDFRenderer renders exams with fpdf core fonts. Text is translated to
// cp1252 so Spanish accents render without embedding a font.
type PDFRenderer struct {
	opts Options
}

func NewPDFRenderer(opts Options) *PDFRenderer {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Copyright == "" {
		opts.Copyright = DefaultCopyright
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PDFRenderer{opts: opts}
}

// ExamPDF renders a single exam.
func (r *PDFRenderer) ExamPDF(_ context.Context, ex *exam.HineExam) (*bytes.Buffer, error) {
	if ex == nil {
		return nil, fmt.Errorf("render exam pdf: nil exam")
	}
	doc := r.newDocument(fmt.Sprintf("%s - Historia clínica HINE - Examen %s", r.opts.Title, ex.ExamID), "")
	doc.examSection(ex, 1)
	return doc.output()
}

// HistoryPDF renders every exam of a child, one exam per page.
func (r *PDFRenderer) HistoryPDF(_ context.Context, childID string, exams []*exam.HineExam) (*bytes.Buffer, error) {
	doc, err := r.history(childID, exams)
	if err != nil {
		return nil, err
	}
	return doc.output()
}

func (r *PDFRenderer) history(childID string, exams []*exam.HineExam) (*document, error) {
	if len(exams) == 0 {
		return nil, fmt.Errorf("render history pdf: no exams for child %s", childID)
	}
	doc := r.newDocument(fmt.Sprintf("%s - Historia clínica HINE - Paciente %s", r.opts.Title, childID),
		"Paciente: "+childID)
	for i, ex := range exams {
		if i > 0 {
			doc.pdf.AddPage()
		}
		doc.examSection(ex, i+1)
	}
	return doc, nil
}

// document wraps one fpdf instance and its text translator.
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *PDFRenderer) newDocument(title, subtitle string) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	now := r.opts.Now()

	pdf.SetTitle(title, true)
	pdf.SetCreator("hine-server", true)
	pdf.SetCreationDate(now)
	pdf.SetMargins(pageMarginX, pageMarginY, pageMarginX)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	footer := fmt.Sprintf("© HINE %d · %s", now.Year(), r.opts.Copyright)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 10, tr(footer), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("%s %d/{nb}", tr("Página"), pdf.PageNo()), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(r.opts.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", headingSize+2)
	pdf.MultiCell(0, 8, tr("Historia clínica HINE - Hammersmith Infant Neurological Examination"), "", "C", false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 5, tr("Generado: "+now.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	if subtitle != "" {
		pdf.CellFormat(0, 5, tr(subtitle), "", 1, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	return &document{pdf: pdf, tr: tr}
}

func (d *document) output() (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return &buf, nil
}

func (d *document) contentWidth() float64 {
	w, _ := d.pdf.GetPageSize()
	left, _, right, _ := d.pdf.GetMargins()
	return w - left - right
}

func (d *document) heading(text string, size float64) {
	d.pdf.SetFont("Helvetica", "B", size)
	d.pdf.CellFormat(0, lineHeight+1, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) line(label, value string) {
	d.pdf.SetFont("Helvetica", "B", bodyFontSize)
	lw := d.pdf.GetStringWidth(d.tr(label)) + 2
	d.pdf.CellFormat(lw, lineHeight, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", bodyFontSize)
	d.pdf.CellFormat(0, lineHeight, d.tr(value), "", 1, "L", false, 0, "")
}

// fit truncates s so it fits in width w at the current font.
func (d *document) fit(s string, w float64) string {
	s = d.tr(s)
	if d.pdf.GetStringWidth(s) <= w-2 {
		return s
	}
	for len(s) > 0 && d.pdf.GetStringWidth(s+"...") > w-2 {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// table draws a header row and body rows. widths are fractions of the
// content width.
func (d *document) table(header []string, widths []float64, rows [][]string) {
	total := d.contentWidth()
	cols := make([]float64, len(widths))
	for i, f := range widths {
		cols[i] = total * f
	}

	d.pdf.SetFont("Helvetica", "B", bodyFontSize)
	d.pdf.SetFillColor(243, 243, 243)
	for i, h := range header {
		d.pdf.CellFormat(cols[i], lineHeight+1, d.fit(h, cols[i]), "1", 0, "L", true, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont("Helvetica", "", bodyFontSize)
	for _, row := range rows {
		for i, cell := range row {
			d.pdf.CellFormat(cols[i], lineHeight, d.fit(cell, cols[i]), "1", 0, "L", false, 0, "")
		}
		d.pdf.Ln(-1)
	}
	d.pdf.Ln(2)
}

func (d *document) comments(title string, comments []string) {
	if len(comments) == 0 {
		return
	}
	d.pdf.SetFont("Helvetica", "B", bodyFontSize)
	d.pdf.CellFormat(0, lineHeight, d.tr(title), "", 1, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", bodyFontSize)
	for _, c := range comments {
		d.pdf.MultiCell(0, lineHeight-1, d.tr("• "+c), "", "L", false)
	}
	d.pdf.Ln(2)
}

func (d *document) examSection(ex *exam.HineExam, index int) {
	d.heading(fmt.Sprintf("Examen #%d", index), headingSize)
	d.line("ID Examen:", ex.ExamID.String())
	d.line("Fecha:", FormatDate(ex.ExamDate))
	d.line("Médico:", orDash(ex.DoctorName))
	d.line("ID Paciente:", ex.PatientID)
	d.line("Edad gestacional (sem):", orDash(ex.GestationalAge))
	d.line("Edad cronológica (mes):", orDash(ex.ChronologicalAge))
	d.line("Edad corregida (mes):", orDash(ex.CorrectedAge))
	d.line("PC (cm):", orDash(ex.HeadCircumference))
	if ex.Description != "" {
		d.line("Descripción:", ex.Description)
	}
	d.pdf.Ln(2)

	a := ex.Analysis
	d.heading("Puntaje global", 11)
	d.table([]string{"Total", "Máximo", "Asim. izq.", "Asim. der."},
		[]float64{0.25, 0.25, 0.25, 0.25},
		[][]string{{
			fmt.Sprint(a.TotalScore), fmt.Sprint(a.MaxPossibleScore),
			fmt.Sprint(a.TotalLeftAsymmetries), fmt.Sprint(a.TotalRightAsymmetries),
		}})

	d.heading("Módulos", 11)
	questionCols := []float64{0.32, 0.1, 0.09, 0.09, 0.4}
	for _, m := range a.Modules {
		d.pdf.SetFont("Helvetica", "B", bodyFontSize)
		d.pdf.CellFormat(0, lineHeight, d.tr(fmt.Sprintf("%s - Puntaje: %d", ModuleLabel(m.ModuleID), m.ObtainedScore)), "", 1, "L", false, 0, "")
		rows := make([][]string, 0, len(m.Responses))
		for _, q := range m.Responses {
			rows = append(rows, []string{
				QuestionLabel(q.QuestionID), scoreText(q.SelectedValue),
				yesNo(q.LeftAsymmetry), yesNo(q.RightAsymmetry), orDash(q.Comment),
			})
		}
		d.table([]string{"Ítem", "Valor", "Izq.", "Der.", "Comentario"}, questionCols, rows)
	}
	d.comments("Comentarios generales", a.GeneralComments)

	d.heading("Hitos motores", 11)
	rows := make([][]string, 0, len(ex.MotorMilestones.Responses))
	for _, q := range ex.MotorMilestones.Responses {
		rows = append(rows, []string{QuestionLabel(q.QuestionID), scoreText(q.SelectedValue), orDash(q.Comment)})
	}
	d.table([]string{"Hito", "Valor", "Comentario"}, []float64{0.35, 0.15, 0.5}, rows)
	d.comments("Comentarios de hitos motores", ex.MotorMilestones.GeneralComments)

	d.heading("Comportamiento", 11)
	rows = make([][]string, 0, len(ex.Behavior.Responses))
	for _, b := range ex.Behavior.Responses {
		rows = append(rows, []string{QuestionLabel(b.QuestionID), scoreText(b.SelectedValue), orDash(b.Comment)})
	}
	d.table([]string{"Dimensión", "Valor", "Comentario"}, []float64{0.35, 0.15, 0.5}, rows)
	d.comments("Comentarios de comportamiento", ex.Behavior.GeneralComments)
}
