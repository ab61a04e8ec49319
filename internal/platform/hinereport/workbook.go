package hinereport

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hine/hine/internal/domain/exam"
)

const (
	summarySheet   = "Historial HINE"
	responsesSheet = "Respuestas"
)

var summaryHeader = []string{
	"Fecha", "ID Examen", "Médico", "Total", "Máximo", "Asim. izq.", "Asim. der.",
	"Edad gestacional", "Edad cronológica", "Edad corregida", "PC",
}

var responsesHeader = []string{
	"Fecha", "ID Examen", "Sección", "Ítem", "Valor", "Izq.", "Der.", "Comentario",
}

// WorkbookRenderer exports a child's exam history as an XLSX workbook: one
// summary row per exam plus a sheet with every answered question.
type WorkbookRenderer struct{}

func NewWorkbookRenderer() *WorkbookRenderer { return &WorkbookRenderer{} }

// moduleColumns returns the analysis module ids across exams in first-seen
// order; each becomes a score column of the summary sheet.
func moduleColumns(exams []*exam.HineExam) []string {
	seen := map[string]bool{}
	var ids []string
	for _, ex := range exams {
		for _, m := range ex.Analysis.Modules {
			if !seen[m.ModuleID] {
				seen[m.ModuleID] = true
				ids = append(ids, m.ModuleID)
			}
		}
	}
	return ids
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// HistoryWorkbook renders the exams, expected most recent first.
func (w *WorkbookRenderer) HistoryWorkbook(_ context.Context, childID string, exams []*exam.HineExam) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if _, err := f.NewSheet(responsesSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Historial HINE " + childID,
		Creator: "hine-server",
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F3F3F3"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	modules := moduleColumns(exams)
	header := append([]string{}, summaryHeader...)
	for _, id := range modules {
		header = append(header, ModuleLabel(id))
	}
	if err := writeHeader(f, summarySheet, header, headerStyle); err != nil {
		return nil, fmt.Errorf("write summary header: %w", err)
	}
	if err := writeHeader(f, responsesSheet, responsesHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("write responses header: %w", err)
	}

	respRow := 2
	for i, ex := range exams {
		date := ex.ExamDate.Format("2006-01-02 15:04")
		a := ex.Analysis
		values := []interface{}{
			date, ex.ExamID.String(), ex.DoctorName,
			a.TotalScore, a.MaxPossibleScore, a.TotalLeftAsymmetries, a.TotalRightAsymmetries,
			ex.GestationalAge, ex.ChronologicalAge, ex.CorrectedAge, ex.HeadCircumference,
		}
		scores := make(map[string]int, len(a.Modules))
		for _, m := range a.Modules {
			scores[m.ModuleID] = m.ObtainedScore
		}
		for _, id := range modules {
			if s, ok := scores[id]; ok {
				values = append(values, s)
			} else {
				values = append(values, "")
			}
		}
		if err := writeRow(f, summarySheet, i+2, values); err != nil {
			return nil, fmt.Errorf("write summary row %d: %w", i+2, err)
		}

		emit := func(section string, q exam.QuestionResponse, asym bool) error {
			row := []interface{}{date, ex.ExamID.String(), section, QuestionLabel(q.QuestionID), scoreText(q.SelectedValue)}
			if asym {
				row = append(row, yesNo(q.LeftAsymmetry), yesNo(q.RightAsymmetry))
			} else {
				row = append(row, "", "")
			}
			row = append(row, q.Comment)
			err := writeRow(f, responsesSheet, respRow, row)
			respRow++
			return err
		}
		for _, m := range a.Modules {
			for _, q := range m.Responses {
				if err := emit(ModuleLabel(m.ModuleID), q, true); err != nil {
					return nil, fmt.Errorf("write response row: %w", err)
				}
			}
		}
		for _, q := range ex.MotorMilestones.Responses {
			if err := emit("Hitos motores", q, true); err != nil {
				return nil, fmt.Errorf("write response row: %w", err)
			}
		}
		for _, b := range ex.Behavior.Responses {
			q := exam.QuestionResponse{QuestionID: b.QuestionID, SelectedValue: b.SelectedValue, Comment: b.Comment}
			if err := emit("Comportamiento", q, false); err != nil {
				return nil, fmt.Errorf("write response row: %w", err)
			}
		}
	}

	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
