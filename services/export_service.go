package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"shikkha-content-platform/internal/logger"
	"shikkha-content-platform/models"
)

// ExportService renders a slice of the question bank as a spreadsheet for
// teachers reviewing content offline.
type ExportService struct {
	questions *QuestionService
}

func NewExportService(questions *QuestionService) *ExportService {
	return &ExportService{questions: questions}
}

var exportHeaders = []string{
	"ID", "Level", "Group", "Subject ID", "Source Type", "Board", "Year",
	"Stem (EN)", "Stem (BN)",
	"Part A (EN)", "Part A Answer (EN)", "Part A Marks",
	"Part B (EN)", "Part B Answer (EN)", "Part B Marks",
	"Part C (EN)", "Part C Answer (EN)", "Part C Marks",
	"Part D (EN)", "Part D Answer (EN)", "Part D Marks",
	"Version", "Created At",
}

// ExportQuestionsXLSX fetches the matching questions and writes them into an
// XLSX workbook with a Questions sheet and a Summary sheet. Returns the file
// bytes and the record count.
func (s *ExportService) ExportQuestionsXLSX(ctx context.Context, filter QuestionFilter) (*bytes.Buffer, int, error) {
	questions, err := s.questions.ListQuestions(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching questions for export: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close workbook", "error", err)
		}
	}()

	sheetName := "Questions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, q := range questions {
		row := rowIdx + 2
		values := []any{
			q.ID.Hex(), q.Meta.Level, q.Meta.Group, q.Meta.SubjectID.Hex(),
			q.Source.Type, q.Source.Board, q.Source.Year,
			q.Stem.Text.En, q.Stem.Text.Bn,
		}
		for _, part := range q.Parts.PartsSlice() {
			values = append(values, part.Question.En, part.Answer.En, part.Marks)
		}
		values = append(values, q.Version, q.CreatedAt.Format("2006-01-02 15:04:05"))

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	if err := s.writeSummarySheet(f, questions); err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, 0, fmt.Errorf("writing workbook: %w", err)
	}

	return &buf, len(questions), nil
}

func (s *ExportService) writeSummarySheet(f *excelize.File, questions []models.Question) error {
	sheetName := "Summary"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	bySource := map[string]int{}
	byYear := map[int]int{}
	for _, q := range questions {
		bySource[q.Source.Type]++
		if q.Source.Year > 0 {
			byYear[q.Source.Year]++
		}
	}

	rows := [][]any{
		{"Total Questions", len(questions)},
		{"", ""},
		{"By Source Type", ""},
	}
	for _, sourceType := range []string{models.SourceBoard, models.SourceAIGenerated, models.SourceInstitution} {
		if bySource[sourceType] > 0 {
			rows = append(rows, []any{sourceType, bySource[sourceType]})
		}
	}
	if len(byYear) > 0 {
		rows = append(rows, []any{"", ""}, []any{"By Year", ""})
		for year, count := range byYear {
			rows = append(rows, []any{year, count})
		}
	}

	for i, row := range rows {
		for j, cell := range row {
			ref, _ := excelize.CoordinatesToCellName(j+1, i+1)
			f.SetCellValue(sheetName, ref, cell)
		}
	}

	return nil
}
