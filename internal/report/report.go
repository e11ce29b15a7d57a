// Package report renders finished attempts as Excel workbooks.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/attempt"
)

const (
	SummarySheet = "Summary"
	AnswersSheet = "Answers"
)

var answerHeader = []any{"No.", "Question ID", "Question", "Correct", "Selected", "Errors"}

// Workbook builds a two-sheet workbook for a: a summary and one row per
// question. The caller closes the returned file.
func Workbook(a attempt.Attempt) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummary(f, a); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(AnswersSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create %s sheet: %w", AnswersSheet, err)
	}
	if err := writeAnswers(f, a); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// Write renders a as an .xlsx document to w.
func Write(w io.Writer, a attempt.Attempt) error {
	f, err := Workbook(a)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, a attempt.Attempt) error {
	result := "failed"
	if a.Passed() {
		result = "passed"
	}

	rows := [][]any{
		{"Title", a.Title},
		{"Started", a.StartedAt.UTC().Format(time.RFC3339)},
		{"Finished", a.FinishedAt.UTC().Format(time.RFC3339)},
		{"Duration", a.Duration().Round(time.Second).String()},
		{"Questions", len(a.Items)},
		{"Errors", a.Errors},
		{"Result", result},
	}
	for i, row := range rows {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 12)
}

func writeAnswers(f *excelize.File, a attempt.Attempt) error {
	if err := setRow(f, AnswersSheet, 1, answerHeader); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(AnswersSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, item := range a.Items {
		row := []any{
			item.Position + 1,
			item.QuestionID,
			item.Prompt,
			FormatChoices(item.Correct),
			FormatChoices(item.Selected),
			item.Errors,
		}
		if err := setRow(f, AnswersSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(AnswersSheet, "C", "C", 60)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// FormatChoices lists the 1-based numbers of the checked choices, for
// example "1, 3". No checked choice renders as "-".
func FormatChoices(v []bool) string {
	var parts []string
	for i, checked := range v {
		if checked {
			parts = append(parts, fmt.Sprint(i+1))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
