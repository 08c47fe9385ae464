package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/domain"
	"github.com/tealeg/xlsx"
)

var exportHeader = []string{
	"key", "summary", "status", "priority", "assignee", "assignee_email",
	"reporter", "created", "updated", "resolved", "time_in_status_days",
	"age_days", "fix_version", "fix_versions", "parent_key", "parent_summary",
	"issue_type", "labels", "components", "time_original_estimate_hours",
	"time_estimate_hours", "time_spent_hours", "resolution", "description", "url",
}

func exportRow(b domain.Bug) []string {
	return []string{
		b.Key,
		b.Summary,
		b.Status,
		b.Priority,
		b.Assignee,
		strOrEmpty(b.AssigneeEmail),
		b.Reporter,
		fmtTime(b.Created),
		fmtTime(b.Updated),
		fmtTime(b.Resolved),
		fmtInt(b.TimeInStatusDays),
		fmtInt(b.AgeDays),
		b.FixVersion,
		strings.Join(b.FixVersions, "; "),
		b.ParentKey,
		b.ParentSummary,
		b.IssueType,
		strings.Join(b.Labels, "; "),
		strings.Join(b.Components, "; "),
		fmtFloat(b.TimeOriginalEstimateHours),
		fmtFloat(b.TimeEstimateHours),
		fmtFloat(b.TimeSpentHours),
		strOrEmpty(b.Resolution),
		b.Description,
		b.URL,
	}
}

// ExportCSV renders bugs as a CSV document with a header row.
func ExportCSV(bugs []domain.Bug) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, b := range bugs {
		if err := w.Write(exportRow(b)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportXLSX renders bugs as a single-sheet Excel workbook.
func ExportXLSX(bugs []domain.Bug) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Bugs")
	if err != nil {
		return nil, err
	}
	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}
	for _, b := range bugs {
		row := sheet.AddRow()
		for _, v := range exportRow(b) {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func fmtInt(d *int) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%d", *d)
}

func fmtFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *f)
}
