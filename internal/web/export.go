package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/weblearn/internal/progression"
)

const (
	progressSheet = "Progress"
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleProgressExport(w http.ResponseWriter, r *http.Request) {
	course, err := s.course(r.PathValue("courseID"))
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := buildProgressWorkbook(s.engine.View(r.Context(), course))
	if err != nil {
		writeError(w, fmt.Errorf("build workbook: %w", err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-progress.xlsx"`, course.ID))
	if err := f.Write(w); err != nil {
		slog.Error("failed to write workbook", "course_id", course.ID, "error", err)
	}
}

// buildProgressWorkbook lays out one row per lesson in navigation order
// followed by a summary row.
func buildProgressWorkbook(view progression.CourseView) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", progressSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := []any{"#", "Section", "Lesson ID", "Lesson", "Completed"}
	if err := f.SetSheetRow(progressSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(progressSheet, "A1", "E1", bold); err != nil {
		f.Close()
		return nil, err
	}

	row := 2
	for i, l := range progression.FlattenView(view) {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := []any{i + 1, view.Sections[l.SectionIndex].Title, l.ID, l.Title, yesNo(l.Completed)}
		if err := f.SetSheetRow(progressSheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
		row++
	}

	p := progression.ComputeProgress(view.Sections)
	cell, err := excelize.CoordinatesToCellName(4, row)
	if err != nil {
		f.Close()
		return nil, err
	}
	summary := []any{"Progress", fmt.Sprintf("%d/%d (%d%%)", p.CompletedCount, p.TotalCount, p.Percentage)}
	if err := f.SetSheetRow(progressSheet, cell, &summary); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetColWidth(progressSheet, "B", "D", 32); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
