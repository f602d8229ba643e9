package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"venuebook/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Confirmation Log"

var columns = []string{
	"Log ID", "Reference", "Event", "Customer", "Email",
	"Contact", "Event Dates", "Confirmed At", "Status",
}

// ExcelWriter renders confirmation-log snapshots to xlsx files under dir.
type ExcelWriter struct {
	dir string
}

func NewExcelWriter(dir string) *ExcelWriter {
	return &ExcelWriter{dir: dir}
}

// Write saves the entries as a dated xlsx file and returns its path.
func (w *ExcelWriter) Write(entries []*models.ConfirmationLogEntry) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, name)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for i, entry := range entries {
		row := i + 2
		values := []interface{}{
			entry.LogID,
			entry.Reference,
			entry.EventType,
			entry.CustomerName,
			entry.Email,
			entry.ContactNumber,
			entry.Interval().DisplayRange(),
			entry.ConfirmedAt.Format("2006-01-02 15:04:05"),
			entry.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "B", 38)
	_ = f.SetColWidth(sheetName, "C", "F", 22)
	_ = f.SetColWidth(sheetName, "G", "H", 26)
	_ = f.SetColWidth(sheetName, "I", "I", 12)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("confirmation_log_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	filePath := filepath.Join(w.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}
	return filePath, nil
}
