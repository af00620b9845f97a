package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type ExcelExporter struct {
	OutputDir string
}

func NewExcelExporter(outputDir string) *ExcelExporter {
	return &ExcelExporter{OutputDir: outputDir}
}

// Export writes <prefix>.xlsx with a Dashboard sheet and one sheet per
// status group.
func (e *ExcelExporter) Export(summary *Summary, prefix string) (string, error) {
	filename := filepath.Join(e.OutputDir, prefix+".xlsx")

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newSheetStyles(f)
	if err != nil {
		return "", fmt.Errorf("failed to create styles: %w", err)
	}

	if err := e.createDashboardSheet(f, "Dashboard", summary, styles); err != nil {
		return "", fmt.Errorf("failed to create dashboard: %w", err)
	}

	used := map[string]bool{"Dashboard": true}
	for _, g := range summary.Groups {
		name := g.Name
		if name == "" {
			name = "Issues"
		}
		sheetName := uniqueSheetName(sanitizeSheetName(name), used)
		if err := e.createGroupSheet(f, sheetName, g, styles); err != nil {
			return "", fmt.Errorf("failed to create sheet for %s: %w", name, err)
		}
	}

	if idx, err := f.GetSheetIndex("Dashboard"); err == nil {
		f.SetActiveSheet(idx)
	}
	// the default sheet is empty once the dashboard exists
	_ = f.DeleteSheet("Sheet1")

	if err := f.SaveAs(filename); err != nil {
		return "", fmt.Errorf("failed to save excel file: %w", err)
	}

	return filename, nil
}

type sheetStyles struct {
	header int
	total  int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}

	total, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#B4C7E7"}, Pattern: 1},
		Font:   &excelize.Font{Bold: true},
		Border: border,
	})
	if err != nil {
		return nil, err
	}

	return &sheetStyles{header: header, total: total}, nil
}

func (e *ExcelExporter) createDashboardSheet(f *excelize.File, sheetName string, summary *Summary, styles *sheetStyles) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	matrix := newDashboard(summary)

	f.SetCellValue(sheetName, "A1", "Profile:")
	f.SetCellValue(sheetName, "B1", summary.Profile)
	if len(summary.Sprints) > 0 {
		f.SetCellValue(sheetName, "A2", "Sprints:")
		f.SetCellValue(sheetName, "B2", strings.Join(summary.Sprints, ", "))
	}

	row := 4
	headers := append([]string{"Assignee"}, matrix.groups...)
	headers = append(headers, "Total")
	for i, h := range headers {
		cell := cellName(i+1, row)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, styles.header)
	}
	row++

	for _, assignee := range matrix.assignees {
		f.SetCellValue(sheetName, cellName(1, row), assignee)
		for i, count := range matrix.counts[assignee] {
			f.SetCellValue(sheetName, cellName(i+2, row), count)
		}
		f.SetCellValue(sheetName, cellName(len(headers), row), matrix.rowTotal(assignee))
		row++
	}

	f.SetCellValue(sheetName, cellName(1, row), "Total")
	for i := range matrix.groups {
		f.SetCellValue(sheetName, cellName(i+2, row), matrix.colTotal(i))
	}
	f.SetCellValue(sheetName, cellName(len(headers), row), summary.Total)
	f.SetCellStyle(sheetName, cellName(1, row), cellName(len(headers), row), styles.total)

	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", columnLetter(len(headers)), 15)

	return nil
}

func (e *ExcelExporter) createGroupSheet(f *excelize.File, sheetName string, g Group, styles *sheetStyles) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	for col, header := range issueListHeader {
		cell := cellName(col+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, styles.header)
	}

	row := 2
	for _, b := range g.Buckets {
		for _, issue := range b.Issues {
			for col, value := range issueRow(row-1, g.Name, b.Assignee, issue) {
				f.SetCellValue(sheetName, cellName(col+1, row), value)
			}
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "A", 5)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 50)
	f.SetColWidth(sheetName, "D", "I", 20)
	f.SetColWidth(sheetName, "J", "K", 15)
	f.SetColWidth(sheetName, "L", "L", 40)

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

func columnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

func sanitizeSheetName(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, "?", "")
	name = strings.ReplaceAll(name, "*", "")
	name = strings.ReplaceAll(name, ":", "-")
	name = strings.ReplaceAll(name, "[", "(")
	name = strings.ReplaceAll(name, "]", ")")

	if len(name) > 31 {
		name = name[:31]
	}

	return name
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)] || used[candidate]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := name
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		candidate = base + suffix
	}
	used[candidate] = true
	used[strings.ToLower(candidate)] = true
	return candidate
}
