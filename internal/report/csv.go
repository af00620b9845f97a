package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type CSVExporter struct {
	OutputDir string
}

func NewCSVExporter(outputDir string) *CSVExporter {
	return &CSVExporter{OutputDir: outputDir}
}

// Export writes <prefix>_issues.csv and <prefix>_dashboard.csv.
func (e *CSVExporter) Export(summary *Summary, prefix string) error {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := e.exportIssueList(summary, prefix); err != nil {
		return fmt.Errorf("failed to export issue list: %w", err)
	}

	if err := e.exportDashboard(summary, prefix); err != nil {
		return fmt.Errorf("failed to export dashboard: %w", err)
	}

	return nil
}

var issueListHeader = []string{
	"#",
	"Key",
	"Summary",
	"Assignee",
	"Group",
	"Status",
	"Type",
	"Board",
	"Sprint",
	"Date Created",
	"Date Resolved",
	"URL",
}

func (e *CSVExporter) exportIssueList(summary *Summary, prefix string) error {
	filename := filepath.Join(e.OutputDir, prefix+"_issues.csv")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(issueListHeader); err != nil {
		return err
	}

	n := 0
	for _, g := range summary.Groups {
		for _, b := range g.Buckets {
			for _, issue := range b.Issues {
				n++
				if err := writer.Write(issueRow(n, g.Name, b.Assignee, issue)); err != nil {
					return err
				}
			}
		}
	}

	return writer.Error()
}

func issueRow(n int, group, assignee string, issue Issue) []string {
	return []string{
		strconv.Itoa(n),
		issue.Key,
		issue.Summary,
		assignee,
		group,
		issue.Status,
		issue.Type,
		issue.Board,
		issue.Sprint,
		formatDate(issue.Created),
		formatDatePtr(issue.Resolved),
		issue.URL,
	}
}

// exportDashboard writes an assignee x group count matrix.
func (e *CSVExporter) exportDashboard(summary *Summary, prefix string) error {
	filename := filepath.Join(e.OutputDir, prefix+"_dashboard.csv")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Profile:", summary.Profile}); err != nil {
		return err
	}

	matrix := newDashboard(summary)

	header := append([]string{"Assignee"}, matrix.groups...)
	header = append(header, "Total")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, assignee := range matrix.assignees {
		row := []string{assignee}
		for _, count := range matrix.counts[assignee] {
			row = append(row, strconv.Itoa(count))
		}
		row = append(row, strconv.Itoa(matrix.rowTotal(assignee)))
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	totalsRow := []string{"Total"}
	for i := range matrix.groups {
		totalsRow = append(totalsRow, strconv.Itoa(matrix.colTotal(i)))
	}
	totalsRow = append(totalsRow, strconv.Itoa(summary.Total))
	if err := writer.Write(totalsRow); err != nil {
		return err
	}

	return writer.Error()
}

// dashboard is the assignee x group count matrix shared by the CSV and
// Excel exporters.
type dashboard struct {
	groups    []string
	assignees []string
	counts    map[string][]int
}

func newDashboard(summary *Summary) *dashboard {
	d := &dashboard{counts: make(map[string][]int)}

	for _, g := range summary.Groups {
		name := g.Name
		if name == "" {
			name = "Issues"
		}
		d.groups = append(d.groups, name)
	}

	for _, b := range summary.ByAssignee() {
		d.assignees = append(d.assignees, b.Assignee)
		d.counts[b.Assignee] = make([]int, len(summary.Groups))
	}

	for gi, g := range summary.Groups {
		for _, b := range g.Buckets {
			d.counts[b.Assignee][gi] += len(b.Issues)
		}
	}

	return d
}

func (d *dashboard) rowTotal(assignee string) int {
	total := 0
	for _, c := range d.counts[assignee] {
		total += c
	}
	return total
}

func (d *dashboard) colTotal(group int) int {
	total := 0
	for _, assignee := range d.assignees {
		total += d.counts[assignee][group]
	}
	return total
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/06")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/06")
}
