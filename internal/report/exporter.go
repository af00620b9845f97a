package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed "templates"
var templateFS embed.FS

type Exporter struct {
	OutputDir string
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{OutputDir: outputDir}
}

type jsonDigest struct {
	GeneratedAt time.Time `json:"generated_at"`
	Summary     *Summary  `json:"summary"`
	Text        string    `json:"text"`
}

func (e *Exporter) ExportJSON(summary *Summary, text, filename string) error {
	data, err := json.MarshalIndent(jsonDigest{
		GeneratedAt: time.Now(),
		Summary:     summary,
		Text:        text,
	}, "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(e.OutputDir, filename), data, 0644)
}

func (e *Exporter) ExportHTML(summary *Summary, stats map[string]any, profile Profile, filename string) error {
	funcMap := template.FuncMap{
		"title": cases.Title(language.English).String,
	}
	tmpl, err := template.New("digest.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/digest.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	outputPath := filepath.Join(e.OutputDir, filename)
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create HTML file: %w", err)
	}
	defer f.Close()

	data := map[string]any{
		"Date":        time.Now().Format("2006-01-02 15:04:05"),
		"Profile":     profile.Name,
		"Description": profile.Description,
		"Summary":     summary,
		"Stats":       stats,
	}

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}

	return nil
}
