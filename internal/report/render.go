package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Renderer turns a Summary into Slack mrkdwn text.
type Renderer struct {
	profile Profile
	title   cases.Caser
}

func NewRenderer(p Profile) *Renderer {
	return &Renderer{
		profile: p,
		title:   cases.Title(language.English),
	}
}

func (r *Renderer) Render(s *Summary) string {
	if s.Empty() {
		return r.profile.Empty
	}

	var b strings.Builder
	b.WriteString(r.profile.Header)
	b.WriteString("\n")
	if len(s.Sprints) > 0 {
		fmt.Fprintf(&b, "_Sprints: %s_\n", strings.Join(s.Sprints, ", "))
	}
	b.WriteString("\n")

	switch r.profile.Format {
	case FormatSections:
		r.renderSections(&b, s)
	default:
		r.renderList(&b, s)
	}

	return b.String()
}

func (r *Renderer) renderList(b *strings.Builder, s *Summary) {
	for _, bucket := range s.ByAssignee() {
		fmt.Fprintf(b, "*%s*: %s\n", bucket.Assignee, r.keys(bucket))
	}
}

func (r *Renderer) renderSections(b *strings.Builder, s *Summary) {
	for i, g := range s.Groups {
		if i > 0 {
			b.WriteString("\n")
		}
		name := g.Name
		if name == "" {
			name = "Issues"
		}
		fmt.Fprintf(b, "*%s* (%d)\n", r.title.String(name), g.Count())
		for _, bucket := range g.Buckets {
			fmt.Fprintf(b, "• %s: %s\n", bucket.Assignee, r.keys(bucket))
		}
	}
}

func (r *Renderer) keys(bucket Bucket) string {
	if !r.profile.LinkKeys {
		return strings.Join(bucket.Keys(), ", ")
	}

	links := make([]string, len(bucket.Issues))
	for i, issue := range bucket.Issues {
		if issue.URL == "" {
			links[i] = issue.Key
			continue
		}
		links[i] = fmt.Sprintf("<%s|%s>", issue.URL, issue.Key)
	}
	return strings.Join(links, ", ")
}
