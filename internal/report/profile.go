package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Afrawles/sprintdigest/internal/schedule"
)

const (
	FormatList     = "list"
	FormatSections = "sections"
)

var ErrUnknownProfile = errors.New("unknown profile")

// StatusGroup names a bucket of workflow statuses, e.g. "In Review" for
// {"In Review", "Code Review"}.
type StatusGroup struct {
	Name     string   `yaml:"name" json:"name"`
	Statuses []string `yaml:"statuses" json:"statuses"`
}

// Profile is one flavour of digest: when it runs, what it asks Jira for,
// how issues are bucketed and how the text is laid out.
type Profile struct {
	Name              string        `yaml:"name" json:"name"`
	Description       string        `yaml:"description" json:"description"`
	Days              []string      `yaml:"days" json:"days"`
	Mode              string        `yaml:"mode" json:"mode"`
	JQL               string        `yaml:"jql" json:"jql"`
	IssueTypes        []string      `yaml:"issue_types" json:"issue_types"`
	Groups            []StatusGroup `yaml:"groups" json:"groups"`
	OtherGroup        string        `yaml:"other_group" json:"other_group"`
	IncludeUnassigned bool          `yaml:"include_unassigned" json:"include_unassigned"`
	Format            string        `yaml:"format" json:"format"`
	Header            string        `yaml:"header" json:"header"`
	Empty             string        `yaml:"empty" json:"empty"`
	LinkKeys          bool          `yaml:"link_keys" json:"link_keys"`
}

func (p Profile) Validate() error {
	switch p.Format {
	case FormatList, FormatSections:
	default:
		return fmt.Errorf("profile %s: unknown format %q", p.Name, p.Format)
	}

	switch p.Mode {
	case ModeBoard, ModeSprint:
	default:
		return fmt.Errorf("profile %s: unknown mode %q", p.Name, p.Mode)
	}

	if _, err := schedule.ParseWeekdays(p.Days); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}

	if p.Header == "" {
		return fmt.Errorf("profile %s: header is required", p.Name)
	}

	for _, g := range p.Groups {
		if g.Name == "" {
			return fmt.Errorf("profile %s: status group without a name", p.Name)
		}
	}

	return nil
}

// Query builds the fetch query for this profile.
func (p Profile) Query(boardIDs []int) Query {
	q := Query{
		JQL:      p.JQL,
		Mode:     p.Mode,
		BoardIDs: boardIDs,
	}
	// only scrum boards have sprints
	if p.Mode == ModeSprint {
		q.BoardType = "scrum"
	}
	return q
}

var builtinProfiles = []Profile{
	{
		Name:        "weekly",
		Description: "Completed stories in active sprints, posted on Fridays",
		Days:        []string{"fri"},
		Mode:        ModeBoard,
		JQL:         "issuetype=Story AND status=Complete AND Sprint in openSprints() AND resolved >= -7d",
		IssueTypes:  []string{"Story"},
		Groups: []StatusGroup{
			{Name: "Complete", Statuses: []string{"Complete"}},
		},
		Format: FormatList,
		Header: "*📦 Weekly Jira Summary (Completed Stories in Active Sprints)*",
		Empty:  "📦 No completed stories found in active sprints this week.",
	},
	{
		Name:        "daily",
		Description: "Status breakdown of every active sprint, posted on weekdays",
		Days:        []string{"weekdays"},
		Mode:        ModeSprint,
		JQL:         "Sprint in openSprints()",
		Groups: []StatusGroup{
			{Name: "To Do", Statuses: []string{"To Do", "Open", "Backlog", "Selected for Development"}},
			{Name: "In Progress", Statuses: []string{"In Progress", "In Development"}},
			{Name: "In Review", Statuses: []string{"In Review", "Code Review", "Review", "QA"}},
			{Name: "Blocked", Statuses: []string{"Blocked", "On Hold"}},
			{Name: "Done", Statuses: []string{"Done", "Complete", "Closed", "Resolved"}},
		},
		OtherGroup: "Other",
		Format:     FormatSections,
		Header:     "*🗓️ Daily Sprint Status*",
		Empty:      "🗓️ No issues found in active sprints today.",
		LinkKeys:   true,
	},
	{
		Name:        "carryover",
		Description: "Unfinished work in active sprints, posted on Mondays",
		Days:        []string{"mon"},
		Mode:        ModeBoard,
		JQL:         "Sprint in openSprints() AND statusCategory != Done",
		IssueTypes:  []string{"Story", "Task", "Bug"},
		Groups: []StatusGroup{
			{Name: "To Do", Statuses: []string{"To Do", "Open", "Selected for Development"}},
			{Name: "In Progress", Statuses: []string{"In Progress", "In Development"}},
			{Name: "In Review", Statuses: []string{"In Review", "Code Review", "Review", "QA"}},
			{Name: "Blocked", Statuses: []string{"Blocked", "On Hold"}},
		},
		Format: FormatList,
		Header: "*🔁 Open Work in Active Sprints*",
		Empty:  "🔁 Nothing left open in active sprints.",
	},
}

// BuiltinProfiles returns a copy of the profiles shipped with the binary,
// keyed by name.
func BuiltinProfiles() map[string]Profile {
	profiles := make(map[string]Profile, len(builtinProfiles))
	for _, p := range builtinProfiles {
		profiles[p.Name] = p
	}
	return profiles
}

// LookupProfile finds name in profiles.
func LookupProfile(profiles map[string]Profile, name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (available: %v)", ErrUnknownProfile, name, ProfileNames(profiles))
	}
	return p, nil
}

func ProfileNames(profiles map[string]Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
