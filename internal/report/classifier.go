package report

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const Unassigned = "Unassigned"

type Bucket struct {
	Assignee string  `json:"assignee"`
	Issues   []Issue `json:"issues"`
}

func (b Bucket) Keys() []string {
	keys := make([]string, len(b.Issues))
	for i, issue := range b.Issues {
		keys[i] = issue.Key
	}
	return keys
}

type Group struct {
	Name    string   `json:"name"`
	Buckets []Bucket `json:"buckets"`
}

func (g Group) Count() int {
	n := 0
	for _, b := range g.Buckets {
		n += len(b.Issues)
	}
	return n
}

type Summary struct {
	Profile string   `json:"profile"`
	Groups  []Group  `json:"groups"`
	Sprints []string `json:"sprints,omitempty"`
	Total   int      `json:"total"`
}

func (s *Summary) Empty() bool {
	return s == nil || s.Total == 0
}

// ByAssignee merges all groups into one bucket per assignee. Keys keep group
// order within each assignee.
func (s *Summary) ByAssignee() []Bucket {
	var merged []Bucket
	index := make(map[string]int)

	for _, g := range s.Groups {
		for _, b := range g.Buckets {
			i, ok := index[b.Assignee]
			if !ok {
				i = len(merged)
				index[b.Assignee] = i
				merged = append(merged, Bucket{Assignee: b.Assignee})
			}
			merged[i].Issues = append(merged[i].Issues, b.Issues...)
		}
	}
	sortBuckets(merged)
	return merged
}

// Classifier buckets issues by status group and assignee according to a
// Profile.
type Classifier struct {
	profile  Profile
	types    map[string]bool
	statuses map[string]int
}

func NewClassifier(p Profile) *Classifier {
	c := &Classifier{
		profile:  p,
		types:    make(map[string]bool),
		statuses: make(map[string]int),
	}

	for _, t := range p.IssueTypes {
		c.types[normalizeStatus(t)] = true
	}

	for i, g := range p.Groups {
		for _, s := range g.Statuses {
			key := normalizeStatus(s)
			// first group listing a status wins
			if _, ok := c.statuses[key]; !ok {
				c.statuses[key] = i
			}
		}
	}

	return c
}

// groupFor returns the index of the group the status belongs to in the
// classifier's group list, or -1 when the issue is dropped.
func (c *Classifier) groupFor(status string) int {
	if len(c.profile.Groups) == 0 {
		return 0
	}
	if i, ok := c.statuses[normalizeStatus(status)]; ok {
		return i
	}
	if c.profile.OtherGroup != "" {
		return len(c.profile.Groups)
	}
	return -1
}

func (c *Classifier) groupNames() []string {
	if len(c.profile.Groups) == 0 {
		return []string{""}
	}
	names := make([]string, 0, len(c.profile.Groups)+1)
	for _, g := range c.profile.Groups {
		names = append(names, g.Name)
	}
	if c.profile.OtherGroup != "" {
		names = append(names, c.profile.OtherGroup)
	}
	return names
}

func (c *Classifier) Classify(issues []Issue) *Summary {
	names := c.groupNames()
	groups := make([]Group, len(names))
	bucketIndex := make([]map[string]int, len(names))
	for i, name := range names {
		groups[i] = Group{Name: name}
		bucketIndex[i] = make(map[string]int)
	}

	seen := make(map[string]bool)
	sprintSeen := make(map[string]bool)
	var sprints []string
	total := 0

	for _, issue := range issues {
		if issue.Key == "" || seen[issue.Key] {
			continue
		}

		if len(c.types) > 0 && !c.types[normalizeStatus(issue.Type)] {
			continue
		}

		gi := c.groupFor(issue.Status)
		if gi < 0 {
			continue
		}

		assignee := strings.TrimSpace(issue.Assignee)
		if assignee == "" {
			if !c.profile.IncludeUnassigned {
				continue
			}
			assignee = Unassigned
		}

		seen[issue.Key] = true
		total++

		bi, ok := bucketIndex[gi][assignee]
		if !ok {
			bi = len(groups[gi].Buckets)
			bucketIndex[gi][assignee] = bi
			groups[gi].Buckets = append(groups[gi].Buckets, Bucket{Assignee: assignee})
		}
		groups[gi].Buckets[bi].Issues = append(groups[gi].Buckets[bi].Issues, issue)

		if issue.Sprint != "" && !sprintSeen[issue.Sprint] {
			sprintSeen[issue.Sprint] = true
			sprints = append(sprints, issue.Sprint)
		}
	}

	summary := &Summary{
		Profile: c.profile.Name,
		Sprints: sprints,
		Total:   total,
	}

	for _, g := range groups {
		if len(g.Buckets) == 0 {
			continue
		}
		sortBuckets(g.Buckets)
		summary.Groups = append(summary.Groups, g)
	}

	return summary
}

// sortBuckets orders assignees by collation with the Unassigned bucket last.
func sortBuckets(buckets []Bucket) {
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(buckets, func(i, j int) bool {
		a, b := buckets[i].Assignee, buckets[j].Assignee
		if a == Unassigned || b == Unassigned {
			return b == Unassigned && a != Unassigned
		}
		return col.CompareString(a, b) < 0
	})
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	status = strings.ReplaceAll(status, "_", " ")
	return status
}
