// Package authority maps issue types to the department that owns them
// the mapping is static, loaded once at start and read only afterwards
package authority

import (
	"fmt"
	"os"
	"sort"

	"mdms/internal/core/issuetype"

	"gopkg.in/yaml.v3"
)

// Unassigned is the authority for issue types with no mapping
const Unassigned = "unassigned"

// Mapping is an immutable issue type to authority lookup
type Mapping struct {
	m map[issuetype.Type]string
}

// Entry is one row of the mapping as served by the api
type Entry struct {
	IssueType issuetype.Type `json:"issue_type" yaml:"issue_type"`
	Authority string         `json:"authority" yaml:"authority"`
}

// Default is the built in mapping
func Default() Mapping {
	return New(map[issuetype.Type]string{
		issuetype.Pathholes:    "Roads Department",
		issuetype.Garbage:      "Sanitation Department",
		issuetype.StreetDebris: "Municipal Corporation",
	})
}

// New copies m into a Mapping
func New(m map[issuetype.Type]string) Mapping {
	cp := make(map[issuetype.Type]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Mapping{m: cp}
}

// For returns the authority for t, Unassigned when unmapped
func (m Mapping) For(t issuetype.Type) string {
	if a, ok := m.m[t]; ok && a != "" {
		return a
	}
	return Unassigned
}

// Entries lists every mapped issue type sorted by name
func (m Mapping) Entries() []Entry {
	out := make([]Entry, 0, len(m.m))
	for k, v := range m.m {
		out = append(out, Entry{IssueType: k, Authority: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueType < out[j].IssueType })
	return out
}

// fileFormat is the yaml document shape
//
//	authorities:
//	  - issue_type: pothole
//	    authority: Roads Department
type fileFormat struct {
	Authorities []Entry `yaml:"authorities"`
}

// Parse reads a yaml mapping, issue types go through the same folding as detector labels
func Parse(b []byte) (Mapping, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Mapping{}, fmt.Errorf("authority: parse: %w", err)
	}
	m := make(map[issuetype.Type]string, len(doc.Authorities))
	for i, e := range doc.Authorities {
		t, ok := issuetype.Parse(string(e.IssueType))
		if !ok {
			return Mapping{}, fmt.Errorf("authority: entry %d: unknown issue type %q", i, e.IssueType)
		}
		if e.Authority == "" {
			return Mapping{}, fmt.Errorf("authority: entry %d: empty authority for %s", i, t)
		}
		if prev, dup := m[t]; dup && prev != e.Authority {
			return Mapping{}, fmt.Errorf("authority: %s mapped twice (%q, %q)", t, prev, e.Authority)
		}
		m[t] = e.Authority
	}
	return New(m), nil
}

// Load reads path when set, otherwise returns Default
func Load(path string) (Mapping, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("authority: read %s: %w", path, err)
	}
	return Parse(b)
}
