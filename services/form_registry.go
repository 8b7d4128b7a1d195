package services

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"regis_chat_backend/models"
)

//go:embed data/forms.yaml
var formsYAML []byte

// Thai abbreviation used on paper forms for the RO series.
const thaiROPrefix = "สทน"

var formIDPattern = regexp.MustCompile(`^(\p{L}+?)\.?(\d{1,3})$`)

// FormRegistry is the immutable table of registrar forms.
type FormRegistry struct {
	entries []models.FormEntry
	byID    map[string]int
}

// LoadFormRegistry parses the embedded form table.
func LoadFormRegistry() (*FormRegistry, error) {
	var entries []models.FormEntry
	if err := yaml.Unmarshal(formsYAML, &entries); err != nil {
		return nil, fmt.Errorf("parse form registry: %w", err)
	}
	return NewFormRegistry(entries)
}

func NewFormRegistry(entries []models.FormEntry) (*FormRegistry, error) {
	r := &FormRegistry{
		entries: make([]models.FormEntry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" || e.URL == "" {
			return nil, fmt.Errorf("form entry %q: id and url are required", e.Name)
		}
		key := strings.ToUpper(e.ID)
		if _, dup := r.byID[key]; dup {
			return nil, fmt.Errorf("duplicate form id %s", e.ID)
		}
		r.byID[key] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Lookup returns every entry whose id, name or keyword occurs in the query,
// compared case-insensitively, in registry order.
func (r *FormRegistry) Lookup(query string) []models.FormEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var res []models.FormEntry
	for _, e := range r.entries {
		if matchesEntry(q, e) {
			res = append(res, e)
		}
	}
	return res
}

func matchesEntry(q string, e models.FormEntry) bool {
	if strings.Contains(q, strings.ToLower(e.ID)) || strings.Contains(q, strings.ToLower(e.Name)) {
		return true
	}
	for _, kw := range e.Keywords {
		if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Normalize maps loose spellings such as "ro-16", "RO16" or "สทน.16" to the
// canonical id. The boolean is false when no registry entry matches.
func (r *FormRegistry) Normalize(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	s = strings.NewReplacer("-", ".", "_", ".", " ", ".").Replace(s)
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", ".")
	}
	if i, ok := r.byID[s]; ok {
		return r.entries[i].ID, true
	}
	m := formIDPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	prefix, num := m[1], m[2]
	if prefix == thaiROPrefix {
		prefix = "RO"
	}
	if len(num) == 1 {
		num = "0" + num
	}
	if i, ok := r.byID[prefix+"."+num]; ok {
		return r.entries[i].ID, true
	}
	return "", false
}

// Get returns the entry for a (possibly loosely spelled) form id.
func (r *FormRegistry) Get(id string) (models.FormEntry, bool) {
	canonical, ok := r.Normalize(id)
	if !ok {
		return models.FormEntry{}, false
	}
	return r.entries[r.byID[strings.ToUpper(canonical)]], true
}

// FindSource returns the first entry whose URL appears in the stored file
// reference or the passage text, or whose id appears in the passage text.
func (r *FormRegistry) FindSource(file, text string) (models.FormEntry, bool) {
	for _, e := range r.entries {
		if file != "" && strings.Contains(file, e.URL) {
			return e, true
		}
		if strings.Contains(text, e.URL) || strings.Contains(text, e.ID) {
			return e, true
		}
	}
	return models.FormEntry{}, false
}

func (r *FormRegistry) All() []models.FormEntry {
	out := make([]models.FormEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *FormRegistry) Summaries() []models.FormSummary {
	out := make([]models.FormSummary, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, models.FormSummary{
			ID:          e.ID,
			Name:        e.Name,
			URL:         e.URL,
			Keywords:    e.Keywords,
			HasTemplate: e.HasTemplate(),
		})
	}
	return out
}

// ListText renders the registry as the reference list embedded in the system prompt.
func (r *FormRegistry) ListText() string {
	var b strings.Builder
	for _, e := range r.entries {
		fmt.Fprintf(&b, "- %s ใช้ฟอร์มรหัส: %s\n", e.Name, e.ID)
	}
	return b.String()
}

// URLs lists every form document URL in registry order.
func (r *FormRegistry) URLs() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.URL)
	}
	return out
}
