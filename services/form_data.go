package services

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"regis_chat_backend/models"
)

var formDataMarker = regexp.MustCompile(`\[\[\s*FORM_DATA\s*:`)

// ParseFormData extracts the last [[FORM_DATA: {...}]] block of a model
// reply. It returns nil when there is no block or its JSON cannot be read.
// registry may be nil; otherwise form_id is canonicalised through it.
func ParseFormData(reply string, registry *FormRegistry) *models.DraftPayload {
	locs := formDataMarker.FindAllStringIndex(reply, -1)
	if len(locs) == 0 {
		return nil
	}
	rest := reply[locs[len(locs)-1][1]:]
	start := strings.IndexByte(rest, '{')
	if start < 0 {
		return nil
	}
	end := matchBrace(rest, start)
	if end < 0 {
		return nil
	}
	raw := stripTrailingCommas(rest[start : end+1])

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil
	}
	return draftFromFields(fields, registry)
}

func draftFromFields(fields map[string]any, registry *FormRegistry) *models.DraftPayload {
	d := &models.DraftPayload{}
	for key, v := range fields {
		s, ok := scalarString(v)
		if !ok {
			continue
		}
		switch key {
		case "form_id":
			d.FormID = s
		case "formType", "form_type":
			if _, has := fields["form_id"]; !has {
				d.FormID = s
			}
		case "draft_subject":
			d.DraftSubject = s
		case "draft_reason":
			d.DraftReason = s
		case "student_id", "studentId":
			d.StudentID = s
		case "name", "student_name":
			d.Name = s
		case "faculty":
			d.Faculty = s
		case "department":
			d.Department = s
		case "year":
			d.Year = s
		default:
			if d.Extra == nil {
				d.Extra = map[string]string{}
			}
			d.Extra[key] = s
		}
	}
	if registry != nil && d.FormID != "" {
		if id, ok := registry.Normalize(d.FormID); ok {
			d.FormID = id
		}
	}
	return d
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// matchBrace returns the index of the brace closing the one at open,
// ignoring braces inside JSON strings, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripTrailingCommas removes commas that directly precede a closing
// bracket outside of strings.
func stripTrailingCommas(s string) []byte {
	out := make([]byte, 0, len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			out = append(out, c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
