package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"regis_chat_backend/utils"
)

const (
	DocxMediaType    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	FieldPlaceholder = "...................."
	unknownStudentID = "unknown"
)

var (
	ErrUnknownFormType = errors.New("unknown form type")
	ErrTemplateMissing = errors.New("template missing")
	ErrRender          = errors.New("render failed")
)

// FillError carries the message shown to API callers; errors.Is matches
// the wrapped sentinel.
type FillError struct {
	Kind   error
	Detail string
}

func (e *FillError) Error() string { return e.Detail }
func (e *FillError) Unwrap() error { return e.Kind }

// placeholderPattern matches {{ key }} even when Word has split the braces
// and the key across several runs.
var (
	placeholderPattern = regexp.MustCompile(`\{(?:<[^>]*>)*\{((?:<[^>]*>|[^{}<])*?)\}(?:<[^>]*>)*\}`)
	xmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

// slotAliases lists the named slots and the request keys that feed them,
// first non-empty wins.
var slotAliases = []struct {
	slot string
	keys []string
}{
	{"student_id", []string{"studentId", "student_id"}},
	{"student_name", []string{"name", "student_name"}},
	{"faculty", []string{"faculty"}},
	{"department", []string{"department"}},
	{"year", []string{"year"}},
	{"phone", []string{"student_tel", "phone_mobile", "phone"}},
	{"reason", []string{"draft_reason", "reason"}},
	{"request_subject", []string{"draft_subject", "request_subject"}},
}

type FillOptions struct {
	DefaultFormID string
	Strict        bool
	Semester      string
}

type FilledDocument struct {
	FormID    string
	StudentID string
	Filename  string
	MediaType string
	Content   []byte
	FellBack  bool
	Values    map[string]string
}

// DocumentFiller renders registry templates with caller supplied fields.
type DocumentFiller struct {
	registry *FormRegistry
	store    *TemplateStore
	opts     FillOptions
}

func NewDocumentFiller(registry *FormRegistry, store *TemplateStore, opts FillOptions) *DocumentFiller {
	return &DocumentFiller{registry: registry, store: store, opts: opts}
}

// Fill picks the template for the request's form type and renders it.
func (f *DocumentFiller) Fill(fields map[string]any) (*FilledDocument, error) {
	values := stringFields(fields)
	rawType := firstNonEmpty(values, "formType", "form_type", "form_id")

	entry, fellBack, err := f.resolveForm(rawType)
	if err != nil {
		return nil, err
	}

	data, err := f.store.Load(entry.TemplatePath)
	if err != nil {
		return nil, &FillError{Kind: ErrTemplateMissing, Detail: "Server Missing File: " + f.store.Path(entry.TemplatePath)}
	}

	studentID := firstNonEmpty(values, "studentId", "student_id")
	mapping := f.buildMapping(values, entry.ID, entry.Name)

	content, err := renderDocx(data, mapping)
	if err != nil {
		return nil, &FillError{Kind: ErrRender, Detail: err.Error()}
	}

	fileStudent := utils.SanitizeFilename(studentID)
	if fileStudent == "" {
		fileStudent = unknownStudentID
	}
	return &FilledDocument{
		FormID:    entry.ID,
		StudentID: studentID,
		Filename:  fmt.Sprintf("Filled_%s_%s.docx", entry.ID, fileStudent),
		MediaType: DocxMediaType,
		Content:   content,
		FellBack:  fellBack,
		Values:    mapping,
	}, nil
}

func (f *DocumentFiller) resolveForm(rawType string) (entry formWithTemplate, fellBack bool, err error) {
	if e, ok := f.registry.Get(rawType); ok && e.HasTemplate() {
		return formWithTemplate{ID: e.ID, Name: e.Name, TemplatePath: e.TemplatePath}, false, nil
	}
	notFound := &FillError{Kind: ErrUnknownFormType, Detail: "ไม่พบแม่แบบเอกสารสำหรับ " + rawType}
	if f.opts.Strict {
		return formWithTemplate{}, false, notFound
	}
	e, ok := f.registry.Get(f.opts.DefaultFormID)
	if !ok || !e.HasTemplate() {
		return formWithTemplate{}, false, notFound
	}
	return formWithTemplate{ID: e.ID, Name: e.Name, TemplatePath: e.TemplatePath}, true, nil
}

type formWithTemplate struct {
	ID           string
	Name         string
	TemplatePath string
}

// buildMapping fills the named slots, lets every non-empty caller field
// through, and puts the placeholder into whatever is still blank. The
// resolved form and the configured semester always win over caller fields.
func (f *DocumentFiller) buildMapping(values map[string]string, formID, formName string) map[string]string {
	mapping := map[string]string{}
	for _, a := range slotAliases {
		mapping[a.slot] = firstNonEmpty(values, a.keys...)
	}
	for k, v := range values {
		if v != "" {
			mapping[k] = v
		}
	}
	mapping["form_id"] = formID
	mapping["form_name"] = formName
	if f.opts.Semester != "" {
		mapping["semester"] = f.opts.Semester
	} else if _, ok := mapping["semester"]; !ok {
		mapping["semester"] = ""
	}
	for k, v := range mapping {
		if strings.TrimSpace(v) == "" {
			mapping[k] = FieldPlaceholder
		}
	}
	return mapping
}

func renderDocx(template []byte, mapping map[string]string) ([]byte, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer r.Close()

	doc := r.Editable()
	doc.SetContent(renderPlaceholders(doc.GetContent(), mapping))

	// headers and footers only support the unsplit spellings
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, spelling := range []string{"{{" + k + "}}", "{{ " + k + " }}"} {
			if err := doc.ReplaceHeader(spelling, mapping[k]); err != nil {
				return nil, err
			}
			if err := doc.ReplaceFooter(spelling, mapping[k]); err != nil {
				return nil, err
			}
		}
	}

	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return out.Bytes(), nil
}

// renderPlaceholders substitutes every placeholder in document XML. Markup
// found inside a split placeholder is kept after the value so runs stay balanced.
func renderPlaceholders(content string, mapping map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		tags := strings.Join(xmlTagPattern.FindAllString(match, -1), "")
		inner := placeholderPattern.FindStringSubmatch(match)[1]
		key := strings.TrimSpace(xmlTagPattern.ReplaceAllString(inner, ""))
		value, ok := mapping[key]
		if !ok {
			value = FieldPlaceholder
		}
		return escapeRunText(value) + tags
	})
}

func escapeRunText(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	out := b.String()
	out = strings.ReplaceAll(out, "&#xD;&#xA;", "\n")
	out = strings.ReplaceAll(out, "&#xD;", "\n")
	out = strings.ReplaceAll(out, "&#xA;", "\n")
	return strings.ReplaceAll(out, "\n", `</w:t>`+docx.NEWLINE+`<w:t xml:space="preserve">`)
}

// stringFields flattens a decoded JSON body to strings; nested values are dropped.
func stringFields(fields map[string]any) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case string:
			out[k] = strings.TrimSpace(t)
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		case fmt.Stringer:
			out[k] = t.String()
		}
	}
	return out
}

func firstNonEmpty(values map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := values[k]; v != "" {
			return v
		}
	}
	return ""
}
