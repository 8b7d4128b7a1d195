package models

// FormEntry is one registrar request form.
type FormEntry struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	URL          string   `yaml:"url" json:"url"`
	Keywords     []string `yaml:"keywords" json:"keywords"`
	TemplatePath string   `yaml:"template,omitempty" json:"-"`
}

// DisplayName is the label used for source records, e.g. "RO.16 คำร้องขอลาป่วย/ลากิจ".
func (f FormEntry) DisplayName() string {
	return f.ID + " " + f.Name
}

func (f FormEntry) HasTemplate() bool {
	return f.TemplatePath != ""
}

type FormSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Keywords    []string `json:"keywords"`
	HasTemplate bool     `json:"has_template"`
}
