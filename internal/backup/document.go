package backup

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/models"
)

// Document is the full-store JSON export.
type Document struct {
	Classes         map[string]ClassDoc          `json:"classes"`
	Holidays        map[string]string            `json:"holidays,omitempty"`
	Defaults        map[string]string            `json:"defaults,omitempty"`
	FormSettings    map[string]map[string]string `json:"form_settings,omitempty"`
	TeacherDefaults map[string]string            `json:"teacher_defaults,omitempty"`
}

type ClassDoc struct {
	Metadata Metadata              `json:"metadata"`
	Students map[string]StudentDoc `json:"students"`
}

// Metadata is every class column plus the scheduled dates.
type Metadata struct {
	models.Class
	Dates     []string          `json:"dates"`
	DateNotes map[string]string `json:"date_notes,omitempty"`
}

// UnmarshalJSON defaults the visibility flags to Yes and archive to No when
// the keys are missing.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	type plain Metadata
	p := plain{Class: models.Class{
		Archive:       models.No,
		ShowNickname:  models.Yes,
		ShowCompanyNo: models.Yes,
		ShowScore:     models.Yes,
		ShowPrestest:  models.Yes,
		ShowPosttest:  models.Yes,
		ShowAttn:      models.Yes,
		ShowP:         models.Yes,
		ShowA:         models.Yes,
		ShowL:         models.Yes,
	}}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = Metadata(p)
	return nil
}

type StudentDoc struct {
	Name       string                   `json:"name"`
	Nickname   string                   `json:"nickname"`
	CompanyNo  string                   `json:"company_no"`
	Gender     string                   `json:"gender"`
	Score      string                   `json:"score"`
	PreTest    string                   `json:"pre_test"`
	PostTest   string                   `json:"post_test"`
	Note       string                   `json:"note"`
	Active     string                   `json:"active"`
	Attendance map[string]models.Status `json:"attendance"`
}

// WriteJSON writes doc as UTF-8 JSON indented with four spaces. Map keys
// come out sorted so equal stores export byte-identical files.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(doc), "encode export")
}

// ReadJSON decodes an export. Malformed input is a Validation error.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperr.NewValidation(apperr.ErrInvalidInput, "import",
			apperr.FieldError{Field: "document", Error: err.Error()})
	}
	if doc.Classes == nil {
		doc.Classes = map[string]ClassDoc{}
	}
	return &doc, nil
}
