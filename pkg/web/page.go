package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-register/pkg/registerform"
	"github.com/tendant/simple-register/pkg/signup"
	"github.com/tendant/simple-register/pkg/uiflags"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Notices shown on the login view after the confirmation callback.
const (
	NoticeConfirmed      = "Sähköpostiosoitteesi on vahvistettu. Voit nyt kirjautua sisään."
	NoticeLinkExpired    = "Vahvistuslinkki on vanhentunut."
	NoticeLinkInvalid    = "Vahvistuslinkki on virheellinen."
	NoticeConfirmFailure = "Vahvistus epäonnistui. Yritä myöhemmin uudelleen."
)

type inputSpec struct {
	Label       string
	Type        string
	Placeholder string
}

var inputs = map[registerform.Field]inputSpec{
	registerform.FieldFirstname:   {Label: "Etunimi", Type: "text", Placeholder: "etunimi"},
	registerform.FieldLastname:    {Label: "Sukunimi", Type: "text", Placeholder: "sukunimi"},
	registerform.FieldEmail:       {Label: "Sähköposti", Type: "email", Placeholder: "oma@sähköposti.fi"},
	registerform.FieldDateOfBirth: {Label: "Syntymäpäivä", Type: "date"},
	registerform.FieldPassword:    {Label: "Salasana", Type: "password", Placeholder: "*************"},
}

type fieldView struct {
	Name        string
	Label       string
	Type        string
	Placeholder string
	Value       string
	HasError    bool
	Error       string
}

type pageData struct {
	Lang        string
	Title       string
	Description string
	Flags       uiflags.Flags
	Outcome     signup.Outcome
	Fields      []fieldView
	Notice      string
}

func (h *Handle) pageData(m *signup.Mount, notice string) pageData {
	values := m.Form.Values()
	fields := make([]fieldView, 0, len(registerform.Fields))
	for _, f := range registerform.Fields {
		in := inputs[f]
		fv := fieldView{
			Name:        string(f),
			Label:       in.Label,
			Type:        in.Type,
			Placeholder: in.Placeholder,
			HasError:    m.Form.FieldHasError(f),
			Error:       m.Form.FieldError(f),
		}
		// the password is never written back into the page
		if f != registerform.FieldPassword {
			fv.Value = values.Get(f)
		}
		fields = append(fields, fv)
	}

	return pageData{
		Lang:        h.lang,
		Title:       h.title,
		Description: h.description,
		Flags:       m.Flags.Snapshot(),
		Outcome:     m.Outcome(),
		Fields:      fields,
		Notice:      notice,
	}
}

func (h *Handle) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		slog.Error("Failed to render page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
