package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"hexagono/internal/model"

	"github.com/shopspring/decimal"
)

// Kind names a lifecycle email.
type Kind string

const (
	KindClientCreated Kind = "client_created"
	KindAdminCreated  Kind = "admin_created"
	KindStatusChanged Kind = "status_changed"
	KindReminder      Kind = "reminder"
	KindHighPriority  Kind = "high_priority"
)

// Event is the lifecycle data a template is rendered from.
type Event struct {
	Quote          *model.Quote
	NewStatus      model.QuoteStatus
	PreviousStatus model.QuoteStatus
	Message        string
}

// Contact is the company signature printed on every email.
type Contact struct {
	Company  string
	Email    string
	Phone    string
	WhatsApp string
	Website  string
}

// Renderer maps an event to a message body.
type Renderer interface {
	Render(kind Kind, ev Event) (Message, error)
}

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var subjects = map[Kind]string{
	KindClientCreated: "Recibimos tu solicitud de cotizacion {{.Quote.QuoteNumber}}",
	KindAdminCreated:  "Nueva cotizacion {{.Quote.QuoteNumber}} - {{.Quote.ClientName}}",
	KindStatusChanged: "Tu cotizacion {{.Quote.QuoteNumber}} esta {{statusLabel .NewStatus}}",
	KindReminder:      "Seguimos trabajando en tu cotizacion {{.Quote.QuoteNumber}}",
	KindHighPriority:  "[PRIORIDAD ALTA] Cotizacion {{.Quote.QuoteNumber}} por {{money .Quote.EstimatedPrice}}",
}

// TemplateRenderer renders the embedded templates. It is safe for concurrent use.
type TemplateRenderer struct {
	baseURL string
	contact Contact
	html    *htmltemplate.Template
	text    *texttemplate.Template
	subject map[Kind]*texttemplate.Template
}

// view is what the templates see.
type view struct {
	Event
	TrackingURL string
	Contact     Contact
}

func NewTemplateRenderer(publicBaseURL string, contact Contact) (*TemplateRenderer, error) {
	funcs := map[string]any{
		"money":        FormatMoney,
		"statusLabel":  func(s model.QuoteStatus) string { return strings.ToLower(s.Label()) },
		"serviceLabel": func(s model.ServiceType) string { return s.Label() },
		"date":         func(q *model.Quote) string { return q.CreatedAt.Format("02/01/2006 15:04") },
		"deref":        deref,
	}

	html, err := htmltemplate.New("mail").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("notify: parse html templates: %w", err)
	}
	text, err := texttemplate.New("mail").Funcs(funcs).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("notify: parse text templates: %w", err)
	}
	subject := make(map[Kind]*texttemplate.Template, len(subjects))
	for k, src := range subjects {
		t, err := texttemplate.New(string(k)).Funcs(funcs).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("notify: parse subject %s: %w", k, err)
		}
		subject[k] = t
	}

	return &TemplateRenderer{
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		contact: contact,
		html:    html,
		text:    text,
		subject: subject,
	}, nil
}

// TrackingURL is the client-facing tracking page for token.
func (r *TemplateRenderer) TrackingURL(token string) string {
	return r.baseURL + "/seguimiento/" + token
}

func (r *TemplateRenderer) Render(kind Kind, ev Event) (Message, error) {
	if ev.Quote == nil {
		return Message{}, fmt.Errorf("notify: render %s: nil quote", kind)
	}
	st, ok := r.subject[kind]
	if !ok {
		return Message{}, fmt.Errorf("notify: unknown template %q", kind)
	}
	v := view{Event: ev, TrackingURL: r.TrackingURL(ev.Quote.AccessToken), Contact: r.contact}

	var subj, html, text bytes.Buffer
	if err := st.Execute(&subj, v); err != nil {
		return Message{}, fmt.Errorf("notify: render %s subject: %w", kind, err)
	}
	if err := r.html.ExecuteTemplate(&html, string(kind)+".html", v); err != nil {
		return Message{}, fmt.Errorf("notify: render %s html: %w", kind, err)
	}
	if err := r.text.ExecuteTemplate(&text, string(kind)+".txt", v); err != nil {
		return Message{}, fmt.Errorf("notify: render %s text: %w", kind, err)
	}
	return Message{Subject: subj.String(), HTML: html.String(), Text: text.String()}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FormatMoney renders an amount the way the site shows prices: "$ 1.234.567".
func FormatMoney(d decimal.Decimal) string {
	s := d.Round(0).Abs().String()
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if d.Round(0).IsNegative() {
		return "$ -" + b.String()
	}
	return "$ " + b.String()
}
