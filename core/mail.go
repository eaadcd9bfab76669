package core

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/iesahq/portal/fs"
)

var (
	textTemplates *texttmpl.Template
	htmlTemplates *htmltmpl.Template
	tmplInit      sync.Once
	tmplInitErr   error
)

type (
	// EmailMessage is a renderable email. Either BodyStr or TemplateName must be set;
	// templated contents are rendered into TextContent/HTMLContent by Render.
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData wraps template data with site-wide context.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func parseEmailTemplates() error {
	tmplInit.Do(func() {
		textTemplates, tmplInitErr = texttmpl.ParseFS(appfs.FS, "templates/*.txt")
		if tmplInitErr != nil {
			tmplInitErr = errors.Wrap(tmplInitErr, "parsing text templates")
			return
		}
		htmlTemplates, tmplInitErr = htmltmpl.ParseFS(appfs.FS, "templates/*.html")
		if tmplInitErr != nil {
			tmplInitErr = errors.Wrap(tmplInitErr, "parsing html templates")
		}
	})
	return tmplInitErr
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.BodyStr != "" || m.TextContent != "" || m.HTMLContent != ""
}

// Render renders the message's template (if any) into TextContent and HTMLContent.
func (m *EmailMessage) Render() error {
	if m.TemplateName == "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if err := parseEmailTemplates(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, m.TemplateName+".txt", m.TemplateData); err != nil {
		return errors.Wrap(err, fmt.Sprintf("rendering %s.txt", m.TemplateName))
	}
	m.TextContent = buf.String()

	buf.Reset()
	if err := htmlTemplates.ExecuteTemplate(&buf, m.TemplateName+".html", m.TemplateData); err != nil {
		return errors.Wrap(err, fmt.Sprintf("rendering %s.html", m.TemplateName))
	}
	m.HTMLContent = buf.String()
	return nil
}
