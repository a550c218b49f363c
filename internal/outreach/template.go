package outreach

import (
	htmltemplate "html/template"
	"os"
	"strings"
	texttemplate "text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// Template renders the outreach email for a contact. Subject and text
// use text/template; the HTML body uses html/template so contact
// fields are escaped.
type Template struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

type templateFile struct {
	Subject string `yaml:"subject"`
	Text    string `yaml:"text"`
	HTML    string `yaml:"html"`
}

// RenderedEmail is the output of Template.Render.
type RenderedEmail struct {
	Subject string
	Text    string
	HTML    string
}

// LoadTemplate parses a YAML template file with subject, text, and
// optional html sections.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "template: read %s", path)
	}
	return ParseTemplate(data)
}

// ParseTemplate parses template YAML content.
func ParseTemplate(data []byte) (*Template, error) {
	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, eris.Wrap(err, "template: parse yaml")
	}
	if strings.TrimSpace(tf.Subject) == "" {
		return nil, eris.New("template: subject is required")
	}
	if strings.TrimSpace(tf.Text) == "" {
		return nil, eris.New("template: text body is required")
	}

	subject, err := texttemplate.New("subject").Parse(tf.Subject)
	if err != nil {
		return nil, eris.Wrap(err, "template: parse subject")
	}
	text, err := texttemplate.New("text").Parse(tf.Text)
	if err != nil {
		return nil, eris.Wrap(err, "template: parse text")
	}

	t := &Template{subject: subject, text: text}
	if strings.TrimSpace(tf.HTML) != "" {
		html, err := htmltemplate.New("html").Parse(tf.HTML)
		if err != nil {
			return nil, eris.Wrap(err, "template: parse html")
		}
		t.html = html
	}
	return t, nil
}

// Render produces the email for one contact.
func (t *Template) Render(contact model.ContactRecord) (*RenderedEmail, error) {
	var subject, text strings.Builder
	if err := t.subject.Execute(&subject, contact); err != nil {
		return nil, eris.Wrap(err, "template: render subject")
	}
	if err := t.text.Execute(&text, contact); err != nil {
		return nil, eris.Wrap(err, "template: render text")
	}

	rendered := &RenderedEmail{
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
	}

	if t.html != nil {
		var html strings.Builder
		if err := t.html.Execute(&html, contact); err != nil {
			return nil, eris.Wrap(err, "template: render html")
		}
		rendered.HTML = html.String()
	}
	return rendered, nil
}

// defaultTemplateYAML is the stock partnership pitch, used when no
// template file is configured.
const defaultTemplateYAML = `subject: "Partnership opportunity for {{.Name}}"
text: |
  Hi {{.Name}} Team,

  I'm reaching out from WhiteCoat DVM, a 24/7 virtual vet care service
  available in all 50 states.

  We'd like to partner with {{.Name}} to offer your adopters, social
  media followers, and supporters access to unlimited virtual
  veterinary consultations for $20/month, with $10/month going back to
  your organization for every subscriber you refer.

  Would you have 15 minutes this week to discuss? I can also send over
  materials you can share with your community.

  Best,
  WhiteCoat DVM
  https://whitecoatdvm.com
html: |
  <p>Hi {{.Name}} Team,</p>
  <p>I'm reaching out from <strong>WhiteCoat DVM</strong>, a 24/7
  virtual vet care service available in all 50 states.</p>
  <p>We'd like to partner with <strong>{{.Name}}</strong> to offer your
  adopters, social media followers, and supporters access to unlimited
  virtual veterinary consultations for $20/month, with $10/month going
  back to your organization for every subscriber you refer.</p>
  <p><strong>Would you have 15 minutes this week to discuss?</strong>
  I can also send over materials you can share with your community.</p>
  <p>Best,<br>WhiteCoat DVM<br>
  <a href="https://whitecoatdvm.com">whitecoatdvm.com</a></p>
`

// DefaultTemplate returns the built-in outreach template.
func DefaultTemplate() *Template {
	t, err := ParseTemplate([]byte(defaultTemplateYAML))
	if err != nil {
		panic(err) // static content, cannot fail
	}
	return t
}
