package compose

import (
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/gomail.v2"
)

// ErrTransmission indicates the relay was unreachable, rejected
// authentication, or refused the send.
var ErrTransmission = errors.New("transmission failed")

// Mailer transmits composed messages through an SMTP relay.
type Mailer struct {
	server   string
	port     int
	sender   string
	password string
}

// NewMailer creates a Mailer. Credentials are held only for the job's lifetime.
func NewMailer(server string, port int, sender, password string) *Mailer {
	return &Mailer{server: server, port: port, sender: sender, password: password}
}

// Send builds the MIME document and transmits it in one blocking call.
func (m *Mailer) Send(msg *Message) error {
	d := gomail.NewDialer(m.server, m.port, m.sender, m.password)
	if err := d.DialAndSend(msg.Build(m.sender)); err != nil {
		return fmt.Errorf("%w: %v", ErrTransmission, err)
	}
	return nil
}

// Params are the common inputs to both composition modes.
type Params struct {
	Recipients []string
	Subject    string

	// Body is the plain-text body and the intro line of the rich body.
	Body string
}

// PassThrough composes a message that attaches the supplied document and, when
// previewPath is non-empty, embeds the supplied preview image inline. An empty
// previewPath degrades to a text-plus-attachment message with no rich body, so
// no dangling cid: reference can exist.
func PassThrough(p Params, docPath, previewPath string) (*Message, error) {
	msg := &Message{
		Recipients: p.Recipients,
		Subject:    p.Subject,
		Text:       p.Body,
		Attachments: []Attachment{
			{Path: docPath, Filename: filepath.Base(docPath)},
		},
	}

	if previewPath != "" {
		const cid = "preview"
		html, err := PreviewHTML(p.Body, cid)
		if err != nil {
			return nil, err
		}
		msg.HTML = html
		msg.Inlines = []Inline{{CID: cid, Path: previewPath}}
	}

	return msg, nil
}

// RenderFunc rasterizes a document into page files. RenderPages is the
// production implementation; tests substitute their own.
type RenderFunc func(docPath, dir string, dpi float64) ([]Page, error)

// FromPages composes the self-rendered message: one inline image per rendered
// page keyed by its 1-based page number, a generated table referencing each,
// and the original document attached unmodified. Zero pages yields an HTML
// body with zero page entries; the plain-text part is always present.
//
// The caller owns the page files and removes them (CleanupPages) once the
// message has been sent or abandoned.
func FromPages(p Params, docPath string, pages []Page) (*Message, error) {
	html, err := PageTableHTML(p.Body, pages)
	if err != nil {
		return nil, err
	}

	inlines := make([]Inline, 0, len(pages))
	for _, page := range pages {
		inlines = append(inlines, Inline{CID: page.CID, Path: page.Path})
	}

	return &Message{
		Recipients: p.Recipients,
		Subject:    p.Subject,
		Text:       p.Body,
		HTML:       html,
		Inlines:    inlines,
		Attachments: []Attachment{
			{Path: docPath, Filename: filepath.Base(docPath)},
		},
	}, nil
}
