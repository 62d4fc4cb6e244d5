// Package compose builds and transmits the report notification email,
// optionally deriving preview imagery from the report document itself.
package compose

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Inline is an image embedded in the HTML body, referenced by Content-ID.
type Inline struct {
	// CID is the content identifier the HTML references as cid:<CID>.
	CID string

	// Path is the local file holding the image bytes.
	Path string
}

// Attachment is a binary part delivered with its original filename.
type Attachment struct {
	// Path is the local file holding the attachment bytes.
	Path string

	// Filename is the name presented to the receiving client. Non-ASCII
	// names are word-encoded at build time so they survive transport.
	Filename string
}

// Message is a fully specified notification document.
//
// Invariant: every cid: reference in HTML has a matching Inline with the same
// CID. Builders in this package construct HTML and Inlines from the same data
// so the invariant holds by construction; rendering in the receiving client
// breaks if it does not.
type Message struct {
	Recipients []string
	Subject    string

	// Text is the plain-text part. Always present so clients that cannot
	// render HTML still get a usable message.
	Text string

	// HTML is the rich part. Empty means text-only.
	HTML string

	Inlines     []Inline
	Attachments []Attachment
}

// Build assembles the MIME document. The plain-text part always comes first;
// inline images and attachments are nested so a client without HTML support
// still receives the text part and the attachment.
func (m *Message) Build(from string) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", m.Recipients...)
	gm.SetHeader("Subject", m.Subject)

	gm.SetBody("text/plain", m.Text)
	if m.HTML != "" {
		gm.AddAlternative("text/html", m.HTML)
	}

	for _, inline := range m.Inlines {
		cid := inline.CID
		gm.Embed(inline.Path,
			gomail.Rename(cid),
			gomail.SetHeader(map[string][]string{
				"Content-ID": {fmt.Sprintf("<%s>", cid)},
			}),
		)
	}

	for _, att := range m.Attachments {
		gm.Attach(att.Path, gomail.Rename(EncodeFilename(att.Filename)))
	}

	return gm
}
