package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/xaenox/dayflow/internal/models"
)

const (
	maxBodyText = 5000
	maxBodyHTML = 10000
)

var wordDecoder = &mime.WordDecoder{}

// Parse turns a raw RFC-822 message into the cached email record, decoding
// RFC 2047 headers, extracting the text and html bodies and counting
// attachments. The priority score is filled separately.
func Parse(raw []byte) (*models.Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("error reading message: %w", err)
	}

	email := &models.Email{
		MessageID: strings.TrimSpace(msg.Header.Get("Message-ID")),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		From:      decodeHeader(msg.Header.Get("From")),
		To:        decodeHeader(msg.Header.Get("To")),
	}
	if email.MessageID == "" {
		return nil, fmt.Errorf("message has no Message-ID")
	}

	if date, err := msg.Header.Date(); err == nil {
		email.Date = date.UTC()
	}

	body := &bodyAccumulator{}
	if err := walkPart(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"),
		msg.Header.Get("Content-Disposition"), msg.Body, body); err != nil {
		return nil, fmt.Errorf("error decoding body: %w", err)
	}

	email.BodyText = truncate(body.text.String(), maxBodyText)
	email.BodyHTML = truncate(body.html.String(), maxBodyHTML)
	email.Attachments = body.attachments
	return email, nil
}

func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

type bodyAccumulator struct {
	text        strings.Builder
	html        strings.Builder
	attachments int
}

// walkPart recurses through MIME parts, collecting text/plain and text/html
// bodies and counting attachment parts.
func walkPart(contentType, transferEncoding, disposition string, r io.Reader, acc *bodyAccumulator) error {
	mediaType := "text/plain"
	var params map[string]string
	if contentType != "" {
		parsed, parsedParams, err := mime.ParseMediaType(contentType)
		if err == nil {
			mediaType = parsed
			params = parsedParams
		}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart part without boundary")
		}
		reader := multipart.NewReader(r, boundary)
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			err = walkPart(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"),
				part.Header.Get("Content-Disposition"), part, acc)
			part.Close()
			if err != nil {
				return err
			}
		}
	}

	if isAttachment(disposition, mediaType) {
		acc.attachments++
		return nil
	}

	if mediaType != "text/plain" && mediaType != "text/html" {
		return nil
	}

	content, err := decodeTransfer(transferEncoding, r)
	if err != nil {
		return err
	}
	if mediaType == "text/html" {
		acc.html.Write(content)
	} else {
		acc.text.Write(content)
	}
	return nil
}

func isAttachment(disposition, mediaType string) bool {
	if disposition != "" {
		if kind, _, err := mime.ParseMediaType(disposition); err == nil && kind == "attachment" {
			return true
		}
	}
	return !strings.HasPrefix(mediaType, "text/") && !strings.HasPrefix(mediaType, "multipart/") &&
		!strings.HasPrefix(mediaType, "message/")
}

func decodeTransfer(encoding string, r io.Reader) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return io.ReadAll(base64.NewDecoder(base64.StdEncoding, newWhitespaceStripper(r)))
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

// whitespaceStripper drops line breaks so wrapped base64 bodies decode.
type whitespaceStripper struct {
	r io.Reader
}

func newWhitespaceStripper(r io.Reader) io.Reader {
	return &whitespaceStripper{r: r}
}

func (w *whitespaceStripper) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	kept := 0
	for i := 0; i < n; i++ {
		if p[i] == '\r' || p[i] == '\n' {
			continue
		}
		p[kept] = p[i]
		kept++
	}
	if kept == 0 && err == nil && n > 0 {
		return w.Read(p)
	}
	return kept, err
}
