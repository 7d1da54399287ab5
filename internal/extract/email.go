package extract

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var mboxFromLine = regexp.MustCompile(`(?m)^From [^\r\n]*\r?\n`)

// extractEmail parses .eml directly; for .mbox it renders only the first
// message (see extractMboxFirstMessage). Any other path, .pst included, is
// parsed as one .eml message: PST containers are not expanded.
func extractEmail(path string) (Result, error) {
	if strings.HasSuffix(strings.ToLower(path), ".mbox") {
		return extractMboxFirstMessage(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	return extractEML(f)
}

// extractMboxFirstMessage renders only the first message of an mbox file as
// a single document. The later messages are not extracted, and nothing
// else in the ingestion pipeline splits an mbox into per-message documents.
func extractMboxFirstMessage(path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	msgs := SplitMbox(raw)
	if len(msgs) == 0 {
		return Result{}, fmt.Errorf("mbox contains no messages")
	}
	return extractEML(strings.NewReader(string(msgs[0])))
}

// SplitMbox splits raw mbox content on "From " separator lines, returning
// the raw bytes of each individual message.
func SplitMbox(raw []byte) [][]byte {
	locs := mboxFromLine.FindAllIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}
	var out [][]byte
	for i, loc := range locs {
		start := loc[1]
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if start < end {
			out = append(out, raw[start:end])
		}
	}
	return out
}

func extractEML(r io.Reader) (Result, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	writeHeader := func(label, value string) {
		if value != "" {
			sb.WriteString(label)
			sb.WriteString(": ")
			sb.WriteString(value)
			sb.WriteString("\n")
		}
	}
	writeHeader("From", msg.Header.Get("From"))
	writeHeader("To", msg.Header.Get("To"))
	writeHeader("Cc", msg.Header.Get("Cc"))
	writeHeader("Subject", msg.Header.Get("Subject"))
	writeHeader("Date", msg.Header.Get("Date"))
	writeHeader("Message-Id", msg.Header.Get("Message-Id"))
	writeHeader("In-Reply-To", msg.Header.Get("In-Reply-To"))
	sb.WriteString("\n")

	body, attachments, err := parseEmailBody(msg)
	if err == nil {
		sb.WriteString(body)
	}
	for _, a := range attachments {
		sb.WriteString(fmt.Sprintf("\n[attachment] %s (%s, %d bytes)", a.Filename, a.MimeType, a.Size))
	}

	intrinsic := time.Time{}
	if t, err := msg.Header.Date(); err == nil {
		intrinsic = t.UTC()
	}

	return Result{Text: strings.TrimSpace(sb.String()), FileModifiedAt: intrinsic}, nil
}

// attachmentInfo names a non-inline MIME part without holding its bytes.
type attachmentInfo struct {
	Filename string
	MimeType string
	Size     int
}

// parseEmailBody prefers text/plain, falling back to HTML with tags
// stripped, per §4.2. Attachments are listed, not extracted further.
func parseEmailBody(msg *mail.Message) (string, []attachmentInfo, error) {
	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// No usable Content-Type: treat the whole body as plain text.
		raw, _ := io.ReadAll(msg.Body)
		return decodeBestEffort(raw), nil, nil
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		raw, _ := io.ReadAll(msg.Body)
		return renderPart(mediaType, msg.Header.Get("Content-Transfer-Encoding"), raw), nil, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		raw, _ := io.ReadAll(msg.Body)
		return decodeBestEffort(raw), nil, nil
	}

	mr := multipart.NewReader(msg.Body, boundary)
	var plain, html string
	var attachments []attachmentInfo

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partRaw, _ := io.ReadAll(part)
		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		disposition := part.Header.Get("Content-Disposition")
		filename := part.FileName()

		if filename != "" || strings.HasPrefix(disposition, "attachment") {
			attachments = append(attachments, attachmentInfo{
				Filename: filename,
				MimeType: partType,
				Size:     len(partRaw),
			})
			continue
		}

		rendered := renderPart(partType, part.Header.Get("Content-Transfer-Encoding"), partRaw)
		switch {
		case strings.HasPrefix(partType, "text/plain"):
			plain = rendered
		case strings.HasPrefix(partType, "text/html"):
			html = rendered
		}
	}

	if plain != "" {
		return plain, attachments, nil
	}
	return html, attachments, nil
}

func renderPart(mediaType, transferEncoding string, raw []byte) string {
	decoded := raw
	switch strings.ToLower(transferEncoding) {
	case "quoted-printable":
		if d, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(string(raw)))); err == nil {
			decoded = d
		}
	case "base64":
		if d, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw))); err == nil {
			decoded = d
		}
	}

	text := decodeBestEffort(decoded)
	if strings.HasPrefix(mediaType, "text/html") {
		if md, err := htmltomarkdown.ConvertString(text); err == nil {
			return md
		}
	}
	return text
}
