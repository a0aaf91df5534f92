package smtp

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
)

const snippetLength = 160

var (
	scriptStyleRe  = regexp.MustCompile(`(?i)<(script|style)[^>]*>[\s\S]*?</(script|style)>`)
	tagRe          = regexp.MustCompile(`<[^>]*>`)
	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
)

// ParseMessage reads a raw RFC 5322 message into a CapturedMessage. Envelope
// fields and the receive time are left for the caller.
func ParseMessage(r io.Reader) (*CapturedMessage, error) {
	var raw bytes.Buffer
	env, err := enmime.ReadEnvelope(io.TeeReader(r, &raw))
	if err != nil {
		return nil, err
	}

	msg := &CapturedMessage{
		Subject:  env.GetHeader("Subject"),
		BodyText: env.Text,
		BodyHTML: env.HTML,
		Size:     int64(raw.Len()),
	}

	if from, err := env.AddressList("From"); err == nil && len(from) > 0 {
		msg.SenderName = from[0].Name
		msg.SenderEmail = from[0].Address
	} else {
		msg.SenderEmail = strings.TrimSpace(env.GetHeader("From"))
	}

	if replyTo, err := env.AddressList("Reply-To"); err == nil && len(replyTo) > 0 {
		msg.ReplyTo = replyTo[0].Address
	} else {
		msg.ReplyTo = strings.TrimSpace(env.GetHeader("Reply-To"))
	}

	msg.Snippet = snippet(msg.BodyText, msg.BodyHTML)

	for _, part := range env.Attachments {
		msg.Attachments = append(msg.Attachments, part.FileName)
	}
	for _, part := range env.Inlines {
		if part.FileName != "" {
			msg.Attachments = append(msg.Attachments, part.FileName)
		}
	}

	return msg, nil
}

// snippet builds a short single-line preview, preferring the text body
func snippet(bodyText, bodyHTML string) string {
	text := bodyText
	if text == "" && bodyHTML != "" {
		text = stripHTMLTags(bodyHTML)
	}

	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > snippetLength {
		text = string(runes[:snippetLength-3]) + "..."
	}
	return text
}

func stripHTMLTags(html string) string {
	html = scriptStyleRe.ReplaceAllString(html, "")
	html = tagRe.ReplaceAllString(html, " ")
	return entityReplacer.Replace(html)
}

// parseEmailAddress splits an address into lowercase local part and domain
func parseEmailAddress(address string) (localPart, domain string, ok bool) {
	address = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(address, "<"), ">"))

	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return "", "", false
	}
	localPart = strings.ToLower(address[:at])
	domain = strings.ToLower(address[at+1:])
	if strings.ContainsAny(localPart, " <>") || strings.ContainsAny(domain, " <>@") {
		return "", "", false
	}
	return localPart, domain, true
}

func equalFoldAddress(a, b string) bool {
	la, da, okA := parseEmailAddress(a)
	lb, db, okB := parseEmailAddress(b)
	if !okA || !okB {
		return strings.EqualFold(a, b)
	}
	return la == lb && da == db
}
