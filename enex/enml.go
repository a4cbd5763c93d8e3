package enex

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"evernote-drive/models"
)

// keptTags are rendered as-is (without attributes); everything else is unwrapped
var keptTags = map[string]bool{
	"p": true, "div": true, "span": true,
	"b": true, "strong": true, "i": true, "em": true, "u": true, "s": true, "strike": true,
	"sub": true, "sup": true, "code": true, "pre": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "td": true, "th": true,
}

var voidTags = map[string]bool{"br": true, "hr": true}

// blockTags end a line in the plain-text rendering
var blockTags = map[string]bool{
	"en-note": true, "p": true, "div": true, "br": true, "hr": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"pre": true, "blockquote": true, "table": true,
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// renderENML converts an ENML document into minimal HTML and plain text.
// resources maps md5 hashes to the note's attachments for en-media references.
func renderENML(content string, resources map[string]models.Resource) (string, string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", nil
	}

	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	// The outer decoder already converted the export to UTF-8
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var body, text strings.Builder
	sawRoot, inRoot := false, false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "en-note":
				sawRoot, inRoot = true, true
				body.WriteString("<div>")
			case name == "en-todo":
				if attr(t, "checked") == "true" {
					body.WriteString("&#9745; ")
					text.WriteString("[x] ")
				} else {
					body.WriteString("&#9744; ")
					text.WriteString("[ ] ")
				}
			case name == "en-media":
				label := mediaLabel(t, resources)
				body.WriteString(html.EscapeString(label))
				text.WriteString(label)
			case name == "en-crypt":
				if err := dec.Skip(); err != nil {
					return "", "", err
				}
				body.WriteString("[encrypted content]")
				text.WriteString("[encrypted content]")
			case name == "a":
				if href := attr(t, "href"); href != "" {
					fmt.Fprintf(&body, `<a href="%s">`, html.EscapeString(href))
				} else {
					body.WriteString("<a>")
				}
			case voidTags[name] || keptTags[name]:
				fmt.Fprintf(&body, "<%s>", name)
			}
		case xml.EndElement:
			name := t.Name.Local
			switch {
			case name == "en-note":
				inRoot = false
				body.WriteString("</div>")
			case name == "a" || keptTags[name]:
				fmt.Fprintf(&body, "</%s>", name)
			}
			if blockTags[name] {
				text.WriteString("\n")
			} else if name == "td" || name == "th" {
				text.WriteString("\t")
			}
		case xml.CharData:
			if !inRoot {
				continue
			}
			s := string(t)
			body.WriteString(html.EscapeString(s))
			text.WriteString(s)
		}
	}

	if !sawRoot {
		return "", "", fmt.Errorf("missing en-note root")
	}

	plain := blankLines.ReplaceAllString(text.String(), "\n\n")
	return body.String(), strings.TrimSpace(plain), nil
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func mediaLabel(t xml.StartElement, resources map[string]models.Resource) string {
	hash := attr(t, "hash")
	if res, ok := resources[hash]; ok && res.Filename != "" {
		return fmt.Sprintf("[attachment: %s]", res.Filename)
	}
	if mime := attr(t, "type"); mime != "" {
		return fmt.Sprintf("[attachment: %s]", mime)
	}
	return "[attachment]"
}
