// Package enex reads Evernote export files.
//
// An export is an en-export root holding a sequence of note elements. Each
// note carries its body as an ENML document embedded in a CDATA section,
// which is rendered here into minimal HTML and plain text.
package enex

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"evernote-drive/models"

	"golang.org/x/net/html/charset"
)

const (
	rootElement = "en-export"
	noteElement = "note"

	// timeLayout is the compact ISO 8601 form Evernote writes, e.g. 20130730T205204Z
	timeLayout = "20060102T150405Z"
)

type rawNote struct {
	Title      string        `xml:"title"`
	Content    string        `xml:"content"`
	Created    string        `xml:"created"`
	Updated    string        `xml:"updated"`
	Tags       []string      `xml:"tag"`
	Attributes rawAttributes `xml:"note-attributes"`
	Resources  []rawResource `xml:"resource"`
}

type rawAttributes struct {
	Author    string `xml:"author"`
	SourceURL string `xml:"source-url"`
}

type rawResource struct {
	Data struct {
		Encoding string `xml:"encoding,attr"`
		Value    string `xml:",chardata"`
	} `xml:"data"`
	Mime       string `xml:"mime"`
	Attributes struct {
		FileName string `xml:"file-name"`
	} `xml:"resource-attributes"`
}

// Parser turns export files into notes
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser that logs recoverable problems to logger
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Notes returns the notes of the export at path in document order.
//
// Every range over the returned sequence reopens the file, so ranging twice
// yields the same notes. A note that cannot be decoded is reported as an
// entry-scoped *models.FormatError and iteration continues; a file that is
// not readable export markup yields a single fatal *models.FormatError.
func (p *Parser) Notes(path string) iter.Seq2[models.Note, error] {
	return func(yield func(models.Note, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(models.Note{}, &models.FormatError{Path: path, Err: err})
			return
		}
		defer f.Close()

		dec := newDecoder(f)
		if err := expectRoot(dec); err != nil {
			yield(models.Note{}, &models.FormatError{Path: path, Err: err})
			return
		}

		entry := 0
		for {
			tok, err := dec.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(models.Note{}, &models.FormatError{Path: path, Err: err})
				return
			}

			switch t := tok.(type) {
			case xml.StartElement:
				if t.Name.Local != noteElement {
					if err := dec.Skip(); err != nil {
						yield(models.Note{}, &models.FormatError{Path: path, Err: err})
						return
					}
					continue
				}

				entry++
				var raw rawNote
				if err := dec.DecodeElement(&raw, &t); err != nil {
					// The decoder cannot resynchronize after a syntax error
					yield(models.Note{}, &models.FormatError{Path: path, Err: fmt.Errorf("note %d: %w", entry, err)})
					return
				}

				note, err := p.convert(path, entry, raw)
				if err != nil {
					if !yield(models.Note{}, &models.FormatError{Path: path, Entry: entry, Title: raw.Title, Err: err}) {
						return
					}
					continue
				}
				if !yield(note, nil) {
					return
				}
			case xml.EndElement:
				// closing en-export
				return
			}
		}
	}
}

// Check verifies that path starts with an en-export root without reading notes
func (p *Parser) Check(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &models.FormatError{Path: path, Err: err}
	}
	defer f.Close()

	if err := expectRoot(newDecoder(f)); err != nil {
		return &models.FormatError{Path: path, Err: err}
	}
	return nil
}

func (p *Parser) convert(path string, entry int, raw rawNote) (models.Note, error) {
	resources := make([]models.Resource, 0, len(raw.Resources))
	byHash := make(map[string]models.Resource, len(raw.Resources))
	for i, rr := range raw.Resources {
		res, err := decodeResource(rr)
		if err != nil {
			return models.Note{}, fmt.Errorf("resource %d: %w", i+1, err)
		}
		resources = append(resources, res)
		byHash[res.Hash] = res
	}

	body, text, err := renderENML(raw.Content, byHash)
	if err != nil {
		return models.Note{}, fmt.Errorf("content: %w", err)
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, tag := range raw.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return models.Note{
		Title:     strings.TrimSpace(raw.Title),
		Content:   body,
		Text:      text,
		CreatedAt: p.parseTime(path, entry, "created", raw.Created),
		UpdatedAt: p.parseTime(path, entry, "updated", raw.Updated),
		Tags:      tags,
		Author:    strings.TrimSpace(raw.Attributes.Author),
		SourceURL: strings.TrimSpace(raw.Attributes.SourceURL),
		Resources: resources,
	}, nil
}

// parseTime returns the zero time for missing or unreadable timestamps
func (p *Parser) parseTime(path string, entry int, field, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		p.logger.Warn("ignoring unreadable timestamp",
			"file", path,
			"entry", entry,
			"field", field,
			"value", value,
		)
		return time.Time{}
	}
	return t
}

func decodeResource(rr rawResource) (models.Resource, error) {
	if enc := strings.TrimSpace(rr.Data.Encoding); enc != "" && enc != "base64" {
		return models.Resource{}, fmt.Errorf("unsupported data encoding %q", enc)
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, rr.Data.Value)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return models.Resource{}, fmt.Errorf("decoding data: %w", err)
	}

	sum := md5.Sum(data)
	return models.Resource{
		Filename: strings.TrimSpace(rr.Attributes.FileName),
		Mime:     strings.TrimSpace(rr.Mime),
		Data:     data,
		Hash:     hex.EncodeToString(sum[:]),
	}, nil
}

func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// expectRoot advances dec past the en-export start element
func expectRoot(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return models.ErrEmptyExport
		}
		if err != nil {
			return err
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != rootElement {
				return fmt.Errorf("%w: found %q", models.ErrNotAnExport, start.Name.Local)
			}
			return nil
		}
	}
}
