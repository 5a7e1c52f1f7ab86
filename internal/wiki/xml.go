package wiki

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Page is a single article from a MediaWiki XML export.
type Page struct {
	Title string
	Text  string
}

// ErrStopIteration can be returned from an IteratePages callback to end
// iteration early without reporting an error.
var ErrStopIteration = errors.New("stop iteration")

type xmlRevision struct {
	Text string `xml:"text"`
}

type xmlPage struct {
	Title    string      `xml:"title"`
	Revision xmlRevision `xml:"revision"`
}

// IteratePages streams pages from a MediaWiki XML export, invoking fn
// for each one. The export is decoded token by token so arbitrarily
// large dumps never load fully into memory.
func IteratePages(r io.Reader, fn func(Page) error) error {
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decoding export: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "page" {
			continue
		}

		var p xmlPage
		if err := dec.DecodeElement(&p, &se); err != nil {
			return fmt.Errorf("decoding page element: %w", err)
		}

		if err := fn(Page{Title: p.Title, Text: p.Revision.Text}); err != nil {
			if errors.Is(err, ErrStopIteration) {
				return nil
			}
			return err
		}
	}
}
