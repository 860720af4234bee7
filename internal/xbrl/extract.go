// Package xbrl extracts shareholding-percentage facts from exchange XBRL
// instance documents.
package xbrl

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/nsedata/shp-cli/internal/model"
)

// shareholdingElement is the local (namespace-stripped) tag name of the
// percentage-of-shares fact. Filings use varying namespace prefixes across
// taxonomy revisions, so matching is by local name only.
const shareholdingElement = "ShareholdingAsAPercentageOfTotalNumberOfShares"

// ParseError reports a document whose bytes are not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse xbrl: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// shareholdingNode is the decoded form of one matching element.
type shareholdingNode struct {
	ContextRef string `xml:"contextRef,attr"`
	Value      string `xml:",chardata"`
}

// Extract scans the document for shareholding-percentage elements and
// returns one fact per element carrying both a context reference and a
// numeric value. Elements missing either, or with non-numeric text, are
// skipped: many filings contain placeholder rows and that is not an error.
// No ordering is guaranteed beyond document order.
func Extract(r io.Reader) ([]model.ShareholdingFact, error) {
	var facts []model.ShareholdingFact

	err := scan(r, func(n shareholdingNode) {
		if n.ContextRef == "" {
			return
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
		if err != nil {
			return
		}
		facts = append(facts, model.ShareholdingFact{
			ContextRef: n.ContextRef,
			Value:      val,
		})
	})
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// ContextRefs returns the distinct context references appearing on
// shareholding-percentage elements in the document, whether or not the
// element carries a numeric value. Used by discovery runs to accrete the
// membership table as the exchange revises its taxonomy.
func ContextRefs(r io.Reader) (map[string]struct{}, error) {
	refs := make(map[string]struct{})

	err := scan(r, func(n shareholdingNode) {
		if n.ContextRef != "" {
			refs[n.ContextRef] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// scan walks the token stream and decodes every matching element.
func scan(r io.Reader, visit func(shareholdingNode)) error {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xbrl: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ParseError{Err: err}
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != shareholdingElement {
			continue
		}

		var node shareholdingNode
		if err := decoder.DecodeElement(&node, &se); err != nil {
			return &ParseError{Err: err}
		}
		visit(node)
	}
}
