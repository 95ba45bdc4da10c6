/*
Package xliff reads segments out of XLIFF 1.2 documents and writes translated documents back out.
*/
package xliff

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"github.com/petert82/go-translation-sync/trans"
	"io"
	"os"
	"strings"
)

const (
	Version   = "1.2"
	Namespace = "urn:oasis:names:tc:xliff:document:1.2"
	ToolId    = "translation-sync"
)

type Xliff struct {
	XMLName xml.Name  `xml:"xliff"`
	Xmlns   string    `xml:"xmlns,attr,omitempty"`
	Version string    `xml:"version,attr"`
	File    XliffFile `xml:"file"`
}

type XliffFile struct {
	Original   string       `xml:"original,attr"`
	SourceLang string       `xml:"source-language,attr"`
	TargetLang string       `xml:"target-language,attr,omitempty"`
	Translate  string       `xml:"translate,attr,omitempty"`
	DataType   string       `xml:"datatype,attr"`
	Header     *XliffHeader `xml:"header,omitempty"`
	Units      []XliffUnit  `xml:"body>trans-unit"`
}

type XliffHeader struct {
	Tool XliffTool `xml:"tool"`
	Note string    `xml:"note,omitempty"`
}

type XliffTool struct {
	Id      string `xml:"tool-id,attr"`
	Name    string `xml:"tool-name,attr"`
	Version string `xml:"tool-version,attr,omitempty"`
}

type XliffUnit struct {
	Id       string `xml:"id,attr"`
	MaxWidth string `xml:"maxwidth,attr,omitempty"`
	SizeUnit string `xml:"size-unit,attr,omitempty"`
	Source   string `xml:"source"`
	Target   string `xml:"target,omitempty"`
	Note     string `xml:"note,omitempty"`
}

// Segment converts the unit into a segment. A missing or unusable maxwidth leaves the segment
// unconstrained.
func (u XliffUnit) Segment() trans.Segment {
	s := trans.Segment{ID: strings.TrimSpace(u.Id), Source: u.Source, SizeUnit: u.SizeUnit}
	if w, ok := trans.ParseWidth(u.MaxWidth); ok {
		s.MaxWidth = w
	}
	return s
}

// Document is what an incoming XLIFF file contributes to a sync.
type Document struct {
	Original       string
	SourceLanguage string
	TargetLanguage string
	Segments       []trans.Segment
}

// Extract reads every trans-unit out of data. Units are collected wherever they appear, so
// documents that wrap their file element in another envelope are read the same as flat ones.
// sourceLanguage is the only source-language accepted; it is not checked when empty.
func Extract(data []byte, sourceLanguage string) (*Document, error) {
	doc := &Document{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	seenFile := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", trans.ErrMalformedDocument, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "file":
			if seenFile {
				continue
			}
			seenFile = true
			for _, a := range start.Attr {
				switch a.Name.Local {
				case "source-language":
					doc.SourceLanguage = a.Value
				case "target-language":
					doc.TargetLanguage = a.Value
				case "original":
					doc.Original = a.Value
				}
			}
			if sourceLanguage != "" && doc.SourceLanguage != sourceLanguage {
				return nil, fmt.Errorf("%w: found %q, expected %q",
					trans.ErrUnsupportedSourceLanguage, doc.SourceLanguage, sourceLanguage)
			}
		case "trans-unit":
			var u XliffUnit
			if err := dec.DecodeElement(&u, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", trans.ErrMalformedDocument, err)
			}
			if s := u.Segment(); s.ID != "" {
				doc.Segments = append(doc.Segments, s)
			}
		}
	}

	if !seenFile && sourceLanguage != "" {
		return nil, fmt.Errorf("%w: no file element with a source-language", trans.ErrUnsupportedSourceLanguage)
	}
	if len(doc.Segments) == 0 {
		return nil, fmt.Errorf("%w: no trans-unit elements found", trans.ErrMalformedDocument)
	}

	return doc, nil
}

// NewFromFile extracts the document in the file at the given path.
func NewFromFile(file, sourceLanguage string) (*Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	doc, err := Extract(data, sourceLanguage)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", file, err)
	}
	return doc, nil
}

// Serialize writes an XLIFF document translating sourceLanguage into targetLanguage.
func Serialize(original, sourceLanguage, targetLanguage string, segments []trans.Output) ([]byte, error) {
	x := Xliff{
		Xmlns:   Namespace,
		Version: Version,
		File: XliffFile{
			Original:   original,
			SourceLang: sourceLanguage,
			TargetLang: targetLanguage,
			Translate:  "yes",
			DataType:   "xml",
			Header:     &XliffHeader{Tool: XliffTool{Id: ToolId, Name: ToolId}},
			Units:      make([]XliffUnit, len(segments)),
		},
	}
	for i, s := range segments {
		x.File.Units[i] = XliffUnit{
			Id:       s.ID,
			MaxWidth: s.MaxWidth,
			SizeUnit: s.SizeUnit,
			Source:   s.Source,
			Target:   s.Target,
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(x); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// FileName returns the name an exported document is written under: <name>.<code>.xliff.
func FileName(name, code string) string {
	return fmt.Sprintf("%v.%v.xliff", name, code)
}
