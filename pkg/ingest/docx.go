package ingest

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// ParseDocx reads a .docx file and parses its body text into monographs.
func ParseDocx(path string) ([]Monograph, error) {
	text, err := ReadDocxText(path)
	if err != nil {
		return nil, err
	}
	return ParseText(text), nil
}

// ReadDocxText returns the body paragraphs of a .docx file joined by
// newlines. Paragraphs inside tables are not included.
func ReadDocxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}
	defer zr.Close()

	text, err := readDocument(&zr.Reader)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}
	return text, nil
}

func readDocument(zr *zip.Reader) (string, error) {
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return paragraphText(rc)
	}
	return "", ErrNotDocx
}

// paragraphText walks WordprocessingML and collects w:t runs per w:p.
// w:tab and w:br become tab and newline, matching how word processors
// export paragraph text.
func paragraphText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
		inPara     bool
		tableDepth int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "p":
				if tableDepth == 0 {
					inPara = true
					current.Reset()
				}
			case "t":
				inText = inPara
			case "tab":
				if inPara {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "p":
				if inPara {
					paragraphs = append(paragraphs, current.String())
					inPara = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return norm.NFC.String(strings.Join(paragraphs, "\n")), nil
}
