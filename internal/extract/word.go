package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"

	"ats-checker/internal/documents"
)

type convertFunc func(data []byte) (string, error)

// WordExtractor converts .docx and legacy .doc files to plain text.
type WordExtractor struct {
	docx convertFunc
	doc  convertFunc
}

func NewWordExtractor() *WordExtractor {
	return &WordExtractor{docx: docxText, doc: legacyDocText}
}

func (e *WordExtractor) Extract(ctx context.Context, data []byte, mimeType string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	convert := e.docx
	if mimeType == documents.MimeDOC {
		convert = e.doc
	}

	text, err := safeConvert(convert, data)
	if err != nil {
		return Outcome{}, newError(ErrConversionFailed, err.Error(), err)
	}
	if strings.TrimSpace(text) == "" {
		return Outcome{}, newError(ErrEmptyDocument, "no text content found in word document", nil)
	}
	return Outcome{Kind: KindSuccess, Text: text}, nil
}

func safeConvert(convert convertFunc, data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("converter panic: %v", rec)
		}
	}()
	return convert(data)
}

func docxText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var body *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("word/document.xml not found")
	}

	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return documentXMLText(rc)
}

// documentXMLText keeps only run text (w:t), ending paragraphs and breaks
// with a newline and mapping w:tab to a tab.
func documentXMLText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteString("\t")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "br":
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func legacyDocText(data []byte) (string, error) {
	text, _, err := docconv.ConvertDoc(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
