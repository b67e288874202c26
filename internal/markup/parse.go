package markup

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse decodes a document in dialect d back into a Response. Unknown
// elements and attributes are errors.
func (d Dialect) Parse(data []byte) (*Response, error) {
	names, err := d.names()
	if err != nil {
		return nil, err
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml parse error: %w", err)
		}
		if se, ok := token.(xml.StartElement); ok {
			if se.Name.Local != "Response" {
				return nil, fmt.Errorf("unexpected root <%s>", se.Name.Local)
			}
			return parseResponse(decoder, names)
		}
	}
	return nil, fmt.Errorf("no <Response> element found")
}

type elementNames struct {
	speak, collect string
}

func (d Dialect) names() (elementNames, error) {
	switch d {
	case Plivo, "":
		return elementNames{speak: "Speak", collect: "GetDigits"}, nil
	case TwiML:
		return elementNames{speak: "Say", collect: "Gather"}, nil
	}
	return elementNames{}, fmt.Errorf("markup: unknown dialect %q", string(d))
}

func parseResponse(decoder *xml.Decoder, names elementNames) (*Response, error) {
	resp := &Response{}
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			v, err := parseVerb(decoder, &t, names)
			if err != nil {
				return nil, err
			}
			resp.Verbs = append(resp.Verbs, v)
		case xml.EndElement:
			return resp, nil
		}
	}
}

func parseVerb(decoder *xml.Decoder, start *xml.StartElement, names elementNames) (Verb, error) {
	switch start.Name.Local {
	case names.speak:
		return parseSpeak(decoder, start)
	case names.collect:
		return parseCollect(decoder, start, names)
	case "Redirect":
		r := Redirect{}
		for _, attr := range start.Attr {
			if attr.Name.Local != "method" {
				return nil, fmt.Errorf("unknown attribute '%s' on <Redirect>", attr.Name.Local)
			}
			r.Method = attr.Value
		}
		if err := decoder.DecodeElement(&r.URL, start); err != nil {
			return nil, err
		}
		r.URL = strings.TrimSpace(r.URL)
		return r, nil
	case "Hangup":
		if err := decoder.Skip(); err != nil {
			return nil, err
		}
		return Hangup{}, nil
	default:
		return nil, fmt.Errorf("unknown element: <%s>", start.Name.Local)
	}
}

func parseSpeak(decoder *xml.Decoder, start *xml.StartElement) (Speak, error) {
	s := Speak{}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "language":
			s.Language = attr.Value
		case "voice":
			s.Voice = attr.Value
		default:
			return s, fmt.Errorf("unknown attribute '%s' on <%s>", attr.Name.Local, start.Name.Local)
		}
	}
	if err := decoder.DecodeElement(&s.Text, start); err != nil {
		return s, err
	}
	return s, nil
}

func parseCollect(decoder *xml.Decoder, start *xml.StartElement, names elementNames) (GetDigits, error) {
	g := GetDigits{}
	for _, attr := range start.Attr {
		var err error
		switch attr.Name.Local {
		case "action":
			g.Action = attr.Value
		case "method":
			g.Method = attr.Value
		case "numDigits":
			g.NumDigits, err = strconv.Atoi(attr.Value)
		case "timeout":
			g.Timeout, err = strconv.Atoi(attr.Value)
		case "retries":
			g.Retries, err = strconv.Atoi(attr.Value)
		case "validDigits":
			g.ValidDigits = attr.Value
		case "input":
		default:
			return g, fmt.Errorf("unknown attribute '%s' on <%s>", attr.Name.Local, start.Name.Local)
		}
		if err != nil {
			return g, fmt.Errorf("attribute %s on <%s>: %w", attr.Name.Local, start.Name.Local, err)
		}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return g, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local != names.speak {
				return g, fmt.Errorf("unexpected <%s> inside <%s>", t.Name.Local, start.Name.Local)
			}
			s, err := parseSpeak(decoder, &t)
			if err != nil {
				return g, err
			}
			g.Prompts = append(g.Prompts, s)
		case xml.EndElement:
			return g, nil
		}
	}
}
