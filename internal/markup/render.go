package markup

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Dialect is a provider's flavour of call-control XML.
type Dialect string

const (
	Plivo Dialect = "plivo"
	TwiML Dialect = "twiml"
)

// ---- Plivo ----

type plivoSpeak struct {
	XMLName  xml.Name `xml:"Speak"`
	Language string   `xml:"language,attr,omitempty"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type plivoGetDigits struct {
	XMLName     xml.Name     `xml:"GetDigits"`
	Action      string       `xml:"action,attr"`
	Method      string       `xml:"method,attr"`
	NumDigits   int          `xml:"numDigits,attr"`
	Timeout     int          `xml:"timeout,attr"`
	Retries     int          `xml:"retries,attr"`
	ValidDigits string       `xml:"validDigits,attr,omitempty"`
	Speaks      []plivoSpeak `xml:"Speak"`
}

type plivoRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type plivoHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// ---- TwiML ----

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName   xml.Name   `xml:"Gather"`
	Input     string     `xml:"input,attr"`
	Action    string     `xml:"action,attr"`
	Method    string     `xml:"method,attr"`
	NumDigits int        `xml:"numDigits,attr"`
	Timeout   int        `xml:"timeout,attr"`
	Says      []twimlSay `xml:"Say"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Render encodes r as an XML document in dialect d.
func (d Dialect) Render(r *Response) ([]byte, error) {
	var conv func(Verb) (any, error)
	switch d {
	case Plivo, "":
		conv = toPlivo
	case TwiML:
		conv = toTwiML
	default:
		return nil, fmt.Errorf("markup: unknown dialect %q", string(d))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{Name: xml.Name{Local: "Response"}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	for _, v := range r.Verbs {
		el, err := conv(v)
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(el); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toPlivo(v Verb) (any, error) {
	switch t := v.(type) {
	case Speak:
		return plivoSpeak{Language: t.Language, Voice: t.Voice, Text: t.Text}, nil
	case GetDigits:
		g := plivoGetDigits{
			Action:      t.Action,
			Method:      methodOrPost(t.Method),
			NumDigits:   t.NumDigits,
			Timeout:     t.Timeout,
			Retries:     t.Retries,
			ValidDigits: t.ValidDigits,
		}
		for _, p := range t.Prompts {
			g.Speaks = append(g.Speaks, plivoSpeak{Language: p.Language, Voice: p.Voice, Text: p.Text})
		}
		return g, nil
	case Redirect:
		return plivoRedirect{Method: t.Method, URL: t.URL}, nil
	case Hangup:
		return plivoHangup{}, nil
	default:
		return nil, fmt.Errorf("markup: unsupported verb %T", v)
	}
}

func toTwiML(v Verb) (any, error) {
	switch t := v.(type) {
	case Speak:
		return twimlSay{Language: t.Language, Voice: twimlVoice(t.Voice), Text: t.Text}, nil
	case GetDigits:
		// Gather has no retries/validDigits; the provider re-prompts through
		// the redirect the handlers emit for unexpected digits.
		g := twimlGather{
			Input:     "dtmf",
			Action:    t.Action,
			Method:    methodOrPost(t.Method),
			NumDigits: t.NumDigits,
			Timeout:   t.Timeout,
		}
		for _, p := range t.Prompts {
			g.Says = append(g.Says, twimlSay{Language: p.Language, Voice: twimlVoice(p.Voice), Text: p.Text})
		}
		return g, nil
	case Redirect:
		return twimlRedirect{Method: t.Method, URL: t.URL}, nil
	case Hangup:
		return twimlHangup{}, nil
	default:
		return nil, fmt.Errorf("markup: unsupported verb %T", v)
	}
}

func methodOrPost(m string) string {
	if m == "" {
		return "POST"
	}
	return strings.ToUpper(m)
}

// twimlVoice maps Plivo style voice names (WOMAN/MAN) to TwiML's lowercase ones.
func twimlVoice(v string) string {
	switch strings.ToUpper(v) {
	case "WOMAN", "MAN":
		return strings.ToLower(v)
	}
	return v
}
