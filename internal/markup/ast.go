// Package markup models call-control documents returned to the telephony
// provider and renders them in the provider's XML dialect.
package markup

import "errors"

// ContentType of every rendered document.
const ContentType = "text/xml"

// Verb is one instruction of a Response.
type Verb interface {
	isVerb()
}

// Response is the root document. Verbs run in order.
type Response struct {
	Verbs []Verb
}

// Speak synthesizes text.
type Speak struct {
	Text     string
	Language string
	Voice    string
}

func (Speak) isVerb() {}

// GetDigits collects DTMF while playing its nested prompts. When no digit
// arrives within Timeout and Retries, execution falls through to the next verb.
type GetDigits struct {
	Action      string
	Method      string
	NumDigits   int
	Timeout     int // seconds
	Retries     int
	ValidDigits string
	Prompts     []Speak
}

func (GetDigits) isVerb() {}

// Redirect hands the call over to the markup served at URL.
type Redirect struct {
	URL    string
	Method string
}

func (Redirect) isVerb() {}

// Hangup ends the call.
type Hangup struct{}

func (Hangup) isVerb() {}

// New returns an empty Response.
func New() *Response { return &Response{} }

// Speak appends a Speak verb.
func (r *Response) Speak(text, language, voice string) *Response {
	r.Verbs = append(r.Verbs, Speak{Text: text, Language: language, Voice: voice})
	return r
}

// GetDigits appends a digit collection verb.
func (r *Response) GetDigits(g GetDigits) *Response {
	r.Verbs = append(r.Verbs, g)
	return r
}

// Redirect appends a Redirect verb (POST).
func (r *Response) Redirect(url string) *Response {
	r.Verbs = append(r.Verbs, Redirect{URL: url, Method: "POST"})
	return r
}

// Hangup appends a Hangup verb.
func (r *Response) Hangup() *Response {
	r.Verbs = append(r.Verbs, Hangup{})
	return r
}

var (
	ErrEmpty             = errors.New("markup: empty response")
	ErrNoTerminal        = errors.New("markup: response does not end in redirect or hangup")
	ErrMultipleTerminals = errors.New("markup: more than one redirect/hangup")
)

// Validate checks that the call never ends up in an undefined state: the last
// verb is the one and only Redirect or Hangup.
func Validate(r *Response) error {
	if r == nil || len(r.Verbs) == 0 {
		return ErrEmpty
	}
	terminals := 0
	for _, v := range r.Verbs {
		if isTerminal(v) {
			terminals++
		}
	}
	if !isTerminal(r.Verbs[len(r.Verbs)-1]) {
		return ErrNoTerminal
	}
	if terminals > 1 {
		return ErrMultipleTerminals
	}
	return nil
}

// Terminal returns the last verb of r, or nil.
func Terminal(r *Response) Verb {
	if r == nil || len(r.Verbs) == 0 {
		return nil
	}
	return r.Verbs[len(r.Verbs)-1]
}

func isTerminal(v Verb) bool {
	switch v.(type) {
	case Redirect, *Redirect, Hangup, *Hangup:
		return true
	}
	return false
}
