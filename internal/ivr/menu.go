// Package ivr holds the two-level voice menu. Every method is a pure function
// of its inputs; the selected language travels in the action URL, never in a
// server-side session.
package ivr

import (
	"net/url"
	"strings"

	"github.com/jmehdipour/ivr-gateway/internal/markup"
	"github.com/jmehdipour/ivr-gateway/internal/model"
)

const (
	PathAnswer   = "/answer"
	PathLanguage = "/language"
	PathAction   = "/action"
	PathInvalid  = "/invalid"
	PathHangup   = "/hangup"
)

const (
	DefaultVoice   = "WOMAN"
	DefaultTimeout = 10
	DefaultRetries = 1
)

const (
	welcomePrompt  = "Welcome to Inspire Works. Please select your language. Press 1 for English. Press 2 for Spanish."
	welcomeNoInput = "We did not receive any input. Goodbye."
	languageRetry  = "Invalid selection. Please try again."
	invalidInput   = "Invalid input. Please try again."
	demoNotice     = "This is a demo system. In production, you would be connected to a live associate now."
)

type prompts struct {
	menu     string
	noInput  string
	info     string
	goodbye  string
	transfer string
	invalid  string
}

var localized = map[model.Language]prompts{
	model.LanguageEnglish: {
		menu:     "Press 1 to hear a message. Press 2 to speak with an associate.",
		noInput:  "No input received. Goodbye.",
		info:     "Thank you for calling Inspire Works. We specialize in building innovative communication solutions. Have a great day!",
		goodbye:  "Goodbye!",
		transfer: "Please wait while we connect you to an associate.",
		invalid:  "Invalid selection.",
	},
	model.LanguageSpanish: {
		menu:     "Presione 1 para escuchar un mensaje. Presione 2 para hablar con un asociado.",
		noInput:  "No se recibió entrada. Adiós.",
		info:     "Gracias por llamar a Inspire Works. Nos especializamos en crear soluciones de comunicación innovadoras. Que tenga un buen día!",
		goodbye:  "Adiós!",
		transfer: "Espere mientras le conectamos con un asociado.",
		invalid:  "Selección inválida.",
	},
}

// Action outcomes reported for metrics.
const (
	ChoiceInfo     = "1"
	ChoiceTransfer = "2"
	ChoiceInvalid  = "invalid"
)

// Menu renders the call flow against a public base URL.
type Menu struct {
	baseURL string
	voice   string
	timeout int
	retries int
}

func NewMenu(publicURL, voice string, timeoutSec, retries int) *Menu {
	if voice == "" {
		voice = DefaultVoice
	}
	if timeoutSec <= 0 {
		timeoutSec = DefaultTimeout
	}
	if retries < 0 {
		retries = DefaultRetries
	}
	return &Menu{
		baseURL: strings.TrimRight(publicURL, "/"),
		voice:   voice,
		timeout: timeoutSec,
		retries: retries,
	}
}

// URL joins path (and an optional lang query) onto the public base URL.
func (m *Menu) URL(path string, lang model.Language) string {
	u := m.baseURL + path
	if lang != "" {
		u += "?" + url.Values{"lang": {lang.String()}}.Encode()
	}
	return u
}

func (m *Menu) collect(action string, prompt string, lang model.Language) markup.GetDigits {
	return markup.GetDigits{
		Action:      action,
		Method:      "POST",
		NumDigits:   1,
		Timeout:     m.timeout,
		Retries:     m.retries,
		ValidDigits: "12",
		Prompts:     []markup.Speak{{Text: prompt, Language: lang.Locale(), Voice: m.voice}},
	}
}

// Answer is the level-1 language menu. It does not depend on the caller.
func (m *Menu) Answer() *markup.Response {
	en := model.LanguageEnglish
	return markup.New().
		GetDigits(m.collect(m.URL(PathLanguage, ""), welcomePrompt, en)).
		Speak(welcomeNoInput, en.Locale(), m.voice).
		Hangup()
}

// Language handles the level-1 digit. present reports whether the digit
// field was posted at all; a redirect back into level 2 carries no digit
// and replays the menu named by langQuery.
func (m *Menu) Language(digits string, present bool, langQuery string) (*markup.Response, model.Language, bool) {
	if !present {
		if lang, ok := model.ParseLanguageDigit(strings.TrimSpace(langQuery)); ok {
			return m.languageMenu(lang), lang, true
		}
	}

	lang, ok := model.ParseLanguageDigit(digits)
	if !ok {
		return markup.New().
			Speak(languageRetry, model.LanguageEnglish.Locale(), m.voice).
			Redirect(m.URL(PathAnswer, "")), "", false
	}
	return m.languageMenu(lang), lang, true
}

func (m *Menu) languageMenu(lang model.Language) *markup.Response {
	p := localized[lang]
	return markup.New().
		GetDigits(m.collect(m.URL(PathAction, lang), p.menu, lang)).
		Speak(p.noInput, lang.Locale(), m.voice).
		Hangup()
}

// Action handles the level-2 digit for the language carried on the URL.
// It returns the response and the choice taken.
func (m *Menu) Action(digits string, langQuery string) (*markup.Response, string) {
	lang := model.LanguageFromQuery(langQuery)
	p := localized[lang]
	loc := lang.Locale()

	switch digits {
	case "1":
		return markup.New().
			Speak(p.info, loc, m.voice).
			Speak(p.goodbye, loc, m.voice).
			Hangup(), ChoiceInfo
	case "2":
		return markup.New().
			Speak(p.transfer, loc, m.voice).
			Speak(demoNotice, model.LanguageEnglish.Locale(), m.voice).
			Hangup(), ChoiceTransfer
	default:
		return markup.New().
			Speak(p.invalid, loc, m.voice).
			Redirect(m.URL(PathLanguage, lang)), ChoiceInvalid
	}
}

// Invalid is the generic recovery response.
func (m *Menu) Invalid() *markup.Response {
	return markup.New().
		Speak(invalidInput, model.LanguageEnglish.Locale(), m.voice).
		Redirect(m.URL(PathAnswer, ""))
}
