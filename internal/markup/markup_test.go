package markup

import (
	"errors"
	"strings"
	"testing"
)

func menuResponse() *Response {
	return New().
		GetDigits(GetDigits{
			Action:      "https://ivr.example.com/action?lang=1",
			Method:      "POST",
			NumDigits:   1,
			Timeout:     10,
			Retries:     1,
			ValidDigits: "12",
			Prompts:     []Speak{{Text: "Press 1 & stay", Language: "en-US", Voice: "WOMAN"}},
		}).
		Speak("No input received. Goodbye.", "en-US", "WOMAN").
		Hangup()
}

func TestRenderPlivo(t *testing.T) {
	out, err := Plivo.Render(menuResponse())
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	got := string(out)

	want := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<Response>` +
		`<GetDigits action="https://ivr.example.com/action?lang=1" method="POST" numDigits="1" timeout="10" retries="1" validDigits="12">` +
		`<Speak language="en-US" voice="WOMAN">Press 1 &amp; stay</Speak>` +
		`</GetDigits>` +
		`<Speak language="en-US" voice="WOMAN">No input received. Goodbye.</Speak>` +
		`<Hangup></Hangup>` +
		`</Response>`
	if got != want {
		t.Errorf("unexpected markup\n got: %s\nwant: %s", got, want)
	}
}

func TestRenderTwiML(t *testing.T) {
	r := New().Speak("Invalid selection.", "es-ES", "WOMAN").Redirect("https://ivr.example.com/language?lang=2")
	out, err := TwiML.Render(r)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, `<Say language="es-ES" voice="woman">Invalid selection.</Say>`) {
		t.Errorf("expected Say element, got %s", got)
	}
	if !strings.Contains(got, `<Redirect method="POST">https://ivr.example.com/language?lang=2</Redirect>`) {
		t.Errorf("expected Redirect element, got %s", got)
	}

	out, err = TwiML.Render(menuResponse())
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(string(out), `<Gather input="dtmf" action="https://ivr.example.com/action?lang=1" method="POST" numDigits="1" timeout="10">`) {
		t.Errorf("expected Gather element, got %s", out)
	}
	if strings.Contains(string(out), "retries") || strings.Contains(string(out), "validDigits") {
		t.Errorf("TwiML must not carry Plivo-only attributes: %s", out)
	}
}

func TestRenderUnknownDialect(t *testing.T) {
	if _, err := Dialect("ncco").Render(menuResponse()); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, d := range []Dialect{Plivo, TwiML} {
		out, err := d.Render(menuResponse())
		if err != nil {
			t.Fatalf("%s render: %v", d, err)
		}
		resp, err := d.Parse(out)
		if err != nil {
			t.Fatalf("%s parse: %v", d, err)
		}
		if err := Validate(resp); err != nil {
			t.Errorf("%s: parsed response invalid: %v", d, err)
		}
		if len(resp.Verbs) != 3 {
			t.Fatalf("%s: expected 3 verbs, got %d", d, len(resp.Verbs))
		}
		g, ok := resp.Verbs[0].(GetDigits)
		if !ok {
			t.Fatalf("%s: expected GetDigits first, got %T", d, resp.Verbs[0])
		}
		if g.Action != "https://ivr.example.com/action?lang=1" || g.NumDigits != 1 || g.Timeout != 10 {
			t.Errorf("%s: unexpected collect %+v", d, g)
		}
		if len(g.Prompts) != 1 || g.Prompts[0].Text != "Press 1 & stay" {
			t.Errorf("%s: unexpected prompts %+v", d, g.Prompts)
		}
		if _, ok := Terminal(resp).(Hangup); !ok {
			t.Errorf("%s: expected Hangup terminal, got %T", d, Terminal(resp))
		}
	}
}

func TestParseRejectsUnknownElement(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?><Response><Dial>+15551234567</Dial></Response>`
	if _, err := Plivo.Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for <Dial>")
	}
	if _, err := Plivo.Parse([]byte(`<Foo/>`)); err == nil {
		t.Fatal("expected error for wrong root")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want error
	}{
		{"nil", nil, ErrEmpty},
		{"empty", New(), ErrEmpty},
		{"speak only", New().Speak("hi", "en-US", ""), ErrNoTerminal},
		{"collect last", New().GetDigits(GetDigits{Action: "x"}), ErrNoTerminal},
		{"double terminal", New().Redirect("x").Hangup(), ErrMultipleTerminals},
		{"hangup", New().Speak("bye", "en-US", "").Hangup(), nil},
		{"redirect", New().Speak("again", "en-US", "").Redirect("x"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.resp)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
