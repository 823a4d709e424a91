package agent

import "testing"

func TestPresentAppliesDefaults(t *testing.T) {
	p := Present([]byte(`{}`))

	if p.Title != AppName {
		t.Errorf("title = %q, want app name", p.Title)
	}
	if p.Body != DefaultBody {
		t.Errorf("body = %q, want default", p.Body)
	}
	if p.URL != DefaultURL {
		t.Errorf("url = %q, want root", p.URL)
	}
	if p.Type != DefaultType {
		t.Errorf("type = %q, want general", p.Type)
	}
	if p.Tag != DefaultTag {
		t.Errorf("tag = %q, want fixed default", p.Tag)
	}
	if !p.Renotify {
		t.Error("expected re-alert forced for repeated tags")
	}
}

func TestPresentUsesPayloadFields(t *testing.T) {
	p := Present([]byte(`{"title":"Maya","body":"See you at 3?","url":"/chat/42","type":"message","tag":"chat-42"}`))

	if p.Title != "Maya" || p.Body != "See you at 3?" || p.URL != "/chat/42" || p.Type != "message" || p.Tag != "chat-42" {
		t.Fatalf("payload fields not carried through: %+v", p)
	}
}

func TestPresentMalformedPayloadFallsBackToText(t *testing.T) {
	p := Present([]byte("totally not json"))

	if p.Body != "totally not json" {
		t.Errorf("body = %q, want raw text", p.Body)
	}
	if p.Title != AppName {
		t.Errorf("title = %q, want app name", p.Title)
	}
}

func TestPresentEmptyPayload(t *testing.T) {
	p := Present(nil)

	if p.Body != DefaultBody {
		t.Errorf("body = %q, want default", p.Body)
	}
}

type fakeWindow struct {
	origin    string
	focused   bool
	navigated string
}

func (w *fakeWindow) Origin() string            { return w.origin }
func (w *fakeWindow) Focus() error              { w.focused = true; return nil }
func (w *fakeWindow) Navigate(url string) error { w.navigated = url; return nil }

type fakeClients struct {
	windows []Window
	opened  []string
	claimed bool
}

func (c *fakeClients) Windows() []Window { return c.windows }
func (c *fakeClients) OpenWindow(url string) error {
	c.opened = append(c.opened, url)
	return nil
}
func (c *fakeClients) Claim() error { c.claimed = true; return nil }

func TestClickFocusesExistingWindow(t *testing.T) {
	ours := &fakeWindow{origin: "https://campus.example.com"}
	other := &fakeWindow{origin: "https://elsewhere.example.com"}
	clients := &fakeClients{windows: []Window{other, ours}}

	a := &Agent{Origin: "https://campus.example.com"}
	if err := a.HandleClick(clients, Presentation{URL: "/chat/42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ours.focused || ours.navigated != "/chat/42" {
		t.Fatalf("existing window not focused and navigated: %+v", ours)
	}
	if other.focused {
		t.Fatal("foreign-origin window focused")
	}
	if len(clients.opened) != 0 {
		t.Fatalf("duplicate window opened: %v", clients.opened)
	}
}

func TestClickOpensWindowWhenNoneMatch(t *testing.T) {
	clients := &fakeClients{windows: []Window{&fakeWindow{origin: "https://elsewhere.example.com"}}}

	a := &Agent{Origin: "https://campus.example.com"}
	if err := a.HandleClick(clients, Presentation{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(clients.opened) != 1 || clients.opened[0] != DefaultURL {
		t.Fatalf("expected one window at root, got %v", clients.opened)
	}
}

func TestDismissHook(t *testing.T) {
	a := &Agent{}
	a.HandleDismiss(Presentation{}) // nil hook must be safe

	var got Presentation
	a.OnDismiss = func(p Presentation) { got = p }
	a.HandleDismiss(Presentation{Tag: "chat-42"})
	if got.Tag != "chat-42" {
		t.Fatalf("dismiss hook not called with presentation, got %+v", got)
	}
}

func TestActivateClaimsClients(t *testing.T) {
	clients := &fakeClients{}
	a := &Agent{}
	if err := a.Activate(clients); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !clients.claimed {
		t.Fatal("open tabs not claimed on activation")
	}
}
