// Package agent models the browser-resident notification surface: turning an
// opaque push payload into a fully populated presentation, and routing a later
// click back into the application.
package agent

import "encoding/json"

// Defaults applied when a payload omits a field.
const (
	AppName     = "CampusConnect"
	DefaultBody = "You have a new notification"
	DefaultTag  = "campus-connect"
	DefaultURL  = "/"
	DefaultType = "general"
)

// Presentation is a displayable system notification derived from one payload.
type Presentation struct {
	Title    string
	Body     string
	URL      string
	Type     string
	Tag      string
	Renotify bool
}

// Present derives a presentation from an opaque push payload. Every field has
// a default; a payload that fails to decode is shown as plain text under the
// application name. Pure: no transport involved.
func Present(raw []byte) Presentation {
	p := Presentation{
		Title: AppName,
		Body:  DefaultBody,
		URL:   DefaultURL,
		Type:  DefaultType,
		Tag:   DefaultTag,
		// Same-tag notifications replace rather than stack, so force a
		// re-alert even when the tag repeats.
		Renotify: true,
	}

	var data struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		URL   string `json:"url"`
		Type  string `json:"type"`
		Tag   string `json:"tag"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		if len(raw) > 0 {
			p.Body = string(raw)
		}
		return p
	}

	if data.Title != "" {
		p.Title = data.Title
	}
	if data.Body != "" {
		p.Body = data.Body
	}
	if data.URL != "" {
		p.URL = data.URL
	}
	if data.Type != "" {
		p.Type = data.Type
	}
	if data.Tag != "" {
		p.Tag = data.Tag
	}
	return p
}

// Window is one open application tab the agent can focus and steer.
type Window interface {
	Origin() string
	Focus() error
	Navigate(url string) error
}

// Clients is the agent's view of the surrounding browser: the open windows,
// the ability to open a new one, and the takeover hook used on activation.
type Clients interface {
	Windows() []Window
	OpenWindow(url string) error
	Claim() error
}

// Agent routes push events for one application origin.
type Agent struct {
	Origin string

	// OnDismiss runs when a presented notification is closed without a
	// click. Optional; nil means no dismissal recording.
	OnDismiss func(Presentation)
}

// HandleClick brings an existing application window to the stored target URL,
// opening a fresh one only when none is open.
func (a *Agent) HandleClick(clients Clients, p Presentation) error {
	target := p.URL
	if target == "" {
		target = DefaultURL
	}
	for _, w := range clients.Windows() {
		if w.Origin() != a.Origin {
			continue
		}
		if err := w.Focus(); err != nil {
			return err
		}
		return w.Navigate(target)
	}
	return clients.OpenWindow(target)
}

// HandleDismiss fires the optional dismissal hook.
func (a *Agent) HandleDismiss(p Presentation) {
	if a.OnDismiss != nil {
		a.OnDismiss(p)
	}
}

// Activate takes control of every open tab immediately instead of waiting for
// their next reload.
func (a *Agent) Activate(clients Clients) error {
	return clients.Claim()
}
