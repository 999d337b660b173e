package template

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

//go:embed templates/*.html
var templateFS embed.FS

var _ notification.Renderer = (*Engine)(nil)

// kindMeta holds the heading and template name for each notification kind.
type kindMeta struct {
	Emoji        string
	Heading      string
	TemplateName string
}

// registry maps notification kinds to their metadata.
var registry = map[notification.Kind]kindMeta{
	notification.KindCreated:       {Emoji: "🆕", Heading: "New session scheduled", TemplateName: "session_created"},
	notification.KindStatusChanged: {Emoji: "🔄", Heading: "Session status changed", TemplateName: "status_changed"},
	notification.KindReminder:      {Emoji: "⏰", Heading: "Session starting soon", TemplateName: "reminder"},
}

var fallbackKind = kindMeta{Emoji: "📌", Heading: "Session update"}

// StatusView is how a status is shown to readers.
type StatusView struct {
	Emoji string
	Label string
}

var statusViews = map[schedule.Status]StatusView{
	schedule.StatusScheduled:  {Emoji: "📅", Label: "scheduled"},
	schedule.StatusInProgress: {Emoji: "▶️", Label: "in progress"},
	schedule.StatusCompleted:  {Emoji: "✅", Label: "completed"},
	schedule.StatusCancelled:  {Emoji: "❌", Label: "cancelled"},
}

// UnknownStatusLabel prefixes the label of any unrecognised status.
const UnknownStatusLabel = "unknown"

// ViewStatus returns the display form of s. Unrecognised values get a
// generic label that still carries the raw value.
func ViewStatus(s schedule.Status) StatusView {
	if v, ok := statusViews[s]; ok {
		return v
	}
	if s == "" {
		return StatusView{Emoji: "📌", Label: UnknownStatusLabel}
	}
	return StatusView{Emoji: "📌", Label: fmt.Sprintf("%s (%s)", UnknownStatusLabel, s)}
}

// view is the data passed to the templates.
type view struct {
	Emoji      string
	Heading    string
	CourseName string
	Title      string
	Start      string
	Location   string
	Instructor string
	Status     StatusView
	Previous   *StatusView
}

const timeLayout = "Mon 02 Jan 2006, 15:04 MST"

// Engine renders notification messages from embedded html/template files.
// Output uses the HTML subset accepted by the Telegram Bot API.
type Engine struct {
	templates *template.Template
	location  *time.Location
}

// NewEngine parses the embedded templates. Session times are shown in loc;
// nil means UTC.
func NewEngine(loc *time.Location) (*Engine, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing embedded templates: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{templates: tmpl, location: loc}, nil
}

// Render produces the HTML and plain-text forms of the message for e.
// It never fails: a template execution error falls back to a fixed layout.
func (e *Engine) Render(ev notification.Event) notification.Message {
	meta, ok := registry[ev.Kind()]
	if !ok {
		meta = fallbackKind
	}
	data := e.viewFor(ev, meta)

	var body string
	var buf bytes.Buffer
	if meta.TemplateName == "" {
		body = fallbackHTML(data)
	} else if err := e.templates.ExecuteTemplate(&buf, meta.TemplateName+".html", data); err != nil {
		slog.Warn("template execution failed, using fallback layout", "kind", ev.Kind(), "error", err)
		body = fallbackHTML(data)
	} else {
		body = strings.TrimSpace(buf.String())
	}

	return notification.Message{
		Kind: ev.Kind(),
		HTML: body,
		Text: PlainText(body),
	}
}

func (e *Engine) viewFor(ev notification.Event, meta kindMeta) view {
	s := notification.SessionOf(ev)

	v := view{
		Emoji:      meta.Emoji,
		Heading:    meta.Heading,
		CourseName: s.CourseName,
		Title:      s.Title,
		Location:   s.Location,
		Instructor: s.Instructor,
		Status:     ViewStatus(s.Status),
		Start:      "to be announced",
	}
	if v.CourseName == "" {
		v.CourseName = "Unknown course"
	}
	if !s.ScheduledAt.IsZero() {
		v.Start = s.ScheduledAt.In(e.location).Format(timeLayout)
	}
	if sc, ok := ev.(notification.StatusChanged); ok && sc.Previous != "" {
		prev := ViewStatus(sc.Previous)
		v.Previous = &prev
	}
	return v
}

func fallbackHTML(v view) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>\n\n", v.Emoji, html.EscapeString(v.Heading))
	fmt.Fprintf(&b, "Course: %s\n", html.EscapeString(v.CourseName))
	fmt.Fprintf(&b, "Title: %s\n", html.EscapeString(v.Title))
	fmt.Fprintf(&b, "Starts: %s\n", html.EscapeString(v.Start))
	fmt.Fprintf(&b, "Status: %s %s", v.Status.Emoji, html.EscapeString(v.Status.Label))
	if v.Previous != nil {
		fmt.Fprintf(&b, "\nPrevious status: %s %s", v.Previous.Emoji, html.EscapeString(v.Previous.Label))
	}
	return b.String()
}

// PlainText strips markup from an HTML fragment and unescapes entities.
func PlainText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fragment
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.TrimSpace(b.String())
}
