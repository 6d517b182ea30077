// Package notify renders account emails and hands them to a delivery backend.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/rs/zerolog"
)

// Kinds of notification, used as template names and metric labels.
const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Message is a rendered email ready for delivery.
type Message struct {
	Kind    string `json:"kind"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder observes delivery outcomes.
type Recorder interface {
	NotificationSent(kind string, err error)
}

type view struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

type templateData struct {
	Link      string
	ExpiresIn string
}

// Service builds links from the public API base URL and sends account emails.
type Service struct {
	baseURL  string
	from     string
	sender   Sender
	recorder Recorder
	lg       zerolog.Logger
	views    map[string]view
}

// NewService parses the embedded templates. baseURL is the public API base,
// e.g. "https://example.com/api/"; links are baseURL + "verify/<token>" and
// baseURL + "reset-password/<token>".
func NewService(baseURL, from string, sender Sender, recorder Recorder, lg zerolog.Logger) (*Service, error) {
	views := make(map[string]view, 2)
	for _, kind := range []string{KindVerification, KindPasswordReset} {
		v, err := parseView(kind)
		if err != nil {
			return nil, err
		}
		views[kind] = v
	}

	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Service{
		baseURL:  baseURL,
		from:     from,
		sender:   sender,
		recorder: recorder,
		lg:       lg.With().Str("component", "notify").Logger(),
		views:    views,
	}, nil
}

// SendVerification emails the account verification link.
func (s *Service) SendVerification(ctx context.Context, email, token string) error {
	return s.send(ctx, KindVerification, email, templateData{
		Link: s.baseURL + "verify/" + token,
	})
}

// SendPasswordReset emails the password reset link.
func (s *Service) SendPasswordReset(ctx context.Context, email, token string) error {
	return s.send(ctx, KindPasswordReset, email, templateData{
		Link:      s.baseURL + "reset-password/" + token,
		ExpiresIn: "1 hour",
	})
}

func (s *Service) send(ctx context.Context, kind, to string, data templateData) error {
	msg, err := s.render(kind, to, data)
	if err != nil {
		return err
	}

	err = s.sender.Send(ctx, msg)
	if s.recorder != nil {
		s.recorder.NotificationSent(kind, err)
	}
	if err != nil {
		s.lg.Error().Err(err).Str("kind", kind).Msg("notification send failed")
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	s.lg.Debug().Str("kind", kind).Msg("notification sent")
	return nil
}

func (s *Service) render(kind, to string, data templateData) (Message, error) {
	v, ok := s.views[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}

	var subject, text, html bytes.Buffer
	if err := v.text.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := v.text.ExecuteTemplate(&text, "text", data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	if err := v.html.ExecuteTemplate(&html, "html", data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}

	return Message{
		Kind:    kind,
		From:    s.from,
		To:      to,
		Subject: strings.TrimSpace(subject.String()),
		Text:    strings.TrimSpace(text.String()),
		HTML:    strings.TrimSpace(html.String()),
	}, nil
}

func parseView(kind string) (view, error) {
	filename := "templates/" + kind + ".tmpl"

	text, err := texttemplate.New(kind).ParseFS(templateFS, filename)
	if err != nil {
		return view{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	html, err := htmltemplate.New(kind).ParseFS(templateFS, filename)
	if err != nil {
		return view{}, fmt.Errorf("parse %s: %w", filename, err)
	}

	for _, name := range []string{"subject", "text"} {
		if text.Lookup(name) == nil {
			return view{}, fmt.Errorf("%s: missing %s template", filename, name)
		}
	}
	if html.Lookup("html") == nil {
		return view{}, fmt.Errorf("%s: missing html template", filename)
	}

	return view{text: text, html: html}, nil
}
