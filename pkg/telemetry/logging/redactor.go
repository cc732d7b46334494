package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks user-identifying values in log fields.
type Redactor struct {
	email *regexp.Regexp
	keys  []string
}

// NewRedactor creates a Redactor for usernames and email addresses.
func NewRedactor() *Redactor {
	return &Redactor{
		email: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		keys:  []string{"user", "username", "owner", "email"},
	}
}

// RedactString masks every email address in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	return r.email.ReplaceAllStringFunc(value, RedactEmail)
}

// RedactAttr masks attr when its key names a user, and masks emails in any
// string value. Groups are redacted recursively.
func (r *Redactor) RedactAttr(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()

	switch value.Kind() {
	case slog.KindGroup:
		group := value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, a := range group {
			redacted[i] = r.RedactAttr(a)
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}
	case slog.KindString:
		s := value.String()
		if r.isUserKey(attr.Key) && !strings.Contains(s, "@") {
			return slog.String(attr.Key, RedactUsername(s))
		}
		return slog.String(attr.Key, r.RedactString(s))
	default:
		return slog.Attr{Key: attr.Key, Value: value}
	}
}

func (r *Redactor) isUserKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range r.keys {
		if lower == k || strings.HasSuffix(lower, "_"+k) {
			return true
		}
	}
	return false
}

// RedactUsername keeps the first character of name.
func RedactUsername(name string) string {
	if name == "" {
		return ""
	}
	return name[:1] + "***"
}

// RedactEmail keeps the first character of the local part and the domain.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	if local == "" {
		return "***@" + domain
	}
	return local[:1] + "***@" + domain
}

// redactingHandler applies a Redactor to the message and every attribute.
type redactingHandler struct {
	next     slog.Handler
	redactor *Redactor
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.redactor.RedactString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactor.RedactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactor.RedactAttr(a)
	}
	return &redactingHandler{next: h.next.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name), redactor: h.redactor}
}
