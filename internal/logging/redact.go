package logging

import (
	"log/slog"

	"github.com/fluxcd/pkg/masktoken"
)

// Redactor masks a fixed set of secrets in log output. A nil Redactor is a
// no-op.
type Redactor struct {
	secrets []string
}

// NewRedactor ignores empty secrets.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, secret := range secrets {
		if secret != "" {
			r.secrets = append(r.secrets, secret)
		}
	}
	return r
}

// String returns s with every secret replaced by "*****".
func (r *Redactor) String(s string) string {
	if r == nil {
		return s
	}
	for _, secret := range r.secrets {
		masked, err := masktoken.MaskTokenFromString(s, secret)
		if err != nil {
			// The pattern is built from a quoted literal; a compile
			// failure means nothing safe can be printed.
			return "*****"
		}
		s = masked
	}
	return s
}

// Error returns err's message with secrets masked.
func (r *Redactor) Error(err error) string {
	if err == nil {
		return ""
	}
	return r.String(err.Error())
}

func (r *Redactor) attr(attr slog.Attr) slog.Attr {
	if r == nil {
		return attr
	}
	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		attr.Value = slog.StringValue(r.String(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok && err != nil {
			attr.Value = slog.StringValue(r.Error(err))
		}
	}
	return attr
}
