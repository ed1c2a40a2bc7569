package config

import "log/slog"

// Secret masks a credential so it does not end up in logs or error messages.
type Secret struct {
	value *string
}

// NewSecret wraps value.
func NewSecret(value string) Secret {
	return Secret{value: &value}
}

// Secret returns the unmasked value.
func (s Secret) Secret() string {
	if s.value == nil {
		return ""
	}

	return *s.value
}

func (s Secret) String() string {
	return "******"
}

// LogValue keeps the credential masked when passed to slog.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}
