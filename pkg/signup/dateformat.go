package signup

import (
	"fmt"
	"time"

	"github.com/tendant/simple-register/pkg/registerform"
)

// DefaultDateLocale formats dates the way the Finnish medium style does: 1.5.1990.
const DefaultDateLocale = "fi-FI"

// medium date layouts for the locales the service is deployed with
var dateLayouts = map[string]string{
	"fi-FI": "2.1.2006",
	"sv-FI": "2.1.2006",
	"sv-SE": "2006-01-02",
	"de-DE": "02.01.2006",
	"en-GB": "2 Jan 2006",
	"en-US": "Jan 2, 2006",
}

// DateFormatter turns an ISO date from the form into the string stored as
// account metadata.
type DateFormatter func(iso string) (string, error)

// NewDateFormatter returns the formatter for locale.
func NewDateFormatter(locale string) (DateFormatter, error) {
	if locale == "" {
		locale = DefaultDateLocale
	}
	layout, ok := dateLayouts[locale]
	if !ok {
		return nil, fmt.Errorf("unsupported date locale %q", locale)
	}
	return func(iso string) (string, error) {
		t, err := time.Parse(registerform.DateLayout, iso)
		if err != nil {
			return "", fmt.Errorf("parse date of birth: %w", err)
		}
		return t.Format(layout), nil
	}, nil
}
