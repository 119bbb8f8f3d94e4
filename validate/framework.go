package validate

import (
	"errors"
	"fmt"
	"strings"
)

// Framework selects the styling stack the generated component uses.
// The value is passed to the model verbatim.
type Framework string

const (
	HTMLCSS               Framework = "html-css"
	HTMLTailwind          Framework = "html-tailwind"
	HTMLBootstrap         Framework = "html-bootstrap"
	HTMLCSSJS             Framework = "html-css-js"
	HTMLTailwindBootstrap Framework = "html-tailwind-bootstrap"

	DefaultFramework = HTMLCSS
)

var ErrUnknownFramework = errors.New("unknown framework")

var frameworkLabels = map[Framework]string{
	HTMLCSS:               "HTML + CSS",
	HTMLTailwind:          "HTML + Tailwind CSS",
	HTMLBootstrap:         "HTML + Bootstrap",
	HTMLCSSJS:             "HTML + CSS + JS",
	HTMLTailwindBootstrap: "HTML + Tailwind + Bootstrap",
}

// Frameworks returns the supported frameworks in display order.
func Frameworks() []Framework {
	return []Framework{HTMLCSS, HTMLTailwind, HTMLBootstrap, HTMLCSSJS, HTMLTailwindBootstrap}
}

// Valid reports whether f belongs to the supported set.
func (f Framework) Valid() bool {
	_, ok := frameworkLabels[f]
	return ok
}

// Label is the human readable name shown in selectors.
func (f Framework) Label() string {
	if l, ok := frameworkLabels[f]; ok {
		return l
	}
	return string(f)
}

func (f Framework) String() string { return string(f) }

// ParseFramework accepts a framework identifier, ignoring case and
// surrounding whitespace. An empty string yields DefaultFramework.
func ParseFramework(s string) (Framework, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultFramework, nil
	}
	f := Framework(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFramework, s)
	}
	return f, nil
}
