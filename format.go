package formmail

import (
	"strings"
)

const (
	messageSignature = "\n---\nSubmitted via Braam Fashion Week Applications Portal"
)

// FormatMessage serializes an application submission into the plain-text
// body sent to the relay. Blank values and file inputs are skipped; values
// appear in submission order.
func FormatMessage(category string, sub *Submission) string {
	return formatMessage(category, sub, nil)
}

func formatMessage(category string, sub *Submission, form *FormSpec) string {
	var b strings.Builder
	b.WriteString("New ")
	b.WriteString(category)
	b.WriteString(" Application for Braam Fashion Week:\n\n")

	if sub != nil {
		for _, key := range sub.keys {
			value := sub.values[key]
			if strings.TrimSpace(value) == "" {
				continue
			}
			if isFileField(key) || (form != nil && form.isFile(key)) {
				continue
			}
			label := Label(key)
			if form != nil {
				if fs, ok := form.Field(key); ok {
					label = fs.DisplayLabel()
				}
			}
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteByte('\n')
		}
	}

	b.WriteString(messageSignature)
	return b.String()
}

// FormatPhone renders the digits of value as a partial or complete
// (ddd) ddd-dddd number. Digits past the tenth are dropped.
func FormatPhone(value string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)

	switch n := len(digits); {
	case n >= 10:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:10]
	case n >= 6:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	case n >= 3:
		return "(" + digits[:3] + ") " + digits[3:]
	default:
		return digits
	}
}
