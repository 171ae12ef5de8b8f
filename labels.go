package formmail

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// fieldLabels maps submission keys to the labels used in the formatted message.
var fieldLabels = map[string]string{
	"name":         "Full Name",
	"email":        "Email Address",
	"phone":        "Phone Number",
	"age":          "Age",
	"brand":        "Brand Name",
	"experience":   "Experience Level",
	"style":        "Design Style/Aesthetic",
	"theme":        "Collection Theme",
	"motivation":   "Motivation",
	"height":       "Height (cm)",
	"measurements": "Measurements",
	"location":     "Current Location",
	"skills":       "Special Skills/Talents",
}

// Label returns the display label for a field key. Unknown keys are returned
// with their first letter upper-cased.
func Label(key string) string {
	if label, ok := fieldLabels[key]; ok {
		return label
	}
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// fileFields are never included in the formatted message.
var fileFields = map[string]bool{
	"portfolio": true,
	"photos":    true,
}

// isFileField reports whether key names a file upload.
func isFileField(key string) bool {
	return fileFields[strings.ToLower(key)]
}
