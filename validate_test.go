package formmail_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braamfashionweek/formmail"
)

func contact(name, email, message string) *formmail.Submission {
	return formmail.NewSubmission().
		Set("name", name).
		Set("email", email).
		Set("message", message)
}

func TestValidate_Contact(t *testing.T) {
	t.Parallel()

	form := formmail.ContactForm()

	tests := []struct {
		name     string
		sub      *formmail.Submission
		valid    bool
		messages []string
	}{
		{
			name:  "valid",
			sub:   contact("Ava", "user@example.com", "Hello there, Braam!"),
			valid: true,
		},
		{
			name:  "all missing",
			sub:   contact("", "  ", ""),
			valid: false,
			messages: []string{
				"Please enter your name.",
				"Please enter your email address.",
				"Please enter your message.",
			},
		},
		{
			name:     "short name",
			sub:      contact("A", "user@example.com", "Hello there, Braam!"),
			messages: []string{"Name must be at least 2 characters long."},
		},
		{
			name:     "bad email",
			sub:      contact("Ava", "not-an-email", "Hello there, Braam!"),
			messages: []string{"Please enter a valid email address."},
		},
		{
			name:     "message nine characters",
			sub:      contact("Ava", "user@example.com", "123456789"),
			messages: []string{"Message must be at least 10 characters long."},
		},
		{
			name:  "message ten characters",
			sub:   contact("Ava", "user@example.com", "1234567890"),
			valid: true,
		},
		{
			name:  "message five hundred characters",
			sub:   contact("Ava", "user@example.com", strings.Repeat("a", 500)),
			valid: true,
		},
		{
			name:     "message five hundred and one characters",
			sub:      contact("Ava", "user@example.com", strings.Repeat("a", 501)),
			messages: []string{"Message must be no more than 500 characters long."},
		},
		{
			name:     "length counted after trimming",
			sub:      contact(" A ", "user@example.com", "   short   "),
			messages: []string{"Name must be at least 2 characters long.", "Message must be at least 10 characters long."},
		},
		{
			name:  "multibyte characters count once",
			sub:   contact("Zoë", "zoe@example.com", "ééééééééé é"),
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := formmail.Validate(form, tt.sub)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Empty(t, res.Errors)
				return
			}
			assert.Equal(t, tt.messages, res.Messages())
		})
	}
}

func TestValidate_OneErrorPerMissingRequiredField(t *testing.T) {
	t.Parallel()

	for _, form := range []*formmail.FormSpec{formmail.DesignerForm(), formmail.ModelForm(), formmail.ContactForm()} {
		t.Run(form.ID, func(t *testing.T) {
			t.Parallel()

			res := formmail.Validate(form, formmail.NewSubmission())
			require.False(t, res.Valid)

			var required []string
			for _, f := range form.Fields {
				if f.Required {
					required = append(required, f.Name)
				}
			}
			assert.Equal(t, required, res.InvalidFields())
		})
	}
}

func TestValidate_Designer(t *testing.T) {
	t.Parallel()

	sub := formmail.NewSubmission().
		Set("name", "Ava").
		Set("email", "a@b.com").
		Set("brand", "AV").
		Set("experience", "emerging")

	res := formmail.Validate(formmail.DesignerForm(), sub)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "motivation", res.Errors[0].Field)
	assert.Equal(t, "Please enter your motivation.", res.Errors[0].Message)
	assert.Equal(t, "Motivation is required", res.Errors[0].Hint)

	sub.Set("motivation", "Show at BFW")
	assert.True(t, formmail.Validate(formmail.DesignerForm(), sub).Valid)
}

func TestValidate_ModelGenericMessages(t *testing.T) {
	t.Parallel()

	sub := formmail.NewSubmission().
		Set("name", "Kai").
		Set("email", "kai@example.com").
		Set("age", "21").
		Set("height", "").
		Set("measurements", "86-61-89")

	res := formmail.Validate(formmail.ModelForm(), sub)
	assert.Equal(t, []string{
		"Please enter your height (cm).",
		"Please enter your current location.",
	}, res.Messages())
}

func TestValidateField(t *testing.T) {
	t.Parallel()

	form := formmail.ContactForm()

	assert.Nil(t, formmail.ValidateField(form, "name", "Av"))
	assert.Nil(t, formmail.ValidateField(form, "unknown", ""))

	fe := formmail.ValidateField(form, "email", "user@")
	require.NotNil(t, fe)
	assert.Equal(t, "Please enter a valid email", fe.Hint)

	fe = formmail.ValidateField(form, "message", "")
	require.NotNil(t, fe)
	assert.Equal(t, "Message is required", fe.Hint)
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	assert.True(t, formmail.ValidEmail("user@example.com"))
	assert.True(t, formmail.ValidEmail("a.b+c@sub.example.co"))
	assert.False(t, formmail.ValidEmail("not-an-email"))
	assert.False(t, formmail.ValidEmail("user@example"))
	assert.False(t, formmail.ValidEmail("us er@example.com"))
	assert.False(t, formmail.ValidEmail("@example.com"))
}
