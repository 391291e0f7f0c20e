package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/envelope/internal/errors"
)

func TestKeyName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{
			name:      "four characters",
			input:     "ABCd",
			shouldErr: false,
		},
		{
			name:      "digits",
			input:     "1969",
			shouldErr: false,
		},
		{
			name:      "empty is left to Required",
			input:     "",
			shouldErr: false,
		},
		{
			name:      "too short",
			input:     "abc",
			shouldErr: true,
		},
		{
			name:      "too long",
			input:     "TooShort",
			shouldErr: true,
		},
		{
			name:      "non ascii",
			input:     "abé",
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := KeyName.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "characters in length")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBase64(t *testing.T) {
	assert.NoError(t, Base64.Validate("aGVsbG8="))
	assert.NoError(t, Base64.Validate(""))
	assert.Error(t, Base64.Validate("not base64!"))
	assert.Error(t, Base64.Validate(42))
}

func TestDecodeBase64(t *testing.T) {
	data, err := DecodeBase64("aGVsbG8=")
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = DecodeBase64("%%%")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStringRules(t *testing.T) {
	cases := []struct {
		rule  string
		input string
		valid bool
	}{
		{"NoWhitespace", "rotation note", true},
		{"NoWhitespace", " rotation note", false},
		{"NoWhitespace", "rotation note\n", false},
		{"NotBlank", "x", true},
		{"NotBlank", " \t\n ", false},
		{"NotBlank", "\t", false},
	}

	rules := map[string]interface{ Validate(any) error }{
		"NoWhitespace": NoWhitespace,
		"NotBlank":     NotBlank,
	}

	for _, tc := range cases {
		t.Run(tc.rule+"/"+tc.input, func(t *testing.T) {
			err := rules[tc.rule].Validate(tc.input)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(assert.AnError)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), assert.AnError.Error())
}
