package claimxml

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "two words", header: "Claim Number", want: "CLAIM_NUMBER"},
		{name: "surrounding whitespace", header: "  num account  ", want: "NUM_ACCOUNT"},
		{name: "run of spaces", header: "Dat   Intimation", want: "DAT_INTIMATION"},
		{name: "already normalized", header: "TXT_NAME_OF_HOSPITAL_CLINIC", want: "TXT_NAME_OF_HOSPITAL_CLINIC"},
		{name: "punctuation kept", header: "Amount (INR)", want: "AMOUNT_(INR)"},
		{name: "empty", header: "", want: ""},
		{name: "blank", header: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTag(tt.header))
		})
	}
}

func TestNormalizeTag_Idempotent(t *testing.T) {
	for _, h := range []string{"Claim Number", " a  b c ", "Num IFSC Code", "x", "", "1st Visit"} {
		once := NormalizeTag(h)
		assert.Equal(t, once, NormalizeTag(once), "header %q", h)
	}
}

func TestSafeElementName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{tag: "CLAIM_NUMBER", want: "CLAIM_NUMBER"},
		{tag: "NUM-1.A", want: "NUM-1.A"},
		{tag: "", want: "_"},
		{tag: "1ST_VISIT", want: "_1ST_VISIT"},
		{tag: "AMOUNT_(INR)", want: "AMOUNT__INR_"},
		{tag: "A:B", want: "A_B"},
		{tag: "-X", want: "_-X"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got := SafeElementName(tt.tag)
			assert.Equal(t, tt.want, got)

			doc := "<" + got + "></" + got + ">"
			var v struct{}
			assert.NoError(t, xml.NewDecoder(strings.NewReader(doc)).Decode(&v), "name %q must parse", got)
		})
	}
}
