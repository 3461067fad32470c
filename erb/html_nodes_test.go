package erb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsVoidTagName(t *testing.T) {
	cases := []struct {
		name string
		tag  string
		want bool
	}{
		{"br lowercase", "br", true},
		{"BR uppercase", "BR", true},
		{"img", "img", true},
		{"input", "input", true},
		{"div is not void", "div", false},
		{"unknown tag name", "frobnicate", false},
		{"empty string", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsVoidTagName(tc.tag))
		})
	}
}

func TestHtmlOpenCloseTagNameReadsToken(t *testing.T) {
	open := &HtmlOpenTag{TagNameToken: Token{Value: "section"}}
	close_ := &HtmlCloseTag{TagNameToken: Token{Value: "section"}}
	require.Equal(t, "section", open.TagName())
	require.Equal(t, "section", close_.TagName())
}

func TestHtmlConditionalOpenTagNameReadsToken(t *testing.T) {
	n := &HtmlConditionalOpenTag{TagNameToken: Token{Value: "li"}}
	require.Equal(t, "li", n.TagName())
}
