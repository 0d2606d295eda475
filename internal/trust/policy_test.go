package trust

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicy_IsTrusted(t *testing.T) {
	p := NewPolicy(DefaultDomains)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"exact host", "https://huggingface.co/x", true},
		{"subdomain", "https://cdn-lfs.huggingface.co/repos/a/b", true},
		{"suffix attack", "https://evilhuggingface.co/x", false},
		{"other listed host", "https://civitai.com/api/download/models/1", true},
		{"unlisted host", "https://example.com/model.bin", false},
		{"not a url", "not a url", false},
		{"empty", "", false},
		{"scheme only", "https://", false},
		{"case insensitive", "https://HuggingFace.CO/x", true},
		{"host with port", "https://huggingface.co:443/x", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, p.IsTrusted(tc.url))
		})
	}
}

func TestPolicy_EmptyListTrustsNothing(t *testing.T) {
	p := NewPolicy(nil)
	require.False(t, p.IsTrusted("https://huggingface.co/x"))
}

func TestPolicy_NormalizesConfiguredDomains(t *testing.T) {
	p := NewPolicy([]string{" Example.COM ", ""})
	require.True(t, p.IsTrusted("https://example.com/a"))
	require.True(t, p.IsTrusted("https://sub.example.com/a"))
	require.False(t, p.IsTrusted("https://example.org/a"))
}
