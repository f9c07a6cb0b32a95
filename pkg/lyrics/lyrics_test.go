package lyrics

import (
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single line",
			in:   "hello world",
			want: "##hello world##",
		},
		{
			name: "multiple lines",
			in:   "line one\nline two",
			want: "##line one\nline two##",
		},
		{
			name: "blank lines dropped",
			in:   "line one\n\n\nline two\n",
			want: "##line one\nline two##",
		},
		{
			name: "whitespace trimmed",
			in:   "  line one  \n\t line two\t",
			want: "##line one\nline two##",
		},
		{
			name: "only blank lines",
			in:   "\n \n\t\n",
			want: "####",
		},
		{
			name: "empty input",
			in:   "",
			want: "####",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.in)
			if got != tt.want {
				t.Errorf("Format(%q) = %q; want %q", tt.in, got, tt.want)
			}
			if !strings.HasPrefix(got, Delimiter) || !strings.HasSuffix(got, Delimiter) {
				t.Errorf("Format(%q) = %q; missing delimiter", tt.in, got)
			}
		})
	}
}
