package process

import (
	"errors"
	"testing"

	"github.com/tradecourse/course-content/pkg/utils"
)

func TestStripFrontMatter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no front matter", "# Title\n", "# Title\n"},
		{"basic", "---\ntitle: A\n---\n# Title\n", "# Title\n"},
		{"crlf", "---\r\ntitle: A\r\n---\r\nBody", "Body"},
		{"trailing spaces on delimiter", "---  \ntitle: A\n---\t\nBody", "Body"},
		{"empty block", "---\n---\nBody", "Body"},
		{"closing at eof", "---\ntitle: A\n---", ""},
		{"delimiter not first line", "\n---\ntitle: A\n---\n", "\n---\ntitle: A\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripFrontMatter([]byte(tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripFrontMatter_Unterminated(t *testing.T) {
	for _, in := range []string{"---", "---\n", "---\ntitle: A\n# Body\n"} {
		_, err := StripFrontMatter([]byte(in))
		if !errors.Is(err, utils.ErrParsing) {
			t.Errorf("StripFrontMatter(%q) error = %v, want ErrParsing", in, err)
		}
	}
}
