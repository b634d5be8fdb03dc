package process

import (
	"bytes"
	"fmt"

	"github.com/tradecourse/course-content/pkg/utils"
)

var frontMatterDelimiter = []byte("---")

// StripFrontMatter removes a leading front-matter block from body.
// The block must start on the very first line with a line containing only "---" and ends at the
// next such line. Bodies without a leading delimiter are returned unchanged.
// An opening delimiter with no closing one is a parse failure.
func StripFrontMatter(body []byte) ([]byte, error) {
	first, rest, found := cutLine(body)
	if !isDelimiterLine(first) {
		return body, nil
	}
	if !found {
		return nil, fmt.Errorf("%w: unterminated front matter block", utils.ErrParsing)
	}

	for len(rest) > 0 {
		var line []byte
		line, rest, found = cutLine(rest)
		if isDelimiterLine(line) {
			return rest, nil
		}
		if !found {
			break
		}
	}
	return nil, fmt.Errorf("%w: unterminated front matter block", utils.ErrParsing)
}

// cutLine splits off the first line (without its newline). found reports whether a newline was present.
func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}

func isDelimiterLine(line []byte) bool {
	return bytes.Equal(bytes.TrimRight(line, " \t"), frontMatterDelimiter)
}
