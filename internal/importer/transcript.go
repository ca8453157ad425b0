package importer

import (
	"errors"
	"regexp"
	"strings"
)

var (
	sectionHeading = regexp.MustCompile(`^## (質問|回答|Question |Answer )(\d+)\s*$`)
	imageLine      = regexp.MustCompile(`^!\[[^\]]*\]\((.+)\)\s*$`)
)

// parseTranscript turns a question/answer transcript back into records
// shaped like the structured document's conversation list.
//
// Any line that matches a section heading starts a new section, including
// one inside a turn body. A reply containing "## Question 2" or "## 回答1"
// on its own line therefore comes back as extra turns; use a structured
// format when content may contain such lines.
func parseTranscript(text string) ([]any, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")

	var records []any
	var role string
	var body []string

	flush := func() {
		if role == "" {
			return
		}
		rec := map[string]any{"role": role}
		if role == "user" && len(body) > 0 {
			if m := imageLine.FindStringSubmatch(body[len(body)-1]); m != nil {
				rec["image_path"] = m[1]
				body = body[:len(body)-1]
			}
		}
		rec["content"] = strings.Join(body, "\n")
		records = append(records, rec)
	}

	for _, line := range strings.Split(text, "\n") {
		m := sectionHeading.FindStringSubmatch(line)
		if m == nil {
			if role != "" {
				body = append(body, line)
			}
			continue
		}
		flush()
		body = nil
		switch m[1] {
		case "質問", "Question ":
			role = "user"
		default:
			role = "assistant"
		}
	}
	flush()

	if len(records) == 0 {
		return nil, errors.New("no question or answer sections found")
	}
	return records, nil
}
