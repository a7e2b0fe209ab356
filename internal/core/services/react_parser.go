package services

import (
	"regexp"
	"strings"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

var (
	finalAnswerRe = regexp.MustCompile(`(?is)Final\s*Answer\s*:\s*(.*)`)
	actionRe      = regexp.MustCompile(`(?im)^\s*Action\s*:[ \t]*(.*)$`)
	actionInputRe = regexp.MustCompile(`(?is)Action\s*Input\s*:\s*(.*)`)
	thoughtRe     = regexp.MustCompile(`(?i)^\s*Thought\s*:`)
	observationRe = regexp.MustCompile(`(?i)\n\s*Observation\s*:`)
)

// ParseActionStep extracts Thought/Action/Action Input or Final Answer from an LLM response.
//
// Anything from the first "Observation:" line on is discarded: the model must not
// invent tool output. A response with both an action and a final answer, or with
// neither, is rejected with an *ActionParseError.
func ParseActionStep(response string) (domain.ActionStep, error) {
	text := response
	if loc := observationRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	finalMatch := finalAnswerRe.FindStringSubmatchIndex(text)
	actionMatch := actionRe.FindStringSubmatchIndex(text)

	// The thought is whatever precedes the action or answer; the "Thought:"
	// label is optional because the prompt already ends with it.
	step := domain.ActionStep{}
	if end := firstIndex(finalMatch, actionMatch); end >= 0 {
		step.Thought = strings.TrimSpace(thoughtRe.ReplaceAllString(text[:end], ""))
	}

	switch {
	case finalMatch != nil && actionMatch != nil:
		return domain.ActionStep{}, &domain.ActionParseError{Raw: response}

	case finalMatch != nil:
		step.IsFinal = true
		step.FinalAnswer = normalizeFinalAnswer(text[finalMatch[2]:finalMatch[3]])
		return step, nil

	case actionMatch != nil:
		name := strings.Trim(strings.TrimSpace(text[actionMatch[2]:actionMatch[3]]), "`*\"'")
		if name == "" {
			return domain.ActionStep{}, &domain.ActionParseError{Raw: response}
		}
		inputMatch := actionInputRe.FindStringSubmatch(text[actionMatch[1]:])
		if inputMatch == nil {
			return domain.ActionStep{}, &domain.ActionParseError{Raw: response}
		}
		step.Action = &domain.ActionInvocation{
			ToolName:  name,
			ToolInput: unquote(firstLine(inputMatch[1])),
		}
		return step, nil
	}

	return domain.ActionStep{}, &domain.ActionParseError{Raw: response}
}

// normalizeFinalAnswer trims the payload; a quoted empty string literal
// is the model's way of saying nothing was found.
func normalizeFinalAnswer(s string) string {
	s = strings.TrimSpace(s)
	if s == `""` || s == `''` {
		return ""
	}
	return s
}

func firstIndex(matches ...[]int) int {
	idx := -1
	for _, m := range matches {
		if m != nil && (idx < 0 || m[0] < idx) {
			idx = m[0]
		}
	}
	return idx
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

func unquote(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}
