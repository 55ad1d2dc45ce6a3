package scanning

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

var (
	jsonFence     = regexp.MustCompile("(?i)```json\\s*")
	bareFence     = regexp.MustCompile("```\\s*")
	leadingTag    = regexp.MustCompile(`(?i)^json\s*`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ExtractJSON pulls a syntactically valid JSON object out of a model reply.
// It strips markdown fences, keeps the span from the first '{' to the last '}',
// and runs repairJSON once if that span does not parse.
func ExtractJSON(raw string) ([]byte, error) {
	text := strings.TrimSpace(raw)
	text = jsonFence.ReplaceAllString(text, "")
	text = bareFence.ReplaceAllString(text, "")
	text = leadingTag.ReplaceAllString(text, "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, &FormatError{
			Kind:    NoJSON,
			Message: "No JSON structure found",
			Offset:  -1,
			Preview: truncate(raw, 300),
		}
	}
	candidate := text[start : end+1]

	parseErr := checkJSON(candidate)
	if parseErr == nil {
		return []byte(candidate), nil
	}

	slog.Warn("JSON parse failed, attempting repair", "error", parseErr, "offset", errorOffset(parseErr))

	repaired := repairJSON(candidate)
	if err := checkJSON(repaired); err != nil {
		slog.Error("JSON repair failed", "error", err)
		return nil, &FormatError{
			Kind:    Syntax,
			Message: parseErr.Error(),
			Offset:  errorOffset(parseErr),
			Head:    truncate(candidate, 500),
			Tail:    tail(candidate, 200),
		}
	}

	slog.Info("JSON repaired", "original_length", len(candidate), "repaired_length", len(repaired))
	return []byte(repaired), nil
}

// repairJSON fixes the truncation and trailing-noise errors models commonly make.
// It never reorders content: it only drops trailing commas and trailing garbage,
// then appends missing closers. Closers are counted without regard to strings,
// and brackets are closed before braces, which matches a reply truncated inside
// an array of objects but can mis-repair other nesting shapes.
func repairJSON(s string) string {
	repaired := trailingComma.ReplaceAllString(s, "${1}")

	if last := strings.LastIndex(repaired, "}"); last != -1 && last < len(repaired)-1 {
		after := strings.TrimSpace(repaired[last+1:])
		if after != "" && !strings.HasPrefix(after, "]") {
			slog.Debug("Removing trailing text after JSON", "text", truncate(after, 50))
			repaired = repaired[:last+1]
		}
	}

	openBraces := strings.Count(repaired, "{")
	closeBraces := strings.Count(repaired, "}")
	openBrackets := strings.Count(repaired, "[")
	closeBrackets := strings.Count(repaired, "]")

	if openBrackets > closeBrackets {
		repaired += "\n" + strings.Repeat("]", openBrackets-closeBrackets)
	}
	if openBraces > closeBraces {
		repaired += "\n" + strings.Repeat("}", openBraces-closeBraces)
	}

	return repaired
}

// parseReceiptJSON extracts and decodes the model reply into ReceiptData
func parseReceiptJSON(text string) (*ReceiptData, error) {
	doc, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var data ReceiptData
	if err := json.Unmarshal(doc, &data); err != nil {
		return nil, &FormatError{
			Kind:    Syntax,
			Message: fmt.Sprintf("unmarshaling receipt: %v", err),
			Offset:  errorOffset(err),
			Head:    truncate(string(doc), 500),
			Tail:    tail(string(doc), 200),
		}
	}

	return &data, nil
}

func checkJSON(s string) error {
	var v any
	return json.Unmarshal([]byte(s), &v)
}

// errorOffset returns the byte offset carried by encoding/json errors, or -1
func errorOffset(err error) int64 {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Offset
	}
	return -1
}

// truncate returns at most n runes from the start of s
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// tail returns at most n runes from the end of s
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
