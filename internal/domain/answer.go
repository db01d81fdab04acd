package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const NoResponseText = "No response received"

// answerFields is the lookup order used to pick the display text out of a
// structured payload.
var answerFields = []string{"answer", "response", "message", "result", "output", "data"}

// Payload is a raw reply from the remote assistant.
type Payload struct {
	ContentType string
	Body        []byte
}

type Answer struct {
	Text            string
	Sources         []Source
	MatchedKeywords []string
	Router          string
}

type valueKind int

const (
	kindNone valueKind = iota
	kindText
	kindRecord
	kindList
	kindScalar
)

type decodedValue struct {
	kind   valueKind
	text   string
	record map[string]any
	raw    any
}

// NormalizePayload reduces a payload to a single display string.
func NormalizePayload(payload Payload) string {
	return DecodeAnswer(payload).Text
}

// DecodeAnswer normalizes the payload text and lifts citation metadata out of
// structured replies.
func DecodeAnswer(payload Payload) Answer {
	value := decodePayload(payload)

	answer := Answer{Text: displayText(value)}
	if value.kind == kindRecord {
		answer.Sources = recordSources(value.record)
		answer.MatchedKeywords = recordStrings(value.record, "matched_keywords")
		answer.Router, _ = value.record["router"].(string)
	}

	return answer
}

func decodePayload(payload Payload) decodedValue {
	if isJSONContentType(payload.ContentType) {
		if raw, ok := parseJSON(payload.Body); ok {
			return unwrapEncoded(classify(raw))
		}
	}

	text := string(payload.Body)
	raw, ok := parseJSON(payload.Body)
	if !ok {
		return decodedValue{kind: kindText, text: text}
	}

	return unwrapEncoded(classify(raw))
}

// unwrapEncoded parses one more level when a JSON string itself holds JSON.
func unwrapEncoded(value decodedValue) decodedValue {
	if value.kind != kindText {
		return value
	}

	raw, ok := parseJSON([]byte(value.text))
	if !ok {
		return value
	}

	return classify(raw)
}

func classify(raw any) decodedValue {
	switch v := raw.(type) {
	case nil:
		return decodedValue{kind: kindNone}
	case string:
		return decodedValue{kind: kindText, text: v, raw: v}
	case map[string]any:
		return decodedValue{kind: kindRecord, record: v, raw: v}
	case []any:
		return decodedValue{kind: kindList, raw: v}
	default:
		return decodedValue{kind: kindScalar, raw: v}
	}
}

func displayText(value decodedValue) string {
	switch value.kind {
	case kindText:
		return orFallback(strings.TrimSpace(value.text))
	case kindRecord:
		return recordText(value.record)
	case kindList:
		return orFallback(serialize(value.raw))
	case kindScalar:
		return orFallback(scalarText(value.raw))
	default:
		return NoResponseText
	}
}

func recordText(record map[string]any) string {
	for _, field := range answerFields {
		selected, ok := record[field]
		if !ok || !truthy(selected) {
			continue
		}

		switch v := selected.(type) {
		case string:
			return orFallback(cleanText(v))
		case bool, float64:
			return scalarText(v)
		default:
			return orFallback(serialize(v))
		}
	}

	return orFallback(serialize(record))
}

// cleanText strips one leading and one trailing quote, unescapes quotes,
// expands literal \n sequences and trims.
func cleanText(text string) string {
	text = strings.TrimPrefix(text, `"`)
	text = strings.TrimSuffix(text, `"`)
	text = strings.ReplaceAll(text, `\"`, `"`)
	text = strings.ReplaceAll(text, `\n`, "\n")
	return strings.TrimSpace(text)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return true
	}
}

func scalarText(value any) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return serialize(v)
	}
}

func serialize(value any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

func parseJSON(data []byte) (any, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, false
	}

	return raw, true
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

func orFallback(text string) string {
	if text == "" {
		return NoResponseText
	}
	return text
}

func recordSources(record map[string]any) []Source {
	raw, ok := record["sources"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var sources []Source
	if err := json.Unmarshal(encoded, &sources); err != nil {
		return nil
	}

	return sources
}

func recordStrings(record map[string]any, key string) []string {
	raw, ok := record[key].([]any)
	if !ok {
		return nil
	}

	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			values = append(values, s)
		}
	}
	if len(values) == 0 {
		return nil
	}

	return values
}
