// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import "strings"

// cleanResponse strips markdown fences and a leading "json" word from model
// output. Small models often answer `json {"has_binding_info": true}`.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}
	return s
}

// repairJSON attempts to fix common JSON formatting issues from LLM responses.
// It quotes bare keys, including keys missing only their opening quote, and
// rewrites Python literals (True, False, None) that appear outside strings.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	inString := false
	for i := 0; i < len(in); {
		ch := in[i]

		if inString {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(in) {
				out = append(out, in[i+1])
				i += 2
				continue
			}
			if ch == '"' {
				inString = false
			}
			i++
			continue
		}

		switch {
		case ch == '"':
			inString = true
			out = append(out, ch)
			i++

		case ch == '{' || ch == ',':
			out = append(out, ch)
			i++
			for i < len(in) && isSpace(in[i]) {
				out = append(out, in[i])
				i++
			}
			if i >= len(in) || !isKeyStart(in[i]) {
				continue
			}
			start := i
			for i < len(in) && isKeyRune(in[i]) {
				i++
			}
			key := in[start:i]
			j := i
			for j < len(in) && in[j] == ' ' {
				j++
			}
			switch {
			case j+1 < len(in) && in[j] == '"' && in[j+1] == ':':
				// key": -> "key":
				out = append(out, '"')
				out = append(out, key...)
				out = append(out, '"')
				i = j + 1
			case j < len(in) && in[j] == ':':
				// key: -> "key":
				out = append(out, '"')
				out = append(out, key...)
				out = append(out, '"')
				i = j
			default:
				out = append(out, replaceLiteral(key)...)
			}

		case isKeyStart(ch):
			start := i
			for i < len(in) && isKeyRune(in[i]) {
				i++
			}
			out = append(out, replaceLiteral(in[start:i])...)

		default:
			out = append(out, ch)
			i++
		}
	}

	return string(out)
}

func replaceLiteral(word []rune) []rune {
	switch string(word) {
	case "True":
		return []rune("true")
	case "False":
		return []rune("false")
	case "None":
		return []rune("null")
	}
	return word
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

// isKeyStart returns true if the rune is an ASCII letter or underscore.
func isKeyStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isKeyRune(r rune) bool {
	return isKeyStart(r) || (r >= '0' && r <= '9')
}
