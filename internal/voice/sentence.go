package voice

import "strings"

// SentenceBuffer accumulates text and splits at sentence boundaries, so
// long interviewer lines can be synthesized sentence by sentence.
type SentenceBuffer struct {
	buf strings.Builder
}

// Add appends text and returns any complete sentence ready for synthesis.
// Returns empty string if no sentence boundary is detected yet.
func (s *SentenceBuffer) Add(text string) string {
	s.buf.WriteString(text)
	whole := s.buf.String()
	complete, remainder := splitAtSentence(whole)
	if complete == "" {
		return ""
	}
	s.buf.Reset()
	s.buf.WriteString(remainder)
	return complete
}

// Flush returns any remaining text in the buffer.
func (s *SentenceBuffer) Flush() string {
	text := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	return text
}

// Split breaks a complete text into sentences for per-sentence synthesis.
func Split(text string) []string {
	var out []string
	var buf SentenceBuffer
	if chunk := buf.Add(text); chunk != "" {
		for _, line := range strings.Split(chunk, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	if rest := buf.Flush(); rest != "" {
		out = append(out, rest)
	}
	return out
}

var sentenceEnders = map[byte]bool{'.': true, '!': true, '?': true}

// splitAtSentence finds the last sentence boundary in text.
// A boundary is a sentence ender (.!?) followed by whitespace.
// Returns (completeSentences, remainder). If no boundary, returns ("", text).
func splitAtSentence(text string) (string, string) {
	lastIdx := -1
	for i := range len(text) - 1 {
		if sentenceEnders[text[i]] && isWordBoundary(text[i+1]) {
			lastIdx = i + 1
		}
	}
	if lastIdx < 0 {
		return "", text
	}
	return strings.TrimSpace(text[:lastIdx]), text[lastIdx:]
}

func isWordBoundary(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\t'
}
