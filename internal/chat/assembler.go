package chat

import (
	"encoding/json"
	"strings"
)

// doneSentinel terminates a stream. Some providers close the transport
// without sending it, so the assembler also flushes on close.
const doneSentinel = "[DONE]"

const dataPrefix = "data: "

// streamPayload mirrors the relevant slice of an OpenAI-style streaming
// chat completion frame.
type streamPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Assembler reassembles server-sent-event chunks into assistant message
// content. It tolerates chunk boundaries that split lines anywhere:
// complete lines are extracted up to each newline, and a line whose JSON
// fails to parse is pushed back onto the front of the buffer, newline
// restored, where it stays until the final flush classifies each residual
// line one by one and drops only the lines that still do not parse.
//
// The assembler is a pure state machine with no I/O of its own, so it can
// be driven by any byte source.
type Assembler struct {
	buf     string
	content strings.Builder
	done    bool
}

// NewAssembler returns an assembler ready to receive the first chunk.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Push appends a chunk of stream bytes and returns the content fragments
// that became complete, in order. After the terminator sentinel has been
// seen, further pushes return nothing.
func (a *Assembler) Push(chunk []byte) []string {
	if a.done {
		return nil
	}
	a.buf += string(chunk)
	return a.drain(false)
}

// Flush processes any residual buffered content after the transport has
// closed. The terminator may never arrive if the server closes the
// connection cleanly, so the remainder is run through the same line
// classification once more. A partial frame that still fails to parse at
// this point is dropped.
func (a *Assembler) Flush() []string {
	if a.done {
		return nil
	}
	fragments := a.drain(true)
	a.done = true
	return fragments
}

// Done reports whether the stream terminated via the sentinel or Flush.
func (a *Assembler) Done() bool {
	return a.done
}

// Content returns everything accumulated so far.
func (a *Assembler) Content() string {
	return a.content.String()
}

// drain repeatedly extracts the first complete line from the buffer and
// classifies it. When final is set, the trailing unterminated remainder is
// classified as well and parse failures are no longer re-queued.
func (a *Assembler) drain(final bool) []string {
	var fragments []string

	for {
		idx := strings.IndexByte(a.buf, '\n')
		var line string
		if idx >= 0 {
			line = strings.TrimSuffix(a.buf[:idx], "\r")
			a.buf = a.buf[idx+1:]
		} else {
			if !final || a.buf == "" {
				break
			}
			line = strings.TrimSuffix(a.buf, "\r")
			a.buf = ""
		}

		fragment, ok := a.classify(line, final)
		if !ok {
			// Unparseable payload: put the line back, newline included,
			// and wait for the final flush to settle it. Lines behind it
			// stay buffered in order.
			a.buf = line + "\n" + a.buf
			break
		}
		if fragment != "" {
			fragments = append(fragments, fragment)
			a.content.WriteString(fragment)
		}
		if a.done {
			break
		}
	}

	return fragments
}

// classify handles one protocol line. It returns the content fragment the
// line carried, if any, and whether the line was consumed. A data line
// whose payload is not yet valid JSON is not consumed unless final is set.
func (a *Assembler) classify(line string, final bool) (string, bool) {
	// Blank lines separate events, comment lines are keep-alives.
	if line == "" || strings.HasPrefix(line, ":") {
		return "", true
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return "", true
	}

	payload := line[len(dataPrefix):]
	if payload == doneSentinel {
		a.done = true
		return "", true
	}

	var frame streamPayload
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		if final {
			// Unresolvable partial frame at end of stream, drop it.
			return "", true
		}
		return "", false
	}

	if len(frame.Choices) == 0 {
		return "", true
	}
	return frame.Choices[0].Delta.Content, true
}
