package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblerSingleChunk(t *testing.T) {
	a := NewAssembler()

	fragments := a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\ndata: [DONE]\n"))

	assert.Equal(t, []string{"Hello"}, fragments)
	assert.Equal(t, "Hello", a.Content())
	assert.True(t, a.Done())
}

func TestAssemblerSplitAtEveryOffset(t *testing.T) {
	// The full stream must reassemble to exactly "Hello" no matter where
	// a chunk boundary falls, including inside the JSON payload.
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\ndata: [DONE]\n"

	for i := 0; i <= len(stream); i++ {
		t.Run(fmt.Sprintf("offset_%d", i), func(t *testing.T) {
			a := NewAssembler()
			var fragments []string
			fragments = append(fragments, a.Push([]byte(stream[:i]))...)
			fragments = append(fragments, a.Push([]byte(stream[i:]))...)
			fragments = append(fragments, a.Flush()...)

			assert.Equal(t, "Hello", a.Content())
			assert.Equal(t, []string{"Hello"}, fragments)
			assert.True(t, a.Done())
		})
	}
}

func TestAssemblerAccumulatesFragments(t *testing.T) {
	a := NewAssembler()

	a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n"))
	a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo \"}}]}\n"))
	a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n"))
	a.Push([]byte("data: [DONE]\n"))

	assert.Equal(t, "Hello world", a.Content())
	assert.True(t, a.Done())
}

func TestAssemblerFlushWithoutSentinel(t *testing.T) {
	// A transport that closes cleanly without [DONE] must still yield the
	// buffered content exactly once.
	a := NewAssembler()

	fragments := a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"bye\"}}]}"))
	assert.Empty(t, fragments)

	fragments = a.Flush()
	assert.Equal(t, []string{"bye"}, fragments)
	assert.Equal(t, "bye", a.Content())
	assert.True(t, a.Done())

	// A second flush yields nothing.
	assert.Empty(t, a.Flush())
	assert.Equal(t, "bye", a.Content())
}

func TestAssemblerRecoversAfterMalformedFrame(t *testing.T) {
	// A malformed frame is held back, and the final flush drops only that
	// frame. The valid frames queued behind it still come through.
	a := NewAssembler()

	fragments := a.Push([]byte("data: {malformed\n"))
	assert.Empty(t, fragments)
	fragments = a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n"))
	assert.Empty(t, fragments)
	fragments = a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n"))
	assert.Empty(t, fragments)

	fragments = a.Flush()
	assert.Equal(t, []string{"Hello", " world"}, fragments)
	assert.Equal(t, "Hello world", a.Content())
	assert.True(t, a.Done())
}

func TestAssemblerMalformedFrameBeforeSentinel(t *testing.T) {
	a := NewAssembler()

	a.Push([]byte("data: {broken\ndata: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\ndata: [DONE]\n"))
	fragments := a.Flush()

	assert.Equal(t, []string{"ok"}, fragments)
	assert.Equal(t, "ok", a.Content())
	assert.True(t, a.Done())
}

func TestAssemblerIgnoresCommentsAndBlankLines(t *testing.T) {
	a := NewAssembler()

	a.Push([]byte(": keep-alive\n\n: another comment\ndata: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n"))

	assert.Equal(t, "ok", a.Content())
	assert.False(t, a.Done())
}

func TestAssemblerStripsCarriageReturns(t *testing.T) {
	a := NewAssembler()

	a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"crlf\"}}]}\r\ndata: [DONE]\r\n"))

	assert.Equal(t, "crlf", a.Content())
	assert.True(t, a.Done())
}

func TestAssemblerStopsAfterSentinel(t *testing.T) {
	a := NewAssembler()

	a.Push([]byte("data: [DONE]\ndata: {\"choices\":[{\"delta\":{\"content\":\"late\"}}]}\n"))
	assert.Equal(t, "", a.Content())
	assert.True(t, a.Done())

	// Pushes after termination are no-ops.
	fragments := a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"more\"}}]}\n"))
	assert.Empty(t, fragments)
	assert.Equal(t, "", a.Content())
}

func TestAssemblerDropsUnresolvedPartialAtFlush(t *testing.T) {
	a := NewAssembler()

	fragments := a.Push([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"kept\"}}]}\ndata: {\"choi"))
	require.Equal(t, []string{"kept"}, fragments)

	assert.Empty(t, a.Flush())
	assert.Equal(t, "kept", a.Content())
}

func TestAssemblerEmptyDeltas(t *testing.T) {
	// Role-only first frame and empty delta frames carry no content.
	a := NewAssembler()

	a.Push([]byte("data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n"))
	a.Push([]byte("data: {\"choices\":[{\"delta\":{}}]}\n"))
	a.Push([]byte("data: {\"choices\":[]}\n"))

	assert.Equal(t, "", a.Content())
	assert.False(t, a.Done())
}
