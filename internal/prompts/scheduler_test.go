package prompts

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoEntries() []Entry {
	return []Entry{{Content: "A", Count: 5}, {Content: "B", Count: 10}}
}

func TestCurrentPromptSaturatesOnRead(t *testing.T) {
	s := New(twoEntries())
	for i := 0; i < 20; i++ {
		want := "B"
		if i < 5 {
			want = "A"
		}
		assert.Equal(t, want, s.CurrentPrompt(), "counter=%d", i)
		s.mu.Lock()
		s.count++
		s.mu.Unlock()
	}
	assert.Equal(t, 1, s.Info().Index)
}

func TestIncrementRotatesOnFifthCall(t *testing.T) {
	s := New(twoEntries())
	for i := 1; i <= 5; i++ {
		rotated := s.Increment()
		if i < 5 {
			assert.False(t, rotated, "call %d", i)
			assert.Equal(t, 0, s.Info().Index)
		} else {
			assert.True(t, rotated, "call %d", i)
			assert.Equal(t, 1, s.Info().Index)
		}
	}
	assert.Equal(t, 5, s.InteractionCount())
}

func TestIncrementWrapsToFirstEntry(t *testing.T) {
	s := New(twoEntries())
	for i := 0; i < 9; i++ {
		s.Increment()
	}
	info := s.Info()
	require.Equal(t, 1, info.Index)
	require.Equal(t, "B", info.Content)

	assert.True(t, s.Increment(), "reaching threshold 10 wraps")
	assert.Equal(t, 0, s.Info().Index)

	// Past every threshold each increment flips the index again.
	assert.True(t, s.Increment())
	assert.Equal(t, 1, s.Info().Index)
	assert.True(t, s.Increment())
	assert.Equal(t, 0, s.Info().Index)
}

func TestReadAfterWrapStillSaturates(t *testing.T) {
	s := New(twoEntries())
	for i := 0; i < 10; i++ {
		s.Increment()
	}
	require.Equal(t, 0, s.Info().Index)
	assert.Equal(t, "B", s.CurrentPrompt())
	assert.Equal(t, 1, s.Info().Index)
}

func TestSingleEntryNeverRotates(t *testing.T) {
	s := New([]Entry{{Content: "only", Count: 1}})
	for i := 0; i < 5; i++ {
		assert.False(t, s.Increment())
	}
	assert.Equal(t, "only", s.CurrentPrompt())
	assert.Equal(t, 5, s.InteractionCount())
}

func TestEmptyEntries(t *testing.T) {
	s := New(nil)
	assert.Equal(t, FallbackPrompt, s.CurrentPrompt())
	assert.False(t, s.Increment())
	info := s.Info()
	assert.Nil(t, info.Threshold)
	assert.Empty(t, info.Content)
	assert.Equal(t, 1, info.InteractionCount)
}

func TestInfoReportsActiveThreshold(t *testing.T) {
	s := New(twoEntries())
	info := s.Info()
	require.NotNil(t, info.Threshold)
	assert.Equal(t, 5, *info.Threshold)
	assert.Equal(t, "A", info.Content)
	assert.Equal(t, 0, info.InteractionCount)
}

func TestNewCopiesEntries(t *testing.T) {
	in := twoEntries()
	s := New(in)
	in[0].Content = "changed"
	assert.Equal(t, "A", s.CurrentPrompt())
	out := s.Entries()
	out[1].Content = "changed"
	assert.Equal(t, "B", s.Entries()[1].Content)
}

func TestConcurrentIncrement(t *testing.T) {
	s := New(DefaultEntries())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.CurrentPrompt()
				s.Increment()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, s.InteractionCount())
}
