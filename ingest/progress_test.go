package ingest

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	t.Run("reports at interval", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgressTracker(&buf, 10, 5, "tokens")
		p.Start()

		p.Increment(3)
		assert.Empty(t, buf.String())

		p.Increment(3)
		assert.Contains(t, buf.String(), "Progress: 6/10 (60.0%)")
		assert.Contains(t, buf.String(), "tokens/s")
	})

	t.Run("caps at total", func(t *testing.T) {
		p := NewProgressTracker(nil, 4, 1, "documents")
		p.Start()
		p.Increment(10)
		assert.Equal(t, 4, p.Current())
	})

	t.Run("ignores updates before start", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgressTracker(&buf, 4, 1, "tokens")
		p.Increment(2)
		p.Finish()
		assert.Equal(t, 0, p.Current())
		assert.Empty(t, buf.String())
		assert.Zero(t, p.Elapsed())
	})

	t.Run("finish reports partial progress", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgressTracker(&buf, 10, 100, "tokens")
		p.Start()
		p.Increment(7)
		p.Finish()
		assert.Contains(t, buf.String(), "7/10 (70.0%)")
		assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	})

	t.Run("concurrent increments", func(t *testing.T) {
		p := NewProgressTracker(nil, 1000, 10, "tokens")
		p.Start()
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					p.Increment(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1000, p.Current())
	})
}
