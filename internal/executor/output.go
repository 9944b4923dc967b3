package executor

import (
	"bytes"

	"github.com/Cyclone1070/drift/internal/tool/helper/content"
)

// binarySampleSize is how much leading output is inspected for binary data.
const binarySampleSize = 8000

const binaryPlaceholder = "[Binary Content]"

// collector is an io.Writer that keeps at most limit bytes of output and
// stops recording once the leading sample looks binary. It never returns
// a short write, so the child process is not blocked by the cap.
type collector struct {
	buf     bytes.Buffer
	limit   int
	sampled int

	truncated bool
	binary    bool
}

func newCollector(limit int) *collector {
	return &collector{limit: limit}
}

func (c *collector) Write(p []byte) (int, error) {
	n := len(p)
	if c.binary {
		return n, nil
	}

	if c.sampled < binarySampleSize {
		sample := p[:min(n, binarySampleSize-c.sampled)]
		if content.IsBinary(sample) {
			c.binary, c.truncated = true, true
			return n, nil
		}
		c.sampled += len(sample)
	}

	room := c.limit - c.buf.Len()
	switch {
	case room <= 0:
		c.truncated = true
	case n > room:
		c.buf.Write(p[:room])
		c.truncated = true
	default:
		c.buf.Write(p)
	}
	return n, nil
}

func (c *collector) String() string {
	if c.binary {
		return binaryPlaceholder
	}
	return c.buf.String()
}

func (c *collector) Truncated() bool { return c.truncated }
