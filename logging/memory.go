package logging

import (
	"io"
	"sync"

	"go.uber.org/zap"
)

// memoryLogs keeps the last lines written by the root logger so /logs can
// serve them without a log file
type memoryLogs struct {
	lock sync.Mutex

	lines [][]byte
	next  int
	count int
}

func NewMemoryLogger(size int) zap.Sink {
	if size < 1 {
		size = 1
	}
	return &memoryLogs{
		lines: make([][]byte, size),
	}
}

func (m *memoryLogs) Write(p []byte) (n int, err error) {
	line := make([]byte, len(p))
	copy(line, p)

	m.lock.Lock()
	defer m.lock.Unlock()
	m.lines[m.next] = line
	m.next = (m.next + 1) % len(m.lines)
	if m.count < len(m.lines) {
		m.count++
	}
	return len(p), nil
}

func (m *memoryLogs) Sync() error {
	return nil
}

func (m *memoryLogs) Close() error {
	return nil
}

// Export writes the kept lines oldest first, or newest first when newestFirst
// is set
func (m *memoryLogs) Export(w io.Writer, newestFirst bool) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	oldest := (m.next - m.count + len(m.lines)) % len(m.lines)
	for i := 0; i < m.count; i++ {
		pos := oldest + i
		if newestFirst {
			pos = oldest + m.count - 1 - i
		}
		if _, err := w.Write(m.lines[pos%len(m.lines)]); err != nil {
			return err
		}
	}
	return nil
}
