package logging

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"bitbucket.org/kleinnic74/tourist/consts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	userAgent string = "tourist (" + consts.GitRepo + "@" + consts.GitCommit + ")"

	endpointFormat = "https://logs-01.loggly.com/bulk/%s/tag/tourist/"
)

const (
	logglyThreshold = 4096
	logglyInterval  = 30 * time.Second
)

type logglySink struct {
	url    string
	client *http.Client

	threshold int
	interval  time.Duration
	done      chan struct{}
	stopped   chan struct{}
	q         chan []byte
}

func NewLogglyEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(func() zapcore.EncoderConfig {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		cfg.TimeKey = "timestamp"
		return cfg
	}())
}

// NewLogglySink forwards log lines in bulk, either once threshold bytes are
// buffered or every interval
func NewLogglySink(token string) zap.Sink {
	return newLogglySink(fmt.Sprintf(endpointFormat, token), logglyThreshold, logglyInterval)
}

func newLogglySink(url string, threshold int, interval time.Duration) *logglySink {
	sink := &logglySink{
		url:       url,
		client:    &http.Client{Timeout: 10 * time.Second},
		threshold: threshold,
		interval:  interval,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		q:         make(chan []byte, 10),
	}
	go sink.drain()
	return sink
}

func (s *logglySink) Write(p []byte) (int, error) {
	cpy := make([]byte, len(p))
	copy(cpy, p)
	select {
	case s.q <- cpy:
	case <-s.done:
	}
	return len(p), nil
}

func (s *logglySink) Sync() error {
	return nil // nothing to do
}

// Close pushes what is still buffered and returns once that is done
func (s *logglySink) Close() error {
	close(s.done)
	<-s.stopped
	return nil
}

func (s *logglySink) drain() {
	defer close(s.stopped)
	var buffer bytes.Buffer
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case b := <-s.q:
			buffer.Write(b)
			if buffer.Len() > s.threshold {
				s.push(buffer.Bytes())
				buffer.Reset()
			}
		case <-ticker.C:
			if buffer.Len() > 0 {
				s.push(buffer.Bytes())
				buffer.Reset()
			}
		case <-s.done:
			for pending := true; pending; {
				select {
				case b := <-s.q:
					buffer.Write(b)
				default:
					pending = false
				}
			}
			if buffer.Len() > 0 {
				s.push(buffer.Bytes())
			}
			return
		}
	}
}

func (s *logglySink) push(data []byte) {
	post, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Loggly: failed to create HTTP POST request: %s\n", err)
		return
	}
	post.Header.Add("User-Agent", userAgent)
	post.Header.Add("Content-Type", "application/json")
	post.Header.Add("Content-Length", strconv.Itoa(len(data)))
	r, err := s.client.Do(post)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Loggly: failed to send logs: %s\n", err)
		return
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Loggly: unexpected status: %s\n", r.Status)
	}
}
