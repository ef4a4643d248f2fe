package logging

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bulkEndpoint struct {
	lock   sync.Mutex
	bodies []string
	agents []string
}

func (e *bulkEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	e.lock.Lock()
	defer e.lock.Unlock()
	e.bodies = append(e.bodies, string(body))
	e.agents = append(e.agents, r.UserAgent())
}

func (e *bulkEndpoint) received() []string {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]string(nil), e.bodies...)
}

func TestLogglySinkFlushesOnClose(t *testing.T) {
	endpoint := &bulkEndpoint{}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	sink := newLogglySink(server.URL, 1<<20, time.Hour)
	for _, l := range []string{`{"msg":"marker created"}` + "\n", `{"msg":"album refreshed"}` + "\n"} {
		_, err := sink.Write([]byte(l))
		require.NoError(t, err)
	}
	require.NoError(t, sink.Close())

	bodies := endpoint.received()
	require.Len(t, bodies, 1)
	assert.Equal(t, `{"msg":"marker created"}`+"\n"+`{"msg":"album refreshed"}`+"\n", bodies[0])
	endpoint.lock.Lock()
	defer endpoint.lock.Unlock()
	assert.True(t, strings.HasPrefix(endpoint.agents[0], "tourist ("), endpoint.agents[0])
}

func TestLogglySinkPushesOverThreshold(t *testing.T) {
	endpoint := &bulkEndpoint{}
	server := httptest.NewServer(endpoint)
	defer server.Close()

	sink := newLogglySink(server.URL, 8, time.Hour)
	defer sink.Close()
	_, err := sink.Write([]byte(`{"msg":"photo evicted"}`))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(endpoint.received()) == 1
	}, time.Second, 10*time.Millisecond)
}
