package ioengine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelineio/tlplay/internal/avio"
	"github.com/timelineio/tlplay/internal/future"
	"github.com/timelineio/tlplay/internal/plugin"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

type fakeReader struct {
	path        string
	readVideoN  int32
	readAudioN  int32
	stopped     atomic.Bool
	hasRequests atomic.Bool
	blockUntil  chan struct{}
}

func (r *fakeReader) Path() string { return r.path }
func (r *fakeReader) GetInfo() future.Future[avio.Info] {
	return future.Resolved(avio.Info{})
}
func (r *fakeReader) ReadVideo(t rationaltime.Time, layer int) future.Future[avio.VideoFrame] {
	atomic.AddInt32(&r.readVideoN, 1)
	if r.blockUntil != nil {
		<-r.blockUntil
	}
	return future.Resolved(avio.VideoFrame{Time: t})
}
func (r *fakeReader) ReadAudio(rng rationaltime.Range) future.Future[avio.AudioData] {
	atomic.AddInt32(&r.readAudioN, 1)
	if r.blockUntil != nil {
		<-r.blockUntil
	}
	return future.Resolved(avio.AudioData{Range: rng})
}
func (r *fakeReader) HasRequests() bool { return r.hasRequests.Load() }
func (r *fakeReader) CancelRequests()   {}
func (r *fakeReader) Stop()             { r.stopped.Store(true) }
func (r *fakeReader) HasStopped() bool  { return r.stopped.Load() }

func newTestManager(t *testing.T, readers map[string]*fakeReader) *Manager {
	t.Helper()
	reg := plugin.NewRegistry()
	var mu sync.Mutex
	reg.Register("fake", []string{".fake"}, plugin.CapabilityVideo, func(path string, opts avio.Options) (avio.Reader, error) {
		mu.Lock()
		defer mu.Unlock()
		r, ok := readers[path]
		if !ok {
			r = &fakeReader{path: path}
			readers[path] = r
		}
		return r, nil
	})
	cfg := DefaultConfig()
	cfg.AdmissionTimeout = time.Second
	return NewManager(reg, cfg)
}

func TestReadVideoCoalescesDuplicateRequests(t *testing.T) {
	readers := map[string]*fakeReader{}
	readers["a.fake"] = &fakeReader{path: "a.fake", blockUntil: make(chan struct{})}
	m := newTestManager(t, readers)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ReadVideo(context.Background(), "a.fake", rationaltime.New(1, 24), 0).Wait()
			assert.NoError(t, err)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(readers["a.fake"].blockUntil)
	wg.Wait()

	assert.Equal(t, int32(1), readers["a.fake"].readVideoN, "identical in-flight requests must coalesce into one reader call")
}

func TestReadVideoOpensReaderOnce(t *testing.T) {
	readers := map[string]*fakeReader{}
	m := newTestManager(t, readers)

	_, err := m.ReadVideo(context.Background(), "b.fake", rationaltime.New(0, 24), 0).Wait()
	require.NoError(t, err)
	_, err = m.ReadVideo(context.Background(), "b.fake", rationaltime.New(1, 24), 0).Wait()
	require.NoError(t, err)

	assert.Len(t, readers, 1)
	assert.Equal(t, int32(2), readers["b.fake"].readVideoN)
}

func TestCloseStopsOpenReaders(t *testing.T) {
	readers := map[string]*fakeReader{}
	m := newTestManager(t, readers)

	_, err := m.ReadVideo(context.Background(), "c.fake", rationaltime.New(0, 24), 0).Wait()
	require.NoError(t, err)

	m.Close()
	assert.True(t, readers["c.fake"].HasStopped())
}

func TestLRUEvictionStopsOldestReader(t *testing.T) {
	readers := map[string]*fakeReader{}
	m := newTestManager(t, readers)
	m.cfg.MaxOpenReaders = 2

	_, err := m.ReadVideo(context.Background(), "1.fake", rationaltime.New(0, 24), 0).Wait()
	require.NoError(t, err)
	_, err = m.ReadVideo(context.Background(), "2.fake", rationaltime.New(0, 24), 0).Wait()
	require.NoError(t, err)
	_, err = m.ReadVideo(context.Background(), "3.fake", rationaltime.New(0, 24), 0).Wait()
	require.NoError(t, err)

	assert.True(t, readers["1.fake"].HasStopped(), "oldest reader must be evicted once capacity is exceeded")
	assert.False(t, readers["3.fake"].HasStopped())
}

func TestVideoAndAudioAdmissionAreIndependent(t *testing.T) {
	readers := map[string]*fakeReader{}
	readers["a.fake"] = &fakeReader{path: "a.fake", blockUntil: make(chan struct{})}
	m := newTestManager(t, readers)
	m.videoAdmission = newAdmission(1)
	m.audioAdmission = newAdmission(1)

	// Saturate the video gate with one blocked in-flight request.
	videoDone := make(chan struct{})
	go func() {
		_, _ = m.ReadVideo(context.Background(), "a.fake", rationaltime.New(0, 24), 0).Wait()
		close(videoDone)
	}()
	time.Sleep(10 * time.Millisecond)

	// An audio request to the same reader must not wait behind it: a flood
	// of video work must never starve audio admission or vice versa.
	audioDone := make(chan struct{})
	go func() {
		_, err := m.ReadAudio(context.Background(), "a.fake", rationaltime.NewRange(rationaltime.New(0, 24), rationaltime.New(1, 24))).Wait()
		assert.NoError(t, err)
		close(audioDone)
	}()

	select {
	case <-audioDone:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("audio request blocked behind the saturated video admission gate")
	}

	close(readers["a.fake"].blockUntil)
	<-videoDone
}

func TestEvictExceptSkipsReaderWithInFlightRequests(t *testing.T) {
	readers := map[string]*fakeReader{}
	readers["busy.fake"] = &fakeReader{path: "busy.fake"}
	readers["idle.fake"] = &fakeReader{path: "idle.fake"}
	m := newTestManager(t, readers)

	_, err := m.ReadVideo(context.Background(), "busy.fake", rationaltime.New(0, 24), 0).Wait()
	require.NoError(t, err)
	_, err = m.ReadVideo(context.Background(), "idle.fake", rationaltime.New(0, 24), 0).Wait()
	require.NoError(t, err)

	readers["busy.fake"].hasRequests.Store(true)

	m.EvictExcept(map[string]bool{})

	assert.False(t, readers["busy.fake"].HasStopped(), "a reader with an in-flight request must survive set_active_ranges eviction")
	assert.True(t, readers["idle.fake"].HasStopped(), "an idle reader outside the kept set must be evicted")
}
