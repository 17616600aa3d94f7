// Package ioengine implements the I/O Manager: it turns
// Clip-level read requests into avio.Reader calls, coalescing duplicate
// in-flight requests for the same path with singleflight and bounding
// concurrent decode work with one fairness-aware admission gate per kind
// (video, audio), following the admission-control shape of a pooled
// connection manager.
package ioengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/timelineio/tlplay/internal/avio"
	"github.com/timelineio/tlplay/internal/future"
	"github.com/timelineio/tlplay/internal/plugin"
	"github.com/timelineio/tlplay/internal/rationaltime"
)

// ErrTimeout is returned when a request could not be admitted within its
// deadline because every concurrency slot was in use.
var ErrTimeout = errors.New("ioengine: timed out waiting for a read slot")

// Config bounds the Manager's concurrency and reader cache.
type Config struct {
	// AdmissionTimeout bounds how long a request waits for a free slot.
	AdmissionTimeout time.Duration
	// MaxOpenReaders bounds how many avio.Reader instances stay open at
	// once; the least-recently-used reader is stopped when the limit is
	// exceeded by a new path.
	MaxOpenReaders int
	// ReaderOptions is passed to every plugin factory this manager opens.
	// Its VideoRequestCount/AudioRequestCount fields size the per-kind
	// admission gates below.
	ReaderOptions avio.Options
}

// DefaultConfig returns the Config a Manager is constructed with when the
// caller does not override it.
func DefaultConfig() Config {
	return Config{
		AdmissionTimeout: 5 * time.Second,
		MaxOpenReaders:   8,
		ReaderOptions:    avio.DefaultOptions(),
	}
}

// readerEntry tracks one open reader plus its last-use time for LRU
// eviction.
type readerEntry struct {
	reader   avio.Reader
	lastUsed time.Time
}

// Manager is the I/O Manager: a registry-backed reader cache plus
// singleflight coalescing and per-kind, per-path-fair admission control.
type Manager struct {
	registry       *plugin.Registry
	cfg            Config
	videoAdmission *admission
	audioAdmission *admission
	group          singleflight.Group

	mu      sync.Mutex
	readers map[string]*readerEntry
}

// NewManager constructs a Manager backed by registry. The video and audio
// admission gates are sized independently from
// cfg.ReaderOptions.VideoRequestCount/AudioRequestCount, per kind, so a
// flood of audio requests can never starve video admission or vice versa.
func NewManager(registry *plugin.Registry, cfg Config) *Manager {
	return &Manager{
		registry:       registry,
		cfg:            cfg,
		videoAdmission: newAdmission(int64(cfg.ReaderOptions.VideoRequestCount)),
		audioAdmission: newAdmission(int64(cfg.ReaderOptions.AudioRequestCount)),
		readers:        make(map[string]*readerEntry),
	}
}

// open returns the cached reader for path, opening (and evicting the LRU
// entry if needed) on first use.
func (m *Manager) open(path string) (avio.Reader, error) {
	m.mu.Lock()
	if e, ok := m.readers[path]; ok {
		e.lastUsed = time.Now()
		m.mu.Unlock()
		return e.reader, nil
	}
	m.mu.Unlock()

	reader, err, _ := m.group.Do("open:"+path, func() (interface{}, error) {
		r, err := m.registry.Read(path, m.cfg.ReaderOptions)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	r := reader.(avio.Reader)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.readers[path]; ok {
		// Another goroutine opened it first via singleflight's caller-side
		// race between the cache check and Do(); keep the existing one.
		r.Stop()
		existing.lastUsed = time.Now()
		return existing.reader, nil
	}
	m.evictIfFullLocked()
	m.readers[path] = &readerEntry{reader: r, lastUsed: time.Now()}
	return r, nil
}

// evictIfFullLocked stops and removes the least-recently-used reader if the
// cache is at capacity. Caller must hold m.mu.
func (m *Manager) evictIfFullLocked() {
	if m.cfg.MaxOpenReaders <= 0 || len(m.readers) < m.cfg.MaxOpenReaders {
		return
	}
	var lruPath string
	var lruTime time.Time
	for path, e := range m.readers {
		if lruPath == "" || e.lastUsed.Before(lruTime) {
			lruPath, lruTime = path, e.lastUsed
		}
	}
	if lruPath != "" {
		m.readers[lruPath].reader.Stop()
		delete(m.readers, lruPath)
	}
}

// admit acquires one concurrency slot on gate for path, bounded by ctx's
// deadline (derived from cfg.AdmissionTimeout if ctx has none).
func (m *Manager) admit(ctx context.Context, gate *admission, path string) (func(), error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && m.cfg.AdmissionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.AdmissionTimeout)
		defer cancel()
	}
	release, err := gate.acquire(ctx, path)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return release, nil
}

// GetInfo returns media info for path, opening the reader if necessary.
func (m *Manager) GetInfo(ctx context.Context, path string) future.Future[avio.Info] {
	reader, err := m.open(path)
	if err != nil {
		return future.Failed[avio.Info](err)
	}
	return reader.GetInfo()
}

// ReadVideo coalesces duplicate (path, time, layer) requests via
// singleflight and admits the decode through the video admission gate
// before calling through to the reader.
func (m *Manager) ReadVideo(ctx context.Context, path string, t rationaltime.Time, layer int) future.Future[avio.VideoFrame] {
	p, f := future.New[avio.VideoFrame]()
	key := fmt.Sprintf("video:%s:%v:%d", path, t, layer)

	go func() {
		v, err, _ := m.group.Do(key, func() (interface{}, error) {
			release, err := m.admit(ctx, m.videoAdmission, path)
			if err != nil {
				return nil, err
			}
			defer release()

			reader, err := m.open(path)
			if err != nil {
				return nil, err
			}
			return reader.ReadVideo(t, layer).Wait()
		})
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v.(avio.VideoFrame))
	}()
	return f
}

// ReadAudio coalesces and admits a read_audio request through the audio
// admission gate the same way ReadVideo does for video.
func (m *Manager) ReadAudio(ctx context.Context, path string, r rationaltime.Range) future.Future[avio.AudioData] {
	p, f := future.New[avio.AudioData]()
	key := fmt.Sprintf("audio:%s:%v", path, r)

	go func() {
		v, err, _ := m.group.Do(key, func() (interface{}, error) {
			release, err := m.admit(ctx, m.audioAdmission, path)
			if err != nil {
				return nil, err
			}
			defer release()

			reader, err := m.open(path)
			if err != nil {
				return nil, err
			}
			return reader.ReadAudio(r).Wait()
		})
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v.(avio.AudioData))
	}()
	return f
}

// CancelRequests cancels in-flight requests on every currently open reader.
func (m *Manager) CancelRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.readers {
		e.reader.CancelRequests()
	}
}

// CancelPath cancels in-flight requests on the reader for one path, if open.
func (m *Manager) CancelPath(path string) {
	m.mu.Lock()
	e, ok := m.readers[path]
	m.mu.Unlock()
	if ok {
		e.reader.CancelRequests()
	}
}

// EvictExcept stops and removes every open reader whose path is not in
// keep and has no in-flight request — the mechanism behind
// set_active_ranges: paths no longer covered by any active range become
// eviction candidates, but a reader still servicing a read-ahead request
// just outside the new active range is left alone until that request
// completes, rather than having its future killed out from under it.
func (m *Manager) EvictExcept(keep map[string]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, e := range m.readers {
		if keep[path] || e.reader.HasRequests() {
			continue
		}
		e.reader.Stop()
		delete(m.readers, path)
	}
}

// Warm opens (without reading) every path not already open, so a
// subsequent ReadVideo/ReadAudio call has no cold-open latency.
func (m *Manager) Warm(paths []string) {
	for _, path := range paths {
		go func(p string) { _, _ = m.open(p) }(path)
	}
}

// Stats reports the Manager's current reader cache occupancy, for a
// diagnostics command to surface alongside process-level metrics.
type Stats struct {
	OpenReaders    int
	MaxOpenReaders int
}

// Stats returns a snapshot of the reader cache's current size.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{OpenReaders: len(m.readers), MaxOpenReaders: m.cfg.MaxOpenReaders}
}

// Close stops every open reader and releases any request still waiting
// for admission with ErrTimeout.
func (m *Manager) Close() {
	m.videoAdmission.closeAll()
	m.audioAdmission.closeAll()

	m.mu.Lock()
	defer m.mu.Unlock()
	for path, e := range m.readers {
		e.reader.Stop()
		delete(m.readers, path)
	}
}
