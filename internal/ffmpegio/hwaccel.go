package ffmpegio

import (
	"context"
	"os/exec"
	"strings"
	"sync"
)

// hwaccelPriority orders hardware accelerators from most to least broadly
// compatible when none is requested explicitly via IOOptions["hwaccel"].
var hwaccelPriority = []string{"cuda", "qsv", "videotoolbox", "vaapi", "d3d11va", "dxva2"}

var (
	hwaccelOnce sync.Once
	hwaccelList []string
)

// detectHWAccels runs `ffmpeg -hwaccels` once per process and caches the
// methods it advertises. A method being listed only means ffmpeg was built
// with support for it, not that the host has working hardware for it; -ss
// seeking past a missing device simply fails the request with
// ErrDecodeFailed like any other decode error.
func detectHWAccels(ffmpegPath string) []string {
	hwaccelOnce.Do(func() {
		out, err := exec.CommandContext(context.Background(), ffmpegPath, "-hwaccels", "-hide_banner").Output()
		if err != nil {
			return
		}
		inList := false
		for _, line := range strings.Split(string(out), "\n") {
			line = strings.TrimSpace(line)
			if line == "Hardware acceleration methods:" {
				inList = true
				continue
			}
			if inList && line != "" {
				hwaccelList = append(hwaccelList, line)
			}
		}
	})
	return hwaccelList
}

// selectHWAccel resolves the -hwaccel flag value to pass to ffmpeg, per
// IOOptions["hwaccel"]: "off" disables it, a named method is used as-is if
// ffmpeg advertises it, and "" (the default) picks the first available
// method in hwaccelPriority. It returns "" when nothing applies, in which
// case decodeFrame omits the flag and falls back to software decode.
func selectHWAccel(ffmpegPath string, ioOpts map[string]string) string {
	requested := ioOpts["hwaccel"]
	if requested == "off" {
		return ""
	}
	available := detectHWAccels(ffmpegPath)
	if requested != "" {
		for _, a := range available {
			if a == requested {
				return requested
			}
		}
		return ""
	}
	for _, want := range hwaccelPriority {
		for _, a := range available {
			if a == want {
				return want
			}
		}
	}
	return ""
}
