package metrics

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

var processStart = time.Now()

// SysHealth is a snapshot of process and storage health.
type SysHealth struct {
	AllocMB    uint64
	SysMB      uint64
	NumGC      uint32
	Goroutines int
	Uptime     time.Duration
	// StoreSize is the on-disk size of the SQLite file or directory, or
	// "n/a" for a remote database.
	StoreSize string
}

// GetSysHealth collects real-time health data. storePath may be a file, a
// directory or empty.
func GetSysHealth(storePath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(processStart).Round(time.Second),
		StoreSize:  storeSize(storePath),
	}
}

func storeSize(path string) string {
	if path == "" {
		return "n/a"
	}
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return "n/a"
	}
	return humanize.IBytes(uint64(size))
}
