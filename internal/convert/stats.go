package convert

import (
	"sort"
	"sync"
	"time"
)

// FrameStatus is the outcome of one source frame.
type FrameStatus string

const (
	StatusOK      FrameStatus = "ok"
	StatusFailed  FrameStatus = "failed"
	StatusSkipped FrameStatus = "skipped"
)

// FrameResult describes one processed source frame.
type FrameResult struct {
	FileIndex  int
	FrameIndex int
	Source     string
	Key        string
	Location   string
	Status     FrameStatus
	Objects    int
	Points     int
	Err        error
}

// Stats summarises a run.
type Stats struct {
	Files           int
	FilesFailed     int
	FramesConverted int
	FramesSkipped   int
	FramesFailed    int
	Points          int64
	// ObjectsByClass counts written objects by output class name.
	ObjectsByClass map[string]int
	Duration       time.Duration
}

// Classes returns the class names present in ObjectsByClass, sorted.
func (s *Stats) Classes() []string {
	names := make([]string, 0, len(s.ObjectsByClass))
	for name := range s.ObjectsByClass {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Objects returns the total number of written objects.
func (s *Stats) Objects() int {
	total := 0
	for _, n := range s.ObjectsByClass {
		total += n
	}
	return total
}

type statsCollector struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsCollector() *statsCollector {
	return &statsCollector{stats: Stats{ObjectsByClass: make(map[string]int)}}
}

func (c *statsCollector) file(failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Files++
	if failed {
		c.stats.FilesFailed++
	}
}

func (c *statsCollector) frame(res FrameResult, a *Artifacts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch res.Status {
	case StatusOK:
		c.stats.FramesConverted++
		c.stats.Points += int64(res.Points)
		if a != nil {
			for _, o := range a.Objects {
				c.stats.ObjectsByClass[o.Class]++
			}
		}
	case StatusSkipped:
		c.stats.FramesSkipped++
	case StatusFailed:
		c.stats.FramesFailed++
	}
}

func (c *statsCollector) snapshot() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.ObjectsByClass = make(map[string]int, len(c.stats.ObjectsByClass))
	for k, v := range c.stats.ObjectsByClass {
		s.ObjectsByClass[k] = v
	}
	return &s
}
