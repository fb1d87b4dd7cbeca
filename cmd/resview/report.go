package main

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/natefinch/atomic"

	"github.com/wippyai/assetcache/engine"
)

type reportEntry struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Holders int    `json:"holders"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
}

type report struct {
	Generated time.Time     `json:"generated"`
	Session   string        `json:"session"`
	Providers []string      `json:"providers"`
	Entries   []reportEntry `json:"entries"`
	Frames    uint64        `json:"frames"`
}

func buildReport(e *engine.Context, now time.Time) report {
	r := report{
		Generated: now.UTC(),
		Session:   e.Session().String(),
		Providers: e.Registry().Names(),
		Frames:    e.Frame(),
		Entries:   []reportEntry{},
	}
	for _, u := range e.Cache().Usage() {
		entry := reportEntry{
			ID:      u.ID.String(),
			Type:    u.Type,
			Holders: u.Holders,
			State:   usageState(u),
		}
		if u.Err != nil {
			entry.Error = u.Err.Error()
		}
		r.Entries = append(r.Entries, entry)
	}
	return r
}

// writeReport replaces path with the JSON report in one rename.
func writeReport(path string, r report) error {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	buf = append(buf, '\n')
	return atomic.WriteFile(path, bytes.NewReader(buf))
}
