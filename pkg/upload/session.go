package upload

import (
	"time"
)

// State is the position of an upload in its state machine
type State int

const (
	StateNotStarted State = iota
	StateInitialized
	StateAppended
	StateFinalized
	StatePolling
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInitialized:
		return "initialized"
	case StateAppended:
		return "appended"
	case StateFinalized:
		return "finalized"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// SourceKind tells a local file from a remote gif URL
type SourceKind int

const (
	SourceFile SourceKind = iota
	SourceRemoteGIF
)

// Session is the state of one Upload call. It is never shared between calls.
type Session struct {
	Source     string
	Kind       SourceKind
	Category   string
	MediaType  string
	TotalBytes int64
	MediaID    string
	State      State
	CheckAfter time.Duration
	Segments   int
	BytesSent  int64
}

// Progress is reported after every phase and APPEND segment
type Progress struct {
	Source     string
	MediaID    string
	State      State
	Segment    int
	BytesSent  int64
	TotalBytes int64
	// Processing is the server's processing state while polling
	Processing string
	Percent    int
}

// ProgressFunc receives progress reports; it must not block.
type ProgressFunc func(Progress)

func (s *Session) progress(processing string, percent int) Progress {
	return Progress{
		Source:     s.Source,
		MediaID:    s.MediaID,
		State:      s.State,
		Segment:    s.Segments,
		BytesSent:  s.BytesSent,
		TotalBytes: s.TotalBytes,
		Processing: processing,
		Percent:    percent,
	}
}
