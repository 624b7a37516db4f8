package types

// Bus payload shapes for the display service.

// DisplayConfig is supplied on the "config/display" topic once at probe time.
type DisplayConfig struct {
	BusFormat  BusFormat `json:"bus_format"`            // required
	TimingNode string    `json:"timing_node,omitempty"` // "" = self-timed
	Pattern    string    `json:"pattern,omitempty"`     // initial pattern name
}

// EnableReq asks the pipeline to enable with the given mode.
type EnableReq struct {
	Mode DisplayMode `json:"mode"`
}

// PatternSet selects the generator pattern by name.
type PatternSet struct {
	Name string `json:"name"`
}

// PatternReply reports the currently programmed pattern.
type PatternReply struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// PipelineStatus is the retained "display/state" document and the
// "status" control reply.
type PipelineStatus struct {
	Level   string `json:"level"`  // "idle", "probing", "ready", "error", "stopped"
	Status  string `json:"status"` // freeform short code
	State   string `json:"state,omitempty"`
	Frames  uint64 `json:"frames,omitempty"`
	Dropped uint32 `json:"dropped,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Error   string `json:"error,omitempty"`
	TS      int64  `json:"ts_ms"`
}

// FrameEvent is published (non-retained) on "display/frame" once per
// completed output frame.
type FrameEvent struct {
	Seq uint64 `json:"seq"`
	TS  int64  `json:"ts_ms"`
}

// Generic replies.

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
