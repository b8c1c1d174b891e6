package spark

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// StatusDone is the header.status value of the last frame of a response.
const StatusDone = 2

// FrameKind discriminates a StreamFrame.
type FrameKind int

const (
	FramePartial FrameKind = iota
	FrameTerminal
	FrameMalformed
)

// String returns the metric label of the kind.
func (k FrameKind) String() string {
	switch k {
	case FramePartial:
		return "partial"
	case FrameTerminal:
		return "terminal"
	case FrameMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// StreamFrame is one classified inbound message.
// Text is set for Partial and Terminal frames, Err for Malformed ones.
type StreamFrame struct {
	Kind FrameKind
	Text string
	// Code and Message mirror header.code and header.message.
	Code    int64
	Message string
	Err     error
}

var errInvalidJSON = errors.New("frame is not valid JSON")

// ParseFrame classifies a raw inbound message. It never fails; unparsable
// input is reported as a Malformed frame.
func ParseFrame(data []byte) StreamFrame {
	if !gjson.ValidBytes(data) {
		return StreamFrame{Kind: FrameMalformed, Err: errInvalidJSON}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return StreamFrame{Kind: FrameMalformed, Err: errors.New("frame is not a JSON object")}
	}

	frame := StreamFrame{
		Kind:    FramePartial,
		Code:    root.Get("header.code").Int(),
		Message: root.Get("header.message").String(),
	}

	var b strings.Builder
	root.Get("payload.choices.text").ForEach(func(_, item gjson.Result) bool {
		b.WriteString(item.Get("content").String())
		return true
	})
	frame.Text = b.String()

	if root.Get("header.status").Int() == StatusDone {
		frame.Kind = FrameTerminal
	}
	return frame
}
