package session

import "github.com/wricardo/mao-client/game/protocol"

// pendingQueue is the FIFO of frames waiting for an open transport.
// Only the session loop touches it.
type pendingQueue struct {
	frames []protocol.Frame
}

func (q *pendingQueue) push(f protocol.Frame) {
	q.frames = append(q.frames, f)
}

func (q *pendingQueue) peek() (protocol.Frame, bool) {
	if len(q.frames) == 0 {
		return protocol.Frame{}, false
	}
	return q.frames[0], true
}

func (q *pendingQueue) pop() {
	if len(q.frames) == 0 {
		return
	}
	q.frames[0] = protocol.Frame{}
	q.frames = q.frames[1:]
}

func (q *pendingQueue) len() int {
	return len(q.frames)
}

func (q *pendingQueue) snapshot() []protocol.Frame {
	out := make([]protocol.Frame, len(q.frames))
	copy(out, q.frames)
	return out
}
