package session

import "github.com/wricardo/mao-client/game/protocol"

// dispatch decodes one inbound frame. Undecodable frames are counted and
// dropped; they never change the snapshot.
func (s *Session) dispatch(data []byte) {
	s.framesReceived.Add(1)

	in, err := protocol.DecodeInbound(data)
	if err != nil {
		s.metrics.decodeError()
		s.log.Debug().Err(err).Int("bytes", len(data)).Msg("dropping undecodable frame")
		return
	}

	switch m := in.(type) {
	case protocol.GameStateMessage:
		s.metrics.received(m.Type())
		s.snapshot.Store(m.State)
		s.log.Debug().
			Str("game_id", m.State.ID).
			Str("status", string(m.State.Status)).
			Int("players", len(m.State.Players)).
			Msg("snapshot replaced")
		if s.onSnapshot != nil {
			s.onSnapshot(m.State)
		}
	case protocol.UnknownMessage:
		s.metrics.received("unknown")
		s.log.Debug().Str("type", string(m.Tag)).Msg("ignoring unrecognized frame")
	}

	if s.onFrame != nil {
		s.onFrame(in)
	}
}
