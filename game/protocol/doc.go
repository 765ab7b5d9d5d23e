// Package protocol defines the JSON wire protocol spoken with the Mao server.
//
// The protocol package implements:
//   - Outbound player intents as a closed set of message types
//   - Decoding of inbound server frames into a tagged union
//   - The game-state snapshot pushed by the server
//   - Read-only helpers the presentation layer uses to decide what to show
//
// Message Format:
//
// Every frame is a single JSON object carrying a "type" tag:
//   - Outgoing: {"type":"PROPOSE_PLAY","gameId":"ABCD","card":{"rank":"7","suit":"hearts"}}
//   - Incoming: {"type":"GAME_STATE","payload":{...snapshot...}}
//
// Inbound frames with a tag this package does not know decode to
// UnknownMessage rather than an error, so newer servers can add frame kinds
// without breaking older clients.
//
// Usage:
//
//	frame, err := protocol.Encode(protocol.ProposePlay{
//		GameID: "ABCD",
//		Card:   protocol.Card{Rank: "7", Suit: protocol.SuitHearts},
//	})
//
//	in, err := protocol.DecodeInbound(data)
//	switch m := in.(type) {
//	case protocol.GameStateMessage:
//		render(m.State)
//	case protocol.UnknownMessage:
//		// ignore
//	}
package protocol
