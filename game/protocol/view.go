package protocol

// Read-only helpers over a snapshot. They mirror what the presentation layer
// decides to show; the server remains the judge of what is legal.

// IsAdmin reports whether the snapshot's owner administers the game
func (g *GameState) IsAdmin() bool {
	return g != nil && g.PlayerID != "" && g.PlayerID == g.AdminID
}

// CanStart reports whether the owner may start the game
func (g *GameState) CanStart() bool {
	return g.IsAdmin() && g.Status == StatusWaiting
}

// PendingIsMine reports whether the pending action was proposed by the owner
func (g *GameState) PendingIsMine() bool {
	return g != nil && g.CurrentAction != nil && g.CurrentAction.PlayerID == g.PlayerID
}

// HasResponded reports whether the owner already accepted or challenged
// the pending action.
func (g *GameState) HasResponded() bool {
	if g == nil || g.CurrentAction == nil {
		return false
	}
	return contains(g.CurrentAction.AcceptedBy, g.PlayerID) ||
		contains(g.CurrentAction.ChallengedBy, g.PlayerID)
}

// CanReact reports whether the owner may accept or challenge the pending action
func (g *GameState) CanReact() bool {
	if g == nil || g.CurrentAction == nil {
		return false
	}
	return g.CurrentAction.Resolution == "" && !g.PendingIsMine() && !g.HasResponded()
}

// CanResolve reports whether the owner may resolve the pending action
func (g *GameState) CanResolve() bool {
	return g.IsAdmin() && g.Status == StatusActive && g.CurrentAction != nil
}

// CanProposeDraw reports whether a draw request would be shown
func (g *GameState) CanProposeDraw() bool {
	return g != nil && g.Status == StatusActive && g.CurrentAction == nil
}

// Player returns the seat with the given id
func (g *GameState) Player(id string) (Player, bool) {
	if g == nil {
		return Player{}, false
	}
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// HasCard reports whether the owner holds c
func (g *GameState) HasCard(c Card) bool {
	if g == nil {
		return false
	}
	for _, h := range g.Hand {
		if h == c {
			return true
		}
	}
	return false
}
