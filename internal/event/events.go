package event

// Kind identifies the type of a roster feed event.
type Kind int

const (
	// KindRosterUpdate signals a change to a single player's batting order.
	KindRosterUpdate Kind = iota
	// KindTeamLock signals that a team's game has started and its roster is final.
	KindTeamLock
)

// String returns a human-readable name for logging.
func (k Kind) String() string {
	switch k {
	case KindRosterUpdate:
		return "roster_update"
	case KindTeamLock:
		return "team_lock"
	default:
		return "unknown"
	}
}

// Event is a message produced by the roster feed worker.
type Event interface {
	Kind() Kind
}

// RosterUpdate carries a confirmed batting order change for one player.
// Order 0 means the player was scratched from the starting lineup.
type RosterUpdate struct {
	PlayerID string
	Team     string
	Order    int
}

func (RosterUpdate) Kind() Kind { return KindRosterUpdate }

// TeamLock marks a team whose game has started. Lineups containing its
// players can no longer swap them out.
type TeamLock struct {
	Team string
}

func (TeamLock) Kind() Kind { return KindTeamLock }
