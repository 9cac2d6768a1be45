// Package arbiter decides how a two-player match ends.
//
// Judge is a pure function of the room's current state and one incoming
// termination signal; the caller owns all mutation, timers and delivery.
// The transition table below is the single source of truth:
//
//	reporter signal | opponent signal | verdict
//	----------------+-----------------+------------------------------------
//	any             | (room resolved) | Ignore
//	(already set)   | any             | Ignore
//	EarlyLoss       | None            | Resolve, opponent wins
//	EarlyLoss       | TimeLimitEnd    | Resolve, opponent wins
//	EarlyLoss       | EarlyLoss       | Resolve, reporter wins (first arrival)
//	TimeLimitEnd    | EarlyLoss       | Resolve, reporter wins
//	TimeLimitEnd    | None            | AwaitGrace
//	TimeLimitEnd    | TimeLimitEnd    | Resolve by score
package arbiter

type Signal int

const (
	None Signal = iota
	EarlyLoss
	TimeLimitEnd
)

func (s Signal) String() string {
	switch s {
	case EarlyLoss:
		return "early_loss"
	case TimeLimitEnd:
		return "time_limit_end"
	default:
		return "none"
	}
}

// SignalFromReason maps the optional game_over reason onto a Signal.
func SignalFromReason(reason string) Signal {
	if reason == ReasonTimeLimit {
		return TimeLimitEnd
	}
	return EarlyLoss
}

type Outcome int

const (
	Ignore Outcome = iota
	Resolve
	AwaitGrace
)

// Reasons carried in game_end.
const (
	ReasonEarlyLoss    = "opponent_game_over"
	ReasonTimeLimit    = "time_limit"
	ReasonDisconnected = "opponent_disconnected"
)

// Seat is the arbiter's view of one participant. Seat 0 joined the room first.
type Seat struct {
	Signal Signal
	Score  int
}

type Verdict struct {
	Outcome Outcome
	Winner  int // valid when Outcome == Resolve
	Reason  string
}

// Judge evaluates a termination signal sig reported by seat reporter.
func Judge(resolved bool, seats [2]Seat, reporter int, sig Signal) Verdict {
	if resolved || reporter < 0 || reporter > 1 || sig == None {
		return Verdict{Outcome: Ignore}
	}
	if seats[reporter].Signal != None {
		return Verdict{Outcome: Ignore}
	}
	opponent := 1 - reporter
	theirs := seats[opponent].Signal

	switch sig {
	case EarlyLoss:
		if theirs == EarlyLoss {
			// both lost; the opponent's report was processed first
			return Verdict{Outcome: Resolve, Winner: reporter, Reason: ReasonEarlyLoss}
		}
		return Verdict{Outcome: Resolve, Winner: opponent, Reason: ReasonEarlyLoss}

	case TimeLimitEnd:
		switch theirs {
		case EarlyLoss:
			return Verdict{Outcome: Resolve, Winner: reporter, Reason: ReasonEarlyLoss}
		case TimeLimitEnd:
			seats[reporter].Signal = TimeLimitEnd
			return Verdict{Outcome: Resolve, Winner: ByScore(seats), Reason: ReasonTimeLimit}
		default:
			return Verdict{Outcome: AwaitGrace}
		}
	}
	return Verdict{Outcome: Ignore}
}

// GraceExpired resolves a time-limit end whose grace window ran out.
func GraceExpired(resolved bool, seats [2]Seat) Verdict {
	if resolved {
		return Verdict{Outcome: Ignore}
	}
	if seats[0].Signal != TimeLimitEnd && seats[1].Signal != TimeLimitEnd {
		return Verdict{Outcome: Ignore}
	}
	return Verdict{Outcome: Resolve, Winner: ByScore(seats), Reason: ReasonTimeLimit}
}

// ByScore returns the seat with the strictly higher score; ties go to seat 0.
func ByScore(seats [2]Seat) int {
	if seats[1].Score > seats[0].Score {
		return 1
	}
	return 0
}
