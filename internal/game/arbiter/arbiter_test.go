package arbiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJudge(t *testing.T) {
	tests := []struct {
		name     string
		resolved bool
		seats    [2]Seat
		reporter int
		sig      Signal
		want     Verdict
	}{
		{
			name:     "resolved room ignores everything",
			resolved: true,
			reporter: 0, sig: EarlyLoss,
			want: Verdict{Outcome: Ignore},
		},
		{
			name:     "duplicate report from same side",
			seats:    [2]Seat{{Signal: TimeLimitEnd}, {}},
			reporter: 0, sig: EarlyLoss,
			want: Verdict{Outcome: Ignore},
		},
		{
			name:     "early loss with silent opponent",
			seats:    [2]Seat{{Score: 9000}, {Score: 10}},
			reporter: 0, sig: EarlyLoss,
			want: Verdict{Outcome: Resolve, Winner: 1, Reason: ReasonEarlyLoss},
		},
		{
			name:     "early loss beats earlier time limit from opponent",
			seats:    [2]Seat{{Signal: TimeLimitEnd, Score: 10}, {Score: 9000}},
			reporter: 1, sig: EarlyLoss,
			want: Verdict{Outcome: Resolve, Winner: 0, Reason: ReasonEarlyLoss},
		},
		{
			name:     "double early loss goes to first arrival",
			seats:    [2]Seat{{Signal: EarlyLoss}, {}},
			reporter: 1, sig: EarlyLoss,
			want: Verdict{Outcome: Resolve, Winner: 1, Reason: ReasonEarlyLoss},
		},
		{
			name:     "time limit after opponent lost early",
			seats:    [2]Seat{{Score: 0}, {Signal: EarlyLoss, Score: 5000}},
			reporter: 0, sig: TimeLimitEnd,
			want: Verdict{Outcome: Resolve, Winner: 0, Reason: ReasonEarlyLoss},
		},
		{
			name:     "first time limit waits for grace",
			seats:    [2]Seat{{Score: 500}, {Score: 300}},
			reporter: 0, sig: TimeLimitEnd,
			want: Verdict{Outcome: AwaitGrace},
		},
		{
			name:     "both time limit, higher score wins",
			seats:    [2]Seat{{Signal: TimeLimitEnd, Score: 100}, {Score: 300}},
			reporter: 1, sig: TimeLimitEnd,
			want: Verdict{Outcome: Resolve, Winner: 1, Reason: ReasonTimeLimit},
		},
		{
			name:     "both time limit, tie goes to seat 0",
			seats:    [2]Seat{{Score: 300}, {Signal: TimeLimitEnd, Score: 300}},
			reporter: 0, sig: TimeLimitEnd,
			want: Verdict{Outcome: Resolve, Winner: 0, Reason: ReasonTimeLimit},
		},
		{
			name:     "none signal is ignored",
			reporter: 0, sig: None,
			want: Verdict{Outcome: Ignore},
		},
		{
			name:     "bad seat is ignored",
			reporter: 2, sig: EarlyLoss,
			want: Verdict{Outcome: Ignore},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Judge(tt.resolved, tt.seats, tt.reporter, tt.sig))
		})
	}
}

// An early loss always defeats a time-limit report, whatever the scores.
func TestEarlyLossPrecedenceIgnoresScore(t *testing.T) {
	for _, scores := range [][2]int{{0, 0}, {1, 99999}, {99999, 1}} {
		for reporter := 0; reporter < 2; reporter++ {
			seats := [2]Seat{{Score: scores[0]}, {Score: scores[1]}}
			seats[1-reporter].Signal = TimeLimitEnd
			v := Judge(false, seats, reporter, EarlyLoss)
			assert.Equal(t, Resolve, v.Outcome)
			assert.Equal(t, 1-reporter, v.Winner)
		}
	}
}

func TestGraceExpired(t *testing.T) {
	v := GraceExpired(false, [2]Seat{{Signal: TimeLimitEnd, Score: 500}, {Score: 300}})
	assert.Equal(t, Verdict{Outcome: Resolve, Winner: 0, Reason: ReasonTimeLimit}, v)

	v = GraceExpired(false, [2]Seat{{Score: 100}, {Signal: TimeLimitEnd, Score: 50}})
	assert.Equal(t, 0, v.Winner, "silent side can still win on score")

	assert.Equal(t, Ignore, GraceExpired(true, [2]Seat{{Signal: TimeLimitEnd}, {}}).Outcome)
	assert.Equal(t, Ignore, GraceExpired(false, [2]Seat{}).Outcome)
}

func TestByScoreDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0, ByScore([2]Seat{{Score: 42}, {Score: 42}}))
	}
	assert.Equal(t, 1, ByScore([2]Seat{{Score: 41}, {Score: 42}}))
	assert.Equal(t, 0, ByScore([2]Seat{{Score: 43}, {Score: 42}}))
}

func TestSignalFromReason(t *testing.T) {
	assert.Equal(t, TimeLimitEnd, SignalFromReason("time_limit"))
	assert.Equal(t, EarlyLoss, SignalFromReason(""))
	assert.Equal(t, EarlyLoss, SignalFromReason("topped_out"))
}
