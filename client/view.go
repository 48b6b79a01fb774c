package client

import (
	"fmt"
	"math"

	"github.com/chiptrack/chiptrack/pkg/types"
)

// PlaceholderOption is the empty dropdown choice shown when no valid
// player is selected.
const PlaceholderOption = "Select Player"

// View is the full declarative description of the UI, rebuilt from
// scratch on every render pass. Projections below are pure: same
// snapshot and local state, same View.
type View struct {
	Active        bool
	Roster        []RosterRow
	CanStart      bool
	Seats         []Seat
	PotLabel      string
	RoundName     string
	RoundDots     []RoundDot
	BetOptions    SelectControl
	WinnerOptions SelectControl
	QuickBets     []Suggestion
	QuickPayouts  []Suggestion
	LogLines      []LogLine
}

type RosterRow struct {
	Username    string
	ChipsLabel  string
	You         bool
	Selected    bool
	CanMoveUp   bool
	CanMoveDown bool
}

type Seat struct {
	Username   string
	X, Y       float64
	ChipsLabel string
	BetLabel   string
	Dealer     bool
	SmallBlind bool
	BigBlind   bool
	Folded     bool
	You        bool
}

type RoundDot struct {
	Round  types.Round
	Label  string
	Active bool
}

type SelectControl struct {
	Selected string // "" means the placeholder option
	Options  []SelectOption
}

type SelectOption struct {
	Username string
	Label    string
}

type Suggestion struct {
	Amount int
	Label  string
}

type LogLine struct {
	Text string
	Kind string // "bet", "win", "fold", "info"
}

// Geometry is the drawable area the seat layout positions seats within.
type Geometry struct {
	Width  float64
	Height float64
}

// SeatLayout places seat index i of total around the table, returning
// coordinates inside the geometry. Alternative layouts (a resizable
// table, say) plug in here; the rendering path does not change.
type SeatLayout func(index, total int, geo Geometry) (x, y float64)

// CircleLayout spaces seats evenly on a circle, seat 0 at the top,
// proceeding clockwise.
func CircleLayout(index, total int, geo Geometry) (x, y float64) {
	if total <= 0 {
		return geo.Width / 2, geo.Height / 2
	}
	radius := math.Min(geo.Width, geo.Height) * 0.35
	angle := (float64(index)/float64(total))*2*math.Pi + 1.5*math.Pi
	x = geo.Width/2 + math.Cos(angle)*radius
	y = geo.Height/2 + math.Sin(angle)*radius
	return x, y
}

// BlindSeats derives the small and big blind seat indices from the dealer
// seat over n seats. Meaningless for n == 0; callers guard.
func BlindSeats(dealer, n int) (sb, bb int) {
	return (dealer + 1) % n, (dealer + 2) % n
}

// FormatChips renders a chip amount as display currency. Negative stacks
// are a display artifact of manual adjustment, not an error.
func FormatChips(n int) string {
	return fmt.Sprintf("$%d", n)
}

// StandardBets is the fixed set of one-click denominations, always shown.
func StandardBets() []Suggestion {
	return []Suggestion{
		{Amount: 5, Label: "SB"},
		{Amount: 10, Label: "BB"},
		{Amount: 25},
		{Amount: 50},
		{Amount: 100},
	}
}

// PotBets computes the pot-fraction bet suggestions for a bettor holding
// chips. Fractions the player cannot afford are dropped, adjacent
// fractions that floor to the same amount are deduplicated, and double
// pot is only offered when affordable.
func PotBets(pot, chips int) []Suggestion {
	if pot <= 0 {
		return nil
	}
	var out []Suggestion

	quarter := pot / 4
	if quarter > 0 && quarter <= chips {
		out = append(out, Suggestion{Amount: quarter, Label: "1/4 Pot"})
	}
	third := pot / 3
	if third > 0 && third <= chips && third != quarter {
		out = append(out, Suggestion{Amount: third, Label: "1/3 Pot"})
	}
	half := pot / 2
	if half > 0 && half <= chips && half != third {
		out = append(out, Suggestion{Amount: half, Label: "1/2 Pot"})
	}
	if pot <= chips {
		out = append(out, Suggestion{Amount: pot, Label: "Pot"})
	}
	if double := pot * 2; double <= chips {
		out = append(out, Suggestion{Amount: double, Label: "2x Pot"})
	}
	return out
}

// PotPayouts computes the payout suggestions. Paying the full pot is
// always offered while there is a pot; smaller fractions are dropped when
// they collapse into their neighbour.
func PotPayouts(pot int) []Suggestion {
	if pot <= 0 {
		return nil
	}
	out := []Suggestion{{Amount: pot, Label: "All"}}

	threeQuarter := pot * 3 / 4
	if threeQuarter > 0 && threeQuarter != pot {
		out = append(out, Suggestion{Amount: threeQuarter, Label: "3/4 Pot"})
	}
	half := pot / 2
	if half > 0 && half != threeQuarter {
		out = append(out, Suggestion{Amount: half, Label: "1/2 Pot"})
	}
	quarter := pot / 4
	if quarter > 0 && quarter != half {
		out = append(out, Suggestion{Amount: quarter, Label: "1/4 Pot"})
	}
	return out
}

// BuildView projects the snapshot plus local-only state into a View.
// viewer is the local user's username, used only for "(You)" markers.
func BuildView(snap types.Snapshot, loc Local, viewer string, layout SeatLayout, geo Geometry) View {
	if layout == nil {
		layout = CircleLayout
	}

	v := View{
		Active:    snap.Active,
		CanStart:  len(snap.Players) >= 2,
		PotLabel:  FormatChips(snap.Pot),
		RoundName: snap.CurrentRound.DisplayName(),
	}

	v.Roster = buildRoster(snap, loc, viewer)
	v.RoundDots = buildRoundDots(snap.CurrentRound)
	if !snap.Active {
		return v
	}

	v.Seats = buildSeats(snap, viewer, layout, geo)
	v.BetOptions = buildSelect(snap, loc, true)
	v.WinnerOptions = buildSelect(snap, loc, false)
	v.QuickBets = buildQuickBets(snap, v.BetOptions.Selected)
	v.QuickPayouts = PotPayouts(snap.Pot)
	v.LogLines = buildLogLines(snap.GameLog)
	return v
}

func buildRoster(snap types.Snapshot, loc Local, viewer string) []RosterRow {
	rows := make([]RosterRow, 0, len(snap.Players))
	for i, p := range snap.Players {
		rows = append(rows, RosterRow{
			Username:    p.Username,
			ChipsLabel:  FormatChips(p.Chips),
			You:         p.Username == viewer,
			Selected:    p.Username == loc.SelectedPlayer,
			CanMoveUp:   i > 0,
			CanMoveDown: i < len(snap.Players)-1,
		})
	}
	return rows
}

func buildRoundDots(current types.Round) []RoundDot {
	idx := current.Index()
	dots := make([]RoundDot, 0, len(types.RoundOrder))
	for i, r := range types.RoundOrder {
		dots = append(dots, RoundDot{
			Round:  r,
			Label:  r.DisplayName(),
			Active: idx >= 0 && i <= idx,
		})
	}
	return dots
}

// buildSeats walks the seating order. A name with no matching player
// record is skipped; a corrupt order must degrade to a smaller ring,
// never a crash.
func buildSeats(snap types.Snapshot, viewer string, layout SeatLayout, geo Geometry) []Seat {
	n := len(snap.PlayerOrder)
	if n == 0 {
		return nil
	}
	dealer := ((snap.DealerPosition % n) + n) % n
	sbSeat, bbSeat := BlindSeats(dealer, n)

	seats := make([]Seat, 0, n)
	for i, name := range snap.PlayerOrder {
		p, ok := snap.PlayerByName(name)
		if !ok {
			continue
		}
		x, y := layout(i, n, geo)
		seats = append(seats, Seat{
			Username:   p.Username,
			X:          x,
			Y:          y,
			ChipsLabel: FormatChips(p.Chips),
			BetLabel:   FormatChips(p.CurrentBet),
			Dealer:     i == dealer,
			SmallBlind: i == sbSeat,
			BigBlind:   i == bbSeat,
			Folded:     p.Folded,
			You:        p.Username == viewer,
		})
	}
	return seats
}

// buildSelect builds one of the two dropdowns. The bet select lists only
// players still in the hand; the winner select lists everyone. A stale
// selection falls back to the placeholder.
func buildSelect(snap types.Snapshot, loc Local, skipFolded bool) SelectControl {
	ctl := SelectControl{}
	for _, p := range snap.Players {
		if skipFolded && p.Folded {
			continue
		}
		ctl.Options = append(ctl.Options, SelectOption{
			Username: p.Username,
			Label:    fmt.Sprintf("%s (%s)", p.Username, FormatChips(p.Chips)),
		})
		if p.Username == loc.SelectedPlayer {
			ctl.Selected = p.Username
		}
	}
	return ctl
}

func buildQuickBets(snap types.Snapshot, selected string) []Suggestion {
	out := StandardBets()
	if selected == "" {
		return out
	}
	p, ok := snap.PlayerByName(selected)
	if !ok {
		return out
	}
	return append(out, PotBets(snap.Pot, p.Chips)...)
}

func buildLogLines(entries []types.LogEntry) []LogLine {
	lines := make([]LogLine, 0, len(entries))
	for _, e := range entries {
		kind := "info"
		switch e.Type {
		case types.LogBet:
			kind = "bet"
		case types.LogDistribution:
			kind = "win"
		case types.LogFold:
			kind = "fold"
		}
		lines = append(lines, LogLine{
			Text: fmt.Sprintf("[%s] %s", e.Timestamp.Format("15:04"), e.Message),
			Kind: kind,
		})
	}
	return lines
}
