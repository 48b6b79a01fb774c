package client

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

// Renderer draws the whole UI from the store on every pass. Each pass
// rebuilds the frame from scratch and swaps it into the terminal area, so
// repeated renders of the same state are observably identical and nothing
// accumulates across passes.
type Renderer struct {
	mu       sync.Mutex
	store    *Store
	notifier *Notifier
	viewer   string
	layout   SeatLayout
	geo      Geometry
	log      *slog.Logger
	area     *pterm.AreaPrinter
	logTail  int
}

func NewRenderer(store *Store, notifier *Notifier, viewer string, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	r := &Renderer{
		store:    store,
		notifier: notifier,
		viewer:   viewer,
		layout:   CircleLayout,
		geo:      Geometry{Width: 100, Height: 100},
		log:      log,
		logTail:  10,
	}
	area, err := pterm.DefaultArea.Start()
	if err != nil {
		log.Warn("terminal area unavailable, falling back to plain output", "err", err)
	} else {
		r.area = area
	}
	return r
}

// Render is the single entry point. A projection panicking on a malformed
// snapshot is caught here: logged, one generic notice, and the event loop
// keeps going.
func (r *Renderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("render pass failed", "panic", rec)
			go r.notifier.Notify("Display problem; waiting for the next update")
		}
	}()

	frame := r.frame()
	if r.area != nil {
		r.area.Update(frame)
	} else {
		pterm.Println(frame)
	}
}

func (r *Renderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.area != nil {
		_ = r.area.Stop()
	}
}

func (r *Renderer) frame() string {
	var b strings.Builder

	snap, ok := r.store.Snapshot()
	if !ok {
		b.WriteString(pterm.DefaultBox.Sprint("Connecting... waiting for the table state"))
		b.WriteString("\n")
		r.writeNotices(&b)
		return b.String()
	}

	v := BuildView(snap, r.store.Local(), r.viewer, r.layout, r.geo)

	if v.Active {
		r.writeTable(&b, v)
	} else {
		r.writeLobby(&b, v)
	}
	r.writeNotices(&b)
	return b.String()
}

func (r *Renderer) writeLobby(b *strings.Builder, v View) {
	var rows []string
	if len(v.Roster) == 0 {
		rows = append(rows, pterm.Gray("No players in the game yet."))
	}
	for _, row := range v.Roster {
		rows = append(rows, rosterLine(row))
	}
	box := pterm.DefaultBox.WithTitle("PLAYERS").WithTitleTopLeft()
	b.WriteString(box.Sprint(strings.Join(rows, "\n")))
	b.WriteString("\n")
	if v.CanStart {
		b.WriteString(pterm.Gray("type 'start [small big]' to begin a game") + "\n")
	} else {
		b.WriteString(pterm.Gray("waiting for at least 2 players") + "\n")
	}
}

func rosterLine(row RosterRow) string {
	name := row.Username
	if row.You {
		name += " (You)"
	}
	marks := ""
	if row.Selected {
		marks = pterm.LightYellow(" *")
	}
	arrows := ""
	if row.CanMoveUp {
		arrows += "^"
	}
	if row.CanMoveDown {
		arrows += "v"
	}
	if arrows != "" {
		arrows = pterm.Gray(" [" + arrows + "]")
	}
	return fmt.Sprintf("%-16s %8s%s%s", name, row.ChipsLabel, marks, arrows)
}

func (r *Renderer) writeTable(b *strings.Builder, v View) {
	var panels []pterm.Panel
	for _, seat := range v.Seats {
		panels = append(panels, pterm.Panel{Data: seatBox(seat)})
	}
	if len(panels) > 0 {
		out, err := pterm.DefaultPanel.WithPanels([][]pterm.Panel{panels}).Srender()
		if err == nil {
			b.WriteString(out)
		}
	}

	b.WriteString(fmt.Sprintf("%s %s    %s\n",
		pterm.LightGreen("Pot:"), pterm.Bold.Sprint(v.PotLabel), roundDotsLine(v.RoundDots)))

	betFor := v.BetOptions.Selected
	if betFor == "" {
		betFor = PlaceholderOption
	}
	b.WriteString(fmt.Sprintf("Betting for: %s\n", pterm.LightCyan(betFor)))
	b.WriteString("Quick bets:    " + suggestionLine(v.QuickBets) + "\n")
	b.WriteString("Quick payouts: " + suggestionLine(v.QuickPayouts) + "\n")

	if len(v.LogLines) > 0 {
		tail := v.LogLines
		if len(tail) > r.logTail {
			tail = tail[len(tail)-r.logTail:]
		}
		var lines []string
		for _, line := range tail {
			lines = append(lines, logLine(line))
		}
		box := pterm.DefaultBox.WithTitle("GAME LOG").WithTitleTopLeft()
		b.WriteString(box.Sprint(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
}

func seatBox(seat Seat) string {
	title := seat.Username
	if seat.You {
		title += " (You)"
	}
	var badges []string
	if seat.Dealer {
		badges = append(badges, "D")
	}
	if seat.SmallBlind {
		badges = append(badges, "SB")
	}
	if seat.BigBlind {
		badges = append(badges, "BB")
	}
	if len(badges) > 0 {
		title += " [" + strings.Join(badges, " ") + "]"
	}

	status := pterm.LightGreen("Active")
	if seat.Folded {
		status = pterm.LightRed("Folded")
	}
	body := fmt.Sprintf("%s\nChips: %s\nBet: %s", status, seat.ChipsLabel, seat.BetLabel)
	return pterm.DefaultBox.WithTitle(title).WithTitleTopLeft().Sprint(body)
}

func roundDotsLine(dots []RoundDot) string {
	parts := make([]string, 0, len(dots))
	for _, dot := range dots {
		if dot.Active {
			parts = append(parts, pterm.LightGreen(dot.Label))
		} else {
			parts = append(parts, pterm.Gray(dot.Label))
		}
	}
	return strings.Join(parts, " > ")
}

func suggestionLine(suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return pterm.Gray("none")
	}
	parts := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Label != "" {
			parts = append(parts, fmt.Sprintf("$%d (%s)", s.Amount, s.Label))
		} else {
			parts = append(parts, fmt.Sprintf("$%d", s.Amount))
		}
	}
	return strings.Join(parts, "  ")
}

func logLine(line LogLine) string {
	switch line.Kind {
	case "bet":
		return pterm.LightBlue(line.Text)
	case "win":
		return pterm.LightGreen(line.Text)
	case "fold":
		return pterm.LightRed(line.Text)
	default:
		return line.Text
	}
}

func (r *Renderer) writeNotices(b *strings.Builder) {
	for _, notice := range r.notifier.Active() {
		b.WriteString(pterm.LightRed("! " + notice.Message))
		b.WriteString("\n")
	}
}
