package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/sakif/arcade-leaderboard/internal/model"
	"github.com/sakif/arcade-leaderboard/internal/service"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case []model.Game:
		o.printGames(v)
	case model.Game:
		o.printGames([]model.Game{v})
	case model.Registration:
		o.printRegistration(v)
	case model.Player:
		o.printPlayer(v)
	case []model.Player:
		o.printLeaderboard(v)
	case model.Ranking:
		o.printRanking(v)
	case model.ScoreResult:
		o.printScoreResult(v)
	case []model.Score:
		o.printScores(v)
	case HealthResult:
		o.printHealth(v)
	case SessionResult:
		o.printSession(v)
	case service.ImportReport:
		o.printImportReport(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult is the body of GET /healthz.
type HealthResult map[string]struct {
	Status string `json:"status"`
}

// SessionResult is the body of the volunteer session endpoints.
type SessionResult struct {
	AuthRequired  bool       `json:"authRequired"`
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

func (o *Output) table() *tabwriter.Writer {
	return tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
}

func (o *Output) printGames(games []model.Game) {
	tw := o.table()
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, g := range games {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.ID, g.Name, g.Description)
	}
	_ = tw.Flush()
}

func (o *Output) printRegistration(r model.Registration) {
	status := "existing player"
	if r.IsNewPlayer {
		status = "new player"
	}
	fmt.Fprintf(o.w, "Player: %s (%s)\n", r.Name, r.ShortCode)
	fmt.Fprintf(o.w, "ID: %s\n", r.ID)
	fmt.Fprintf(o.w, "Status: %s\n", status)
}

func (o *Output) printPlayer(p model.Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Name, p.ShortCode)
	fmt.Fprintf(o.w, "ID: %s\n", p.ID)
	if p.Alias != "" {
		fmt.Fprintf(o.w, "Legacy ID: %s\n", p.Alias)
	}
	fmt.Fprintf(o.w, "Phone: %s\n", p.Phone)
	fmt.Fprintf(o.w, "Total: %d\n", p.TotalScore)
	if len(p.Scores) > 0 {
		fmt.Fprintln(o.w)
		o.printScores(p.Scores)
	}
}

func (o *Output) printLeaderboard(players []model.Player) {
	if len(players) == 0 {
		fmt.Fprintln(o.w, "No players yet")
		return
	}
	tw := o.table()
	fmt.Fprintln(tw, "RANK\tPLAYER\tNAME\tTOTAL")
	for i, p := range players {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, p.ShortCode, p.Name, p.TotalScore)
	}
	_ = tw.Flush()
}

func (o *Output) printRanking(r model.Ranking) {
	fmt.Fprintf(o.w, "%s (%s) is #%d of %d with %d points\n",
		r.Name, r.ShortCode, r.Rank, r.Players, r.TotalScore)
}

func (o *Output) printScoreResult(r model.ScoreResult) {
	if r.WasUpdate && r.PreviousValue != nil {
		fmt.Fprintf(o.w, "Updated %s: %d -> %d\n", r.GameID, *r.PreviousValue, r.Score)
	} else {
		fmt.Fprintf(o.w, "Recorded %s: %d\n", r.GameID, r.Score)
	}
	fmt.Fprintf(o.w, "Total: %d\n", r.TotalScore)
}

func (o *Output) printScores(scores []model.Score) {
	if len(scores) == 0 {
		fmt.Fprintln(o.w, "No scores yet")
		return
	}
	tw := o.table()
	fmt.Fprintln(tw, "GAME\tSCORE\tPLAYED")
	for _, s := range scores {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.GameID, s.Value, s.PlayedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func (o *Output) printHealth(h HealthResult) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(o.w, "%s: %s\n", name, h[name].Status)
	}
}

func (o *Output) printSession(s SessionResult) {
	switch {
	case !s.AuthRequired:
		fmt.Fprintln(o.w, "Volunteer login is not required by this server")
	case s.Authenticated && s.ExpiresAt != nil:
		fmt.Fprintf(o.w, "Logged in until %s\n", s.ExpiresAt.Local().Format(time.DateTime))
	case s.Authenticated:
		fmt.Fprintln(o.w, "Logged in")
	default:
		fmt.Fprintln(o.w, "Not logged in")
	}
}

func (o *Output) printImportReport(r service.ImportReport) {
	fmt.Fprintf(o.w, "Imported: %d\n", r.Imported)
	fmt.Fprintf(o.w, "Skipped (phone already registered): %d\n", r.Skipped)
	if len(r.Invalid) > 0 {
		fmt.Fprintf(o.w, "Invalid: %d\n", len(r.Invalid))
		for _, reason := range r.Invalid {
			fmt.Fprintf(o.w, "  - %s\n", reason)
		}
	}
}
