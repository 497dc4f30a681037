package script

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"

	"github.com/goliatone/go-response-cache/cache"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Report is what a run prints.
type Report struct {
	Script  string        `json:"script,omitempty"`
	Results []Result      `json:"results"`
	Totals  cache.Stats   `json:"totals"`
	Elapsed time.Duration `json:"elapsed"`
}

// Render writes the report in format.
func Render(w io.Writer, format string, rep Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatText, "":
		return renderText(w, rep)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderText(w io.Writer, rep Report) error {
	if rep.Script != "" {
		fmt.Fprintf(w, "script: %s\n", rep.Script)
	}

	var (
		rows        [][]string
		transferred uint64
	)
	for _, res := range rep.Results {
		request := "-"
		if res.URL != "" {
			request = res.Method + " " + res.URL
		}
		size := "-"
		if len(res.Output) > 0 {
			size = humanize.Bytes(uint64(len(res.Output)))
			transferred += uint64(len(res.Output))
		}
		rows = append(rows, []string{
			strconv.Itoa(res.Index), res.Name, string(res.Op), request,
			cacheColumn(res), size, res.Duration.Round(time.Microsecond).String(),
		})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		Headers("#", "Step", "Op", "Request", "Cache", "Size", "Time").
		BorderHeader(false).
		Rows(rows...)
	if _, err := fmt.Fprintln(w, t); err != nil {
		return err
	}

	for _, res := range rep.Results {
		switch {
		case res.Error != "":
			fmt.Fprintf(w, "\n[%d] error: %s\n", res.Index, res.Error)
		case len(res.Output) > 0:
			fmt.Fprintf(w, "\n[%d] %s\n", res.Index, res.Output)
		}
	}

	fmt.Fprintf(w, "\n%s steps in %s, %s of output\n",
		humanize.Comma(int64(len(rep.Results))), rep.Elapsed.Round(time.Millisecond), humanize.Bytes(transferred))
	fmt.Fprintf(w, "hits %s  misses %s  expirations %s  invalidations %s\n",
		humanize.Comma(rep.Totals.Hits), humanize.Comma(rep.Totals.Misses),
		humanize.Comma(rep.Totals.Expirations), humanize.Comma(rep.Totals.Invalidations))
	return nil
}

func cacheColumn(res Result) string {
	switch {
	case res.Error != "":
		return "error"
	case res.Hit():
		return "hit"
	case res.Stats.Misses > 0:
		return "miss"
	default:
		return "-"
	}
}
