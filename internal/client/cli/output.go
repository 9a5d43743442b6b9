package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/usersync/internal/client/models"
	"golang.org/x/term"
)

// isTerminal is a test seam for terminal detection.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printer renders tables on a terminal and JSON everywhere else.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, forceJSON bool) *printer {
	return &printer{w: w, json: forceJSON || !isTerminal(w)}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table(header string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		for i, col := range r {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, col)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func (p *printer) users(us []models.User) error {
	if p.json {
		if us == nil {
			us = []models.User{}
		}
		return p.encode(us)
	}
	if len(us) == 0 {
		_, err := fmt.Fprintln(p.w, "No users cached. Run 'refresh' first.")
		return err
	}
	rows := make([][]string, 0, len(us))
	for _, u := range us {
		rows = append(rows, []string{u.Email, u.DisplayName(), u.Location.City, u.Location.Country, u.Phone})
	}
	return p.table("EMAIL\tNAME\tCITY\tCOUNTRY\tPHONE", rows)
}

func (p *printer) user(u models.User) error {
	if p.json {
		return p.encode(u)
	}
	loc := u.Location
	return p.table("FIELD\tVALUE", [][]string{
		{"Name", u.DisplayName()},
		{"Email", u.Email},
		{"Gender", u.Gender},
		{"Phone", u.Phone},
		{"Cell", u.Cell},
		{"Street", fmt.Sprintf("%d %s", loc.Street.Number, loc.Street.Name)},
		{"City", loc.City},
		{"State", loc.State},
		{"Country", loc.Country},
		{"Postcode", loc.Postcode.String()},
		{"Coordinates", loc.Coordinates.Latitude + ", " + loc.Coordinates.Longitude},
		{"Picture", u.Picture.Large},
	})
}

func (p *printer) weather(w models.Weather) error {
	if p.json {
		return p.encode(w)
	}
	return p.table("FIELD\tVALUE", [][]string{
		{"Temperature", strconv.FormatFloat(w.Temperature(), 'f', 1, 64)},
		{"Feels like", strconv.FormatFloat(w.Main.FeelsLike, 'f', 1, 64)},
		{"Humidity", strconv.Itoa(w.Main.Humidity) + "%"},
		{"Wind", strconv.FormatFloat(w.Wind.Speed, 'f', 1, 64)},
		{"Conditions", w.Description()},
		{"Icon", w.IconURL()},
	})
}

func (p *printer) todos(ts []models.Todo) error {
	if p.json {
		if ts == nil {
			ts = []models.Todo{}
		}
		return p.encode(ts)
	}
	rows := make([][]string, 0, len(ts))
	for _, t := range ts {
		done := " "
		if t.Completed {
			done = "x"
		}
		rows = append(rows, []string{strconv.Itoa(t.ID), "[" + done + "]", t.Title})
	}
	return p.table("ID\tDONE\tTITLE", rows)
}
