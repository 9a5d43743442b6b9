package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
	"github.com/dmitrijs2005/usersync/internal/client/models"
	"github.com/dmitrijs2005/usersync/internal/client/snapshot"
)

// userError carries a message meant for the user; the cause is kept for
// errors.Is/As.
type userError struct {
	msg   string
	cause error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.cause }

func failureError(f apicall.Failure) error {
	return &userError{msg: f.Message, cause: f}
}

func (a *App) Refresh(ctx context.Context) error {
	res, err := a.syncService.Refresh(ctx)
	if err != nil {
		return err
	}
	return a.reportPage(ctx, res)
}

func (a *App) Next(ctx context.Context) error {
	res, err := a.syncService.NextPage(ctx)
	if err != nil {
		return err
	}
	return a.reportPage(ctx, res)
}

func (a *App) reportPage(ctx context.Context, res apicall.Result[models.UsersPage]) error {
	if f, failed := res.Failure(); failed {
		a.log.Debug(ctx, "sync failed", "kind", f.Kind.String(), "status", f.StatusCode, "error", f.Err)
		return failureError(f)
	}
	page, _ := res.Data()
	_, err := fmt.Fprintf(a.out, "Fetched %d users. Next page: %d\n", len(page.Results), a.syncService.Cursor())
	return err
}

// List prints cached users matching query (all users for an empty query).
func (a *App) List(ctx context.Context, query string, asJSON bool) error {
	all, err := a.currentUsers(ctx)
	if err != nil {
		return err
	}
	return newPrinter(a.out, asJSON).users(models.FilterUsers(all, query))
}

// currentUsers takes the first snapshot of the cache stream.
func (a *App) currentUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	all, ok := <-a.syncService.ObserveAll(ctx)
	if !ok {
		return nil, ctx.Err()
	}
	return all, nil
}

func (a *App) Show(ctx context.Context, email string) error {
	u, ok, err := a.syncService.Lookup(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return &userError{msg: fmt.Sprintf("No cached user with email %s", email)}
	}
	return newPrinter(a.out, false).user(u)
}

// Weather accepts either "<email>" (weather at a cached user's location) or
// "<lat> <lon>".
func (a *App) Weather(ctx context.Context, args []string) error {
	var lat, lon float64

	switch len(args) {
	case 1:
		u, ok, err := a.syncService.Lookup(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return &userError{msg: fmt.Sprintf("No cached user with email %s", args[0])}
		}
		var valid bool
		lat, lon, valid = u.Location.Coordinates.LatLon()
		if !valid {
			return &userError{msg: fmt.Sprintf("User %s has no usable coordinates", args[0])}
		}
	case 2:
		var err error
		if lat, err = strconv.ParseFloat(args[0], 64); err != nil {
			return &userError{msg: "Latitude must be a number", cause: err}
		}
		if lon, err = strconv.ParseFloat(args[1], 64); err != nil {
			return &userError{msg: "Longitude must be a number", cause: err}
		}
	default:
		return &userError{msg: "Usage: weather <email> | weather <lat> <lon>"}
	}

	res, err := a.syncService.FetchWeather(ctx, lat, lon)
	if err != nil {
		return err
	}
	w, ok := res.Data()
	if !ok {
		f, _ := res.Failure()
		return failureError(f)
	}
	return newPrinter(a.out, false).weather(w)
}

func (a *App) Todos(ctx context.Context, asJSON bool) error {
	res, err := a.todoService.List(ctx)
	if err != nil {
		return err
	}
	ts, ok := res.Data()
	if !ok {
		f, _ := res.Failure()
		return failureError(f)
	}
	return newPrinter(a.out, asJSON).todos(ts)
}

// Export writes the cached users to the "file" or "s3" target. An empty name
// becomes a timestamped one.
func (a *App) Export(ctx context.Context, to, name string) error {
	newExporter, ok := a.exporters[to]
	if !ok {
		return &userError{msg: fmt.Sprintf("Unknown export target %q (use file or s3)", to)}
	}
	exp, err := newExporter(ctx)
	if err != nil {
		return err
	}

	if name == "" {
		name = snapshot.DefaultName(a.now())
	}

	all, err := a.currentUsers(ctx)
	if err != nil {
		return err
	}

	loc, err := exp.Export(ctx, name, all)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Exported %d users to %s\n", len(all), loc)
	return err
}
