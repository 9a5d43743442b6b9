package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies it.
type execIface interface {
	Refresh(ctx context.Context) error
	Next(ctx context.Context) error
	List(ctx context.Context, query string, asJSON bool) error
	Show(ctx context.Context, email string) error
	Weather(ctx context.Context, args []string) error
	Todos(ctx context.Context, asJSON bool) error
	Export(ctx context.Context, to, name string) error
}

const replHelp = `Available commands:
  refresh                 fetch the first page and replace the cache
  next                    fetch the next page and merge it into the cache
  list [query]            list cached users, optionally filtered
  show <email>            show one cached user
  weather <email>         current weather at a user's location
  weather <lat> <lon>     current weather at coordinates
  todos                   list todos
  export [file|s3] [name] export cached users
  status                  show mode and next page
  exit | quit             leave the program`

// runREPL reads commands line by line until EOF, "exit" or "quit". Command
// errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("usersync %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(replHelp)

		case "refresh":
			err = a.Refresh(ctx)

		case "next":
			err = a.Next(ctx)

		case "l", "list":
			err = a.List(ctx, strings.Join(args, " "), false)

		case "show":
			if len(args) != 1 {
				printlnFn("Usage: show <email>")
				continue
			}
			err = a.Show(ctx, args[0])

		case "weather":
			err = a.Weather(ctx, args)

		case "todos":
			err = a.Todos(ctx, false)

		case "export":
			to, name := "file", ""
			if len(args) > 0 {
				to = args[0]
			}
			if len(args) > 1 {
				name = args[1]
			}
			err = a.Export(ctx, to, name)

		case "status":
			printlnFn(statusFn())

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Root runs the interactive session on in until the user exits or ctx ends.
func (a *App) Root(ctx context.Context, in io.Reader) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to usersync (type 'help' for commands)")

	a.StartConnectivity(ctx)
	go a.StartOnlineStatusWatcher(ctx)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(in))
}
