package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lorekeeper/internal/client/guard"
)

// printlnFn is a test seam for REPL output. In tests, replace it with a stub.
var printlnFn = fmt.Println

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Goto(ctx context.Context, target string) error
	ListProjects(ctx context.Context) error
	AddProject(ctx context.Context) error
	RemoveProject(ctx context.Context, id string) error
}

func (a *App) runREPL(ctx context.Context) {
	runREPL(ctx, a, a.statusLine, bufio.NewScanner(a.reader))
}

// statusLine renders the prompt: current route, signed-in email, and
// connectivity.
func (a *App) statusLine() string {
	var b strings.Builder
	b.WriteString(string(a.route))
	if s := a.auth.Current(); s != nil {
		b.WriteString(" " + s.Email)
	}
	if !a.tracker.IsOnline() {
		b.WriteString(" [offline]")
	}
	return b.String()
}

// Goto asks the guard for the named route and moves there if allowed.
// Unauthenticated requests are remembered and replayed after sign-in.
func (a *App) Goto(ctx context.Context, target string) error {
	route, ok := routeByName(target)
	if !ok {
		a.printf("Unknown route: %s", target)
		return nil
	}
	if got := a.navigate(route); got == route {
		a.printf("Now at %s", got)
	}
	return nil
}

func routeByName(name string) (guard.Route, bool) {
	switch strings.TrimPrefix(strings.ToLower(name), "/") {
	case "login":
		return guard.RouteLogin, true
	case "register":
		return guard.RouteRegister, true
	case "reset-password", "reset":
		return guard.RouteReset, true
	case "projects", "home":
		return guard.RouteHome, true
	case "manuscript":
		return guard.RouteManuscript, true
	case "elements":
		return guard.RouteElements, true
	}
	return "", false
}

// runREPL starts a read–eval–print loop for the Lorekeeper client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own messages. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("lk> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, add, rm <id>, goto <route>, whoami, logout, exit")
			} else {
				printlnFn("Available commands: login, register, reset, goto <route>, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "register":
			_ = a.Register(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "goto":
			if len(parts) < 2 {
				printlnFn("Usage: goto <route>")
				continue
			}
			_ = a.Goto(ctx, parts[1])

		case "l", "list":
			_ = a.ListProjects(ctx)

		case "add":
			_ = a.AddProject(ctx)

		case "rm":
			id := ""
			if len(parts) > 1 {
				id = parts[1]
			}
			_ = a.RemoveProject(ctx, id)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
