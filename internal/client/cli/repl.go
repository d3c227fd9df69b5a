package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Stories(ctx context.Context, args []string) error
	Bookmark(ctx context.Context, id string) error
	Unbookmark(ctx context.Context, id string) error
	Bookmarks(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Unsubscribe(ctx context.Context) error
	PushStatus(ctx context.Context) error
	Install(ctx context.Context) error
	Status(ctx context.Context) error
	OpenNotification(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print
// their own messages. The reader is shared with interactive prompts, so
// handlers may consume further lines.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("storyshelf %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: stories [page], bookmark <id>, unbookmark <id>, bookmarks, subscribe, unsubscribe, push-status, open, install, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, bookmarks, open, install, status, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "stories":
			_ = a.Stories(ctx, args)

		case "bookmark", "unbookmark":
			if len(args) == 0 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			if cmd == "bookmark" {
				_ = a.Bookmark(ctx, args[0])
			} else {
				_ = a.Unbookmark(ctx, args[0])
			}

		case "bookmarks":
			_ = a.Bookmarks(ctx)

		case "subscribe":
			_ = a.Subscribe(ctx)

		case "unsubscribe":
			_ = a.Unsubscribe(ctx)

		case "push-status":
			_ = a.PushStatus(ctx)

		case "install":
			_ = a.Install(ctx)

		case "status":
			_ = a.Status(ctx)

		case "open":
			_ = a.OpenNotification(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
