package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/adapters/rest"
	"github.com/dkeye/HelpWave/internal/adapters/sessionstore"
	"github.com/dkeye/HelpWave/internal/adapters/wsclient"
	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/client/session"
	"github.com/dkeye/HelpWave/internal/domain"
)

var errQuit = errors.New("quit")

// controller is the part of *session.Controller the board drives.
type controller interface {
	View() session.View
	OpenCreateForm() error
	OpenJoinForm() error
	Back() error
	SubmitCreate(ctx context.Context, name string) error
	SubmitJoin(ctx context.Context, name, code string) error
	PostItem(ctx context.Context, title, description string) error
	Reply(ctx context.Context, id domain.ItemID, message string) error
	Resolve(ctx context.Context, id domain.ItemID) error
	Leave() error
	EndRoomForAll() error
}

func runBoard(ctx context.Context, app *App, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dir, err := rest.New(app.ServerURL, app.cfg.RequestTimeout)
	if err != nil {
		return err
	}
	push, err := wsURL(app.ServerURL)
	if err != nil {
		return err
	}
	ws := wsclient.New(wsclient.Options{
		URL:            push,
		ReconnectDelay: app.cfg.ReconnectDelay,
		Jar:            dir.Jar(),
	})
	store, err := sessionstore.OpenSQLite(app.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	go func() { _ = ws.Run(ctx) }()

	ctl := session.New(dir, ws, store)
	if err := ctl.Start(ctx); err != nil {
		log.Warn().Err(err).Str("module", "cli").Msg("resume failed")
		fmt.Fprintf(out, "could not resume the last room: %v\n", err)
	}

	b := &board{ctl: ctl, out: out, name: app.Name}
	go b.watch(ctx, ctl)
	b.render()
	return b.run(ctx, in)
}

type board struct {
	ctl  controller
	name string

	mu  sync.Mutex
	out io.Writer
}

func (b *board) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

// watch redraws on every update and prints notices as they come.
func (b *board) watch(ctx context.Context, ctl *session.Controller) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctl.Done():
			return
		case <-ctl.Updates():
			b.render()
		case n := <-ctl.Notices():
			b.printf("\n*** %s\n", n.Message)
		}
	}
}

func (b *board) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		b.printf("%s> ", b.ctl.View().State)
		if !sc.Scan() {
			return sc.Err()
		}
		err := b.exec(ctx, sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			b.printf("error: %s\n", describe(err))
		}
	}
}

// exec runs one command line.
func (b *board) exec(ctx context.Context, line string) error {
	cmd, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	args = strings.TrimSpace(args)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cmd {
	case "":
		return nil
	case "quit", "exit":
		return errQuit
	case "help":
		b.printf("%s", helpText)
		return nil
	case "show":
		b.render()
		return nil
	case "name":
		b.name = args
		return nil
	case "create":
		if args != "" {
			b.name = args
		}
		if b.ctl.View().State == session.StateEntry {
			if err := b.ctl.OpenCreateForm(); err != nil {
				return err
			}
		}
		return b.ctl.SubmitCreate(ctx, b.name)
	case "join":
		code, name, _ := strings.Cut(args, " ")
		if name = strings.TrimSpace(name); name != "" {
			b.name = name
		}
		if b.ctl.View().State == session.StateEntry {
			if err := b.ctl.OpenJoinForm(); err != nil {
				return err
			}
		}
		return b.ctl.SubmitJoin(ctx, b.name, code)
	case "back":
		return b.ctl.Back()
	case "post":
		title, desc, _ := strings.Cut(args, "--")
		return b.ctl.PostItem(ctx, title, desc)
	case "reply":
		idText, msg, _ := strings.Cut(args, " ")
		id, err := parseID(idText)
		if err != nil {
			return err
		}
		return b.ctl.Reply(ctx, id, msg)
	case "resolve":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return b.ctl.Resolve(ctx, id)
	case "leave":
		return b.ctl.Leave()
	case "end":
		return b.ctl.EndRoomForAll()
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func parseID(s string) (domain.ItemID, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad item id %q", s)
	}
	return domain.ItemID(n), nil
}

func describe(err error) string {
	var rejected *client.RejectedError
	switch {
	case errors.As(err, &rejected):
		return rejected.Reason
	case client.IsValidation(err):
		return err.Error()
	case client.IsNetwork(err):
		return "backend unreachable: " + err.Error()
	default:
		return err.Error()
	}
}

const helpText = `commands:
  create [name]             create a room and enter it as host
  join <code> [name]        join an existing room
  back                      leave the create/join form
  post <title> [-- details] post a doubt
  reply <id> <message>      reply to a doubt
  resolve <id>              mark a doubt resolved
  leave                     leave the room
  end                       end the room for everyone (host only)
  name <name>               set the guest name
  show | help | quit
`
