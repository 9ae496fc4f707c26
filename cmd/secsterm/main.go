// Command secsterm is a thin interactive harness for exercising a SECS/GEM
// stack from a terminal: it fires ad-hoc primaries/secondaries by stream and
// function number, drives Select/Linktest by hand, and toggles the GEM state
// machines.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/secs2go/hsmsgem/bus"
	"github.com/secs2go/hsmsgem/config"
	"github.com/secs2go/hsmsgem/gem"
	"github.com/secs2go/hsmsgem/handler"
	"github.com/secs2go/hsmsgem/hsms"
	"github.com/secs2go/hsmsgem/internal/logx"
	"github.com/secs2go/hsmsgem/registry"
	"github.com/secs2go/hsmsgem/secs2"
)

func main() {
	addr := flag.String("addr", "127.0.0.1", "peer address")
	port := flag.Int("port", 5000, "peer port")
	sessionID := flag.Int("session", 0, "HSMS session id")
	mode := flag.String("mode", "active", "connect mode: active or passive")
	role := flag.String("role", "host", "gem role: host or equipment")
	flag.Parse()

	settings := config.Default()
	settings.Address = *addr
	settings.Port = *port
	settings.SessionID = uint16(*sessionID)
	if *mode == "passive" {
		settings.ConnectMode = config.Passive
	}
	if *role == "equipment" {
		settings.Role = config.Equipment
	}

	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "secsterm: invalid settings:", err)
		os.Exit(1)
	}

	logx.For("secsterm").WithField("addr", *addr).WithField("port", *port).Info("starting")

	term := newTerminal(settings)
	if err := term.connect(); err != nil {
		fmt.Fprintln(os.Stderr, "secsterm: connect failed:", err)
		os.Exit(1)
	}
	defer term.session.Close()

	term.repl()
}

type terminal struct {
	settings config.Settings
	tm       *hsms.TransactionManager
	reg      *registry.Registry
	h        *handler.Handler
	session  *hsms.Session
	bus      *bus.Bus
	eq       *gem.Equipment
}

func newTerminal(settings config.Settings) *terminal {
	tm := hsms.NewTransactionManager()
	reg := registry.New(registry.DefaultCatalogue())
	h := handler.New(settings, reg)
	session, connCallbacks := hsms.NewSession(settings, tm, hsms.SessionCallbacks{
		OnDataMessage: h.Deliver,
		OnDisconnected: func() {
			fmt.Println("* disconnected")
		},
	})
	h.Attach(session)

	var conn hsms.Connection
	if settings.ConnectMode == config.Passive {
		conn = hsms.NewPassiveConnection(settings, connCallbacks)
	} else {
		conn = hsms.NewActiveConnection(settings, connCallbacks)
	}
	session.Attach(conn)

	b := bus.NewBus(32)
	return &terminal{
		settings: settings,
		tm:       tm,
		reg:      reg,
		h:        h,
		session:  session,
		bus:      b,
		eq:       gem.NewEquipment(settings, h, b),
	}
}

func (t *terminal) connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), t.settings.T5*4)
	defer cancel()
	return t.session.Open(ctx)
}

func (t *terminal) repl() {
	fmt.Println("secsterm ready; type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		args, err := shlex.Split(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		if err := t.dispatch(args); err != nil {
			fmt.Println("error:", err)
		}
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
	}
}

func (t *terminal) dispatch(args []string) error {
	switch args[0] {
	case "help":
		printHelp()
		return nil
	case "select":
		ctx, cancel := context.WithTimeout(context.Background(), t.settings.T6*2)
		defer cancel()
		return t.session.SelectAsActive(ctx)
	case "linktest":
		ctx, cancel := context.WithTimeout(context.Background(), t.settings.T6*2)
		defer cancel()
		return t.session.Linktest(ctx)
	case "send":
		return t.send(args[1:], false)
	case "waitfor":
		return t.send(args[1:], true)
	case "enable":
		t.eq.Enable()
		return nil
	case "disable":
		t.eq.Disable()
		return nil
	case "online":
		ctx, cancel := context.WithTimeout(context.Background(), t.settings.T3)
		defer cancel()
		accepted, err := t.eq.RequestOnline(ctx)
		if err != nil {
			return err
		}
		fmt.Println("online accepted:", accepted)
		return nil
	case "offline":
		ctx, cancel := context.WithTimeout(context.Background(), t.settings.T3)
		defer cancel()
		acknowledged, err := t.eq.RequestOffline(ctx)
		if err != nil {
			return err
		}
		fmt.Println("offline acknowledged:", acknowledged)
		return nil
	case "local":
		t.eq.GoLocal()
		return nil
	case "remote":
		t.eq.GoRemote()
		return nil
	case "state":
		fmt.Println("session:", t.session.State())
		fmt.Println("communication:", t.eq.Communication.State())
		fmt.Println("control:", t.eq.Control.State())
		return nil
	case "quit", "exit":
		return nil
	default:
		return fmt.Errorf("unknown command %q; try 'help'", args[0])
	}
}

// send parses the remaining args as "S<stream>F<function>" (the SECS-II
// header of spec §4.2) with an empty data item body, e.g.
//
//	send S6F11
//
// and either fires it (fire-and-forget) or sends it and blocks for the
// matching secondary (waitfor command).
func (t *terminal) send(args []string, waitForReply bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: send S<stream>F<function>")
	}

	stream, function, err := parseStreamFunction(args[0])
	if err != nil {
		return err
	}
	body := secs2.NewEmptyItemNode()

	if waitForReply {
		ctx, cancel := context.WithTimeout(context.Background(), t.settings.T3)
		defer cancel()
		reply, err := t.h.SendAndWaitForResponse(ctx, stream, function, body)
		if err != nil {
			return err
		}
		fmt.Println(reply.String())
		return nil
	}

	return t.h.SendStreamFunction(stream, function, body)
}

// parseStreamFunction parses a header of the form "S<stream>F<function>",
// e.g. "S6F11", into its stream and function codes.
func parseStreamFunction(text string) (stream, function int, err error) {
	upper := strings.ToUpper(text)
	fIdx := strings.IndexByte(upper, 'F')
	if !strings.HasPrefix(upper, "S") || fIdx < 0 {
		return 0, 0, fmt.Errorf("malformed header %q; expected S<stream>F<function>", text)
	}

	stream, err = strconv.Atoi(upper[1:fIdx])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed stream code in %q: %w", text, err)
	}
	function, err = strconv.Atoi(upper[fIdx+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed function code in %q: %w", text, err)
	}
	return stream, function, nil
}

func printHelp() {
	fmt.Println(`commands:
  select                   perform the Select handshake (active side)
  linktest                 send Linktest.req
  send S<x>F<y>            send a primary/secondary with an empty body
  waitfor S<x>F<y>         send a primary and block for its secondary
  enable / disable         GEM communication state machine
  online / offline         request online/offline (host side)
  local / remote           local operator control transfer (equipment side)
  state                    print session/communication/control state
  quit                     exit`)
}
