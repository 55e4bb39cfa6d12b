package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"i4.energy/across/radiocfg/at"
	"i4.energy/across/radiocfg/radio"
)

// Console is the interactive operator console. Lines starting with "AT"
// are passed to the radio unchanged; everything else is a console command.
type Console struct {
	session *radio.Session
	dialer  radio.Dialer
	rl      *readline.Instance
	out     io.Writer
}

// newReadline creates the line editor shared by the console and the log
// output while the console runs.
func newReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "radio> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}

// NewConsole creates a console on rl. dialer is used by the open command.
// Attach a session before calling Run.
func NewConsole(rl *readline.Instance, dialer radio.Dialer) *Console {
	return &Console{
		dialer: dialer,
		rl:     rl,
		out:    rl.Stdout(),
	}
}

// Attach sets the session the console operates on.
func (c *Console) Attach(session *radio.Session) {
	c.session = session
}

// Observer prints session notifications to the console.
func (c *Console) Observer() radio.Observer {
	return radio.ObserverFuncs{
		OnFact: func(f at.ParsedFact) {
			fmt.Fprintf(c.out, "%s = %s\n", f.Kind, factValue(f))
		},
		OnStatus: func(text string) {
			fmt.Fprintf(c.out, "status: %s\n", text)
		},
		OnIdle: func() {
			fmt.Fprintln(c.out, "ready")
		},
	}
}

// Run starts the interactive command loop. It returns when the operator
// quits, the input ends or ctx is done; cancel is called in the first two
// cases. The caller closes rl, which also unblocks a pending read.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.execute(ctx, line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// execute runs one console line and reports whether the console should exit.
func (c *Console) execute(ctx context.Context, line string) (quit bool) {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	if at.IsCommand(input) {
		c.report(c.session.SendRaw(input))
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "show", "s":
		c.cmdShow()

	case "refresh", "r":
		c.report(c.session.Refresh())

	case "save":
		c.cmdSave(args)

	case "open":
		c.report(c.session.Open(ctx, c.dialer))

	case "close":
		c.report(c.session.Close())

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) report(err error) {
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
}

func (c *Console) cmdShow() {
	current := c.session.Current()

	fmt.Fprintf(c.out, "state:            %s\n", c.session.State())
	fmt.Fprintf(c.out, "pending:          %s\n", c.session.Pending())
	fmt.Fprintf(c.out, "ip:               %s\n", show(current.NetworkIP))
	fmt.Fprintf(c.out, "access key:       %s\n", show(current.AccessKey))
	fmt.Fprintf(c.out, "band:             %s\n", show(current.Band))
	fmt.Fprintf(c.out, "bandwidth:        %s\n", show(current.Bandwidth))
	fmt.Fprintf(c.out, "tx power:         %s\n", show(current.TxPower))
	fmt.Fprintf(c.out, "advertising mode: %s\n", showMode(current.AdvertisingMode))
}

func (c *Console) cmdSave(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "usage: save key=<hex> band=<0-2> bw=<n> power=<dBm> mode=<0-2>")
		return
	}

	desired, err := parseAssignments(args)
	if err != nil {
		c.report(err)
		return
	}
	c.report(c.session.Save(desired))
}

// parseAssignments builds a desired snapshot from key=value words.
func parseAssignments(args []string) (radio.Snapshot, error) {
	var desired radio.Snapshot

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || value == "" {
			return radio.Snapshot{}, fmt.Errorf("expected key=value, got %q", arg)
		}

		if key == "key" {
			desired.AccessKey = radio.Ptr(value)
			continue
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return radio.Snapshot{}, fmt.Errorf("%s: %w", key, err)
		}

		switch key {
		case "band":
			desired.Band = radio.Ptr(n)
		case "bw", "bandwidth":
			desired.Bandwidth = radio.Ptr(n)
		case "power":
			desired.TxPower = radio.Ptr(n)
		case "mode":
			desired.AdvertisingMode = radio.Ptr(n)
		default:
			return radio.Snapshot{}, errors.New("unknown setting " + key)
		}
	}

	return desired, nil
}

func factValue(f at.ParsedFact) string {
	switch f.Kind {
	case at.FactNetworkIP:
		return f.IP
	case at.FactAccessKey:
		return f.AccessKey
	case at.FactBandIndex:
		return strconv.Itoa(f.Band)
	case at.FactBandwidthTxPower:
		return fmt.Sprintf("%d, %d dBm", f.Bandwidth, f.TxPower)
	case at.FactAdvertisingMode:
		return at.AdvertisingMode(f.Mode).String()
	default:
		return "?"
	}
}

func show[T any](p *T) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}

func showMode(p *int) string {
	if p == nil {
		return "-"
	}
	return at.AdvertisingMode(*p).String()
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Radio Commands:
  show                  - Show session state and the radio configuration
  refresh               - Read the whole configuration again
  save key=.. band=.. bw=.. power=.. mode=..
                        - Write the given settings, others are left alone
  AT...                 - Send a raw AT command
  open / close          - Open or close the session
  quit                  - Exit`)
}
