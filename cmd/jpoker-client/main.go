package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/lazharichir/jpoker/client"
	"github.com/lazharichir/jpoker/logging"
	"github.com/lazharichir/jpoker/poker"
	"github.com/lazharichir/jpoker/protocol"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jpoker-client:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		wsURL    string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:           "jpoker-client [address]",
		Short:         "Interactive JPoker client",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(logLevel)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			addr := ""
			if len(args) == 1 {
				addr = args[0]
			}
			return run(ctx, addr, wsURL, log, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&wsURL, "ws", "", "websocket url of the server, e.g. ws://localhost:8080/ws")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	return cmd
}

func run(ctx context.Context, addr, wsURL string, log *slog.Logger, in io.Reader) error {
	authorized := make(chan struct{}, 1)
	handlers := client.Handlers{
		AuthRequired: promptCredentials,
		AuthFailed: func(f protocol.AuthFail) {
			pterm.Error.Printfln("Login failed for %q", f.User)
		},
		Authorized: func() {
			pterm.Success.Println("Logged in")
			authorized <- struct{}{}
		},
		TableList:    printTables,
		TableJoined:  func(v *client.TableView) { pterm.Success.Printfln("Joined table %d", v.Snapshot().ID) },
		TableFailed:  func(f protocol.TableConnectFail) { pterm.Error.Printfln("Table %d: %s", f.TableID, f.Message) },
		TableMessage: printTableMessage,
		TableClosed:  func(id int) { pterm.Info.Printfln("Left table %d", id) },
		Disconnected: func(d protocol.Disconnect) {
			pterm.Warning.Printfln("Disconnected by server: %s %s", d.Reason, d.Message)
		},
	}

	var (
		c   *client.Client
		err error
	)
	if wsURL != "" {
		c, err = client.DialWebsocket(ctx, wsURL, handlers, log)
	} else {
		if addr == "" {
			addr, _ = pterm.DefaultInteractiveTextInput.WithDefaultText("Server address (host or host:port)").Show()
			pterm.Println()
		}
		spinner, _ := pterm.DefaultSpinner.Start("Connecting to " + addr)
		c, err = client.Dial(ctx, strings.TrimSpace(addr), handlers, log)
		if err != nil {
			spinner.Fail(err.Error())
		} else {
			spinner.Success("Connected")
		}
	}
	if err != nil {
		return err
	}
	defer c.Close()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-authorized:
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}

	printHelp()
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case err := <-done:
			if errors.Is(err, io.EOF) {
				return errors.New("server closed the connection")
			}
			return err
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := execute(c, strings.Fields(line))
			if err != nil {
				pterm.Error.Println(err)
			}
			if quit {
				return nil
			}
		}
	}
}

func promptCredentials(mode protocol.AuthMode) (protocol.AuthDetails, error) {
	if mode != protocol.AuthPassword {
		return protocol.AuthDetails{}, fmt.Errorf("unsupported auth mode %s", mode)
	}
	user, err := pterm.DefaultInteractiveTextInput.WithDefaultText("Username").Show()
	if err != nil {
		return protocol.AuthDetails{}, err
	}
	pass, err := pterm.DefaultInteractiveTextInput.WithDefaultText("Password").WithMask("*").Show()
	if err != nil {
		return protocol.AuthDetails{}, err
	}
	pterm.Println()
	return protocol.AuthDetails{User: strings.TrimSpace(user), Pass: pass}, nil
}

func printHelp() {
	pterm.Info.Println(strings.Join([]string{
		"Commands:",
		"  tables                     refresh the table list",
		"  join <table>               connect to a table",
		"  leave <table>              disconnect from a table",
		"  sit <table> <seat>         take a seat",
		"  standup <table> <seat>     leave a seat",
		"  fold|check|call <table>    act on your seat",
		"  raise <table> <amount>     raise on your seat",
		"  update <table>             ask the server for the table state",
		"  show <table>               print the table",
		"  quit",
	}, "\n"))
}

func printTables(list []protocol.TableSummary) {
	data := pterm.TableData{{"Table", "Seats", "Occupied"}}
	for _, t := range list {
		data = append(data, []string{strconv.Itoa(t.ID), strconv.Itoa(int(t.Seats)), strconv.Itoa(int(t.Occupied))})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printTableMessage(id int, msg string) {
	cmd := protocol.ParseCommand(msg)
	switch {
	case cmd.Is("game", "winner"):
		pterm.Success.Printfln("[%d] seat %s wins %s %s", id, cmd.Arg(2), cmd.Arg(3), cmd.Arg(4))
	case cmd.Is("game", "seat") && cmd.Arg(3) == "toact":
		pterm.Warning.Printfln("[%d] seat %s to act, owes %s", id, cmd.Arg(2), cmd.Arg(4))
	default:
		pterm.Info.Printfln("[%d] %s", id, msg)
	}
}

func printView(v *client.TableView) {
	d := v.Snapshot()
	data := pterm.TableData{{"Seat", "Chips", "Bet", "In hand", "Cards"}}
	for _, i := range d.OccupiedSeats() {
		p := d.Seats[i]
		name := strconv.Itoa(i)
		if i == v.MySeat() {
			name += " (you)"
		}
		data = append(data, []string{name, strconv.Itoa(p.ChipCount), strconv.Itoa(p.CurrentBet),
			strconv.FormatBool(p.InHand), p.Hand.String()})
	}
	pterm.DefaultBox.WithTitle(fmt.Sprintf("Table %d, %s", d.ID, d.Stage)).Println(
		fmt.Sprintf("Board: %s\nPot: %d  Bet: %d  Dealer: %d", d.Board, d.Pot, d.Bet, d.Dealer))
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// execute runs one command line and reports whether the client should quit
func execute(c *client.Client, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	ints := make([]int, 0, len(args)-1)
	for _, a := range args[1:] {
		n, err := strconv.Atoi(a)
		if err != nil {
			return false, fmt.Errorf("not a number: %q", a)
		}
		ints = append(ints, n)
	}
	need := func(n int) error {
		if len(ints) < n {
			return fmt.Errorf("%s needs %d arguments", args[0], n)
		}
		return nil
	}
	mySeat := func(table int) (int, error) {
		v, ok := c.Table(table)
		if !ok || v.MySeat() < 0 {
			return 0, fmt.Errorf("not seated at table %d", table)
		}
		return v.MySeat(), nil
	}

	switch args[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		printHelp()
		return false, nil
	case "tables":
		return false, c.RequestTables()
	case "join":
		if err := need(1); err != nil {
			return false, err
		}
		return false, c.ConnectTable(ints[0])
	case "leave":
		if err := need(1); err != nil {
			return false, err
		}
		return false, c.CloseTable(ints[0])
	case "sit":
		if err := need(2); err != nil {
			return false, err
		}
		return false, c.Sit(ints[0], ints[1])
	case "standup":
		if err := need(2); err != nil {
			return false, err
		}
		return false, c.Standup(ints[0], ints[1])
	case "update":
		if err := need(1); err != nil {
			return false, err
		}
		return false, c.SendTable(ints[0], "update")
	case "show":
		if err := need(1); err != nil {
			return false, err
		}
		v, ok := c.Table(ints[0])
		if !ok {
			return false, fmt.Errorf("not connected to table %d", ints[0])
		}
		printView(v)
		return false, nil
	case "fold", "check", "call", "raise":
		action, _ := poker.ParseAction(args[0])
		n := 1
		if action == poker.ActionRaise {
			n = 2
		}
		if err := need(n); err != nil {
			return false, err
		}
		seat, err := mySeat(ints[0])
		if err != nil {
			return false, err
		}
		raise := 0
		if action == poker.ActionRaise {
			raise = ints[1]
		}
		return false, c.Act(ints[0], seat, action, raise)
	}
	return false, fmt.Errorf("unknown command %q, try help", args[0])
}
