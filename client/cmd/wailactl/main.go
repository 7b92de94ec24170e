// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// wailactl is a command line tool for resolving payment strings, rendering
// them as QR codes, and checking a wallet store for in-flight payments.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/decred/slog"
	flags "github.com/jessevdk/go-flags"
	"github.com/skip2/go-qrcode"
	"paywaila.org/waila/client/app"
	"paywaila.org/waila/client/db"
	"paywaila.org/waila/client/inflight"
	"paywaila.org/waila/client/payreq"
	"paywaila.org/waila/wallet"
	"paywaila.org/waila/wallet/waila"
)

const appName = "wailactl"

var stdout io.Writer = os.Stdout

// options are the application options shared by every command.
type options struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	LogLevel    string `long:"log" default:"warn" description:"Logging level {trace, debug, info, warn, error, critical}"`
}

var opts options

func logger(name string) wallet.Logger {
	lvl, ok := slog.LevelFromString(opts.LogLevel)
	if !ok {
		lvl = slog.LevelWarn
	}
	return wallet.StdOutLogger(name, lvl)
}

// resolveCmd prints the payment descriptor for a payment string.
type resolveCmd struct {
	Net  string `long:"net" default:"mainnet" description:"Network of the wallet {mainnet, testnet, signet, regtest}"`
	Args struct {
		Raw string `positional-arg-name:"string" required:"yes"`
	} `positional-args:"yes"`
}

func (c *resolveCmd) Execute([]string) error {
	resolver := payreq.NewResolver(waila.Parser{}, logger("PREQ"), nil)
	desc, err := resolver.ResolveString(c.Args.Raw, c.Net)
	if err != nil {
		// Show the parser's reason too.
		if reason := errors.Unwrap(err); reason != nil && errors.Is(err, payreq.ErrInvalidPaymentRequest) {
			return fmt.Errorf("%w: %v", err, reason)
		}
		return err
	}
	b, err := json.MarshalIndent(desc, "", "    ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(b))
	return nil
}

// qrCmd writes a payment string as a PNG QR code.
type qrCmd struct {
	Out  string `long:"out" default:"qr.png" description:"Output file"`
	Size int    `long:"size" default:"256" description:"Image width and height in pixels"`
	Args struct {
		Data string `positional-arg-name:"string" required:"yes"`
	} `positional-args:"yes"`
}

func (c *qrCmd) Execute([]string) error {
	if c.Size <= 0 {
		return fmt.Errorf("invalid size %d", c.Size)
	}
	out := wallet.CleanAndExpandPath(c.Out)
	if err := qrcode.WriteFile(c.Args.Data, qrcode.Medium, c.Size, out); err != nil {
		return fmt.Errorf("error writing QR code: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", out)
	return nil
}

// checkInFlightCmd runs one in-flight payment check on a wallet store.
type checkInFlightCmd struct {
	DBPath string `long:"db" required:"yes" description:"Directory of the wallet engine's store"`
}

// printNotifier prints in-flight payments.
type printNotifier struct{}

func (printNotifier) NotifyInFlight(key string, rec *db.PaymentRecord) {
	amt := "unknown amount"
	if rec.AmountSats != nil {
		amt = fmt.Sprintf("%d sats", *rec.AmountSats)
	}
	fmt.Fprintf(stdout, "Payment %s is %s (%s)\n", key, rec.Status, amt)
}

func (c *checkInFlightCmd) Execute([]string) error {
	checker, err := inflight.NewChecker(&inflight.Config{
		Open:     inflight.DBOpener(wallet.CleanAndExpandPath(c.DBPath), logger("DB")),
		Notifier: printNotifier{},
		Logger:   logger("INFL"),
	})
	if err != nil {
		return err
	}
	notified := checker.Check(context.Background())
	fmt.Fprintf(stdout, "inflight: %t\n", notified)
	return nil
}

func newParser() *flags.Parser {
	opts = options{}
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if opts.ShowVersion {
			fmt.Fprintln(stdout, app.VersionString(appName))
			return nil
		}
		if cmd == nil {
			return errors.New("no command specified, use -h to list commands")
		}
		return cmd.Execute(args)
	}
	parser.AddCommand("resolve", "Resolve a payment string",
		"Print the payment descriptor for a payment string as JSON.", &resolveCmd{})
	parser.AddCommand("qr", "Write a QR code",
		"Write a payment string as a PNG QR code.", &qrCmd{})
	parser.AddCommand("checkinflight", "Check for in-flight payments",
		"Scan a wallet store, read-only, for Lightning payments that have not resolved.", &checkInFlightCmd{})
	return parser
}

func run(args []string) error {
	_, err := newParser().ParseArgs(args)
	return err
}

func main() {
	// flags.Default prints the error.
	if err := run(os.Args[1:]); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
