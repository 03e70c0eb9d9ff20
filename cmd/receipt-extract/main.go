// Command receipt-extract runs the extraction engine over OCR text read
// from a file, or stdin when no file is given, and prints the result as
// JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/fuel-ledger/internal/extraction"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	defaults := extraction.DefaultConfig()

	fs := ff.NewFlagSet("receipt-extract")
	var (
		minAmount  = fs.IntLong("min-amount", int(defaults.MinAmount), "Smallest plausible receipt total in yen")
		maxAmount  = fs.IntLong("max-amount", int(defaults.MaxAmount), "Largest plausible receipt total in yen")
		taxDivisor = fs.IntLong("tax-divisor", int(defaults.TaxDivisor), "Total divided by this is the included tax")
		pairAbs    = fs.IntLong("pair-abs-tolerance", int(defaults.PairAbsTolerance), "Tax pairing: accepted absolute error in yen")
		pairRel    = fs.Float64Long("pair-rel-tolerance", defaults.PairRelTolerance, "Tax pairing: accepted relative error")
	)
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("FUEL_LEDGER")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	cfg := extraction.Config{
		MinAmount:        int64(*minAmount),
		MaxAmount:        int64(*maxAmount),
		TaxDivisor:       int64(*taxDivisor),
		PairAbsTolerance: int64(*pairAbs),
		PairRelTolerance: *pairRel,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	in := stdin
	if rest := fs.GetArgs(); len(rest) > 0 && rest[0] != "-" {
		f, err := os.Open(rest[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(extraction.NewExtractor(cfg).Extract(string(text)))
}
