package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/fuel-ledger/internal/extraction"
	"github.com/zombor/fuel-ledger/internal/inbox"
	"github.com/zombor/fuel-ledger/internal/ledger"
	"github.com/zombor/fuel-ledger/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	defaults := extraction.DefaultConfig()
	defaultPre := scanning.DefaultPreprocess()

	fs := ff.NewFlagSet("fuel-ledger")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "fuel-ledger.db", "Database file path")
		storagePath   = fs.StringLong("storage", "./photos", "Receipt photo directory path")
		ocrType       = fs.StringLong("ocr", "tesseract", "Text recognizer: 'tesseract', 'gemini' or 'ollama'")
		tessLang      = fs.StringLong("tesseract-lang", "jpn", "Tesseract languages, '+' separated (e.g. jpn+eng)")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "qwen2.5vl", "Ollama vision model name")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		inboxDir      = fs.StringLong("inbox", "", "Directory to watch for receipt photos (optional)")
		inboxWorkers  = fs.IntLong("inbox-workers", 2, "Concurrent inbox scans")
		inboxCategory = fs.StringLong("inbox-category", "ガソリン", "Category of records booked from the inbox")
		minAmount     = fs.IntLong("min-amount", int(defaults.MinAmount), "Smallest plausible receipt total in yen")
		maxAmount     = fs.IntLong("max-amount", int(defaults.MaxAmount), "Largest plausible receipt total in yen")
		taxDivisor    = fs.IntLong("tax-divisor", int(defaults.TaxDivisor), "Total divided by this is the included tax (11 for 10%)")
		pairAbs       = fs.IntLong("pair-abs-tolerance", int(defaults.PairAbsTolerance), "Tax pairing: accepted absolute error in yen")
		pairRel       = fs.Float64Long("pair-rel-tolerance", defaults.PairRelTolerance, "Tax pairing: accepted error relative to the total")
		preWidth      = fs.IntLong("preprocess-width", defaultPre.MaxWidth, "Tesseract: downscale photos wider than this (0 disables)")
		preThreshold  = fs.IntLong("preprocess-threshold", int(defaultPre.Threshold), "Tesseract: binarize at this luminance (0 disables)")
		debug         = fs.BoolLong("debug", "Enable debug logging")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FUEL_LEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg := extraction.Config{
		MinAmount:        int64(*minAmount),
		MaxAmount:        int64(*maxAmount),
		TaxDivisor:       int64(*taxDivisor),
		PairAbsTolerance: int64(*pairAbs),
		PairRelTolerance: *pairRel,
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid extraction settings", "error", err)
		os.Exit(1)
	}
	if *preThreshold < 0 || *preThreshold > 255 {
		slog.Error("Invalid preprocess threshold", "threshold", *preThreshold, "valid", "0-255")
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := ledger.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize recognizer based on type
	var recognizer scanning.Recognizer
	switch *ocrType {
	case "tesseract":
		pre := scanning.Preprocess{MaxWidth: *preWidth, Threshold: uint8(*preThreshold)}
		slog.Info("Initializing Tesseract recognizer...", "languages", *tessLang)
		recognizer = scanning.NewTesseract(pre, strings.Split(*tessLang, "+")...)
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini recognizer...", "model", *geminiModel)
		recognizer, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama recognizer...", "url", *ollamaURL, "model", *ollamaModel)
		recognizer, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid recognizer type", "type", *ocrType, "valid", "tesseract, gemini or ollama")
		os.Exit(1)
	}
	defer recognizer.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := ledger.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := ledger.NewService(db, recognizer, extraction.NewExtractor(cfg), store)

	basicAuth := ledger.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := ledger.NewServer(service, basicAuth)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *inboxDir != "" {
		watcher := inbox.NewWatcher(inbox.Config{
			Dir:      *inboxDir,
			Workers:  *inboxWorkers,
			Category: *inboxCategory,
		}, service)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Error("Inbox watcher stopped", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server starting", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	if err := server.Run(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shut down")
}
