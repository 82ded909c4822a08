package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/backend"
	"github.com/phishguard/phishguard/internal/adapters/frontend"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/factory"
	"github.com/phishguard/phishguard/internal/logging"
)

var (
	// Scan target flags (choose one)
	checkURL  = flag.String("url", "", "Classify a single URL")
	scanPage  = flag.String("page", "", "Fetch a page and batch-classify its external links")
	scanEmail = flag.String("email-page", "", "Fetch a webmail page, extract the open message and classify it")
	inputFile = flag.String("file", "", "Classify an email file (RFC 822); use stdin if empty and no other target given")

	// Session and feedback flags
	login      = flag.Bool("login", false, "Log in to the backend and exit")
	logout     = flag.Bool("logout", false, "Log out of the backend and exit")
	status     = flag.Bool("status", false, "Probe backend connectivity and session, then exit")
	feedbackID = flag.String("feedback", "", "Submit feedback for an analysis ID")
	userSays   = flag.String("classification", "", "Your classification for -feedback (safe, suspicious, malicious)")
	userEmail  = flag.String("user", "", "Account email for -login")
	password   = flag.String("password", "", "Account password for -login")

	// History flags
	showHistory = flag.Bool("history", false, "Print the recent scan history and exit")
	showLast    = flag.Bool("last", false, "Print the handed-off last result if still fresh, then exit")

	// Classifier flags
	provider     = flag.String("provider", "", "Classifier provider (backend, openai); overrides config")
	backendURL   = flag.String("backend-url", "", "Classification backend base URL; overrides config")
	openaiAPIKey = flag.String("openai-api-key", "", "API key for the direct OpenAI classifier")

	// Output flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := loadConfig(logger)

	cacheFactory := factory.NewCacheFactory(cfg, logger)
	cache, err := cacheFactory.CreateResultCache()
	if err != nil {
		logger.Fatal("Failed to create result cache", zap.Error(err))
	}

	textProcessor := factory.NewTextProcessorFactory(cfg, logger).CreateTextProcessor()
	classifier, err := factory.NewClassifierFactory(cfg, logger, cache, textProcessor).CreateClassifier()
	if err != nil {
		logger.Fatal("Failed to create classifier", zap.Error(err))
	}

	historyRepo, err := factory.NewHistoryFactory(cfg, logger).CreateHistoryRepository()
	if err != nil {
		logger.Fatal("Failed to open scan history", zap.Error(err))
	}
	defer func() {
		if closer, ok := historyRepo.(interface{ Close() error }); ok {
			closer.Close()
		}
	}()

	extractors := factory.NewExtractorFactory(cfg, logger, textProcessor)

	notifier := frontend.NewLogNotifier(logger)
	service := core.NewScanService(classifier, historyRepo, notifier, logger,
		cfg.GetBool("notifications.enabled"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch {
	case *login, *logout, *status, *feedbackID != "":
		runSession(ctx, cfg, logger, classifier)
	case *showHistory:
		printHistory(ctx, service)
	case *showLast:
		printLast(ctx, cfg, service)
	case *checkURL != "":
		runCheckURL(ctx, service, *checkURL)
	case *scanPage != "":
		runScanPage(ctx, cfg, logger, service, extractors, *scanPage)
	case *scanEmail != "":
		runScanEmailPage(ctx, cfg, logger, service, extractors, *scanEmail)
	default:
		runScanFile(ctx, logger, service)
	}
}

func loadConfig(logger *zap.Logger) *config.Config {
	var cfg *config.Config
	var err error

	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = config.NewFromViper(config.NewEmptyViper())
	}

	v := cfg.GetViper()
	if *provider != "" {
		v.Set("classifier.provider", *provider)
	}
	if *backendURL != "" {
		v.Set("backend.url", *backendURL)
	}
	if *openaiAPIKey != "" {
		v.Set("openai.api_key", *openaiAPIKey)
	}
	// One-shot invocations keep history in the persistent store so that
	// -history and -last see scans from prior runs.
	return cfg
}

func runCheckURL(ctx context.Context, service *core.ScanService, target string) {
	fmt.Printf("\n=== URL Check ===\n")
	fmt.Printf("URL: %s\n", target)

	startTime := time.Now()
	result, err := service.ScanURL(ctx, target)
	if err != nil {
		exitOnScanError(err)
	}

	// Leave the verdict behind for a -last pickup from another invocation.
	if err := service.HandoffResult(ctx, result); err != nil {
		fmt.Printf("Warning: failed to store result for handoff: %v\n", err)
	}

	printResult(result, time.Since(startTime))
}

func runScanPage(ctx context.Context, cfg *config.Config, logger *zap.Logger, service *core.ScanService, extractors *factory.ExtractorFactory, target string) {
	fetcher, err := factory.NewFetcherFactory(cfg, logger).CreateFetcher()
	if err != nil {
		logger.Fatal("Failed to create page fetcher", zap.Error(err))
	}

	doc, err := fetcher.Fetch(ctx, target)
	if err != nil {
		logger.Fatal("Failed to fetch page", zap.Error(err))
	}

	base, err := url.Parse(target)
	if err != nil {
		logger.Fatal("Invalid page URL", zap.Error(err))
	}

	links := extractors.CreateLinkExtractor().Extract(doc, base)

	fmt.Printf("\n=== Page Scan ===\n")
	fmt.Printf("Page: %s\n", target)
	fmt.Printf("External links found: %d\n", len(links))

	if len(links) == 0 {
		fmt.Printf("Nothing to check.\n")
		return
	}

	startTime := time.Now()
	batch, err := service.ScanPage(ctx, target, links)
	if err != nil {
		exitOnScanError(err)
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Safe: %d  Suspicious: %d  Malicious: %d  (of %d)\n",
		batch.Summary.Safe, batch.Summary.Suspicious, batch.Summary.Malicious, batch.Summary.Total)
	for _, r := range batch.Results {
		if r.Classification != core.ClassificationSafe {
			fmt.Printf("  [%s] %s (score %.0f)\n", strings.ToUpper(string(r.Classification)), r.URL, r.RiskScore)
		}
	}
	fmt.Printf("Processing time: %v\n", time.Since(startTime))
}

func runScanEmailPage(ctx context.Context, cfg *config.Config, logger *zap.Logger, service *core.ScanService, extractors *factory.ExtractorFactory, target string) {
	fetcher, err := factory.NewFetcherFactory(cfg, logger).CreateFetcher()
	if err != nil {
		logger.Fatal("Failed to create page fetcher", zap.Error(err))
	}

	doc, err := fetcher.Fetch(ctx, target)
	if err != nil {
		logger.Fatal("Failed to fetch page", zap.Error(err))
	}

	pageURL, err := url.Parse(target)
	if err != nil {
		logger.Fatal("Invalid page URL", zap.Error(err))
	}

	emailExtractor := extractors.CreateEmailExtractor()

	email, detection, err := emailExtractor.Extract(pageURL, doc)
	if err != nil {
		// Structured extraction failed; degrade to raw page text before
		// giving up entirely.
		logger.Warn("Email extraction failed, falling back to page text", zap.Error(err))
		content := strings.TrimSpace(doc.Text())
		if content == "" {
			logger.Fatal("No analyzable content on page")
		}
		startTime := time.Now()
		result, scanErr := service.ScanText(ctx, content, "", "")
		if scanErr != nil {
			exitOnScanError(scanErr)
		}
		printResult(result, time.Since(startTime))
		return
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("Provider: %s\n", detection.ProviderName)
	fmt.Printf("From: %s <%s>\n", email.Sender, email.SenderEmail)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))
	fmt.Printf("Links: %d\n", email.LinkCount)
	if email.Warnings.HasHiddenLinks {
		fmt.Printf("Warning: hidden links detected\n")
	}
	if email.Warnings.HasMismatchedLinks {
		fmt.Printf("Warning: mismatched link targets detected\n")
	}

	startTime := time.Now()
	result, err := service.ScanEmail(ctx, email)
	if err != nil {
		exitOnScanError(err)
	}

	printResult(result, time.Since(startTime))
}

func runScanFile(ctx context.Context, logger *zap.Logger, service *core.ScanService) {
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	subject := msg.Header.Get("Subject")
	from := msg.Header.Get("From")

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", from)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(bodyBytes))

	startTime := time.Now()
	result, err := service.ScanText(ctx, string(bodyBytes), subject, from)
	if err != nil {
		exitOnScanError(err)
	}

	printResult(result, time.Since(startTime))
}

func runSession(ctx context.Context, cfg *config.Config, logger *zap.Logger, classifier core.Classifier) {
	client, ok := classifier.(*backend.Client)
	if !ok {
		logger.Fatal("Session commands require the backend classifier")
	}

	switch {
	case *login:
		user, err := client.Login(ctx, *userEmail, *password)
		if err != nil {
			logger.Fatal("Login failed", zap.Error(err))
		}
		fmt.Printf("Logged in as %s\n", user.Email)
	case *logout:
		if err := client.Logout(ctx); err != nil {
			logger.Fatal("Logout failed", zap.Error(err))
		}
		fmt.Printf("Logged out\n")
	case *status:
		authenticated, err := client.Status(ctx)
		if err != nil {
			logger.Fatal("Status probe failed", zap.Error(err))
		}
		fmt.Printf("Backend reachable; authenticated: %t\n", authenticated)
	case *feedbackID != "":
		ack, err := client.SubmitFeedback(ctx, *feedbackID, core.Classification(*userSays))
		if err != nil {
			logger.Fatal("Feedback submission failed", zap.Error(err))
		}
		fmt.Printf("Feedback accepted: %t (%s)\n", ack.Success, ack.Message)
	}
}

func printHistory(ctx context.Context, service *core.ScanService) {
	items, err := service.History(ctx, 0)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Scan History ===\n")
	if len(items) == 0 {
		fmt.Printf("(empty)\n")
		return
	}
	for _, item := range items {
		fmt.Printf("%s  %-7s  %-10s  score %.0f\n",
			item.Timestamp.Format(time.RFC3339), item.Type, item.Classification, item.Score)
	}
}

func printLast(ctx context.Context, cfg *config.Config, service *core.ScanService) {
	window, err := cfg.GetDuration("history.last_result_window")
	if err != nil {
		window = 30 * time.Second
	}

	result, ok, err := service.PickupResult(ctx, window)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Printf("No fresh result to pick up.\n")
		return
	}
	printResult(result, 0)
}

func printResult(result *core.ClassificationResult, duration time.Duration) {
	badge := core.BadgeFor(result, nil)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Classification: %s", result.Classification)
	if text := badge.Text(); text != "" {
		fmt.Printf("  [%s]", text)
	}
	fmt.Printf("\n")
	fmt.Printf("Risk score: %.0f / 100\n", result.RiskScore)
	if result.Explanation != "" {
		fmt.Printf("Explanation: %s\n", result.Explanation)
	}
	for _, reason := range result.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
	if result.AnalysisID != "" {
		fmt.Printf("Analysis ID: %s\n", result.AnalysisID)
	}
	if duration > 0 {
		fmt.Printf("Processing time: %v\n", duration)
	}
}

func exitOnScanError(err error) {
	if backend.IsAuthError(err) {
		fmt.Printf("Error: authentication required. Run with -login first.\n")
	} else {
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}
