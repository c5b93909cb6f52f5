// Command urlmatch is a small harness that loads one or more filter lists
// and reports how a single request would be handled — blocked, whitelisted,
// or passed — without running a proxy.
package main

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/urlfilter/matcher"
	"github.com/AdguardTeam/urlfilter/rules"
	goFlags "github.com/jessevdk/go-flags"
)

// Options -- console arguments
type Options struct {
	// Verbose - should we write debug-level log
	Verbose bool `short:"v" long:"verbose" description:"Verbose output (optional)." optional:"yes" optional-value:"true"`

	// FilterLists - paths to the filter lists
	FilterLists []string `short:"f" long:"filter" description:"Path to a filter list file. Can be specified multiple times." required:"true"`

	// URL - the request URL to test
	URL string `short:"u" long:"url" description:"The request URL to test." required:"true"`

	// Source - the document hostname the request is made from
	Source string `long:"source" description:"The document hostname the request was made from. Defaults to the request URL's own host."`

	// RequestType - request type name
	RequestType string `short:"t" long:"type" description:"Request type (script, image, document, ...)." default:"document"`

	// SpecificOnly - restricts matching to non-generic filters
	SpecificOnly bool `long:"specific-only" description:"Only consider filters with a positive domain restriction." optional:"yes" optional-value:"true"`
}

func main() {
	var options Options
	parser := goFlags.NewParser(&options, goFlags.Default)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*goFlags.Error); ok && flagsErr.Type == goFlags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	run(options)
}

func run(options Options) {
	level := slog.LevelInfo
	if options.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	typeMask, ok := rules.ParseRequestTypeName(options.RequestType)
	if !ok {
		slog.Error("unknown request type", "type", options.RequestType)
		os.Exit(1)
	}

	cm := matcher.NewCombinedMatcher()
	for _, path := range options.FilterLists {
		n, err := loadFilterList(cm, path)
		if err != nil {
			slog.Error("loading filter list", "path", path, slogutil.KeyError, err)
			os.Exit(1)
		}

		slog.Debug("loaded filter list", "path", path, "count", n)
	}

	req := rules.NewURLRequest(options.URL, "", "")

	docDomain := options.Source
	if docDomain == "" {
		docDomain = req.Hostname
	}

	hit := cm.Match(req, typeMask, docDomain, "", options.SpecificOnly)
	report(os.Stdout, hit)
}

// loadFilterList reads path, one rule per line, and adds every blocking or
// whitelist filter it parses to cm. It returns the number of filters added.
func loadFilterList(cm *matcher.CombinedMatcher, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		f, ferr := rules.FromText(line)
		if ferr != nil {
			slog.Debug("skipping unparsable line", "line", line, slogutil.KeyError, ferr)

			continue
		}

		if f.Kind() != rules.KindBlocking && f.Kind() != rules.KindWhitelist {
			continue
		}

		cm.Add(f)
		count++
	}

	return count, scanner.Err()
}

// report prints hit's verdict to w: blocked, whitelisted, or passed.
func report(w io.Writer, hit *rules.Filter) {
	if hit == nil {
		io.WriteString(w, "PASS\n")

		return
	}

	switch hit.Kind() {
	case rules.KindWhitelist:
		io.WriteString(w, "WHITELISTED by: "+hit.Text()+"\n")
	default:
		io.WriteString(w, "BLOCKED by: "+hit.Text()+"\n")
	}
}
