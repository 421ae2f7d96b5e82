// pdfpages extracts, splits, merges, deletes and rotates the pages of PDF
// files.
//
//	usage: pdfpages [-v] command [flags] arguments
//
//	pdfpages extract -o out.pdf in.pdf page
//	pdfpages split   -o out.pdf in.pdf pages
//	pdfpages merge   -o out.pdf in.pdf...
//	pdfpages delete  -o out.pdf in.pdf pages
//	pdfpages rotate  -o out.pdf [-angle 90] in.pdf [pages]
//	pdfpages info    in.pdf
//	pdfpages sample  -o out.pdf [-n 3] [-label Page] [-title title]
//
// Page lists are comma-separated page numbers and ranges, such as 1,3,5-7.
// Every command that writes a file refuses to replace an existing one unless
// given -f.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/rothskeller/pdfpages/pdfops"
	"github.com/rothskeller/pdfpages/pdfsample"
)

// errUsage reports a command line that could not be understood.  The details
// have already been printed.
var errUsage = errors.New("usage error")

type command struct {
	usage string
	run   func(args []string, stdout io.Writer) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"extract": {"-o out.pdf in.pdf page", runExtract},
		"split":   {"-o out.pdf in.pdf pages", runSplit},
		"merge":   {"-o out.pdf in.pdf...", runMerge},
		"delete":  {"-o out.pdf in.pdf pages", runDelete},
		"rotate":  {"-o out.pdf [-angle 90] in.pdf [pages]", runRotate},
		"info":    {"in.pdf", runInfo},
		"sample":  {"-o out.pdf [-n 3] [-label Page] [-title title]", runSample},
	}
}

func main() {
	verbose := flag.Bool("v", false, "log progress details")
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	switch err := run(flag.Args(), os.Stdout); {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: pdfpages [-v] command [flags] arguments\n")
	for _, name := range slices.Sorted(maps.Keys(commands)) {
		fmt.Fprintf(os.Stderr, "  pdfpages %s %s\n", name, commands[name].usage)
	}
}

// run executes the command named by args[0].
func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage()
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "pdfpages: unknown command %q\n", args[0])
		usage()
		return errUsage
	}
	return cmd.run(args[1:], stdout)
}

// outputFlags holds the flags shared by every command that writes a file.
type outputFlags struct {
	out   string
	force bool
}

func newFlagSet(name string, of *outputFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: pdfpages %s %s\n", name, commands[name].usage)
		fs.PrintDefaults()
	}
	if of != nil {
		fs.StringVar(&of.out, "o", "out.pdf", "output file name")
		fs.BoolVar(&of.force, "f", false, "overwrite output file if it exists")
	}
	return fs
}

// parse parses the command's flags and checks the number of remaining
// arguments and the output file.
func parse(fs *flag.FlagSet, of *outputFlags, args []string, minArgs, maxArgs int) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < minArgs || (maxArgs >= 0 && fs.NArg() > maxArgs) {
		fs.Usage()
		return errUsage
	}
	if of != nil && !of.force {
		if _, err := os.Stat(of.out); !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("output file %q already exists", of.out)
		}
	}
	return nil
}

func runExtract(args []string, _ io.Writer) error {
	var of outputFlags
	fs := newFlagSet("extract", &of)
	if err := parse(fs, &of, args, 2, 2); err != nil {
		return err
	}
	page, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("%q is not a page number", fs.Arg(1))
	}
	return pdfops.ExtractPage(fs.Arg(0), page, of.out)
}

func runSplit(args []string, _ io.Writer) error {
	var of outputFlags
	fs := newFlagSet("split", &of)
	if err := parse(fs, &of, args, 2, 2); err != nil {
		return err
	}
	pages, err := parsePages(fs.Arg(1))
	if err != nil {
		return err
	}
	return pdfops.SplitPages(fs.Arg(0), pages, of.out)
}

func runMerge(args []string, _ io.Writer) error {
	var of outputFlags
	fs := newFlagSet("merge", &of)
	if err := parse(fs, &of, args, 1, -1); err != nil {
		return err
	}
	return pdfops.Merge(fs.Args(), of.out)
}

func runDelete(args []string, _ io.Writer) error {
	var of outputFlags
	fs := newFlagSet("delete", &of)
	if err := parse(fs, &of, args, 2, 2); err != nil {
		return err
	}
	pages, err := parsePages(fs.Arg(1))
	if err != nil {
		return err
	}
	return pdfops.DeletePages(fs.Arg(0), pages, of.out)
}

func runRotate(args []string, _ io.Writer) error {
	var of outputFlags
	fs := newFlagSet("rotate", &of)
	angle := fs.Int("angle", 90, "clockwise rotation in degrees: 0, ±90, ±180 or ±270")
	if err := parse(fs, &of, args, 1, 2); err != nil {
		return err
	}
	var pages []int
	if fs.NArg() == 2 {
		var err error
		if pages, err = parsePages(fs.Arg(1)); err != nil {
			return err
		}
	}
	return pdfops.RotatePages(fs.Arg(0), pages, *angle, of.out)
}

func runInfo(args []string, stdout io.Writer) error {
	fs := newFlagSet("info", nil)
	if err := parse(fs, nil, args, 1, 1); err != nil {
		return err
	}
	info, err := pdfops.ReadInfo(fs.Arg(0))
	if err != nil {
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(info)) {
		fmt.Fprintf(stdout, "%s: %s\n", key, info[key])
	}
	return nil
}

func runSample(args []string, _ io.Writer) error {
	var (
		of   outputFlags
		opts pdfsample.Options
	)
	fs := newFlagSet("sample", &of)
	fs.IntVar(&opts.Pages, "n", 3, "number of pages")
	fs.StringVar(&opts.Label, "label", "Page", "text drawn on each page before its number")
	fs.StringVar(&opts.Title, "title", "", "document title")
	fs.StringVar(&opts.Author, "author", "", "document author")
	fs.BoolVar(&opts.Landscape, "landscape", false, "make every other page landscape")
	if err := parse(fs, &of, args, 0, 0); err != nil {
		return err
	}
	return pdfsample.Save(of.out, opts)
}
