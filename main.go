package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/geocine/epubweb/internal/cli"
	"github.com/geocine/epubweb/internal/config"
	"github.com/geocine/epubweb/internal/loader"
	"github.com/geocine/epubweb/internal/logging"
)

const usage = `Usage: epubweb [command]
Commands:
  webify     Convert an EPUB into a static website
  unpack     Extract the raw archive
  meta       Print the book's metadata
  serve      Convert and serve the website, rebuilding on change
  clean      Remove a generated website
  init       Write a default epubweb.toml`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "webify":
		err = runWebify(os.Args[2:])
	case "unpack":
		err = runUnpack(os.Args[2:])
	case "meta":
		err = runMeta(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "clean":
		err = runClean(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Println(usage)
	default:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	}

	if err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// destFlag registers -o and --dest-dir on the same variable
func destFlag(fs *flag.FlagSet, help string) *string {
	dest := fs.String("dest-dir", "", help)
	fs.StringVar(dest, "o", "", help+" (shorthand)")
	return dest
}

// parseWithInput parses flags and returns the single positional argument.
// Flags may follow the file name.
func parseWithInput(fs *flag.FlagSet, args []string) (string, error) {
	var input string
	for {
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		if fs.NArg() == 0 {
			break
		}
		if input != "" {
			return "", fmt.Errorf("%s: unexpected argument '%s'", fs.Name(), fs.Arg(0))
		}
		input = fs.Arg(0)
		args = fs.Args()[1:]
	}
	if input == "" {
		return "", fmt.Errorf("%s: missing <book.epub> argument", fs.Name())
	}
	return input, nil
}

type webifyFlags struct {
	dest     *string
	noNav    *bool
	config   *string
	logLevel *string
}

func addWebifyFlags(fs *flag.FlagSet) webifyFlags {
	return webifyFlags{
		dest:     destFlag(fs, "Output directory (default <book>.site)"),
		noNav:    fs.Bool("no-nav", false, "Omit previous/next navigation"),
		config:   fs.String("config", "", "Configuration file (default "+config.FileName+" if present)"),
		logLevel: fs.String("log-level", "", "Log level: debug, info, warn, error"),
	}
}

func (f webifyFlags) options(input string) cli.WebifyOptions {
	return cli.WebifyOptions{
		EpubPath:   input,
		OutputDir:  *f.dest,
		NoNav:      *f.noNav,
		ConfigPath: *f.config,
		Explicit:   *f.config != "",
		LogLevel:   *f.logLevel,
	}
}

func runWebify(args []string) error {
	fs := flag.NewFlagSet("webify", flag.ExitOnError)
	wf := addWebifyFlags(fs)
	input, err := parseWithInput(fs, args)
	if err != nil {
		return err
	}

	res, err := cli.Webify(wf.options(input))
	if err != nil {
		return err
	}
	color.Green("Wrote %d pages to '%s'", res.Summary.Documents+1, res.OutputDir)
	return nil
}

func runUnpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	dest := destFlag(fs, "Extraction directory (default <book>)")
	input, err := parseWithInput(fs, args)
	if err != nil {
		return err
	}

	dir, err := cli.Unpack(input, *dest)
	if err != nil {
		return err
	}
	color.Green("Unpacked '%s' to '%s'", input, dir)
	return nil
}

func runMeta(args []string) error {
	fs := flag.NewFlagSet("meta", flag.ExitOnError)
	format := fs.String("format", cli.FormatText, "Output format: text or yaml")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error")
	input, err := parseWithInput(fs, args)
	if err != nil {
		return err
	}

	log, err := logging.New(*logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	lb, err := loader.LoadBook(input, log)
	if err != nil {
		return err
	}
	defer lb.Close()
	return cli.Meta(os.Stdout, lb.Book, *format)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	wf := addWebifyFlags(fs)
	port := fs.Int("port", 3000, "Port to serve on")
	host := fs.String("hostname", "127.0.0.1", "Hostname to bind to")
	open := fs.Bool("open", false, "Open in browser")
	input, err := parseWithInput(fs, args)
	if err != nil {
		return err
	}

	opts := wf.options(input)
	cfg, err := cli.LoadConfig(opts.ConfigPath, opts.Explicit)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log, err := logging.New(level)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Serve(ctx, cli.ServeOptions{
		Webify: opts,
		Host:   *host,
		Port:   *port,
		Open:   *open,
	}, log)
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	dest := destFlag(fs, "Directory to clean")
	cfgPath := fs.String("config", "", "Configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := *dest
	if dir == "" && fs.NArg() > 0 {
		// clean book.epub removes book.site
		dir = cli.DefaultDir(fs.Arg(0), cli.SiteSuffix)
	}
	if dir == "" {
		cfg, err := cli.LoadConfig(*cfgPath, *cfgPath != "")
		if err != nil {
			return err
		}
		dir = cfg.Site.OutputDir
	}

	res, err := cli.Clean(dir)
	if err != nil {
		return err
	}
	fmt.Println(res)
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	opts := cli.InitOptions{}
	fs.StringVar(&opts.Dir, "dir", ".", "Directory to write "+config.FileName+" into")
	fs.StringVar(&opts.OutputDir, "output-dir", "", "Default output directory")
	fs.StringVar(&opts.Language, "language", "", "Page language override")
	fs.BoolVar(&opts.DisableNavigation, "no-nav", false, "Disable navigation by default")
	fs.BoolVar(&opts.Force, "force", false, "Overwrite an existing file")
	yes := fs.Bool("yes", false, "Skip interactive prompts and use provided/default values")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*yes {
		cli.FillInitOptionsInteractive(os.Stdin, os.Stdout, &opts)
	}
	path, err := cli.Init(opts)
	if err != nil {
		return err
	}
	color.Green("Created %s", path)
	return nil
}
