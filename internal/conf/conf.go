// Package conf reads the command line, environment and config file, and
// prompts for anything still missing.
package conf

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.senan.xyz/flagconf"

	musicorg "github.com/solidcopy/musicorg/internal"
	"github.com/solidcopy/musicorg/internal/service"
)

type Config struct {
	Source    string
	Library   string
	Verbosity int
	Options   service.Options
	LogLevel  slog.LevelVar

	// VerbositySet is true when -verbosity came from the command line, the
	// environment or the config file.
	VerbositySet bool
	PrintVersion bool
}

var (
	ErrMissingArgs = errors.New("need a source path and a library path")
	ErrNotFound    = errors.New("cannot be found")
)

// Register adds the flags to fs.
func (c *Config) Register(fs *flag.FlagSet) *string {
	fs.IntVar(&c.Verbosity, "verbosity", service.Summary, "0 silent, 1 summary, 2 summary and skipped files")
	fs.BoolVar(&c.Options.DryRun, "dry-run", false, "log planned copies without writing anything")
	fs.BoolVar(&c.Options.Sanitize, "sanitize", false, "make tag values safe to use as file names")
	fs.BoolVar(&c.Options.KeepExt, "keep-ext", false, "keep the source extension on titled files")
	fs.BoolVar(&c.Options.Artwork, "artwork", false, "write embedded cover art to Folder.jpg/png in each album")
	fs.TextVar(&c.LogLevel, "log-level", &c.LogLevel, "set the logging level")
	fs.BoolVar(&c.PrintVersion, "version", false, "print the version and exit")

	userConfig, _ := os.UserConfigDir()
	defaultConfigPath := filepath.Join(userConfig, musicorg.Name, "config")
	return fs.String("config-path", defaultConfigPath, "path to config file")
}

// Parse fills c from the process command line, MUSICORG_* environment
// variables and the config file, in that order of precedence.
func (c *Config) Parse() {
	flag.CommandLine.Init(musicorg.Name, flag.ExitOnError)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <source> <library>\n", musicorg.Name)
		flag.PrintDefaults()
	}
	configPath := c.Register(flag.CommandLine)

	flag.Parse()
	flagconf.ReadEnvPrefix = func(_ *flag.FlagSet) string { return musicorg.Name }
	flagconf.ParseEnv()
	flagconf.ParseConfig(*configPath)
	c.RecordSet(flag.CommandLine)

	c.Source = flag.Arg(0)
	c.Library = flag.Arg(1)
}

// RecordSet notes which of c's flags were given a value in fs.
func (c *Config) RecordSet(fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "verbosity" {
			c.VerbositySet = true
		}
	})
}

// Missing reports whether a path argument was not given.
func (c *Config) Missing() bool {
	return c.Source == "" || c.Library == ""
}

// Prompt asks for the paths and the verbosity that were not given. A blank
// verbosity answer keeps the default.
func (c *Config) Prompt(in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	ask := func(question string) (string, error) {
		fmt.Fprint(out, question)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	var err error
	if c.Source == "" {
		if c.Source, err = ask("Files to organize: "); err != nil {
			return fmt.Errorf("read source: %w", err)
		}
	}
	if c.Library == "" {
		if c.Library, err = ask("Music library: "); err != nil {
			return fmt.Errorf("read library: %w", err)
		}
	}

	if c.VerbositySet {
		return nil
	}
	answer, err := ask(fmt.Sprintf("Verbosity [0-2] (%d): ", c.Verbosity))
	if err != nil {
		return fmt.Errorf("read verbosity: %w", err)
	}
	if answer != "" {
		if c.Verbosity, err = strconv.Atoi(answer); err != nil {
			return fmt.Errorf("parse verbosity: %w", err)
		}
	}
	return nil
}

// Validate checks that both paths exist and that the library is a directory.
func (c *Config) Validate() error {
	if c.Missing() {
		return ErrMissingArgs
	}
	if c.Verbosity < service.Silent || c.Verbosity > service.Verbose {
		return fmt.Errorf("verbosity %d out of range", c.Verbosity)
	}
	if _, err := os.Stat(c.Source); err != nil {
		return fmt.Errorf("%s %w", c.Source, ErrNotFound)
	}
	info, err := os.Stat(c.Library)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s %w", c.Library, ErrNotFound)
	}
	return nil
}
