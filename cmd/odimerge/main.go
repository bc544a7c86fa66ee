package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"github.com/viant/afs"

	"github.com/sghaida/odimerge/internal/compile"
	"github.com/sghaida/odimerge/internal/config"
	"github.com/sghaida/odimerge/internal/diag"
	"github.com/sghaida/odimerge/internal/logging"
)

// Options are the command line flags. Flags override the config file and
// the environment.
type Options struct {
	Units     []string `short:"u" long:"unit" description:"unit manifest location, repeatable" required:"true"`
	Classpath []string `short:"c" long:"classpath" description:"upstream artifact location, repeatable"`
	Out       string   `short:"o" long:"out" description:"artifact output location"`
	Config    string   `long:"config" description:"YAML config file"`
	Driver    string   `long:"driver" description:"round driver" choice:"inprocess" choice:"rounds"`
	MaxRounds int      `long:"max-rounds" description:"upper bound on generation rounds"`
	LogLevel  string   `long:"log-level" description:"logrus level"`
	LogFormat string   `long:"log-format" description:"text or json"`
}

// run is the testable entry point. It returns the process exit code: 0 on
// success, 1 when merging fails and 2 on usage errors.
func run(args []string, stderr io.Writer) int {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "odimerge"
	if _, err := parser.ParseArgs(args); err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			_, _ = fmt.Fprintln(stderr, err)
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	logging.DefaultLogger.SetOutput(stderr)
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := compile.New(afs.New(), cfg)
	if err != nil {
		_ = diag.Report(err)
		return 1
	}
	if _, err := c.Run(ctx, normalize(opts.Units)); err != nil {
		_ = diag.Report(err)
		return 1
	}
	return 0
}

func (o *Options) apply(cfg *config.Config) {
	if len(o.Classpath) > 0 {
		cfg.Classpath = normalize(o.Classpath)
	}
	if o.Out != "" {
		cfg.OutputURL = config.Location(o.Out)
	}
	if o.Driver != "" {
		cfg.Driver = config.Driver(o.Driver)
	}
	if o.MaxRounds > 0 {
		cfg.MaxRounds = o.MaxRounds
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
}

// normalize turns plain paths into file URLs.
func normalize(locations []string) []string {
	out := make([]string, len(locations))
	for i, l := range locations {
		out[i] = config.Location(l)
	}
	return out
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
