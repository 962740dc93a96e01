package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/wippyai/ctfkit/ctf"
	"github.com/wippyai/ctfkit/ctfyaml"
)

type options struct {
	parent      string
	strtab      string
	encode      string
	compile     string
	output      string
	asYAML      bool
	validate    bool
	compress    bool
	interactive bool
	verbose     bool
}

func main() {
	var opts options
	flag.BoolVar(&opts.asYAML, "yaml", false, "Print the YAML description instead of the type listing")
	flag.BoolVar(&opts.validate, "validate", false, "Check that every type id and name resolves")
	flag.StringVar(&opts.parent, "parent", "", "Parent container to resolve parent-bit ids against")
	flag.StringVar(&opts.strtab, "strtab", "", "External string table for table 1 names")
	flag.StringVar(&opts.encode, "encode", "", "Re-encode the input container to this file")
	flag.BoolVar(&opts.compress, "compress", false, "Compress output written by -encode or -compile")
	flag.StringVar(&opts.compile, "compile", "", "Compile a YAML description (use with -o)")
	flag.StringVar(&opts.output, "o", "", "Output file for -compile")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&opts.verbose, "v", false, "Debug logging")
	flag.Parse()

	logger, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(execute(context.Background(), opts, flag.Args(), os.Stdout, os.Stderr, logger))
}

// execute runs one invocation and returns the process exit code: 0 on
// success, 1 on errors and 2 when -validate found a broken container. The
// logger is synced before returning.
func execute(ctx context.Context, opts options, files []string, stdout, stderr io.Writer, logger *zap.Logger) int {
	defer func() { _ = logger.Sync() }()
	ctf.SetLogger(logger)
	ctfyaml.SetLogger(logger)

	if opts.compile != "" {
		if err := compile(opts); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if len(files) == 0 {
		fmt.Fprintln(stderr, "Usage: ctfdump [-yaml] [-validate] [-parent file] [-strtab file] file...")
		fmt.Fprintln(stderr, "       ctfdump -encode out.ctf [-compress] file")
		fmt.Fprintln(stderr, "       ctfdump -compile in.yaml -o out.ctf [-compress]")
		fmt.Fprintln(stderr, "       ctfdump -i file  (interactive mode)")
		return 1
	}
	if (opts.encode != "" || opts.interactive) && len(files) != 1 {
		fmt.Fprintln(stderr, "Error: -encode and -i take exactly one file")
		return 1
	}

	ok, err := run(ctx, stdout, files, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !ok {
		return 2
	}
	return 0
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

// run decodes every file and prints them in argument order. It reports false
// when -validate found a broken container.
func run(ctx context.Context, w io.Writer, files []string, opts options) (bool, error) {
	var external []byte
	if opts.strtab != "" {
		var err error
		if external, err = os.ReadFile(opts.strtab); err != nil {
			return false, fmt.Errorf("read string table: %w", err)
		}
	}

	var parent *ctf.Container
	if opts.parent != "" {
		data, err := os.ReadFile(opts.parent)
		if err != nil {
			return false, fmt.Errorf("read parent: %w", err)
		}
		if parent, err = ctf.Decode(data); err != nil {
			return false, fmt.Errorf("decode parent %s: %w", opts.parent, err)
		}
	}

	containers, err := decodeAll(ctx, files, external, parent)
	if err != nil {
		return false, err
	}

	if opts.interactive {
		return true, runInteractive(files[0], containers[0])
	}
	if opts.encode != "" {
		return true, encode(containers[0], opts.encode, opts.compress)
	}

	p := &printer{w: w, styled: isTerminal(w)}
	ok := true
	for i, c := range containers {
		if opts.asYAML {
			out, err := ctfyaml.Describe(c)
			if err != nil {
				return false, fmt.Errorf("describe %s: %w", files[i], err)
			}
			if len(files) > 1 {
				fmt.Fprintf(w, "# %s\n", files[i])
			}
			_, _ = w.Write(out)
		} else {
			p.container(files[i], c)
		}
		if opts.validate {
			if err := c.Validate(); err != nil {
				fmt.Fprintf(w, "%s: invalid: %v\n", files[i], err)
				ok = false
			} else {
				fmt.Fprintf(w, "%s: ok\n", files[i])
			}
		}
	}
	return ok, nil
}

// decodeAll reads and decodes files concurrently. Results keep argument order.
func decodeAll(ctx context.Context, files []string, external []byte, parent *ctf.Container) ([]*ctf.Container, error) {
	containers := make([]*ctf.Container, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			c, err := ctf.Decode(data, ctf.WithExternalStrings(external), ctf.WithParent(parent))
			if err != nil {
				return fmt.Errorf("decode %s: %w", name, err)
			}
			containers[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return containers, nil
}

func encode(c *ctf.Container, out string, compress bool) error {
	var opts []ctf.EncodeOption
	if compress {
		opts = append(opts, ctf.WithCompression(ctf.Zlib{}))
	}
	data, err := ctf.Encode(c, opts...)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func compile(opts options) error {
	if opts.output == "" {
		return fmt.Errorf("-compile needs -o")
	}
	src, err := os.ReadFile(opts.compile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	c, err := ctfyaml.Compile(src)
	if err != nil {
		return fmt.Errorf("compile %s: %w", opts.compile, err)
	}
	return encode(c, opts.output, opts.compress || c.Header.Compressed())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
