package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/xmlkit/xmlkit"
	xmlerrors "github.com/xmlkit/xmlkit/errors"
	"github.com/xmlkit/xmlkit/pkg/xmlindex"
	"github.com/xmlkit/xmlkit/pkg/xpath"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xmlgrep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	exprFlag := fs.String("e", "", "XPath 1.0 expression to evaluate")
	lenientFlag := fs.Bool("l", false, "parse leniently instead of strictly")
	countFlag := fs.Bool("c", false, "print only the number of matching nodes")
	streamFlag := fs.String("s", "", "stream mode: extract elements with this tag name")
	cpuProfilePath := fs.String("cpuprofile", "", "write CPU profile to file")
	memProfilePath := fs.String("memprofile", "", "write memory profile to file")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s -e <xpath> <document.xml>...\n", os.Args[0]),
			writef(stderr, "       %s -s <tag> <document.xml>...\n\n", os.Args[0]),
			writeln(stderr, "Evaluates an XPath expression against XML documents, or"),
			writeln(stderr, "extracts matching elements in streaming mode."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *exprFlag == "" && *streamFlag == "" {
		if err := writeln(stderr, "error: one of -e or -s is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}

	files := fs.Args()
	if len(files) == 0 {
		if err := writeln(stderr, "error: at least one XML file argument is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}

	if *cpuProfilePath != "" {
		stopCPUProfile, err := startCPUProfile(*cpuProfilePath)
		if err != nil {
			if writeErr := writef(stderr, "error starting CPU profile: %v\n", err); writeErr != nil {
				return 1
			}
			return 1
		}
		defer func() {
			if err := stopCPUProfile(); err != nil {
				_ = writef(stderr, "error stopping CPU profile: %v\n", err)
			}
		}()
	}

	if *memProfilePath != "" {
		defer func() {
			if err := writeMemProfile(*memProfilePath); err != nil {
				_ = writef(stderr, "error writing memory profile: %v\n", err)
			}
		}()
	}

	exit := 0
	for _, path := range files {
		var err error
		if *streamFlag != "" {
			err = streamFile(path, *streamFlag, stdout)
		} else {
			err = queryFile(path, *exprFlag, *lenientFlag, *countFlag, stdout)
		}
		if err != nil {
			if writeErr := writef(stderr, "%s: %v\n", path, err); writeErr != nil {
				return 1
			}
			exit = 1
		}
	}
	return exit
}

func queryFile(path, expr string, lenient, countOnly bool, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var idx *xmlindex.Index
	if lenient {
		idx = xmlkit.ParseLenient(data)
	} else {
		idx, err = xmlkit.ParseStrict(data)
		if err != nil {
			if parseErr, ok := xmlerrors.AsParseError(err); ok {
				return parseErr
			}
			return err
		}
	}

	value, err := xmlkit.Query(idx, expr)
	if err != nil {
		return err
	}

	if countOnly {
		n := 0
		if value.Kind == xpath.KindNodeSet {
			n = len(value.Nodes)
		}
		return writef(stdout, "%d\n", n)
	}

	results, err := xmlkit.QueryStrings(idx, expr)
	if err != nil {
		return err
	}
	for _, result := range results {
		if err := writeln(stdout, result); err != nil {
			return err
		}
	}
	return nil
}

func streamFile(path, tag string, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	parser := xmlkit.NewStream(tag)
	buf := make([]byte, 64*1024)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if _, _, err := parser.Feed(buf[:n]); err != nil {
				return err
			}
			for _, element := range parser.Take(parser.Available()) {
				if err := writeln(stdout, string(element)); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}
	final, err := parser.Finalize()
	if err != nil {
		return err
	}
	for _, element := range final {
		if err := writeln(stdout, string(element)); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func startCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, fmt.Errorf("start cpu profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return nil, fmt.Errorf("start cpu profile %s: %w", path, err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close cpu profile %s: %w", path, err)
		}
		return nil
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mem profile %s: %w", path, err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return fmt.Errorf("write mem profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return fmt.Errorf("write mem profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mem profile %s: %w", path, err)
	}
	return nil
}
