package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ruleslang/internal/config"
	"ruleslang/internal/diag"
	"ruleslang/internal/diagfmt"
	"ruleslang/internal/rule"
	"ruleslang/internal/rulecache"
	"ruleslang/internal/shell"
	"ruleslang/internal/source"
)

func rootRun(cmd *cobra.Command, args []string) error {
	cfg, _, cfgErr := config.Load(".")
	if cfgErr != nil {
		fmt.Fprintln(os.Stderr, "warning: bad ruleslang.toml:", cfgErr)
	}

	colorFlag, _ := cmd.Flags().GetString("color")
	useColor := resolveColor(colorFlag, cfg.CLI.Color)

	filePath, _ := cmd.Flags().GetString("file")
	if filePath == "" {
		session := shell.NewSession()
		session.SetColor(useColor)
		return shell.Run(session)
	}

	inputJSON, _ := cmd.Flags().GetString("input")
	describe, _ := cmd.Flags().GetBool("describe")
	if inputJSON == "" && !describe {
		return fmt.Errorf("--file requires --input (or --describe)")
	}

	fs := source.NewFileSet()
	fileID, err := fs.Load(filePath)
	if err != nil {
		return err
	}
	content := fs.Get(fileID).Content
	key := rulecache.HashSource(content)

	cache, cacheErr := rulecache.Open("ruleslang")
	if cacheErr == nil && describe && inputJSON == "" {
		// The descriptor of an unchanged rule answers from cache without
		// re-analyzing.
		if payload, ok, _ := cache.Get(key); ok && payload.Success {
			fmt.Println(payload.Descriptor)
			return nil
		}
	}

	started := time.Now()
	bag := diag.NewBag(cfg.CLI.MaxDiagnostics)
	compiled, err := rule.Compile(fs, fileID, bag)

	if cacheErr == nil {
		payload := &rulecache.Payload{
			Path:       filePath,
			Success:    err == nil,
			ErrorCount: bag.Len(),
			CompiledAt: started,
			DurationMS: time.Since(started).Milliseconds(),
		}
		if compiled != nil {
			payload.Descriptor = compiled.InputDescriptor()
		}
		_ = cache.Put(key, payload)
	}

	if err != nil {
		bag.Sort()
		diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{Color: useColor})
		return err
	}

	if describe {
		fmt.Println(compiled.InputDescriptor())
		if inputJSON == "" {
			return nil
		}
	}

	if inputJSON == "-" {
		return runBatch(compiled, fs, useColor)
	}

	out, err := compiled.Run([]byte(inputJSON))
	if err != nil {
		return renderRunError(err, fs, useColor)
	}
	fmt.Println(string(out))
	return nil
}

// runBatch evaluates one compiled rule over newline-delimited JSON
// records from stdin, concurrently but with per-record isolation (each
// record gets its own stack and heap) and in-order output.
func runBatch(compiled *rule.Rule, fs *source.FileSet, useColor bool) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var records []string
	for scanner.Scan() {
		if line := scanner.Text(); len(line) > 0 {
			records = append(records, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	results := make([][]byte, len(records))
	errs := make([]error, len(records))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, record := range records {
		g.Go(func() error {
			results[i], errs[i] = compiled.Run([]byte(record))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := false
	for i := range records {
		if errs[i] != nil {
			failed = true
			_ = renderRunError(errs[i], fs, useColor)
			fmt.Println("null")
			continue
		}
		fmt.Println(string(results[i]))
	}
	if failed {
		return fmt.Errorf("some records failed")
	}
	return nil
}

func renderRunError(err error, fs *source.FileSet, useColor bool) error {
	var srcErr *diag.SourceException
	if ok := asSourceException(err, &srcErr); ok {
		diagfmt.PrettyOne(os.Stderr, srcErr.Diag, fs, diagfmt.PrettyOpts{Color: useColor})
		return err
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}

func asSourceException(err error, target **diag.SourceException) bool {
	if e, ok := err.(*diag.SourceException); ok {
		*target = e
		return true
	}
	return false
}

func resolveColor(flag, cfgDefault string) bool {
	mode := flag
	if mode == "" {
		mode = cfgDefault
	}
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
