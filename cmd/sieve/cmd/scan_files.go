package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/corey/sieve/internal/domain/blocklist"
)

// scanOutputOpts controls scan output formatting and limits.
type scanOutputOpts struct {
	countOnly  bool
	quiet      bool
	filesOnly  bool
	noFilename bool
	maxCount   int
	recursive  bool
	color      bool
}

// skipDirs are directories never recursed into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".sieve":       true,
	"vendor":       true,
	".venv":        true,
}

// scanStdin scans stdin line by line, printing hits as line:col: pattern.
func scanStdin(eng *blocklist.Engine, opts scanOutputOpts) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	total := 0
	lineNum := 0
stdinLoop:
	for scanner.Scan() {
		lineNum++
		for _, m := range eng.Scan(scanner.Text()) {
			total++
			if !opts.quiet && !opts.countOnly {
				printHit(opts, "", lineNum, m.Start+1, m.Pattern)
			}
			if opts.maxCount > 0 && total >= opts.maxCount {
				break stdinLoop
			}
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		return scanExit{2}
	}

	if opts.countOnly && !opts.quiet {
		fmt.Println(total)
	}
	if total > 0 {
		if opts.quiet {
			return scanExit{0}
		}
		return nil
	}
	return scanExit{1}
}

// scanPaths scans one or more files or directories.
func scanPaths(eng *blocklist.Engine, args []string, opts scanOutputOpts) error {
	files, errOccurred := expandScanArgs(args, opts)
	if len(files) == 0 && errOccurred {
		return scanExit{2}
	}

	// Match grep: name the file when scanning more than one
	showFilename := len(files) > 1 || opts.recursive
	if opts.noFilename {
		showFilename = false
	}

	totalHits := 0
	for _, file := range files {
		n, err := scanFile(eng, file, showFilename, opts)
		totalHits += n
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan: %s: %v\n", file, err)
			errOccurred = true
		}
	}

	if opts.quiet {
		if totalHits > 0 {
			return scanExit{0}
		}
		return scanExit{1}
	}
	if errOccurred && totalHits == 0 {
		return scanExit{2}
	}
	if totalHits == 0 {
		return scanExit{1}
	}
	return nil
}

// expandScanArgs expands path arguments, walking directories when
// --recursive is set. Returns the file list and whether any error was
// printed to stderr.
func expandScanArgs(args []string, opts scanOutputOpts) ([]string, bool) {
	var files []string
	errOccurred := false

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan: %s: No such file or directory\n", arg)
			errOccurred = true
			continue
		}
		if info.IsDir() {
			if !opts.recursive {
				fmt.Fprintf(os.Stderr, "scan: %s: Is a directory\n", arg)
				errOccurred = true
				continue
			}
			files = append(files, walkDir(arg)...)
			continue
		}
		files = append(files, arg)
	}
	return files, errOccurred
}

// walkDir collects regular files under root, skipping well-known noise
// directories. Walk errors are ignored; unreadable files surface later
// when the scan opens them.
func walkDir(root string) []string {
	var files []string
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skipDirs[filepath.Base(path)] {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// isBinaryFile sniffs the first 512 bytes for a NUL byte, rewinding the
// file afterwards.
func isBinaryFile(f *os.File) bool {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}
	binary := bytes.IndexByte(buf[:n], 0) >= 0
	f.Seek(0, io.SeekStart)
	return binary
}

// scanFile scans a single file and returns its hit count. Binary files
// are checked as a whole and reported with a one-line notice instead of
// per-hit output.
func scanFile(eng *blocklist.Engine, path string, showFilename bool, opts scanOutputOpts) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if isBinaryFile(f) {
		data, err := io.ReadAll(f)
		if err != nil {
			return 0, err
		}
		if !eng.Check(string(data)) {
			return 0, nil
		}
		switch {
		case opts.quiet:
		case opts.filesOnly:
			fmt.Println(path)
		case opts.countOnly:
			printCount(path, 1, showFilename)
		default:
			fmt.Printf("Binary file %s matches\n", path)
		}
		return 1, nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	hits := 0
	lineNum := 0
fileLoop:
	for scanner.Scan() {
		lineNum++
		for _, m := range eng.Scan(scanner.Text()) {
			hits++
			if opts.filesOnly {
				if !opts.quiet {
					fmt.Println(path)
				}
				break fileLoop
			}
			if !opts.quiet && !opts.countOnly {
				name := ""
				if showFilename {
					name = path
				}
				printHit(opts, name, lineNum, m.Start+1, m.Pattern)
			}
			if opts.maxCount > 0 && hits >= opts.maxCount {
				break fileLoop
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return hits, err
	}

	if opts.countOnly && !opts.quiet && !opts.filesOnly {
		printCount(path, hits, showFilename)
	}
	return hits, nil
}

// printHit prints one hit as [file:]line:col: pattern. Colorized output
// renders the file magenta, the position green, and the pattern yellow.
func printHit(opts scanOutputOpts, file string, line, col int, pattern string) {
	if opts.color {
		if file != "" {
			fmt.Printf("%s%s%s:", colorMagenta, file, colorReset)
		}
		fmt.Printf("%s%d:%d%s: %s%s%s\n", colorGreen, line, col, colorReset, colorYellow, pattern, colorReset)
		return
	}
	if file != "" {
		fmt.Printf("%s:", file)
	}
	fmt.Printf("%d:%d: %s\n", line, col, pattern)
}

func printCount(path string, hits int, showFilename bool) {
	if showFilename {
		fmt.Printf("%s:%d\n", path, hits)
	} else {
		fmt.Println(hits)
	}
}
