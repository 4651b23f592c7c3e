package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"sitecrew.com.au/sitecrew/timeclock"
)

// backfill rewrites an export of raw clock records onto the canonical
// field set, one JSON object per line. Already-canonical records pass
// through unchanged, so the tool can be re-run over mixed exports.
func main() {
	inPath := flag.String("in", "-", "input file (JSONL), - for stdin")
	outPath := flag.String("out", "-", "output file (JSONL), - for stdout")
	flag.Parse()

	in := os.Stdin
	if *inPath != "-" {
		f, err := os.Open(*inPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	out := os.Stdout
	if *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	count, err := run(in, out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "normalised %d record(s)\n", count)
}

func run(in io.Reader, out io.Writer) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			return count, fmt.Errorf("line %d: %w", count+1, err)
		}

		normalised, err := json.Marshal(timeclock.Normalize(raw))
		if err != nil {
			return count, fmt.Errorf("line %d: %w", count+1, err)
		}
		if _, err := writer.Write(normalised); err != nil {
			return count, err
		}
		if err := writer.WriteByte('\n'); err != nil {
			return count, err
		}
		count++
	}
	return count, scanner.Err()
}
