// Command kjq runs a single JSONPath-style query against a JSON file and
// prints the matches, one JSON value per line.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/FeiBaoHuYu/KJsonQuery"
	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("kjq", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "maximum number of results to print (0 = unlimited)")
	verbose := fs.Bool("v", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: kjq [-limit n] [-v] <file.json> <path>")
		return 2
	}
	file, path := fs.Arg(0), fs.Arg(1)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	h, err := kjsonquery.GetOrCreate(file)
	if err != nil {
		slog.Error("open failed", "file", file, "error", err)
		return 1
	}
	defer h.Release()

	var opts []kjsonquery.QueryOption
	if *limit > 0 {
		opts = append(opts, kjsonquery.Limit(*limit))
	}

	results, err := h.Query(path, opts...)
	if err != nil {
		slog.Error("query failed", "path", path, "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	for _, v := range results {
		if err := enc.Encode(toJSON(v)); err != nil {
			slog.Error("encode failed", "error", err)
			return 1
		}
	}
	return 0
}

// toJSON converts a value.Value into a plain Go value encoding/json can
// marshal, since value.Value intentionally carries no JSON tags of its
// own — it is an in-memory result type, not a wire type.
func toJSON(v value.Value) any {
	switch t := v.(type) {
	case value.Null:
		return nil
	case value.Bool:
		return bool(t)
	case value.Integer:
		return int64(t)
	case value.Float:
		return float64(t)
	case value.String:
		return string(t)
	case value.Array:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toJSON(e)
		}
		return out
	case *value.Object:
		out := make(map[string]any, t.Len())
		for _, f := range t.Fields() {
			out[f.Key] = toJSON(f.Value)
		}
		return out
	default:
		return nil
	}
}
