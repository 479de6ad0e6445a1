// Command fsttool builds FST dictionaries from term lists and queries them:
// exact, floor and ceiling lookups, enumeration, prefix, wildcard and fuzzy
// matching, cheapest keys and Graphviz export. Dictionaries live in files or
// in a bbolt store, addressed as @name.
package main

import (
	"bufio"
	"cmp"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"GoFST/internal/automaton"
	"GoFST/internal/compiled"
	"GoFST/internal/config"
	"GoFST/internal/dictstore"
	"GoFST/internal/fst"
	"GoFST/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	errUsage   = errors.New("usage")
	errNoMatch = errors.New("no match")
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

const usageText = `usage: fsttool [-config file] [-outputs int|bytes|none] <command> [args]

commands:
  build [-o file] [-store name] <terms|->   build from "key[<TAB>output]" lines
  get <src> <key>                           exact lookup
  floor <src> <key>                         greatest key <= key
  ceil <src> <key>                          least key >= key
  list <src>                                all keys in order
  prefix <src> <prefix>                     keys starting with prefix
  wildcard <src> <pattern>                  keys matching * and ? patterns
  fuzzy [-edits n] [-transpositions] <src> <term>
                                            keys within an edit distance
  topn [-n count] <src>                     keys with the smallest int outputs
  ord <src> <output>                        key with an ordinal int output
  dot <src>                                 Graphviz rendering
  store <name> <file>                       copy an FST file into the store
  load <name> <file>                        copy a stored FST to a file
  dicts                                     list stored dictionaries
  rm <name>                                 delete a stored dictionary
  version

<src> is an FST file or @name for a stored dictionary.
`

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("fsttool", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "path to config file")
	outputs := global.String("outputs", "", "output algebra, overrides the config")
	global.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := global.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "fsttool: %v\n", err)
		return 1
	}
	if *outputs != "" {
		cfg.Outputs = *outputs
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "fsttool: %v\n", err)
			return 2
		}
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "fsttool: %v\n", err)
		return 2
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if global.NArg() == 0 {
		global.Usage()
		return 2
	}
	cmd := global.Arg(0)
	t := &tool{cfg: cfg, logger: logger, stdin: stdin, stdout: bufio.NewWriter(stdout)}
	err = t.dispatch(cmd, global.Args()[1:])
	if ferr := t.stdout.Flush(); err == nil {
		err = ferr
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNoMatch):
		return 1
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "fsttool %s: %v\n", cmd, err)
		fmt.Fprint(stderr, usageText)
		return 2
	default:
		logger.Error("command failed", "command", cmd, "error", err)
		fmt.Fprintf(stderr, "fsttool %s: %v\n", cmd, err)
		return 1
	}
}

type tool struct {
	cfg    config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout *bufio.Writer
}

func (t *tool) dispatch(cmd string, args []string) error {
	switch cmd {
	case "version":
		fmt.Fprintln(t.stdout, Version)
		return nil
	case "load":
		return t.load(args)
	case "dicts":
		return t.dicts(args)
	case "rm":
		return t.remove(args)
	}

	switch t.cfg.Outputs {
	case "int":
		return runTyped[int64](t, "int", fst.PositiveIntOutputs{}, parseInt, cmd, args)
	case "bytes":
		return runTyped[[]byte](t, "bytes", fst.ByteSequenceOutputs{}, parseBytes, cmd, args)
	default:
		return runTyped[struct{}](t, "none", fst.NoOutputs{}, parseNone, cmd, args)
	}
}

func parseInt(field string, ordinal int64) (int64, error) {
	if field == "" {
		return ordinal, nil
	}
	return strconv.ParseInt(field, 10, 64)
}

func parseBytes(field string, _ int64) ([]byte, error) {
	if field == "" {
		return nil, nil
	}
	return []byte(field), nil
}

func parseNone(string, int64) (struct{}, error) { return struct{}{}, nil }

func (t *tool) openStore(readOnly bool) (*dictstore.Store, error) {
	return dictstore.Open(t.cfg.DB, dictstore.Options{
		Timeout:  t.cfg.LockTimeout,
		ReadOnly: readOnly,
		Logger:   t.logger,
	})
}

func (t *tool) load(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: load <name> <file>", errUsage)
	}
	s, err := t.openStore(true)
	if err != nil {
		return err
	}
	defer s.Close()
	blob, meta, err := s.Get(args[0])
	if err != nil {
		return err
	}
	if err := storage.AtomicWriteFile(args[1], blob); err != nil {
		return err
	}
	if err := storage.VerifyFileChecksum(args[1], meta.BlobChecksum); err != nil {
		return err
	}
	t.logger.Info("dictionary loaded", "name", meta.Name, "path", args[1], "bytes", len(blob))
	return nil
}

func (t *tool) dicts(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: dicts takes no arguments", errUsage)
	}
	s, err := t.openStore(false)
	if err != nil {
		return err
	}
	defer s.Close()
	metas, err := s.List()
	if err != nil {
		return err
	}
	for _, m := range metas {
		fmt.Fprintf(t.stdout, "%s\t%s\t%s\t%d terms\t%d bytes\t%s\n",
			m.Name, m.InputType, m.Outputs, m.TermCount, m.SizeBytes, m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

func (t *tool) remove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: rm <name>", errUsage)
	}
	s, err := t.openStore(false)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Delete(args[0])
}

// typed runs the commands that depend on the output algebra.
type typed[T any] struct {
	*tool
	name    string
	outputs fst.Outputs[T]
	parse   func(field string, ordinal int64) (T, error)
}

func runTyped[T any](t *tool, name string, outputs fst.Outputs[T], parse func(string, int64) (T, error), cmd string, args []string) error {
	c := &typed[T]{tool: t, name: name, outputs: outputs, parse: parse}
	switch cmd {
	case "build":
		return c.build(args)
	case "get", "floor", "ceil":
		return c.seek(cmd, args)
	case "list":
		return c.list(args)
	case "prefix", "wildcard", "fuzzy":
		return c.match(cmd, args)
	case "topn":
		return c.topn(args)
	case "ord":
		return c.ord(args)
	case "dot":
		return c.dot(args)
	case "store":
		return c.store(args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

type entry struct {
	key   []int32
	text  string
	field string
}

// readEntries reads "key[<TAB>output]" lines and returns them sorted by key.
func (c *typed[T]) readEntries(path string, inputType fst.InputType) ([]entry, error) {
	var r io.Reader = c.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var entries []entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		text, field, _ := strings.Cut(line, "\t")
		entries = append(entries, entry{key: toLabels(inputType, text), text: text, field: field})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	slices.SortStableFunc(entries, func(a, b entry) int { return slices.Compare(a.key, b.key) })
	for i := 1; i < len(entries); i++ {
		if slices.Equal(entries[i-1].key, entries[i].key) {
			return nil, fmt.Errorf("duplicate key %q", entries[i].text)
		}
	}
	return entries, nil
}

func (c *typed[T]) build(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("o", "", "output file")
	name := fs.String("store", "", "store name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 || (*out == "" && *name == "") {
		return fmt.Errorf("%w: build needs a terms file and -o or -store", errUsage)
	}

	inputType, err := fst.ParseInputType(c.cfg.InputType)
	if err != nil {
		return err
	}
	entries, err := c.readEntries(fs.Arg(0), inputType)
	if err != nil {
		return err
	}

	opts := c.cfg.Builder
	opts.Logger = c.logger
	b, err := fst.NewBuilder(inputType, c.outputs, opts)
	if err != nil {
		return err
	}
	for i, e := range entries {
		v, err := c.parse(e.field, int64(i))
		if err != nil {
			return fmt.Errorf("output of %q: %w", e.text, err)
		}
		if err := b.Add(e.key, v); err != nil {
			return fmt.Errorf("add %q: %w", e.text, err)
		}
	}
	f, err := b.Finish()
	if err != nil {
		return err
	}

	if *out != "" {
		if err := f.SaveFile(*out); err != nil {
			return err
		}
	}
	if *name != "" {
		s, err := c.openStore(false)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := dictstore.PutFST(s, *name, c.name, f, b.TermCount()); err != nil {
			return err
		}
	}
	c.logger.Info("fst built",
		"terms", b.TermCount(),
		"nodes", f.NodeCount(),
		"arcs", f.ArcCount(),
		"bytes", f.SizeInBytes(),
		"path", *out,
		"store", *name,
	)
	return nil
}

// open loads src, a file path or @name in the store.
func (c *typed[T]) open(src string) (*fst.FST[T], error) {
	name, stored := strings.CutPrefix(src, "@")
	if !stored {
		if !storage.FileExists(src) {
			return nil, fmt.Errorf("%w: %s is not a file", errUsage, src)
		}
		return fst.LoadFile(src, c.outputs)
	}
	s, err := c.openStore(true)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	meta, err := s.Stat(name)
	if err != nil {
		return nil, err
	}
	if meta.Outputs != c.name {
		return nil, fmt.Errorf("dictionary %q has %s outputs, run with -outputs %s", name, meta.Outputs, meta.Outputs)
	}
	f, _, err := dictstore.GetFST(s, name, c.outputs)
	return f, err
}

func (c *typed[T]) print(inputType fst.InputType, key []int32, out T) {
	if c.name == "none" {
		fmt.Fprintln(c.stdout, formatKey(inputType, key))
		return
	}
	fmt.Fprintf(c.stdout, "%s\t%s\n", formatKey(inputType, key), c.outputs.String(out))
}

func (c *typed[T]) seek(cmd string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: %s <src> <key>", errUsage, cmd)
	}
	f, err := c.open(args[0])
	if err != nil {
		return err
	}
	key := toLabels(f.InputType(), args[1])

	var res fst.InputOutput[T]
	var ok bool
	switch cmd {
	case "get":
		res.Input = key
		res.Output, ok = fst.Get(f, key)
	case "floor":
		res, ok = fst.NewEnum(f).SeekFloor(key)
	default:
		res, ok = fst.NewEnum(f).SeekCeil(key)
	}
	if !ok {
		return errNoMatch
	}
	c.print(f.InputType(), res.Input, res.Output)
	return nil
}

func (c *typed[T]) list(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: list <src>", errUsage)
	}
	f, err := c.open(args[0])
	if err != nil {
		return err
	}
	e := fst.NewEnum(f)
	n := 0
	for kv, ok := e.Next(); ok && c.under(n); kv, ok = e.Next() {
		c.print(f.InputType(), kv.Input, kv.Output)
		n++
	}
	return nil
}

// under reports whether n results stay within the configured limit.
func (c *typed[T]) under(n int) bool {
	return c.cfg.Limit == 0 || n < c.cfg.Limit
}

func (c *typed[T]) match(cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	edits := fs.Int("edits", c.cfg.Fuzzy.MaxEdits, "maximum edit distance")
	transpositions := fs.Bool("transpositions", c.cfg.Fuzzy.Transpositions, "count adjacent swaps as one edit")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: %s <src> <pattern>", errUsage, cmd)
	}
	f, err := c.open(fs.Arg(0))
	if err != nil {
		return err
	}

	var a *automaton.Automaton
	pattern := fs.Arg(1)
	switch cmd {
	case "prefix":
		a = automaton.MakePrefix(automaton.ToLabels(pattern))
	case "wildcard":
		if a, err = automaton.MakeWildcardFromString(pattern); err != nil {
			return err
		}
	default:
		if a, err = automaton.Levenshtein(pattern, *edits, *transpositions); err != nil {
			return err
		}
	}
	if a, err = automaton.DeterminizeLimit(a, c.cfg.MaxDeterminizedStates); err != nil {
		return err
	}

	n := 0
	if f.InputType() != fst.InputByte1 {
		// Code point keys are matched label by label.
		e := fst.NewEnum(f)
		for kv, ok := e.Next(); ok && c.under(n); kv, ok = e.Next() {
			if automaton.Run(a, kv.Input) {
				c.print(f.InputType(), kv.Input, kv.Output)
				n++
			}
		}
	} else {
		ca, err := compiled.Compile(a, false)
		if err != nil {
			return err
		}
		c.logger.Debug("automaton compiled", "type", ca.Type.String(), "states", ca.RunAutomaton().NumStates())
		compiled.Intersect(ca, f, func(key []byte, out T) bool {
			c.print(fst.InputByte1, automaton.BytesToLabels(key), out)
			n++
			return c.under(n)
		})
	}
	if n == 0 {
		return errNoMatch
	}
	return nil
}

func (c *typed[T]) topn(args []string) error {
	fs := flag.NewFlagSet("topn", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	n := fs.Int("n", 10, "number of keys")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: topn <src>", errUsage)
	}
	f, err := c.open(fs.Arg(0))
	if err != nil {
		return err
	}
	ints, ok := any(f).(*fst.FST[int64])
	if !ok {
		return fmt.Errorf("topn needs int outputs, have %s", c.name)
	}
	for _, p := range fst.TopN(ints, *n, cmp.Compare[int64]) {
		fmt.Fprintf(c.stdout, "%s\t%d\n", formatKey(f.InputType(), p.Input), p.Output)
	}
	return nil
}

func (c *typed[T]) ord(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: ord <src> <output>", errUsage)
	}
	target, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	f, err := c.open(args[0])
	if err != nil {
		return err
	}
	ints, ok := any(f).(*fst.FST[int64])
	if !ok {
		return fmt.Errorf("ord needs int outputs, have %s", c.name)
	}
	key, ok := fst.GetByOutput(ints, target)
	if !ok {
		return errNoMatch
	}
	fmt.Fprintln(c.stdout, formatKey(f.InputType(), key))
	return nil
}

func (c *typed[T]) dot(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: dot <src>", errUsage)
	}
	f, err := c.open(args[0])
	if err != nil {
		return err
	}
	return fst.ToDot(f, c.stdout)
}

func (c *typed[T]) store(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: store <name> <file>", errUsage)
	}
	f, err := fst.LoadFile(args[1], c.outputs)
	if err != nil {
		return err
	}
	var terms int64
	e := fst.NewEnum(f)
	for _, ok := e.Next(); ok; _, ok = e.Next() {
		terms++
	}
	s, err := c.openStore(false)
	if err != nil {
		return err
	}
	defer s.Close()
	return dictstore.PutFST(s, args[0], c.name, f, terms)
}

// toLabels encodes s for an FST of the given input type: UTF-8 bytes for
// byte1, code points otherwise.
func toLabels(inputType fst.InputType, s string) []int32 {
	if inputType == fst.InputByte1 {
		return automaton.BytesToLabels([]byte(s))
	}
	return automaton.ToLabels(s)
}

func formatKey(inputType fst.InputType, key []int32) string {
	var s string
	if inputType == fst.InputByte1 {
		b := make([]byte, len(key))
		for i, l := range key {
			b[i] = byte(l)
		}
		s = string(b)
	} else {
		r := make([]rune, len(key))
		for i, l := range key {
			r[i] = rune(l)
		}
		s = string(r)
	}
	if !utf8.ValidString(s) {
		return strconv.Quote(s)
	}
	return s
}
