package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"nuncle.ai/internal/persistence/indexdb"
	persistlog "nuncle.ai/internal/persistence/log"
	"nuncle.ai/internal/sim/host"
	"nuncle.ai/internal/sim/tuning"
)

func main() {
	var (
		dataDir    = flag.String("data", "./data", "runtime data directory")
		fromTick   = flag.Uint64("from_tick", 0, "first tick to include (optional)")
		toTick     = flag.Uint64("to_tick", 0, "last tick to include (optional)")
		eventType  = flag.String("type", "", "only entries with this event type (with -print)")
		printMode  = flag.Bool("print", false, "print matching tick entries as JSON lines")
		auditMode  = flag.Bool("audit", false, "print the audit log instead of tick entries")
		replayMode = flag.Bool("replay", false, "re-run the tick log through a fresh host and verify it")
		tuningPath = flag.String("tuning", "", "tuning.yaml the server ran with (for -replay)")
		dbMode     = flag.Bool("db", false, "query the sqlite index instead of the logs")
		limit      = flag.Int("limit", 20, "max rows for -db failure listing")
	)
	flag.Parse()

	var err error
	switch {
	case *dbMode:
		err = queryIndex(os.Stdout, filepath.Join(*dataDir, "index", "nuncle.sqlite"), *limit)
	case *auditMode:
		err = printAudit(os.Stdout, filepath.Join(*dataDir, "audit"), *fromTick, *toTick)
	case *replayMode:
		tune := tuning.Defaults()
		if *tuningPath != "" {
			if tune, err = tuning.Load(*tuningPath); err != nil {
				break
			}
		}
		var n int
		n, err = replay(filepath.Join(*dataDir, "events"), tune, *toTick)
		if err == nil {
			fmt.Printf("replay ok: checked=%d entries\n", n)
		}
	default:
		f := filter{from: *fromTick, to: *toTick, eventType: *eventType}
		var s summary
		s, err = scan(filepath.Join(*dataDir, "events"), f, func(e host.TickLogEntry) error {
			if !*printMode {
				return nil
			}
			b, err := json.Marshal(e)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		})
		if err == nil && !*printMode {
			s.write(os.Stdout)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "logcat:", err)
		os.Exit(1)
	}
}

type filter struct {
	from, to  uint64
	eventType string
}

func (f filter) match(e host.TickLogEntry) bool {
	if e.Tick < f.from || (f.to != 0 && e.Tick > f.to) {
		return false
	}
	if f.eventType == "" {
		return true
	}
	for _, ev := range e.Events {
		if ev["type"] == f.eventType {
			return true
		}
	}
	return false
}

type summary struct {
	Files      int
	Entries    int
	FirstTick  uint64
	LastTick   uint64
	Inputs     map[string]int
	Events     map[string]int
	Codes      map[string]int
	Effects    map[string]int
	Broadcasts int
}

func (s *summary) add(e host.TickLogEntry) {
	if s.Entries == 0 || e.Tick < s.FirstTick {
		s.FirstTick = e.Tick
	}
	if e.Tick > s.LastTick {
		s.LastTick = e.Tick
	}
	s.Entries++
	for _, in := range e.Inputs {
		s.Inputs[string(in.Kind)]++
		if in.Kind == host.InputCommand {
			s.Codes[in.Code]++
		}
	}
	for _, ev := range e.Events {
		if typ, ok := ev["type"].(string); ok {
			s.Events[typ]++
		}
	}
	for k, n := range e.Effects {
		s.Effects[k] += n
	}
	s.Broadcasts += len(e.Broadcasts)
}

func (s summary) write(w io.Writer) {
	fmt.Fprintf(w, "files=%d entries=%d ticks=%d..%d broadcasts=%d\n", s.Files, s.Entries, s.FirstTick, s.LastTick, s.Broadcasts)
	writeCounts(w, "inputs", s.Inputs)
	writeCounts(w, "codes", s.Codes)
	writeCounts(w, "events", s.Events)
	writeCounts(w, "effects", s.Effects)
}

func writeCounts(w io.Writer, title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, m[k])
	}
}

// scan reads every events file in dir, summarizing and passing matching
// entries to fn.
func scan(dir string, f filter, fn func(host.TickLogEntry) error) (summary, error) {
	s := summary{
		Inputs:  map[string]int{},
		Events:  map[string]int{},
		Codes:   map[string]int{},
		Effects: map[string]int{},
	}
	files, err := persistlog.ListFiles(dir, "events")
	if err != nil {
		return s, err
	}
	if len(files) == 0 {
		return s, fmt.Errorf("no events files found in %s", dir)
	}
	s.Files = len(files)
	for _, path := range files {
		err := persistlog.ReadTicks(path, func(e host.TickLogEntry) error {
			if !f.match(e) {
				return nil
			}
			s.add(e)
			return fn(e)
		})
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

func printAudit(w io.Writer, dir string, from, to uint64) error {
	files, err := persistlog.ListFiles(dir, "audit")
	if err != nil {
		return err
	}
	for _, path := range files {
		err := persistlog.ReadAudit(path, func(e host.AuditEntry) error {
			if e.Tick < from || (to != 0 && e.Tick > to) {
				return nil
			}
			line := fmt.Sprintf("tick=%d actor=%s level=%d code=%s line=%q", e.Tick, e.Actor, e.Level, e.Code, e.Line)
			if e.Reason != "" {
				line += fmt.Sprintf(" reason=%q", e.Reason)
			}
			_, err := fmt.Fprintln(w, line)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// replay feeds every logged entry to a fresh host in tick order.
func replay(dir string, tune tuning.Tuning, to uint64) (int, error) {
	files, err := persistlog.ListFiles(dir, "events")
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no events files found in %s", dir)
	}
	h := host.New(tune, host.Options{Logger: log.New(io.Discard, "", 0)})
	n := 0
	for _, path := range files {
		err := persistlog.ReadTicks(path, func(e host.TickLogEntry) error {
			if to != 0 && e.Tick > to {
				return nil
			}
			if err := h.ReplayEntry(e); err != nil {
				return err
			}
			n++
			return nil
		})
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func queryIndex(w io.Writer, path string, limit int) error {
	db, err := indexdb.OpenQuery(path)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	counts, err := indexdb.EventCounts(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "events:")
	for _, c := range counts {
		fmt.Fprintf(w, "  %-20s %d\n", c.Type, c.Count)
	}
	fails, err := indexdb.Failures(ctx, db, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "failures:")
	for _, f := range fails {
		fmt.Fprintf(w, "  tick=%d actor=%s code=%s line=%q reason=%q\n", f.Tick, f.Actor, f.Code, f.Line, f.Reason)
	}
	return nil
}
