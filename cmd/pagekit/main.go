// Command pagekit drives a buffer pool and an extendible hash index against
// a workload file, for exercising and stress-testing the storage core.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"pagekit/pkg/buffer"
	"pagekit/pkg/disk"
	"pagekit/pkg/hash"
	"pagekit/pkg/iterator"
)

var startupDelay = 50 * time.Millisecond
var maxJitterMillis int64 = 5

func jitter() time.Duration {
	return time.Duration(rand.Int63n(maxJitterMillis)+1) * time.Millisecond
}

// parseWorkload reads one `op key [value]` line per entry, where op is
// insert, lookup, or delete.
func parseWorkload(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var workload []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		workload = append(workload, line)
	}
	return workload, scanner.Err()
}

type stats struct {
	mu       sync.Mutex
	inserted int
	found    int
	notFound int
	deleted  int
	errors   int
}

func (s *stats) record(f func(*stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

func runWorkload(table *hash.ExtendibleHashTable, lines []string, workerIdx, numWorkers int, wg *sync.WaitGroup, s *stats) {
	defer wg.Done()
	for i := workerIdx; i < len(lines); i += numWorkers {
		time.Sleep(jitter())
		fields := strings.Fields(lines[i])
		if len(fields) < 2 {
			continue
		}
		key, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			s.record(func(s *stats) { s.errors++ })
			continue
		}
		switch fields[0] {
		case "insert":
			value := key
			if len(fields) >= 3 {
				value, _ = strconv.ParseInt(fields[2], 10, 64)
			}
			rid := iterator.RID{PageID: int32(value), SlotNum: 0}
			if err := table.Insert(key, rid); err != nil {
				s.record(func(s *stats) { s.errors++ })
			} else {
				s.record(func(s *stats) { s.inserted++ })
			}
		case "lookup":
			if _, found, err := table.GetValue(key); err != nil {
				s.record(func(s *stats) { s.errors++ })
			} else if found {
				s.record(func(s *stats) { s.found++ })
			} else {
				s.record(func(s *stats) { s.notFound++ })
			}
		case "delete":
			if err := table.Remove(key); err != nil {
				s.record(func(s *stats) { s.errors++ })
			} else {
				s.record(func(s *stats) { s.deleted++ })
			}
		}
	}
}

func main() {
	var (
		dbPath      = flag.String("db", "pagekit.db", "path to the page file")
		workloadArg = flag.String("workload", "", "workload file (required)")
		numWorkers  = flag.Int("n", 1, "number of concurrent workers")
		poolSize    = flag.Int("pool", 32, "buffer pool size, in frames")
		replacerK   = flag.Int("k", 2, "LRU-K replacer history depth")
		verify      = flag.Bool("verify", false, "check hash index invariants after the workload")
	)
	flag.Parse()

	if *workloadArg == "" {
		fmt.Println("must specify -workload <file>")
		os.Exit(1)
	}

	manager, err := disk.OpenFile(*dbPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer manager.Close()

	bpm := buffer.NewBufferPoolManager(*poolSize, manager, *replacerK)
	defer bpm.Shutdown()

	table, err := hash.NewExtendibleHashTable(bpm)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	lines, err := parseWorkload(*workloadArg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	time.Sleep(startupDelay)

	var wg sync.WaitGroup
	var s stats
	for i := 0; i < *numWorkers; i++ {
		wg.Add(1)
		go runWorkload(table, lines, i, *numWorkers, &wg, &s)
	}
	wg.Wait()

	fmt.Printf("inserted=%d found=%d not_found=%d deleted=%d errors=%d\n",
		s.inserted, s.found, s.notFound, s.deleted, s.errors)

	if *verify {
		if err := hash.CheckInvariants(table); err != nil {
			fmt.Println("invariant check failed:", err)
			os.Exit(1)
		}
		fmt.Println("invariants hold")
	}
}
