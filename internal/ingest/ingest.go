package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nxadm/tail"
)

type SourceKind string

const (
	SourceStdin SourceKind = "stdin"
	SourceFile  SourceKind = "file"
	SourceDemo  SourceKind = "demo"
)

type Options struct {
	Source         SourceKind
	Path           string
	Follow         bool
	ScanBufSize    int   // per-line max (bytes)
	BlockSizeBytes int64 // only for non-follow file read; 0 = all
}

// Line is one raw line plus where it came from.
type Line struct {
	Text   string
	Origin string
	When   time.Time
}

// Read starts the producer for the configured source and returns its line
// and error channels. Both close when the producer finishes or ctx ends.
func Read(ctx context.Context, opt Options) (<-chan Line, <-chan error) {
	out := make(chan Line, 1024)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		switch opt.Source {
		case SourceStdin:
			readFromReader(ctx, os.Stdin, "stdin", opt.ScanBufSize, out, errs)
		case SourceFile:
			if opt.Follow {
				readFromTail(ctx, opt.Path, out, errs)
			} else if opt.BlockSizeBytes > 0 {
				readFromFileBlock(ctx, opt.Path, opt.BlockSizeBytes, opt.ScanBufSize, out, errs)
			} else {
				f, err := os.Open(opt.Path)
				if err != nil {
					errs <- err
					return
				}
				defer f.Close()
				readFromReader(ctx, f, opt.Path, opt.ScanBufSize, out, errs)
			}
		case SourceDemo:
			demo(ctx, out)
		default:
			errs <- errors.New("unknown source kind")
		}
	}()

	return out, errs
}

func readFromReader(ctx context.Context, r io.Reader, origin string, maxBuf int, out chan<- Line, errs chan<- error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*64)
	scanner.Buffer(buf, maxBuf)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case out <- Line{Text: scanner.Text(), Origin: origin, When: time.Now()}:
		}
	}
	if err := scanner.Err(); err != nil {
		errs <- err
	}
}

func readFromTail(ctx context.Context, path string, out chan<- Line, errs chan<- error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
	})
	if err != nil {
		errs <- err
		return
	}
	defer t.Cleanup()
	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case l, ok := <-t.Lines:
			if !ok {
				return
			}
			if l.Err != nil {
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case errs <- l.Err:
				}
				continue
			}
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case out <- Line{Text: l.Text, Origin: path, When: time.Now()}:
			}
		}
	}
}

func readFromFileBlock(ctx context.Context, path string, blockBytes int64, maxBuf int, out chan<- Line, errs chan<- error) {
	f, err := os.Open(path)
	if err != nil {
		errs <- err
		return
	}
	defer f.Close()
	var start int64
	if st, err := f.Stat(); err == nil && st.Size() > blockBytes {
		start = st.Size() - blockBytes
	}
	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			errs <- err
			return
		}
		// Drop partial first line
		br := bufio.NewReader(f)
		if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
			errs <- err
			return
		}
		readFromReader(ctx, br, path, maxBuf, out, errs)
		return
	}
	readFromReader(ctx, f, path, maxBuf, out, errs)
}

// demo emits synthetic JSON lines rotating across services, categories and
// levels so every filter axis has material. Every minute or so it repeats a
// single key in a tight burst, which admission control then visibly sheds.
func demo(ctx context.Context, out chan<- Line) {
	services := []string{"api", "worker", "db", "cache"}
	kinds := []string{"http", "job", "query", "session"}
	actions := []string{"GET", "POST", "retry", "evict"}
	levels := []string{"info", "info", "debug", "warn", "info", "error"}
	messages := []string{
		"request served",
		"queue drained",
		"slow statement",
		"cache miss for hot key",
		"connection reset by peer",
		"payload accepted",
		"checkpoint written",
	}
	emit := func(i int) bool {
		l := fmt.Sprintf(`{"service":%q,"type":%q,"action":%q,"level":%q,"msg":%q,"n":%d}`,
			services[i%len(services)], kinds[i%len(kinds)], actions[i%len(actions)],
			levels[i%len(levels)], messages[i%len(messages)], i)
		select {
		case <-ctx.Done():
			return false
		case out <- Line{Text: l, Origin: "demo", When: time.Now()}:
			return true
		}
	}
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	i, ticks := 0, 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticks++
			if !emit(i) {
				return
			}
			i++
			if ticks%400 == 0 {
				burst := `{"service":"api","type":"http","level":"info","msg":"burst probe"}`
				for j := 0; j < 120; j++ {
					select {
					case <-ctx.Done():
						return
					case out <- Line{Text: burst, Origin: "demo", When: time.Now()}:
					}
				}
			}
		}
	}
}
