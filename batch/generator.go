package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/emirpasic/gods/v2/queues/arrayqueue"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spanqa/spanqa/vocab"
)

// maxLineBytes bounds a single input line. Contexts are whole
// passages, so the default scanner limit is too small.
const maxLineBytes = 1 << 20

// Generator turns three line-aligned input streams into a lazy,
// pull-based sequence of padded batches. It owns the pending-batch
// queue and any file handles it opened; it is not safe for
// concurrent use and not restartable once the streams are exhausted.
type Generator struct {
	cfg Config
	asm assembler
	rng *rand.Rand

	context  *bufio.Scanner
	question *bufio.Scanner
	answer   *bufio.Scanner
	uuids    *bufio.Scanner
	uuidPath string
	genUUIDs bool

	pending *arrayqueue.Queue[[]*Example]
	closers []io.Closer
	done    bool
}

type Option func(*Generator)

// WithSeed fixes the chunk-shuffle order, for reproducible runs.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, 0))
	}
}

// WithUUIDStream attaches a fourth line-aligned stream of example
// identifiers, one per input triple. Used in inference mode.
func WithUUIDStream(r io.Reader) Option {
	return func(g *Generator) {
		g.uuids = newScanner(r)
	}
}

// WithUUIDFile is WithUUIDStream for a file the generator should own
// and close.
func WithUUIDFile(path string) Option {
	return func(g *Generator) {
		g.uuidPath = path
	}
}

// WithGeneratedUUIDs assigns a fresh identifier to every example
// instead of reading them from a stream.
func WithGeneratedUUIDs() Option {
	return func(g *Generator) {
		g.genUUIDs = true
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

// New builds a generator over already-open streams. The caller keeps
// ownership of the readers; use Open to have the generator manage
// file handles.
func New(cfg Config, v *vocab.Vocabulary, chars *vocab.CharTable, shared *vocab.SharedIndex, context, question, answer io.Reader, opts ...Option) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("nil vocabulary")
	}
	if chars == nil {
		chars = vocab.DefaultCharTable()
	}

	g := &Generator{
		cfg:      cfg,
		asm:      assembler{cfg: cfg, vocab: v, chars: chars, shared: shared},
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		context:  newScanner(context),
		question: newScanner(question),
		answer:   newScanner(answer),
		pending:  arrayqueue.New[[]*Example](),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.uuidPath != "" {
		f, err := os.Open(g.uuidPath)
		if err != nil {
			return nil, err
		}
		g.uuids = newScanner(f)
		g.closers = append(g.closers, f)
	}

	return g, nil
}

// Open builds a generator over the three dataset files. The files are
// closed by Close, on every exit path.
func Open(cfg Config, v *vocab.Vocabulary, chars *vocab.CharTable, shared *vocab.SharedIndex, contextPath, questionPath, answerPath string, opts ...Option) (*Generator, error) {
	var files []*os.File
	for _, path := range []string{contextPath, questionPath, answerPath} {
		f, err := os.Open(path)
		if err != nil {
			for _, open := range files {
				open.Close()
			}
			return nil, err
		}
		files = append(files, f)
	}

	g, err := New(cfg, v, chars, shared, files[0], files[1], files[2], opts...)
	if err != nil {
		for _, open := range files {
			open.Close()
		}
		return nil, err
	}

	for _, f := range files {
		g.closers = append(g.closers, f)
	}
	return g, nil
}

// Next returns the next batch, refilling the pending queue from the
// input streams when it runs dry. io.EOF signals normal end of
// stream; any other error is a data or I/O failure.
func (g *Generator) Next() (*Batch, error) {
	for g.pending.Empty() && !g.done {
		if err := g.refill(); err != nil {
			return nil, err
		}
	}

	chunk, ok := g.pending.Dequeue()
	if !ok {
		return nil, io.EOF
	}

	return materialize(g.cfg, chunk)
}

// Close releases the file handles owned by the generator. Safe to
// call more than once and after the stream is exhausted.
func (g *Generator) Close() error {
	var errs []error
	for _, c := range g.closers {
		errs = append(errs, c.Close())
	}
	g.closers = nil
	return errors.Join(errs...)
}

type rawTriple struct {
	context  string
	question string
	answer   string
	uuid     string
}

// scanOne pulls the next line from each stream. ok is false once any
// stream is exhausted; the tails of longer streams are ignored.
func (g *Generator) scanOne() (rawTriple, bool, error) {
	scanners := []*bufio.Scanner{g.context, g.question, g.answer}
	if g.uuids != nil {
		scanners = append(scanners, g.uuids)
	}

	lines := make([]string, len(scanners))
	for i, scanner := range scanners {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return rawTriple{}, false, fmt.Errorf("reading input: %w", err)
			}
			return rawTriple{}, false, nil
		}
		lines[i] = scanner.Text()
	}

	triple := rawTriple{context: lines[0], question: lines[1], answer: lines[2]}
	if g.uuids != nil {
		triple.uuid = lines[3]
	}
	return triple, true, nil
}

// refill reads up to poolCap line triples, assembles them into
// examples in parallel, sorts the survivors by question length and
// queues the shuffled chunks. Examples are independent until the
// sort, so assembly fans out; everything after is sequential.
func (g *Generator) refill() error {
	start := time.Now()

	raw := make([]rawTriple, 0, min(g.cfg.poolCap(), 4*g.cfg.BatchSize))
	for len(raw) < g.cfg.poolCap() {
		triple, ok, err := g.scanOne()
		if err != nil {
			return err
		}
		if !ok {
			g.done = true
			break
		}
		raw = append(raw, triple)
	}

	examples := make([]*Example, len(raw))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, triple := range raw {
		eg.Go(func() error {
			ex, err := g.asm.assemble(triple.context, triple.question, triple.answer)
			if err != nil {
				return err
			}
			if ex != nil {
				switch {
				case g.uuids != nil:
					ex.UUID = triple.uuid
				case g.genUUIDs:
					ex.UUID = uuid.NewString()
				}
			}
			examples[i] = ex
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	kept := examples[:0]
	for _, ex := range examples {
		if ex != nil {
			kept = append(kept, ex)
		}
	}

	chunks := sortAndChunk(kept, g.cfg.BatchSize, g.rng)
	for _, chunk := range chunks {
		g.pending.Enqueue(chunk)
	}

	slog.Debug("refilled batches", "examples", len(kept), "discarded", len(raw)-len(kept), "batches", len(chunks), "took", time.Since(start))
	return nil
}
