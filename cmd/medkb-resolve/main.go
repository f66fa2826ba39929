package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/medresolve/medkb-go/internal/config"
	"github.com/medresolve/medkb-go/internal/embeddings"
	"github.com/medresolve/medkb-go/internal/logging"
	"github.com/medresolve/medkb-go/internal/metrics"
	"github.com/medresolve/medkb-go/internal/questions"
	"github.com/medresolve/medkb-go/internal/report"
	"github.com/medresolve/medkb-go/internal/vectorindex"
	"github.com/medresolve/medkb-go/pkg/resolve"
)

var (
	questionsPath = flag.String("questions", "", "Path to a JSONL file of question records")
	selection     = flag.String("select", "", "Comma-separated 1-based question ordinals to resolve (default: all)")
	entity        = flag.String("entity", "", "Resolve a single entity mention instead of reading questions")
	jsonOut       = flag.Bool("json", false, "Emit JSON reports instead of styled text")
	graphURI      = flag.String("graph-uri", "", "Knowledge graph Bolt URI (default: MEDKB_GRAPH_URI)")
	cachePath     = flag.String("cache-path", "", "libSQL definitions cache path (default: MEDKB_CACHE_PATH)")
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "build-index" {
		if err := runBuildIndex(os.Args[2:]); err != nil {
			log.Fatalf("build-index: %v", err)
		}
		return
	}

	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping...")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *graphURI != "" {
		cfg.Graph.URI = *graphURI
	}
	if *cachePath != "" {
		cfg.Cache.Path = *cachePath
	}

	logger := logging.New(cfg.Logging)
	metrics.InitFromEnv()

	service, err := resolve.NewService(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create resolution service: %v", err)
	}
	defer func() {
		if err := service.Close(context.Background()); err != nil {
			log.Printf("Error closing service: %v", err)
		}
	}()

	if *entity != "" {
		res := service.ResolveEntity(ctx, *entity)
		if *jsonOut {
			s, err := report.RenderJSON(*entity, []apptype.EntityResolution{res})
			if err != nil {
				log.Fatalf("Failed to encode report: %v", err)
			}
			fmt.Println(s)
		} else {
			fmt.Println(report.Render(*entity, []apptype.EntityResolution{res}))
		}
		return
	}

	if *questionsPath == "" {
		log.Fatal("either -entity or -questions is required")
	}

	f, err := os.Open(*questionsPath)
	if err != nil {
		log.Fatalf("Failed to open questions file: %v", err)
	}
	records, err := questions.ReadAll(f, logger)
	_ = f.Close()
	if err != nil {
		log.Fatalf("Failed to read questions: %v", err)
	}

	if *selection != "" {
		ordinals, err := questions.ParseOrdinals(*selection)
		if err != nil {
			log.Fatalf("Invalid -select value: %v", err)
		}
		records = questions.Filter(records, ordinals)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for _, rec := range records {
		if ctx.Err() != nil {
			return
		}
		resolutions, err := service.ResolveQuestion(ctx, rec.Question)
		if err != nil {
			logger.Error("question resolution failed",
				"question", rec.Question, "error", err)
			continue
		}
		if *jsonOut {
			s, err := report.RenderJSON(rec.Question, resolutions)
			if err != nil {
				logger.Error("report encoding failed", "error", err)
				continue
			}
			fmt.Fprintln(out, s)
		} else {
			fmt.Fprintln(out, report.Render(rec.Question, resolutions))
		}
	}
}

// runBuildIndex embeds node names from a JSONL file and writes the
// vector matrix and node id arrays consumed by the similarity fallback.
func runBuildIndex(args []string) error {
	fs := flag.NewFlagSet("build-index", flag.ExitOnError)
	nodesPath := fs.String("nodes", "", "Path to a JSONL file of {index, name} node records")
	vectorsPath := fs.String("vectors", "vectors.bin", "Output path for the embedding matrix")
	idsPath := fs.String("ids", "node_ids.json", "Output path for the node id array")
	batchSize := fs.Int("batch", 64, "Number of names embedded per provider call")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *nodesPath == "" {
		return fmt.Errorf("-nodes is required")
	}
	if *batchSize < 1 {
		return fmt.Errorf("-batch must be >= 1")
	}

	provider := embeddings.NewFromEnv()
	if provider == nil {
		return fmt.Errorf("no embeddings provider configured (set EMBEDDINGS_PROVIDER)")
	}

	f, err := os.Open(*nodesPath)
	if err != nil {
		return err
	}
	defer f.Close()

	ids, names, err := readNodes(f)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no usable node records in %s", *nodesPath)
	}
	log.Printf("Embedding %d node names with %s...", len(names), provider.Name())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	vectors := make([][]float32, 0, len(names))
	for start := 0; start < len(names); start += *batchSize {
		end := start + *batchSize
		if end > len(names) {
			end = len(names)
		}
		batch, err := provider.Embed(ctx, names[start:end])
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(batch) != end-start {
			return fmt.Errorf("embed batch at %d: got %d vectors for %d names", start, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	if err := vectorindex.SaveMatrix(*vectorsPath, vectors); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	if err := vectorindex.SaveIDs(*idsPath, ids); err != nil {
		return fmt.Errorf("write node ids: %w", err)
	}
	log.Printf("Wrote %d vectors to %s and ids to %s", len(vectors), *vectorsPath, *idsPath)
	return nil
}

type nodeRecord struct {
	Index any    `json:"index"`
	Name  string `json:"name"`
}

func readNodes(r io.Reader) (ids []string, names []string, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec nodeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Printf("Skipping malformed node record at line %d: %v", line, err)
			continue
		}
		if rec.Name == "" || rec.Index == nil {
			log.Printf("Skipping incomplete node record at line %d", line)
			continue
		}
		id, err := vectorindex.NormalizeID(rec.Index)
		if err != nil {
			log.Printf("Skipping node record at line %d: %v", line, err)
			continue
		}
		ids = append(ids, id)
		names = append(names, rec.Name)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return ids, names, nil
}
