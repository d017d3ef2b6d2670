// Command populate seeds the shared common-knowledge collection from a
// directory of documents. Every tenant's questions consult this collection
// alongside their own uploads.
//
// Usage:
//
//	populate -dir ./knowledge          one-shot scan and index
//	populate -dir ./knowledge -watch   keep indexing on file changes
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/askdocs/server/config"
	"github.com/askdocs/server/models"
	"github.com/askdocs/server/services"
)

func main() {
	dir := flag.String("dir", "", "directory of documents to index into common knowledge")
	watch := flag.Bool("watch", false, "keep watching the directory for changes")
	flag.Parse()

	if *dir == "" {
		log.Fatal("FATAL: -dir is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if err := chromaClient.Close(); err != nil {
			log.Printf("Warning: Failed to close chroma client: %v", err)
		}
	}()

	embedder, err := services.NewEmbedder(cfg, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedder: %v", err)
	}

	store := services.NewChromaStore(chromaClient, embedder)
	processor := services.NewDocumentProcessor(cfg.ChunkSize, cfg.ChunkOverlap)
	seeder := &seeder{store: store, processor: processor}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := seeder.scanDirectory(ctx, *dir); err != nil {
		log.Fatalf("FATAL: Initial scan failed: %v", err)
	}

	if *watch {
		seeder.watchDirectory(ctx, *dir)
	}
}

type seeder struct {
	store     services.CollectionStore
	processor *services.DocumentProcessor
}

// scanDirectory walks dir and indexes every supported file into the common
// knowledge collection. Individual file failures are logged and skipped so
// one broken document cannot block the rest of the corpus.
func (s *seeder) scanDirectory(ctx context.Context, dir string) error {
	log.Printf("INDEXER: Starting directory scan for: %s", dir)

	indexed := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !s.processor.IsSupported(path) {
			return nil
		}
		if err := s.indexFile(ctx, path); err != nil {
			log.Printf("INDEXER ERROR: Failed to process file %s: %v", path, err)
			return nil
		}
		indexed++
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("INDEXER: Directory scan finished, %d files indexed.", indexed)
	return nil
}

// watchDirectory blocks until ctx is cancelled, re-indexing files as they
// are created or written. Many editors write by creating a temp file and
// renaming, which can trigger multiple events; Create and Write are handled
// the same.
func (s *seeder) watchDirectory(ctx context.Context, dir string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !s.processor.IsSupported(event.Name) {
					continue
				}
				switch {
				case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
					log.Printf("WATCHER: File modified/created: %s. Re-indexing...", event.Name)
					if err := s.indexFile(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to process file %s: %v", event.Name, err)
					}
				case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
					log.Printf("WATCHER: File removed: %s. Deleting its chunks...", event.Name)
					if err := s.store.RemoveSource(ctx, models.CommonCollection, filepath.Base(event.Name)); err != nil {
						log.Printf("WATCHER ERROR: Failed to remove chunks for %s: %v", event.Name, err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dir)
	if err := watcher.Add(dir); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
		return
	}

	<-ctx.Done()
}

// indexFile replaces the file's chunks in the common collection. Removing
// first keeps re-indexing from accumulating stale chunks for the same source.
func (s *seeder) indexFile(ctx context.Context, path string) error {
	chunks, err := s.processor.Process([]string{path})
	if err != nil {
		return err
	}
	if err := s.store.RemoveSource(ctx, models.CommonCollection, filepath.Base(path)); err != nil {
		return err
	}
	return s.store.Add(ctx, models.CommonCollection, chunks)
}
