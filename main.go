package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"rbitracker/analysis"
	"rbitracker/api"
	"rbitracker/archive"
	"rbitracker/discovery"
	"rbitracker/document"
	"rbitracker/events"
	"rbitracker/orchestrator"
	"rbitracker/state"
	"rbitracker/storage"
	"rbitracker/types"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()
	log.SetOutput(os.Stderr)

	cfg := LoadConfig()
	ctx := context.Background()

	if cfg.CohereAPIKey == "" {
		log.Fatal("COHERE_API_KEY is required")
	}
	generator := analysis.NewCohereGenerator(cfg.CohereAPIKey, cfg.CohereModel)

	var store storage.RecordStore
	var corpus analysis.PolicyCorpus
	if cfg.MongoURI != "" {
		mongoStore, err := storage.NewMongoStore(ctx, storage.MongoConfig{
			URI:           cfg.MongoURI,
			Database:      cfg.MongoDatabase,
			CircularsColl: cfg.CircularsColl,
			PoliciesColl:  cfg.PoliciesColl,
		})
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoStore.Close(ctx)
		store = mongoStore
		corpus = mongoStore
	} else {
		log.Println("MONGO_URI not set; using in-memory record store (records are lost on exit)")
		store = storage.NewMemoryStore()
		corpus = emptyCorpus{}
	}

	var reports *orchestrator.ReportCache
	if cfg.RedisAddr != "" {
		cache, err := orchestrator.NewReportCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ReportTTL)
		if err != nil {
			log.Printf("Warning: report cache disabled: %v", err)
		} else {
			defer cache.Close()
			reports = cache
		}
	}

	var archiver archive.Archiver
	if cfg.S3Bucket != "" {
		a, err := archive.NewS3Archiver(ctx, archive.S3Config{
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
			Region:       cfg.S3Region,
			Profile:      cfg.S3Profile,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			log.Printf("Warning: S3 archival disabled: %v", err)
		} else {
			archiver = a
		}
	} else {
		log.Println("S3 not configured; skipping document archival")
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			log.Printf("Warning: event publication disabled: %v", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	var discoverer orchestrator.Discoverer = discovery.NewDiscoverer(cfg.ListingURL, cfg.DiscoveryTimeout)
	if cfg.FeedURL != "" {
		log.Println("RBI_FEED_URL set; discovering circulars from the notification feed")
		discoverer = discovery.NewFeedDiscoverer(cfg.FeedURL)
	}

	stateManager := state.NewManager()
	pipeline := &orchestrator.Pipeline{
		Discoverer: discoverer,
		Fetcher:    document.NewFetcher(cfg.DownloadDir, cfg.FetchTimeout),
		Extractor:  analysis.NewExtractor(generator),
		Comparator: analysis.NewComparator(generator, corpus),
		Store:      store,
		Archiver:   archiver,
		Publisher:  publisher,
		Reports:    reports,
		State:      stateManager,
	}

	r := api.NewRouter(&api.Server{
		Pipeline: pipeline,
		Store:    store,
		State:    stateManager,
		Reports:  reports,
	})

	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s", addr)
	log.Println("API endpoints available:")
	log.Println("  GET  /api/health")
	log.Println("  POST /api/ingest")
	log.Println("  GET  /api/status")
	log.Println("  GET  /api/reports/:date")
	log.Println("  GET  /api/circulars")
	log.Println("  POST /api/compare")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// emptyCorpus serves comparisons when no policy store is configured.
type emptyCorpus struct{}

func (emptyCorpus) Policies(context.Context) ([]types.PolicyDocument, error) { return nil, nil }
