package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance/internal/badge"
	"attendance/internal/config"
	"attendance/internal/queue"
	"attendance/internal/registry"
	"attendance/internal/store"
)

// Worker consumes badge-render jobs and calls the badge service for each
// newly registered student.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:badges")
	}

	students := registry.NewRepository(db.Client)
	renderer := badge.New(cfg.BadgeServiceURL, cfg.BadgeSkip)

	if !cfg.BadgeSkip {
		if err := renderer.Health(ctx); err != nil {
			log.Printf("WARNING: badge service not available: %v", err)
			log.Println("Worker will retry rendering when jobs arrive")
		} else {
			log.Println("Badge service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for badge jobs...")
	for msg := range messages {
		if msg.Type != queue.TypeBadge {
			continue
		}

		id := string(msg.Body)
		student, err := students.FindByID(ctx, id)
		if err != nil {
			log.Printf("fetch student %s failed: %v", id, err)
			continue
		}
		if student == nil {
			log.Printf("badge job for unknown student %s, skipping", id)
			continue
		}

		result, err := renderer.Render(ctx, student.Name, student.Barcode)
		if err != nil {
			log.Printf("badge render failed for %s (%s): %v", student.Name, student.Barcode, err)
			continue
		}
		log.Printf("badge rendered for %s: %s", student.Name, result.DocumentURL)

		time.Sleep(10 * time.Millisecond) // Small delay between jobs
	}

	log.Println("worker stopped")
}
