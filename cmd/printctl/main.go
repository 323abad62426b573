// printctl is an operator tool for the print pipeline: it enqueues jobs and
// inspects their outcome without going through the web application.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	printingapp "github.com/warecore/printd/internal/application/printing"
	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
	"github.com/warecore/printd/internal/infrastructure/config"
	"github.com/warecore/printd/internal/infrastructure/logger"
	"github.com/warecore/printd/internal/infrastructure/persistence"
	"github.com/warecore/printd/internal/infrastructure/queue"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	log, err := logger.New(&logger.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	jobRepo := persistence.NewGormPrintJobRepository(db.DB)

	switch command {
	case "enqueue":
		runEnqueue(cfg, jobRepo, log, os.Args[2:])
	case "status":
		runStatus(jobRepo, log, os.Args[2:])
	case "list":
		runList(jobRepo, log, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runEnqueue(cfg *config.Config, jobs printing.PrintJobRepository, log *zap.Logger, args []string) {
	fs := flag.NewFlagSet("enqueue", flag.ExitOnError)
	var (
		orgID      = fs.String("org", "", "Organization id (uuid, empty for the system tenant)")
		entityType = fs.String("type", "item", "Entity type to print")
		ids        = fs.String("ids", "", "Comma separated entity ids (required)")
		printerID  = fs.String("printer", "", "Printer id (uuid, optional)")
		copies     = fs.Int("copies", 1, "Copies per label")
		title      = fs.String("title", "", "Title override")
	)
	_ = fs.Parse(args)

	if *ids == "" {
		log.Fatal("entity ids are required (-ids a,b,c)")
	}

	req := printingapp.EnqueueRequest{
		EntityType: *entityType,
		EntityIDs:  strings.Split(*ids, ","),
		Options:    map[string]any{"copies": *copies},
	}
	if *title != "" {
		req.Options["title"] = *title
	}
	if *orgID != "" {
		id, err := uuid.Parse(*orgID)
		if err != nil {
			log.Fatal("Invalid org id", zap.String("value", *orgID))
		}
		req.OrgID = id
	}
	if *printerID != "" {
		id, err := uuid.Parse(*printerID)
		if err != nil {
			log.Fatal("Invalid printer id", zap.String("value", *printerID))
		}
		req.PrinterID = &id
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		_ = redisClient.Close()
	}()

	svc := printingapp.NewEnqueueService(jobs, queue.NewRedisQueue(redisClient, log), log)
	job, err := svc.Enqueue(context.Background(), req)
	if err != nil {
		log.Fatal("Failed to enqueue print job", zap.Error(err))
	}

	fmt.Println(job.ID)
}

func runStatus(jobs printing.PrintJobRepository, log *zap.Logger, args []string) {
	if len(args) < 1 {
		log.Fatal("Job id required. Usage: printctl status <job-id>")
	}
	jobID, err := uuid.Parse(args[0])
	if err != nil {
		log.Fatal("Invalid job id", zap.String("value", args[0]))
	}

	svc := printingapp.NewEnqueueService(jobs, nil, log)
	job, err := svc.GetJob(context.Background(), jobID)
	if err != nil {
		log.Fatal("Failed to load print job", zap.Error(err))
	}

	printJob(job)
}

func runList(jobs printing.PrintJobRepository, log *zap.Logger, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		orgID  = fs.String("org", "", "Organization id (uuid, empty for the system tenant)")
		status = fs.String("status", "", "Filter by status (QUEUED, PROCESSING, DONE, FAILED)")
		limit  = fs.Int("limit", 20, "Maximum jobs to show")
	)
	_ = fs.Parse(args)

	org := uuid.Nil
	if *orgID != "" {
		id, err := uuid.Parse(*orgID)
		if err != nil {
			log.Fatal("Invalid org id", zap.String("value", *orgID))
		}
		org = id
	}

	filter := shared.Filter{PageSize: *limit}
	if *status != "" {
		filter.Filters = map[string]any{"status": *status}
	}

	svc := printingapp.NewEnqueueService(jobs, nil, log)
	found, err := svc.ListJobs(context.Background(), org, filter)
	if err != nil {
		log.Fatal("Failed to list print jobs", zap.Error(err))
	}

	for i := range found {
		printJob(&found[i])
		fmt.Println()
	}
}

func printJob(job *printing.PrintJob) {
	fmt.Printf("id:       %s\n", job.ID)
	fmt.Printf("status:   %s\n", job.Status)
	fmt.Printf("type:     %s (%d ids)\n", job.EntityType, len(job.EntityIDs))
	if job.ArtifactPath != "" {
		fmt.Printf("artifact: %s\n", job.ArtifactPath)
	}
	if job.ErrorCode != "" {
		fmt.Printf("error:    %s: %s\n", job.ErrorCode, job.ErrorMessage)
	}
}

func printUsage() {
	fmt.Println(`printctl - print pipeline operator tool

Usage:
  printctl enqueue -ids <a,b,c> [-type item] [-org <uuid>] [-printer <uuid>] [-copies n] [-title s]
  printctl status <job-id>
  printctl list [-org <uuid>] [-status DONE] [-limit 20]`)
}
