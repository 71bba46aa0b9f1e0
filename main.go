package main

import (
	"context"
	"expvar"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"reviewbot/internal"
	"reviewbot/pkg/forge"
	"reviewbot/pkg/review"
	"reviewbot/pkg/worker"
	"reviewbot/webhook"
)

func main() {
	logger := internal.NewLogger("server")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	config, err := internal.LoadConfig(*configPath)
	if os.IsNotExist(err) {
		logger.Printf("config file %s not found, using defaults", *configPath)
		config = internal.DefaultConfig()
	} else if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	secrets := internal.NewSecretProvider(config.Secrets.MountDir, internal.NewLogger("secrets"))

	// Absent secrets are startup-time configuration errors, not fatal ones:
	// the process keeps serving so health checks pass, and the dependent
	// operations fail gracefully at call time.
	webhookSecret, ok := secrets.Resolve(internal.SecretWebhook)
	if !ok {
		logger.Printf("error: %s is not configured, webhook signature verification will be skipped", internal.SecretWebhook)
	}
	forgeToken, ok := secrets.Resolve(internal.SecretAPIToken)
	if !ok {
		logger.Printf("error: %s is not configured, forge API calls will fail", internal.SecretAPIToken)
	}
	modelKey, ok := secrets.Resolve(internal.SecretModelKey)
	if !ok {
		logger.Printf("error: %s is not configured, model invocations will fail", internal.SecretModelKey)
	}

	filters, err := internal.NewFilterEngine(config.Filters)
	if err != nil {
		logger.Fatalf("compile filters: %v", err)
	}
	router := internal.NewRouter(filters, internal.NewLogger("router"))
	verifier := internal.NewVerifier(webhookSecret, internal.NewLogger("verifier"))

	transport, err := internal.BuildTransport(config.Scheduler)
	if err != nil {
		logger.Fatalf("scheduler transport: %v", err)
	}
	defer transport.Close()
	scheduler := internal.NewScheduler(transport.Publisher, config.Scheduler.Topic)

	forgeClient := forge.NewClient(
		config.Forge.URL,
		forgeToken,
		time.Duration(config.Forge.TimeoutMS)*time.Millisecond,
		internal.NewLogger("forge"),
	)
	invoker := review.NewInvoker(review.Config{
		BaseURL:     config.Model.BaseURL,
		Model:       config.Model.Model,
		Agent:       config.Model.Agent,
		Instruction: config.Model.Instruction,
		Streaming:   config.Model.Streaming,
		Timeout:     time.Duration(config.Model.TimeoutMS) * time.Millisecond,
	}, modelKey, internal.NewLogger("model"))

	pipeline := worker.NewPipeline(forgeClient, invoker, config.Model.Footer, internal.NewLogger("pipeline"))
	jobs := worker.New(
		worker.WithSubscriber(transport.Subscriber),
		worker.WithTopic(config.Scheduler.Topic),
		worker.WithRunner(pipeline),
		worker.WithConcurrency(config.Scheduler.Concurrency),
		worker.WithLogger(internal.NewLogger("worker")),
	)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := jobs.Run(workerCtx); err != nil {
			logger.Printf("worker stopped: %v", err)
		}
	}()

	hook := webhook.NewGiteaHandler(verifier, router, scheduler, config.Server.MaxBodyBytes, internal.NewLogger("webhook"))

	mux := http.NewServeMux()
	mux.Handle(config.Server.WebhookPath, internal.NewRateLimitHandler(hook, config.Server.RateLimitRPS, config.Server.RateLimitBurst))
	mux.Handle("/health", webhook.HealthHandler())
	mux.Handle("/debug/vars", expvar.Handler())

	addr := ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderMS) * time.Millisecond,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	stopWorker()
	if err := jobs.Close(); err != nil {
		logger.Printf("worker close: %v", err)
	}
}
