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

	"jirahook/internal"
	"jirahook/pkg/jira"
	"jirahook/webhook"
)

func main() {
	logger := internal.NewLogger("server")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	client, err := jira.NewClient(
		jira.Credentials{
			BaseURL:  config.Jira.BaseURL,
			Email:    config.Jira.Email,
			APIToken: config.Jira.APIToken,
		},
		jira.Options{
			MaxRetries:     config.Jira.MaxRetries,
			InitialBackoff: time.Duration(config.Jira.BackoffInitialMS) * time.Millisecond,
			MaxBackoff:     time.Duration(config.Jira.BackoffMaxMS) * time.Millisecond,
			AttemptTimeout: time.Duration(config.Jira.AttemptTimeoutMS) * time.Millisecond,
			OverallTimeout: time.Duration(config.Jira.OverallTimeoutMS) * time.Millisecond,
			Logger:         internal.NewLogger("jira"),
		},
	)
	if err != nil {
		logger.Fatalf("jira client: %v", err)
	}

	var publisher internal.Publisher
	if config.Audit.Enabled {
		publisher, err = internal.NewPublisher(config.Audit.Publisher)
		if err != nil {
			logger.Fatalf("audit publisher: %v", err)
		}
		defer publisher.Close()
		logger.Printf("delivery audit enabled topic=%s", config.Audit.Topic)
	}

	handler := webhook.NewHandler(webhook.Config{
		Secret:       config.Webhook.Secret,
		MaxBodyBytes: config.Server.MaxBodyBytes,
		Mapper: webhook.MapperConfig{
			ProjectKey:    config.Jira.ProjectKey,
			IssueType:     config.Jira.IssueType,
			SummaryPrefix: config.Jira.SummaryPrefix,
			SummaryMaxLen: config.Jira.SummaryMaxLen,
		},
		Creator:    client,
		Publisher:  publisher,
		AuditTopic: config.Audit.Topic,
		Logger:     internal.NewLogger("webhook"),
	})

	mux := http.NewServeMux()
	mux.Handle(config.Webhook.Path, handler)
	logger.Printf("github webhook enabled on %s", config.Webhook.Path)
	if config.Webhook.Secret == "" {
		logger.Printf("warning: webhook secret not set, signature verification disabled")
	}

	if config.Server.MetricsEnabled {
		mux.Handle(config.Server.MetricsPath, expvar.Handler())
		logger.Printf("metrics enabled on %s", config.Server.MetricsPath)
	}

	root := internal.NewRateLimitHandler(mux, config.Server.RateLimitRPS, config.Server.RateLimitBurst, 10*time.Minute)

	addr := ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       config.Server.ReadTimeout(),
		WriteTimeout:      config.Server.WriteTimeout(),
		IdleTimeout:       config.Server.IdleTimeout(),
		ReadHeaderTimeout: config.Server.ReadHeaderTimeout(),
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
}
