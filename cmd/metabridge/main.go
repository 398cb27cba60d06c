package main

import (
	"fmt"
	"time"

	"metabridge/internal/airtable"
	"metabridge/internal/handlers"
	"metabridge/internal/meta"
	"metabridge/internal/pipeline"
	"metabridge/pkg/config"
	"metabridge/pkg/logging"
	"metabridge/pkg/middleware"
	"metabridge/pkg/monitoring"
	"metabridge/pkg/server"
	"metabridge/pkg/version"
)

const serviceName = "metabridge"

// appConfig gathers all environment-derived configuration once at startup.
// Nothing below main reads the environment directly.
type appConfig struct {
	Port            string
	AirtableToken   string
	AirtableBaseID  string
	MetaPageID      string
	MetaPageToken   string
	MetaIGAccountID string // reserved for the Instagram flow, unused today
	WebhookSecret   string
	TZOffsetHours   int
	MinLeadMinutes  int
}

func loadConfig() appConfig {
	return appConfig{
		Port:            config.GetEnv("PORT", "8080"),
		AirtableToken:   config.GetEnv("AIRTABLE_TOKEN", ""),
		AirtableBaseID:  config.GetEnv("AIRTABLE_BASE_ID", ""),
		MetaPageID:      config.GetEnv("META_PAGE_ID", ""),
		MetaPageToken:   config.GetEnv("META_PAGE_TOKEN", ""),
		MetaIGAccountID: config.GetEnv("META_IG_ACCOUNT_ID", ""),
		WebhookSecret:   config.GetEnv("WEBHOOK_SECRET", ""),
		TZOffsetHours:   config.GetEnvInt("TZ_OFFSET_HOURS", 8),
		MinLeadMinutes:  config.GetEnvInt("MIN_SCHEDULE_LEAD_MINUTES", 15),
	}
}

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)

	cfg := loadConfig()

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"AIRTABLE_TOKEN":   cfg.AirtableToken,
		"AIRTABLE_BASE_ID": cfg.AirtableBaseID,
		"META_PAGE_ID":     cfg.MetaPageID,
		"META_PAGE_TOKEN":  cfg.MetaPageToken,
	}))

	store := airtable.NewClient(cfg.AirtableBaseID, cfg.AirtableToken)
	publisher := meta.NewClient(cfg.MetaPageID, cfg.MetaPageToken)

	pipe := pipeline.New(store, publisher, pipeline.Config{
		Timezone: time.FixedZone(fmt.Sprintf("UTC%+d", cfg.TZOffsetHours), cfg.TZOffsetHours*60*60),
		MinLead:  time.Duration(cfg.MinLeadMinutes) * time.Minute,
	}, logger)

	webhookMetrics := &handlers.WebhookMetrics{
		PublishRequests: metricsCollector.NewCounter(
			"publish_requests_total",
			"Publish webhook triggers by outcome",
			[]string{"status"},
		),
	}

	app := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)
	app.GET("/", handlers.Status(serviceName))

	webhookHandler := handlers.NewWebhookHandler(pipe, logger, webhookMetrics)

	publishRoute := app.Group("/api")
	if cfg.WebhookSecret != "" {
		publishRoute.Use(middleware.BearerAuthMiddleware(cfg.WebhookSecret))
	} else {
		logger.Warn("WEBHOOK_SECRET not set; inbound webhook is unauthenticated")
	}
	publishRoute.POST("/publish", webhookHandler.Handle)

	serverConfig := server.DefaultConfig(serviceName, cfg.Port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
