package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/justsurfingit/ai-job-hunter/internal/database"
	"github.com/justsurfingit/ai-job-hunter/internal/handlers"
	"github.com/justsurfingit/ai-job-hunter/internal/scheduler"
	"github.com/justsurfingit/ai-job-hunter/internal/scraper"
	"github.com/justsurfingit/ai-job-hunter/internal/services"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// 2. Database Connection
	db := database.Connect()
	store := database.NewStore(db)

	// 3. Initialize Core Services (Dependencies)
	llmService := services.NewLLMService()
	jobService := services.NewJobService(store)

	// 4. Initialize Scraper Pipeline
	source := scraper.NewClient104()
	pipeline := scraper.NewPipeline(source, store)
	if keyword := os.Getenv("SCRAPE_KEYWORD"); keyword != "" {
		pipeline.Keyword = keyword
	}

	// 5. Daily Scrape at 02:00: full run, then description backfill
	sched := scheduler.New(2, 0, func(ctx context.Context) {
		pipeline.Run(ctx)
		pipeline.Backfill(ctx)
	})
	sched.Start()
	defer sched.Stop()

	// 6. Initialize Handlers
	jobHandler := handlers.NewJobHandler(jobService, store, llmService)

	// 7. Setup Router & CORS
	r := gin.Default()
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true // For development only
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// 8. Define Routes
	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		api.GET("/jobs", jobHandler.ListJobs)
		api.POST("/jobs/:id/status", jobHandler.UpdateStatus)
		api.GET("/last-update", jobHandler.LastUpdate)
		api.POST("/jobs/:id/match", jobHandler.MatchResume)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Server starting on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
