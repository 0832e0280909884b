package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/learnhubhq/learnhub/app/controllers"
	"github.com/learnhubhq/learnhub/app/repository"
	"github.com/learnhubhq/learnhub/internal/pkg/billing"
	"github.com/learnhubhq/learnhub/internal/pkg/cache"
	"github.com/learnhubhq/learnhub/internal/pkg/database"
	"github.com/learnhubhq/learnhub/internal/pkg/env"
	"github.com/learnhubhq/learnhub/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "8000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repoFactory := repository.NewFactory(db)
	repository.SetGlobalFactory(repoFactory)

	// All billing collaborators are constructed once here and injected.
	billingCfg := billing.ConfigFromEnv()
	stripeClient := billing.NewStripeClient(billingCfg)
	billingSvc := billing.NewServiceFromDB(db, stripeClient, cache.NewPlanStore(), billingCfg)
	verifier := billing.NewVerifier(billingCfg)
	dispatcher := billing.NewDispatcher(billingSvc, stripeClient)

	subscriptionCtl := controllers.NewSubscriptionController(repoFactory.GetUserRepository(), billingSvc)
	webhookCtl := controllers.NewWebhookController(verifier, dispatcher, billingSvc)

	app := fiber.New(fiber.Config{
		AppName: "LearnHub",
	})

	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app, router.NewHttpRouter(), router.NewApiRouter(subscriptionCtl, webhookCtl))

	return app
}
