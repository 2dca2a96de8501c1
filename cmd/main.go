package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/motorent/backoffice/internal/auth"
	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/expense"
	"github.com/motorent/backoffice/internal/handlers"
	"github.com/motorent/backoffice/internal/maintenance"
	"github.com/motorent/backoffice/internal/middleware"
	"github.com/motorent/backoffice/internal/models"
	"github.com/motorent/backoffice/internal/notify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("no .env file loaded")
	}
	configureLogging()

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	database := db.Database(client)
	log.WithField("database", database.Name()).Info("connected to MongoDB")

	schedules := &db.MongoScheduleCollection{Collection: database.Collection("schedules")}
	records := &db.MongoRecordCollection{Collection: database.Collection("maintenance_records")}
	vehicles := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	notifications := &db.MongoNotificationCollection{Collection: database.Collection("notifications")}
	users := &db.MongoUserCollection{Collection: database.Collection("users")}
	outbox := &expense.MongoOutbox{Collection: database.Collection("expense_outbox")}
	ledger := &expense.MongoLedger{Collection: database.Collection("expenses")}

	sink := &notify.Service{Notifications: notifications}
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		publisher, err := notify.NewMQTTPublisher(broker, "backoffice-api")
		if err != nil {
			log.WithError(err).Warn("MQTT broker unavailable, notifications will only be logged")
		} else {
			defer publisher.Close()
			sink.Publisher = publisher
		}
	}

	classifier := &maintenance.Classifier{}
	dueService := &maintenance.DueService{Classifier: classifier, Schedules: schedules, Vehicles: vehicles}
	controller := &maintenance.Controller{Records: records, Schedules: schedules, Vehicles: vehicles, Expenses: outbox}
	scheduleService := &maintenance.ScheduleService{Schedules: schedules, Vehicles: vehicles}
	reporter := &maintenance.Reporter{Records: records, Vehicles: vehicles}
	dispatcher := &expense.Dispatcher{Outbox: outbox, Ledger: ledger}

	worker := &maintenance.Worker{
		Due:           dueService,
		Records:       records,
		Users:         users,
		Controller:    controller,
		Sink:          sink,
		Dispatcher:    dispatcher,
		SystemActorID: os.Getenv("SYSTEM_ACTOR_ID"),
		Interval:      sweepInterval(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go worker.Run(ctx)

	authService := auth.NewService()
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService, users)
	maintenanceHandler := &handlers.MaintenanceHandler{
		Schedules:  scheduleService,
		Due:        dueService,
		Controller: controller,
		Reporter:   reporter,
	}
	vehicleHandler := &handlers.VehicleHandler{Vehicles: vehicles}

	router := mux.NewRouter()
	router.Use(middleware.RequestLogging)
	router.Use(authMiddleware.Authenticate)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	operational := authMiddleware.RequireRole(models.RoleManager, models.RoleMechanic)

	api.Handle("/maintenance/schedules", http.HandlerFunc(maintenanceHandler.ListSchedules)).Methods(http.MethodGet)
	api.Handle("/maintenance/schedules", operational(http.HandlerFunc(maintenanceHandler.CreateSchedule))).Methods(http.MethodPost)
	api.Handle("/maintenance/schedules/{id}", operational(http.HandlerFunc(maintenanceHandler.DeactivateSchedule))).Methods(http.MethodDelete)
	api.Handle("/maintenance/due", http.HandlerFunc(maintenanceHandler.ClassifyDue)).Methods(http.MethodGet)
	api.Handle("/maintenance/schedules/{id}/records", operational(http.HandlerFunc(maintenanceHandler.CreateRecordFromSchedule))).Methods(http.MethodPost)
	api.Handle("/maintenance/records", operational(http.HandlerFunc(maintenanceHandler.CreateManualRecord))).Methods(http.MethodPost)
	api.Handle("/maintenance/records/{id}/start", operational(http.HandlerFunc(maintenanceHandler.StartRecord))).Methods(http.MethodPost)
	api.Handle("/maintenance/records/{id}/complete", operational(http.HandlerFunc(maintenanceHandler.CompleteRecord))).Methods(http.MethodPost)
	api.Handle("/reports/maintenance/cost", http.HandlerFunc(maintenanceHandler.CostReport)).Methods(http.MethodGet)
	api.Handle("/reports/maintenance/downtime", http.HandlerFunc(maintenanceHandler.DowntimeReport)).Methods(http.MethodGet)
	api.Handle("/vehicles", http.HandlerFunc(vehicleHandler.ListVehicles)).Methods(http.MethodGet)
	api.Handle("/vehicles", operational(http.HandlerFunc(vehicleHandler.CreateVehicle))).Methods(http.MethodPost)
	api.Handle("/vehicles/{id}/odometer", http.HandlerFunc(vehicleHandler.UpdateOdometer)).Methods(http.MethodPost)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	log.WithField("port", port).Info("HTTP server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server exited")
	}
}

func configureLogging() {
	if os.Getenv("LOG_FORMAT") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func sweepInterval() time.Duration {
	raw := os.Getenv("SWEEP_INTERVAL")
	if raw == "" {
		return maintenance.DefaultSweepInterval
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		log.WithField("value", raw).Warn("invalid SWEEP_INTERVAL, using default")
		return maintenance.DefaultSweepInterval
	}
	return parsed
}
