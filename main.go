package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sundayekpa25-ai/projectsandtasks/handlers"
	"github.com/sundayekpa25-ai/projectsandtasks/logging"
	"github.com/sundayekpa25-ai/projectsandtasks/middleware"
	"github.com/sundayekpa25-ai/projectsandtasks/scheduler"
	"github.com/sundayekpa25-ai/projectsandtasks/services"
	"github.com/sundayekpa25-ai/projectsandtasks/storage"
	"github.com/sundayekpa25-ai/projectsandtasks/ws"
)

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting projects backend...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoURI == "" || mongoDBName == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: MONGO_URI and MONGO_DB_NAME must be set in the environment variables.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	usersCollection := db.Collection("users")
	projectsCollection := db.Collection("projects")
	tasksCollection := db.Collection("tasks")
	notificationsCollection := db.Collection("notifications")

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	fileStore, err := storage.NewFileStore(uploadsDir)
	if err != nil {
		logging.Logger.Fatalf("Event ID: STORAGE_INIT_FAILED, Description: %v", err)
	}

	notificationService := services.NewNotificationService(notificationsCollection, usersCollection)
	userService := services.NewUserService(usersCollection, notificationService)
	projectService := services.NewProjectService(projectsCollection, tasksCollection, usersCollection, notificationService, fileStore)
	taskService := services.NewTaskService(tasksCollection, projectsCollection, notificationService, projectService)

	seedEmail := os.Getenv("ADMIN_EMAIL")
	seedPassword := os.Getenv("ADMIN_PASSWORD")
	if seedEmail != "" && seedPassword != "" {
		if err := userService.EnsureSeedAdmin(ctx, seedEmail, seedPassword); err != nil {
			logging.Logger.Warnf("Event ID: ADMIN_SEED_FAILED, Description: %v", err)
		}
	}

	authHandler := handlers.NewAuthHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService, fileStore)
	taskHandler := handlers.NewTaskHandler(taskService, fileStore)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	hub := ws.NewHub()
	wsHandler := ws.NewHandler(hub, userService, projectService)

	r := mux.NewRouter()

	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)

	authenticated := r.PathPrefix("/api").Subrouter()
	authenticated.Use(middleware.JWTAuthMiddleware(userService))

	authenticated.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	authenticated.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)

	authenticated.HandleFunc("/projects", projectHandler.ListProjects).Methods(http.MethodGet)
	authenticated.HandleFunc("/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	authenticated.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods(http.MethodGet)
	authenticated.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods(http.MethodPut)
	authenticated.HandleFunc("/projects/{id}/team-members", projectHandler.AddTeamMember).Methods(http.MethodPost)
	authenticated.HandleFunc("/projects/{id}/team-members/{userId}", projectHandler.RemoveTeamMember).Methods(http.MethodDelete)
	authenticated.HandleFunc("/projects/{id}/client", projectHandler.RemoveClient).Methods(http.MethodDelete)

	authenticated.HandleFunc("/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	authenticated.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	authenticated.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	authenticated.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	authenticated.HandleFunc("/tasks/{id}/submit", taskHandler.SubmitWork).Methods(http.MethodPost)
	authenticated.HandleFunc("/tasks/{id}/review", taskHandler.ReviewTask).Methods(http.MethodPost)

	authenticated.HandleFunc("/notifications", notificationHandler.ListNotifications).Methods(http.MethodGet)
	authenticated.HandleFunc("/notifications/read-all", notificationHandler.MarkAllRead).Methods(http.MethodPut)
	authenticated.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods(http.MethodPut)

	r.HandleFunc("/ws/projects/{projectId}", wsHandler.ServeProjectChat).Methods(http.MethodGet)

	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	corsRouter := middleware.EnableCORS(r)

	sched := scheduler.New(projectService, time.Hour)
	sched.Start(context.Background())
	defer sched.Stop()

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
