package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"shopassist/internal/adapter/api"
	"shopassist/internal/adapter/api/handler"
	apimiddleware "shopassist/internal/adapter/api/middleware"
	"shopassist/internal/adapter/api/router"
	"shopassist/internal/adapter/repository"
	"shopassist/internal/infrastructure/assist"
	"shopassist/internal/infrastructure/catalog"
	"shopassist/internal/infrastructure/websocket"
	"shopassist/internal/usecase"
	"shopassist/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	messageLog := repository.NewFirestoreMessageLog(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	settingsRepo := repository.NewFirestoreSettingsRepository(firestoreClient)

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, time.Duration(cfg.CatalogTimeout)*time.Second)
	assistClient := assist.NewClient(cfg.AssistBaseURL, cfg.AssistAPIKey, time.Duration(cfg.AssistTimeout)*time.Second)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	resolverUseCase := usecase.NewResolverUseCase(catalogClient)
	streamUseCase := usecase.NewStreamUseCase(messageLog, resolverUseCase, wsManager)
	composerUseCase := usecase.NewComposerUseCase(messageLog, conversationRepo, streamUseCase, assistClient)
	inboxUseCase := usecase.NewInboxUseCase(conversationRepo, streamUseCase)
	settingsUseCase := usecase.NewSettingsUseCase(settingsRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	inboxHandler := handler.NewInboxHandler(inboxUseCase)
	conversationHandler := handler.NewConversationHandler(streamUseCase, composerUseCase)
	settingsHandler := handler.NewSettingsHandler(settingsUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware)

	router.Setup(e)
	router.SetupInboxRouter(e, inboxHandler, conversationHandler, authMiddleware)
	router.SetupSettingsRouter(e, settingsHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
