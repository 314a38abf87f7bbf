package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pauline-si/ai-eng-tech-eval/adapters/catalog"
	"github.com/pauline-si/ai-eng-tech-eval/adapters/hasher"
	httpadapter "github.com/pauline-si/ai-eng-tech-eval/adapters/http"
	"github.com/pauline-si/ai-eng-tech-eval/adapters/llm"
	"github.com/pauline-si/ai-eng-tech-eval/adapters/message_broker"
	"github.com/pauline-si/ai-eng-tech-eval/adapters/speech"
	"github.com/pauline-si/ai-eng-tech-eval/adapters/tts"
	"github.com/pauline-si/ai-eng-tech-eval/adapters/websocket"
	"github.com/pauline-si/ai-eng-tech-eval/config"
	"github.com/pauline-si/ai-eng-tech-eval/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx := context.Background()

	geminiLlm, err := llm.NewGeminiClient(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("creating llm client: %v", err)
	}

	shopify := catalog.NewShopify(catalog.Config{
		ShopURL:     cfg.ShopifyShopURL,
		AccessToken: cfg.ShopifyAccessToken,
		APIVersion:  cfg.ShopifyAPIVersion,
		Timeout:     cfg.UpstreamTimeout,
	})

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	svc, err := usecase.NewChatService(geminiLlm, shopify, broker, usecase.Options{
		ToolDepthLimit:  cfg.ToolDepthLimit,
		HistoryLimit:    cfg.HistoryLimit,
		UpstreamTimeout: cfg.UpstreamTimeout,
	})
	if err != nil {
		log.Fatalf("creating chat service: %v", err)
	}

	googleTTS, err := tts.NewGoogleTTS(ctx, hasher.New(), cfg.SpeechLanguage)
	if err != nil {
		log.Fatalf("creating tts client: %v", err)
	}
	googleSpeech, err := speech.NewGoogleSpeech(ctx, cfg.SpeechLanguage)
	if err != nil {
		log.Fatalf("creating speech client: %v", err)
	}

	server := websocket.NewServer(broker)
	go server.RunWebsocketHub()

	chatHandler := httpadapter.NewChatHandler(svc, googleTTS, googleSpeech, broker, cfg.SessionSecret)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit("10MB"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-Session-ID",
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	e.GET("/api/v1/health", chatHandler.HealthCheck)
	e.POST("/api/v1/session", chatHandler.CreateSession)

	api := e.Group("/api", chatHandler.SessionMiddleware)
	api.POST("/chat", chatHandler.Chat)

	audio := api.Group("/chat", chatHandler.RateLimitMiddleware)
	audio.POST("/audio", chatHandler.Audio)
	audio.POST("/transcribe", chatHandler.Transcribe)

	ws := e.Group("/ws", chatHandler.RequireSession)
	ws.GET("", server.Handler)

	log.Printf("Starting server on %s", cfg.Addr)
	log.Fatal(e.Start(cfg.Addr))
}
