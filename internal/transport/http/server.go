// Package http wires the Fiber application: route registration,
// middleware, and the request handlers for every endpoint in spec §6.
// Grounded on haowjy-meridian/cmd/server/main.go's fiber.New +
// app.Group("/api") wiring.
package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"veritas/internal/auth"
	"veritas/internal/chatstore"
	"veritas/internal/config"
	"veritas/internal/debate"
	debconfig "veritas/internal/debate/config"
	"veritas/internal/llm"
	"veritas/internal/memory"
	"veritas/internal/ocr"
	"veritas/internal/stt"
	"veritas/internal/transport/http/middleware"
)

// Deps bundles every collaborator the handlers depend on.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Gateway     *llm.Gateway
	Manager     *memory.Manager
	Gatherer    debate.Gatherer
	RolePrompts *debconfig.RolePrompts
	Registry    *debate.Registry
	Orchestrator *debate.Orchestrator
	Chats       chatstore.Store
	OCR         ocr.Engine
	STT         stt.Engine
	// SessionVerifier is nil unless JWKS_URL is configured; when set, it
	// enables the optional bearer-token session-identity upgrade path
	// alongside the primary X-API-Key scheme (spec §6, ambient auth).
	SessionVerifier auth.Verifier
}

// NewServer builds the Fiber app with every route registered.
func NewServer(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(d.Logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key, Authorization",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))
	app.Use(middleware.SessionAuth(d.SessionVerifier))

	app.Get("/health", healthHandler)

	h := &Handlers{deps: d}

	protected := app.Group("", middleware.APIKey(d.Config.AppAPIKey))
	protected.Post("/analyze_topic", h.AnalyzeTopic)
	protected.Post("/rag/debate", h.RAGDebate)
	protected.Post("/v2/analyze", h.V2Analyze)
	protected.Post("/ocr_upload", h.OCRUpload)
	protected.Post("/transcribe", h.Transcribe)
	protected.Post("/text_action", h.TextAction)

	api := app.Group("/api")
	api.Get("/chats", h.ListChats)
	api.Post("/chats", h.CreateChat)
	api.Delete("/chats/:id", h.DeleteChat)
	api.Get("/chats/:id/messages", h.ListMessages)
	api.Post("/chats/:id/messages", h.AppendMessage)
	api.Post("/chats/clear", h.ClearChats)
	api.Get("/game/headlines", h.GameHeadlines)

	mem := app.Group("/memory", middleware.APIKey(d.Config.AppAPIKey))
	mem.Post("/role/reversal", h.MemoryRoleReversal)
	mem.Post("/role/history", h.MemoryRoleHistory)
	mem.Post("/consistency/check", h.MemoryConsistencyCheck)

	return app
}

func healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
