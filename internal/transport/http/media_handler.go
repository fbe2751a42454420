package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	dllm "veritas/internal/domain/services/llm"
)

// OCRUpload handles POST /ocr_upload: accepts an image, returns the
// recovered text plus an optional analysis pass over it (spec §6). OCR
// itself is an external collaborator (internal/ocr.Engine).
func (h *Handlers) OCRUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}
	if h.deps.OCR == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "OCR engine not configured")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not open uploaded image")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded image")
	}

	result, err := h.deps.OCR.Extract(c.Context(), data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "ocr failed: "+err.Error())
	}

	resp := fiber.Map{"success": true, "text": result.Text, "confidence": result.Confidence}

	if c.Query("analyze") == "true" && result.Text != "" {
		completion, err := h.deps.Gateway.Call(c.Context(), dllm.GenerateRequest{
			Messages: []dllm.Message{{Role: "user", Content: "Analyze this OCR-extracted text for factual claims:\n\n" + result.Text}},
			Params:   dllm.Params{MaxTokens: 512},
		})
		if err == nil {
			resp["analysis"] = completion.Text
		}
	}

	return c.JSON(resp)
}

// Transcribe handles POST /transcribe: accepts an audio blob, returns
// its transcript (spec §6). STT is an external collaborator
// (internal/stt.Engine); the X-API-Key gate already ran in middleware,
// satisfying the endpoint's documented 401-if-missing-key behavior.
func (h *Handlers) Transcribe(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "audio file is required")
	}
	if h.deps.STT == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "STT engine not configured")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not open uploaded audio")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read uploaded audio")
	}

	transcript, err := h.deps.STT.Transcribe(c.Context(), data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "transcription failed: "+err.Error())
	}

	return c.JSON(fiber.Map{"success": true, "transcript": transcript})
}

type textActionRequest struct {
	Text   string `json:"text"`
	Action string `json:"action"` // "summarize" | "explain"
}

// TextAction handles POST /text_action: summarize or explain a selected
// text fragment (spec §6).
func (h *Handlers) TextAction(c *fiber.Ctx) error {
	var req textActionRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	instruction := "Summarize the following text concisely."
	if req.Action == "explain" {
		instruction = "Explain the following text in plain language."
	}

	result, err := h.deps.Gateway.Call(c.Context(), dllm.GenerateRequest{
		Messages: []dllm.Message{{Role: "user", Content: instruction + "\n\n" + req.Text}},
		Params:   dllm.Params{MaxTokens: 512},
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "text action failed: "+err.Error())
	}

	return c.JSON(fiber.Map{"success": true, "result": result.Text, "provider": result.ProviderID})
}
