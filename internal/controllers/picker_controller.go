package controllers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/stackpick/stackpick/pkg/stackai"
)

// PickerController proxies file-picker requests to the upstream indexing API.
// The service-account credentials live in the gateway; browser callers never
// see a token.
type PickerController struct {
	client   stackai.ClientInterface
	provider string
}

type PickerControllerDependencies struct {
	Client             stackai.ClientInterface
	ConnectionProvider string
}

func NewPickerController(deps PickerControllerDependencies) *PickerController {
	return &PickerController{
		client:   deps.Client,
		provider: deps.ConnectionProvider,
	}
}

// renderError is the single failure surface of the proxy. Every failing
// handler answers {"error": message} with HTTP 500 regardless of cause, so
// the front end has exactly one error shape to parse.
func renderError(c fiber.Ctx, err error) error {
	log.Error().
		Err(err).
		Str("path", c.Path()).
		Str("method", c.Method()).
		Msg("Proxy request failed")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// ListConnections returns the available connections for the configured provider.
func (pc *PickerController) ListConnections(c fiber.Ctx) error {
	connections, err := pc.client.ListConnections(c.RequestCtx(), pc.provider, 1)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(connections)
}

// ListConnectionChildren lists the raw children of a connection folder. The
// optional resource_id query parameter selects the folder; absent means root.
func (pc *PickerController) ListConnectionChildren(c fiber.Ctx) error {
	connectionID := c.Params("connectionID")
	resourceID := c.Query("resource_id")

	resources, err := pc.client.ListChildren(c.RequestCtx(), connectionID, resourceID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(resources)
}

// ListKnowledgeBases lists the knowledge bases attached to a connection.
func (pc *PickerController) ListKnowledgeBases(c fiber.Ctx) error {
	connectionID := c.Query("connection_id")
	if connectionID == "" {
		return renderError(c, stackai.NewValidationError("connection_id is required"))
	}

	knowledgeBases, err := pc.client.ListKnowledgeBases(c.RequestCtx(), connectionID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(knowledgeBases)
}

type createKnowledgeBaseRequest struct {
	ConnectionID        string                  `json:"connection_id"`
	ConnectionSourceIDs []string                `json:"connection_source_ids"`
	Name                string                  `json:"name"`
	Description         string                  `json:"description"`
	IndexingParams      *stackai.IndexingParams `json:"indexing_params"`
}

// CreateKnowledgeBase creates a knowledge base over the selected resources.
func (pc *PickerController) CreateKnowledgeBase(c fiber.Ctx) error {
	var req createKnowledgeBaseRequest

	if err := c.Bind().Body(&req); err != nil {
		return renderError(c, stackai.NewValidationError("invalid request body"))
	}

	kb, err := pc.client.CreateKnowledgeBase(c.RequestCtx(), stackai.CreateKnowledgeBaseParams{
		ConnectionID:        req.ConnectionID,
		ConnectionSourceIDs: req.ConnectionSourceIDs,
		Name:                req.Name,
		Description:         req.Description,
		IndexingParams:      req.IndexingParams,
	})
	if err != nil {
		return renderError(c, err)
	}

	log.Info().
		Str("knowledge_base_id", kb.KnowledgeBaseID).
		Int("source_count", len(req.ConnectionSourceIDs)).
		Msg("Knowledge base created")

	return c.JSON(kb)
}

// ListKnowledgeBaseChildren lists the indexed resources of a knowledge base
// under resource_path (defaults to "/").
func (pc *PickerController) ListKnowledgeBaseChildren(c fiber.Ctx) error {
	knowledgeBaseID := c.Params("knowledgeBaseID")
	resourcePath := c.Query("resource_path", "/")

	resources, err := pc.client.ListIndexedResources(c.RequestCtx(), knowledgeBaseID, resourcePath)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(resources)
}

type triggerSyncRequest struct {
	KnowledgeBaseID string `json:"kb_id"`
}

// TriggerSync starts indexing for a knowledge base.
func (pc *PickerController) TriggerSync(c fiber.Ctx) error {
	var req triggerSyncRequest

	if err := c.Bind().Body(&req); err != nil {
		return renderError(c, stackai.NewValidationError("invalid request body"))
	}

	accepted, err := pc.client.TriggerSync(c.RequestCtx(), req.KnowledgeBaseID)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"accepted": accepted})
}

// DeleteResource removes a single resource from a knowledge base index. The
// underlying file at the connection is untouched.
func (pc *PickerController) DeleteResource(c fiber.Ctx) error {
	knowledgeBaseID := c.Query("kb_id")
	resourcePath := c.Query("resource_path")

	if err := pc.client.DeleteResource(c.RequestCtx(), knowledgeBaseID, resourcePath); err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": true, "resource_path": resourcePath})
}
