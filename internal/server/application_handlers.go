package server

import (
	"errors"
	"time"

	"homelet/internal/middleware"
	"homelet/internal/models"
	"homelet/internal/observability"
	"homelet/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// recordWorkflowAction tracks a lifecycle action outcome in Prometheus and
// on the active trace span.
func recordWorkflowAction(c *fiber.Ctx, action string, err error) {
	outcome := "ok"
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		outcome = appErr.Code
	} else if err != nil {
		outcome = models.CodeInternal
	}
	middleware.WorkflowActions.WithLabelValues(action, outcome).Inc()
	if err != nil {
		observability.RecordErrorInContext(c.UserContext(), err)
	}
}

// SubmitApplication handles POST /api/applications
func (s *Server) SubmitApplication(c *fiber.Ctx) error {
	caller := s.caller(c)

	var req struct {
		PropertyID      uint       `json:"property_id"`
		AppointmentTime *time.Time `json:"appointment_time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PropertyID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A property_id is required"))
	}

	app, err := s.applicationService.Submit(c.Context(), caller, req.PropertyID, req.AppointmentTime)
	recordWorkflowAction(c, "submit", err)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// GetMyApplications handles GET /api/applications. Tenants see the
// applications they submitted, landlords and agents the ones they received.
func (s *Server) GetMyApplications(c *fiber.Ctx) error {
	apps, err := s.applicationService.ListForUser(c.Context(), s.caller(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"applications": apps})
}

// GetApplication handles GET /api/applications/:id
func (s *Server) GetApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, svcErr := s.applicationService.Get(c.Context(), id, s.caller(c))
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(app)
}

// RespondToApplication handles POST /api/applications/:id/respond
func (s *Server) RespondToApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Decision string `json:"decision"`
		Feedback string `json:"feedback"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var decision workflow.Decision
	switch workflow.Decision(req.Decision) {
	case workflow.DecisionAccept, workflow.DecisionReject:
		decision = workflow.Decision(req.Decision)
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Decision must be accept or reject"))
	}

	ctx, span := observability.TraceWorkflowAction(c.UserContext(), "respond", id)
	defer span.End()
	c.SetUserContext(ctx)

	app, svcErr := s.applicationService.Respond(c.Context(), id, s.caller(c), decision, req.Feedback)
	recordWorkflowAction(c, "respond", svcErr)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(app)
}

// UploadContract handles POST /api/applications/:id/contract. The contract
// PDF arrives as the multipart "file" field.
func (s *Server) UploadContract(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	content, err := s.readUpload(c, "file")
	if err != nil {
		return nil
	}

	ctx, span := observability.TraceDocumentStore(c.UserContext(), "contract", id)
	defer span.End()
	c.SetUserContext(ctx)

	app, svcErr := s.applicationService.UploadContract(c.Context(), id, s.caller(c), content)
	recordWorkflowAction(c, "upload_contract", svcErr)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	middleware.DocumentUploads.WithLabelValues("contract").Inc()
	return c.JSON(app)
}

// UploadSignature handles POST /api/applications/:id/signature. The signed
// contract PDF arrives as the multipart "file" field; the optional "signer"
// field names the signing side and defaults to the caller's own role.
func (s *Server) UploadSignature(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	content, err := s.readUpload(c, "file")
	if err != nil {
		return nil
	}

	caller := s.caller(c)
	signer := caller.Role
	if v := c.FormValue("signer"); v != "" {
		signer = models.Role(v)
	}

	ctx, span := observability.TraceDocumentStore(c.UserContext(), "signature_"+string(signer), id)
	defer span.End()
	c.SetUserContext(ctx)

	app, svcErr := s.applicationService.UploadSignature(c.Context(), id, caller, signer, content)
	recordWorkflowAction(c, "upload_signature", svcErr)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	middleware.DocumentUploads.WithLabelValues("signature_" + string(signer)).Inc()
	return c.JSON(app)
}

// PayDeposit handles POST /api/applications/:id/payment
func (s *Server) PayDeposit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, span := observability.TraceWorkflowAction(c.UserContext(), "payment", id)
	defer span.End()
	c.SetUserContext(ctx)

	app, svcErr := s.applicationService.Pay(c.Context(), id, s.caller(c))
	recordWorkflowAction(c, "payment", svcErr)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(app)
}

// FinalizeApplication handles POST /api/applications/:id/finalize
func (s *Server) FinalizeApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, span := observability.TraceWorkflowAction(c.UserContext(), "finalize", id)
	defer span.End()
	c.SetUserContext(ctx)

	app, svcErr := s.applicationService.Finalize(c.Context(), id, s.caller(c))
	recordWorkflowAction(c, "finalize", svcErr)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(app)
}

// GetApplicationTimeline handles GET /api/applications/:id/timeline
func (s *Server) GetApplicationTimeline(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	events, svcErr := s.applicationService.Timeline(c.Context(), id, s.caller(c))
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(fiber.Map{"timeline": events})
}

// GetApplicationSurface handles GET /api/applications/:id/surface
func (s *Server) GetApplicationSurface(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	surface, svcErr := s.applicationService.Surface(c.Context(), id, s.caller(c))
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(surface)
}
