package poseHandler

import (
	"PoseCoach/internal/api/pose"
	contextPkg "PoseCoach/pkg/context"
	"PoseCoach/pkg/handlerUtil"
	jwtPkg "PoseCoach/pkg/jwt"
	"PoseCoach/pkg/log"
	"PoseCoach/pkg/response"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"time"
)

func (h *PoseHandler) HandleListTemplates(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.poseService.Templates())
}

func (h *PoseHandler) HandleEvaluateImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req pose.EvaluateImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}
	if req.PoseName == "" {
		req.PoseName = ctx.Query("pose_name")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	image, err := h.readImage(ctx, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_image")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"pose_name":  req.PoseName,
		"image_size": len(image),
	}).Debug("Processing pose evaluation request")

	res, err := h.poseService.Evaluation().EvaluateImage(c, user, req, image)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "evaluate_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

// readImage takes the multipart "image" file when present and falls back to
// the base64 field.
func (h *PoseHandler) readImage(ctx *fiber.Ctx, req pose.EvaluateImageRequest) ([]byte, error) {
	file, err := ctx.FormFile("image")
	if err == nil {
		if err := h.utils.ValidateImageFile(file); err != nil {
			return nil, response.Wrap(pose.ErrInvalidImage, err.Error())
		}

		fileContent, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer fileContent.Close()

		data, err := h.utils.ReadFile(fileContent)
		if err != nil {
			return nil, response.Wrap(pose.ErrInvalidImage, err.Error())
		}
		return data, nil
	}

	if req.ImageBase64 == "" {
		return nil, pose.ErrImageRequired
	}

	data, err := h.utils.DecodeBase64Image(req.ImageBase64)
	if err != nil {
		return nil, response.Wrap(pose.ErrInvalidImage, err.Error())
	}
	return data, nil
}

func (h *PoseHandler) HandleEvaluateKeypoints(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req pose.EvaluateKeypointsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.poseService.Evaluation().EvaluateKeypoints(c, user, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "evaluate_keypoints")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
