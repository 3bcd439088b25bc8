package poseHandler

import (
	"PoseCoach/internal/api/pose"
	"PoseCoach/internal/entity"
	contextPkg "PoseCoach/pkg/context"
	"PoseCoach/pkg/handlerUtil"
	jwtPkg "PoseCoach/pkg/jwt"
	"PoseCoach/pkg/log"
	"PoseCoach/pkg/response"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
	"time"
)

const (
	poseNameLocalsKey  = "pose_name"
	requestIDLocalsKey = "X-Request-ID"
	maxReadTimeout     = 60 * time.Second
	frameTimeout       = 10 * time.Second
)

// HandleWebSocketUpgrade rejects non-upgrade requests and unknown poses
// before the connection is hijacked, so both still get a JSON error.
func (h *PoseHandler) HandleWebSocketUpgrade(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	if !websocket.IsWebSocketUpgrade(ctx) {
		return errHandler.Handle(ctx, requestID, fiber.ErrUpgradeRequired, ctx.Path(), "websocket_upgrade")
	}

	poseName, err := h.poseService.Evaluation().ResolvePoseName(ctx.Query("pose_name"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "resolve_pose")
	}

	ctx.Locals(poseNameLocalsKey, poseName)
	return ctx.Next()
}

func (h *PoseHandler) handleWebSocket(c *websocket.Conn) {
	user, _ := c.Locals(jwtPkg.UserLocalsKey).(entity.UserLoginData)
	poseName, _ := c.Locals(poseNameLocalsKey).(string)
	requestID, _ := c.Locals(requestIDLocalsKey).(string)

	logger := h.log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
		"pose_name":  poseName,
	})

	logger.Info("Pose WebSocket client connected")
	defer logger.Info("Pose WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Pose WebSocket error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		var payload interface{}
		res, err := h.evaluateFrame(requestID, user, poseName, message)
		if err != nil {
			logger.Warnf("Error evaluating frame: %v", err)
			payload = frameError(err)
		} else {
			payload = res
		}

		if err := c.SetWriteDeadline(time.Now().Add(frameTimeout)); err != nil {
			logger.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(payload); err != nil {
			logger.Errorf("Error writing JSON response: %v", err)
			break
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			logger.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}

func (h *PoseHandler) evaluateFrame(requestID string, user entity.UserLoginData, poseName string, frame []byte) (pose.EvaluationResponse, error) {
	c, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), frameTimeout)
	defer cancel()

	return h.poseService.Evaluation().EvaluateFrame(c, user, poseName, frame)
}

func frameError(err error) pose.FrameError {
	if code, ok := handlerUtil.EngineErrorCode(err); ok {
		return pose.FrameError{Error: err.Error(), Code: code}
	}

	var respErr *response.Error
	if errors.As(err, &respErr) && respErr.Code < fiber.StatusInternalServerError {
		return pose.FrameError{Error: err.Error()}
	}

	return pose.FrameError{Error: "failed to evaluate frame"}
}
