package poseService

import (
	"PoseCoach/internal/api/pose"
	"PoseCoach/internal/entity"
	contextPkg "PoseCoach/pkg/context"
	"PoseCoach/pkg/gemini"
	poseEngine "PoseCoach/pkg/pose"
	"PoseCoach/pkg/response"
	"PoseCoach/pkg/s3"
	"PoseCoach/pkg/utils"
	websocketPkg "PoseCoach/pkg/websocket"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// ResolvePoseName applies the default pose to an empty selector. A name that
// is not registered is reported, never replaced.
func (s *evaluationDomainImpl) ResolvePoseName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.settings.DefaultPoseName
	}

	if !s.evaluator.Registry().Has(name) {
		return "", &poseEngine.UnknownPoseError{Name: name}
	}

	return name, nil
}

func (s *evaluationDomainImpl) EvaluateImage(c context.Context, user entity.UserLoginData, req pose.EvaluateImageRequest, image []byte) (pose.EvaluationResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	poseName, err := s.ResolvePoseName(req.PoseName)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"pose_name":  req.PoseName,
		}).Warn("Unknown pose requested")
		return pose.EvaluationResponse{}, err
	}

	frame, err := s.utils.PrepareFrame(image, s.settings.InputSize)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to prepare frame")
		return pose.EvaluationResponse{}, response.Wrap(pose.ErrInvalidImage, err.Error())
	}

	estimation, err := s.estimate(c, frame)
	if err != nil {
		return pose.EvaluationResponse{}, err
	}

	tolerance := s.tolerance(req.Tolerance)
	result, err := s.evaluator.Evaluate(poseName, estimation.Keypoints,
		float64(estimation.Width), float64(estimation.Height), tolerance)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"pose_name":  poseName,
			"error":      err.Error(),
		}).Warn("Evaluation failed")
		return pose.EvaluationResponse{}, err
	}

	evaluation, err := s.newEvaluation(user, result, tolerance, estimation)
	if err != nil {
		return pose.EvaluationResponse{}, err
	}
	evaluation.Estimator = s.estimator.Name()

	if req.Archive {
		evaluation.ImageURL = s.archiveFrame(c, user.ID, evaluation.ID, frame)
	}

	if err := s.saveEvaluation(c, evaluation); err != nil {
		s.discardArchivedFrame(c, evaluation)
		return pose.EvaluationResponse{}, err
	}

	s.logFeedback(requestID, evaluation)

	return makeEvaluationResponse(evaluation), nil
}

func (s *evaluationDomainImpl) EvaluateKeypoints(c context.Context, user entity.UserLoginData, req pose.EvaluateKeypointsRequest) (pose.EvaluationResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	poseName := strings.TrimSpace(req.PoseName)
	if poseName == "" {
		poseName = s.settings.DefaultPoseName
	}

	keypoints := make([]poseEngine.Keypoint, 0, len(req.Keypoints))
	for _, kp := range req.Keypoints {
		part, err := poseEngine.ParseBodyPart(kp.BodyPart)
		if err != nil {
			return pose.EvaluationResponse{}, err
		}
		keypoints = append(keypoints, poseEngine.Keypoint{
			BodyPart: part,
			Point:    poseEngine.Point{X: kp.X, Y: kp.Y},
			Score:    kp.Score,
		})
	}

	tolerance := s.tolerance(req.Tolerance)
	result, err := s.evaluator.Evaluate(poseName, keypoints, req.Width, req.Height, tolerance)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"pose_name":  poseName,
			"error":      err.Error(),
		}).Warn("Evaluation failed")
		return pose.EvaluationResponse{}, err
	}

	evaluation, err := s.newEvaluation(user, result, tolerance, &entity.PoseEstimation{
		Width:  int(req.Width),
		Height: int(req.Height),
	})
	if err != nil {
		return pose.EvaluationResponse{}, err
	}

	if err := s.saveEvaluation(c, evaluation); err != nil {
		return pose.EvaluationResponse{}, err
	}

	s.logFeedback(requestID, evaluation)

	return makeEvaluationResponse(evaluation), nil
}

// EvaluateFrame scores one streamed frame. Streamed results are not stored.
func (s *evaluationDomainImpl) EvaluateFrame(c context.Context, user entity.UserLoginData, poseName string, frame []byte) (pose.EvaluationResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	poseName, err := s.ResolvePoseName(poseName)
	if err != nil {
		return pose.EvaluationResponse{}, err
	}

	prepared, err := s.utils.PrepareFrame(frame, s.settings.InputSize)
	if err != nil {
		return pose.EvaluationResponse{}, response.Wrap(pose.ErrInvalidImage, err.Error())
	}

	estimation, err := s.estimate(c, prepared)
	if err != nil {
		return pose.EvaluationResponse{}, err
	}

	tolerance := s.settings.Tolerance
	result, err := s.evaluator.Evaluate(poseName, estimation.Keypoints,
		float64(estimation.Width), float64(estimation.Height), tolerance)
	if err != nil {
		return pose.EvaluationResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
		"pose_name":  result.PoseName,
		"feedback":   result.Feedback,
	}).Debug("Frame evaluated")

	return pose.EvaluationResponse{
		PoseName:            result.PoseName,
		Keypoints:           result.RawKeypoints,
		NormalizedKeypoints: result.NormalizedKeypoints,
		Deviations:          result.Deviations,
		Feedback:            result.Feedback,
		Correct:             result.Correct(),
		Tolerance:           tolerance,
		Estimator:           s.estimator.Name(),
	}, nil
}

// estimate returns keypoints for a prepared frame, consulting the keypoint
// cache first. Cache entries are scoped to the estimator that produced them.
// Cache failures only degrade to a fresh estimation.
func (s *evaluationDomainImpl) estimate(c context.Context, frame *utils.Frame) (*entity.PoseEstimation, error) {
	requestID := contextPkg.GetRequestID(c)
	digest := s.estimator.Name() + ":" + frame.Digest()

	if s.cache != nil {
		cached, err := s.cache.GetKeypoints(c, digest)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Keypoint cache lookup failed")
		} else if cached != nil && len(cached.Keypoints) > 0 {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"digest":     digest,
			}).Debug("Keypoint cache hit")
			return cached, nil
		}
	}

	estimation, err := s.estimator.EstimatePose(c, frame.Data)
	if err != nil {
		fields := logrus.Fields{
			"request_id": requestID,
			"estimator":  s.estimator.Name(),
			"error":      err.Error(),
		}

		switch {
		case errors.Is(err, gemini.ErrNoKeypoints):
			s.log.WithFields(fields).Warn("Estimator found no person")
			return nil, pose.ErrNoPersonDetected
		case errors.Is(err, websocketPkg.ErrEstimatorRejected):
			s.log.WithFields(fields).Warn("Estimator rejected frame")
			return nil, response.Wrap(pose.ErrFrameRejected, err.Error())
		default:
			s.log.WithFields(fields).Error("Pose estimation failed")
			return nil, response.Wrap(pose.ErrEstimatorUnavailable, err.Error())
		}
	}

	if len(estimation.Keypoints) == 0 {
		return nil, pose.ErrNoPersonDetected
	}
	if estimation.Width <= 0 || estimation.Height <= 0 {
		estimation.Width = frame.Width
		estimation.Height = frame.Height
	}

	if s.cache != nil {
		if err := s.cache.SetKeypoints(c, digest, estimation); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to cache keypoints")
		}
	}

	return estimation, nil
}

func (s *evaluationDomainImpl) tolerance(requested *float64) float64 {
	if requested == nil {
		return s.settings.Tolerance
	}
	return *requested
}

func (s *evaluationDomainImpl) newEvaluation(user entity.UserLoginData, result *poseEngine.EvaluationResult, tolerance float64, estimation *entity.PoseEstimation) (entity.Evaluation, error) {
	now := time.Now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to generate evaluation id")
		return entity.Evaluation{}, err
	}

	return entity.Evaluation{
		ID:                  id,
		UserID:              user.ID,
		PoseName:            result.PoseName,
		Tolerance:           tolerance,
		ImageWidth:          estimation.Width,
		ImageHeight:         estimation.Height,
		Keypoints:           result.RawKeypoints,
		NormalizedKeypoints: result.NormalizedKeypoints,
		Deviations:          result.Deviations,
		Feedback:            result.Feedback,
		IsCorrect:           result.Correct(),
		CreatedAt:           now,
	}, nil
}

func (s *evaluationDomainImpl) archiveFrame(c context.Context, userID string, evaluationID string, frame *utils.Frame) string {
	if s.s3Client == nil {
		return ""
	}

	url, err := s.s3Client.UploadFrame(c, s3.FrameKey(userID, evaluationID), frame.Data, "image/jpeg")
	if err != nil {
		fields := logrus.Fields{
			"request_id":    contextPkg.GetRequestID(c),
			"evaluation_id": evaluationID,
			"error":         err.Error(),
		}
		if errors.Is(err, s3.ErrNotConfigured) {
			s.log.WithFields(fields).Debug("Frame archive disabled")
		} else {
			s.log.WithFields(fields).Warn("Failed to archive frame")
		}
		return ""
	}

	return url
}

// discardArchivedFrame removes a frame uploaded for an evaluation that was
// never stored.
func (s *evaluationDomainImpl) discardArchivedFrame(c context.Context, evaluation entity.Evaluation) {
	if evaluation.ImageURL == "" || s.s3Client == nil {
		return
	}

	if err := s.s3Client.DeleteFile(evaluation.ImageURL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":    contextPkg.GetRequestID(c),
			"evaluation_id": evaluation.ID,
			"error":         err.Error(),
		}).Warn("Failed to delete orphaned frame")
	}
}

func (s *evaluationDomainImpl) saveEvaluation(c context.Context, evaluation entity.Evaluation) error {
	requestID := contextPkg.GetRequestID(c)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}

	if err := repo.Evaluations.CreateEvaluation(c, evaluation); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":    requestID,
			"evaluation_id": evaluation.ID,
			"error":         err.Error(),
		}).Error("Failed to save evaluation")
		return err
	}

	return nil
}

func (s *evaluationDomainImpl) logFeedback(requestID string, evaluation entity.Evaluation) {
	s.log.WithFields(logrus.Fields{
		"request_id":    requestID,
		"evaluation_id": evaluation.ID,
		"pose_name":     evaluation.PoseName,
		"correct":       evaluation.IsCorrect,
		"feedback":      evaluation.Feedback,
	}).Info("Pose evaluated")
}
