package poseService

import (
	"PoseCoach/internal/api/pose"
	poseRepository "PoseCoach/internal/api/pose/repository"
	"PoseCoach/internal/entity"
	contextPkg "PoseCoach/pkg/context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

func (s *historyDomainImpl) ListEvaluations(c context.Context, userID string, query pose.HistoryQuery) (pose.HistoryResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 || query.Limit > maxHistoryLimit {
		query.Limit = defaultHistoryLimit
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return pose.HistoryResponse{}, err
	}

	filter := poseRepository.EvaluationFilter{
		UserID:   userID,
		PoseName: query.PoseName,
		Limit:    query.Limit,
		Offset:   (query.Page - 1) * query.Limit,
	}

	total, err := repo.Evaluations.CountEvaluationsByUserID(c, filter)
	if err != nil {
		return pose.HistoryResponse{}, err
	}

	evaluations, err := repo.Evaluations.ListEvaluationsByUserID(c, filter)
	if err != nil {
		return pose.HistoryResponse{}, err
	}

	res := pose.HistoryResponse{
		Evaluations: make([]pose.EvaluationSummary, 0, len(evaluations)),
		Page:        query.Page,
		Limit:       query.Limit,
		Total:       total,
	}
	for _, evaluation := range evaluations {
		res.Evaluations = append(res.Evaluations, pose.EvaluationSummary{
			ID:        evaluation.ID,
			PoseName:  evaluation.PoseName,
			Correct:   evaluation.IsCorrect,
			Feedback:  evaluation.Feedback,
			ImageURL:  evaluation.ImageURL,
			CreatedAt: evaluation.CreatedAt,
		})
	}

	return res, nil
}

func (s *historyDomainImpl) GetEvaluation(c context.Context, userID string, id string) (pose.EvaluationResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return pose.EvaluationResponse{}, err
	}

	evaluation, err := repo.Evaluations.GetEvaluationByID(c, userID, id)
	if err != nil {
		return pose.EvaluationResponse{}, err
	}

	if evaluation.ImageURL != "" && s.s3Client != nil {
		signed, err := s.s3Client.PresignUrl(evaluation.ImageURL)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id":    requestID,
				"evaluation_id": id,
				"error":         err.Error(),
			}).Warn("Failed to presign frame url")
		} else {
			evaluation.ImageURL = signed
		}
	}

	return makeEvaluationResponse(evaluation), nil
}

// DeleteEvaluation removes the row inside a transaction and only commits
// once the archived frame, if any, is gone.
func (s *historyDomainImpl) DeleteEvaluation(c context.Context, userID string, id string) error {
	requestID := contextPkg.GetRequestID(c)

	repo, err := s.repo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := repo.Rollback(); rbErr != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      rbErr.Error(),
				}).Error("Failed to rollback transaction")
			}
		}
	}()

	var evaluation entity.Evaluation
	evaluation, err = repo.Evaluations.GetEvaluationByID(c, userID, id)
	if err != nil {
		return err
	}

	if err = repo.Evaluations.DeleteEvaluation(c, userID, id); err != nil {
		return err
	}

	if evaluation.ImageURL != "" && s.s3Client != nil {
		if err = s.s3Client.DeleteFile(evaluation.ImageURL); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id":    requestID,
				"evaluation_id": id,
				"error":         err.Error(),
			}).Error("Failed to delete archived frame")
			return errors.Join(pose.ErrInternalServerError, err)
		}
	}

	if err = repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return err
	}

	return nil
}

func makeEvaluationResponse(evaluation entity.Evaluation) pose.EvaluationResponse {
	createdAt := evaluation.CreatedAt
	res := pose.EvaluationResponse{
		ID:                  evaluation.ID,
		PoseName:            evaluation.PoseName,
		Keypoints:           evaluation.Keypoints,
		NormalizedKeypoints: evaluation.NormalizedKeypoints,
		Deviations:          evaluation.Deviations,
		Feedback:            evaluation.Feedback,
		Correct:             evaluation.IsCorrect,
		Tolerance:           evaluation.Tolerance,
		Estimator:           evaluation.Estimator,
		ImageURL:            evaluation.ImageURL,
	}
	if !createdAt.IsZero() {
		res.CreatedAt = &createdAt
	}
	return res
}
