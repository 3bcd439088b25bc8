package poseService

import (
	"PoseCoach/internal/api/pose"
	poseRepository "PoseCoach/internal/api/pose/repository"
	"PoseCoach/internal/entity"
	poseEngine "PoseCoach/pkg/pose"
	"PoseCoach/pkg/redis"
	"PoseCoach/pkg/s3"
	"PoseCoach/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// PoseEstimator turns an encoded frame into pixel-space keypoints. Both the
// MoveNet websocket client and the Gemini client satisfy it.
type PoseEstimator interface {
	EstimatePose(ctx context.Context, frame []byte) (*entity.PoseEstimation, error)
	Name() string
}

type PoseService interface {
	Evaluation() EvaluationDomain
	History() HistoryDomain
	Templates() pose.TemplateListResponse
}

type EvaluationDomain interface {
	EvaluateImage(c context.Context, user entity.UserLoginData, req pose.EvaluateImageRequest, image []byte) (pose.EvaluationResponse, error)
	EvaluateKeypoints(c context.Context, user entity.UserLoginData, req pose.EvaluateKeypointsRequest) (pose.EvaluationResponse, error)
	EvaluateFrame(c context.Context, user entity.UserLoginData, poseName string, frame []byte) (pose.EvaluationResponse, error)
	ResolvePoseName(name string) (string, error)
}

type HistoryDomain interface {
	ListEvaluations(c context.Context, userID string, query pose.HistoryQuery) (pose.HistoryResponse, error)
	GetEvaluation(c context.Context, userID string, id string) (pose.EvaluationResponse, error)
	DeleteEvaluation(c context.Context, userID string, id string) error
}

type poseService struct {
	evaluator *poseEngine.Evaluator

	evaluationDomain EvaluationDomain
	historyDomain    HistoryDomain
}

func (s *poseService) Evaluation() EvaluationDomain {
	return s.evaluationDomain
}

func (s *poseService) History() HistoryDomain {
	return s.historyDomain
}

type evaluationDomainImpl struct {
	log       *logrus.Logger
	repo      poseRepository.Repository
	evaluator *poseEngine.Evaluator
	estimator PoseEstimator
	cache     redis.IRedis
	s3Client  s3.ItfS3
	utils     utils.IUtils
	settings  pose.Settings
}

type historyDomainImpl struct {
	log      *logrus.Logger
	repo     poseRepository.Repository
	s3Client s3.ItfS3
}

// New wires the pose service. cache and s3Client may be nil, which disables
// keypoint caching and frame archiving respectively.
func New(
	log *logrus.Logger,
	repo poseRepository.Repository,
	evaluator *poseEngine.Evaluator,
	estimator PoseEstimator,
	cache redis.IRedis,
	s3Client s3.ItfS3,
	utils utils.IUtils,
	settings pose.Settings,
) PoseService {
	return &poseService{
		evaluator: evaluator,

		evaluationDomain: &evaluationDomainImpl{
			log:       log,
			repo:      repo,
			evaluator: evaluator,
			estimator: estimator,
			cache:     cache,
			s3Client:  s3Client,
			utils:     utils,
			settings:  settings,
		},
		historyDomain: &historyDomainImpl{log: log, repo: repo, s3Client: s3Client},
	}
}
