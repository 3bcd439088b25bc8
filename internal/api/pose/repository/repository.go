package poseRepository

import (
	"PoseCoach/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Evaluations: &evaluationRepository{q: sqlExecutor, log: r.log},
		Commit:      commitFunc,
		Rollback:    rollbackFunc,
	}, nil
}

type Client struct {
	Evaluations interface {
		CreateEvaluation(c context.Context, evaluation entity.Evaluation) error
		GetEvaluationByID(c context.Context, userID string, id string) (entity.Evaluation, error)
		ListEvaluationsByUserID(c context.Context, filter EvaluationFilter) ([]entity.Evaluation, error)
		CountEvaluationsByUserID(c context.Context, filter EvaluationFilter) (int, error)
		DeleteEvaluation(c context.Context, userID string, id string) error
	}

	Commit   func() error
	Rollback func() error
}

// EvaluationFilter selects a page of a user's history. An empty PoseName
// matches every pose.
type EvaluationFilter struct {
	UserID   string
	PoseName string
	Limit    int
	Offset   int
}

type evaluationRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
