package poseRepository

import (
	"PoseCoach/internal/api/pose"
	"PoseCoach/internal/entity"
	contextPkg "PoseCoach/pkg/context"
	poseEngine "PoseCoach/pkg/pose"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type EvaluationDB struct {
	ID                  string         `db:"id"`
	UserID              string         `db:"user_id"`
	PoseName            string         `db:"pose_name"`
	Tolerance           float64        `db:"tolerance"`
	ImageWidth          sql.NullInt64  `db:"image_width"`
	ImageHeight         sql.NullInt64  `db:"image_height"`
	Keypoints           []byte         `db:"keypoints"`
	NormalizedKeypoints []byte         `db:"normalized_keypoints"`
	Deviations          []byte         `db:"deviations"`
	Feedback            pq.StringArray `db:"feedback"`
	IsCorrect           bool           `db:"is_correct"`
	ImageURL            sql.NullString `db:"image_url"`
	Estimator           sql.NullString `db:"estimator"`
	CreatedAt           time.Time      `db:"created_at"`
}

func (r *evaluationRepository) CreateEvaluation(c context.Context, evaluation entity.Evaluation) error {
	requestID := contextPkg.GetRequestID(c)

	keypoints, err := json.Marshal(nonNilKeypoints(evaluation.Keypoints))
	if err != nil {
		return err
	}
	normalized, err := json.Marshal(nonNilKeypoints(evaluation.NormalizedKeypoints))
	if err != nil {
		return err
	}
	deviations := evaluation.Deviations
	if deviations == nil {
		deviations = []poseEngine.Deviation{}
	}
	deviationsJSON, err := json.Marshal(deviations)
	if err != nil {
		return err
	}
	feedback := evaluation.Feedback
	if feedback == nil {
		feedback = []string{}
	}

	createdAt := evaluation.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	argsKV := map[string]interface{}{
		"id":                   evaluation.ID,
		"user_id":              evaluation.UserID,
		"pose_name":            evaluation.PoseName,
		"tolerance":            evaluation.Tolerance,
		"image_width":          sql.NullInt64{Int64: int64(evaluation.ImageWidth), Valid: evaluation.ImageWidth > 0},
		"image_height":         sql.NullInt64{Int64: int64(evaluation.ImageHeight), Valid: evaluation.ImageHeight > 0},
		"keypoints":            string(keypoints),
		"normalized_keypoints": string(normalized),
		"deviations":           string(deviationsJSON),
		"feedback":             pq.Array(feedback),
		"is_correct":           evaluation.IsCorrect,
		"image_url":            sql.NullString{String: evaluation.ImageURL, Valid: evaluation.ImageURL != ""},
		"estimator":            sql.NullString{String: evaluation.Estimator, Valid: evaluation.Estimator != ""},
		"created_at":           createdAt,
	}

	query, args, err := sqlx.Named(queryCreateEvaluation, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateEvaluation")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23503":
				r.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"user_id":    evaluation.UserID,
					"error":      err.Error(),
				}).Warn("Evaluation references unknown user")
				return pose.ErrUnknownUser
			}
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating evaluation")
		return err
	}

	return nil
}

func (r *evaluationRepository) GetEvaluationByID(c context.Context, userID string, id string) (entity.Evaluation, error) {
	requestID := contextPkg.GetRequestID(c)
	var row EvaluationDB

	argsKV := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryGetEvaluationByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetEvaluationByID named query preparation err")
		return entity.Evaluation{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
			}).Warn("GetEvaluationByID no rows found")
			return entity.Evaluation{}, pose.ErrEvaluationNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetEvaluationByID execution err")
		return entity.Evaluation{}, err
	}

	return r.makeEvaluation(row)
}

func (r *evaluationRepository) ListEvaluationsByUserID(c context.Context, filter EvaluationFilter) ([]entity.Evaluation, error) {
	requestID := contextPkg.GetRequestID(c)
	var rows []EvaluationDB

	argsKV := map[string]interface{}{
		"user_id":   filter.UserID,
		"pose_name": filter.PoseName,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	}

	query, args, err := sqlx.Named(queryListEvaluationsByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListEvaluationsByUserID named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListEvaluationsByUserID execution err")
		return nil, err
	}

	result := make([]entity.Evaluation, 0, len(rows))
	for _, row := range rows {
		evaluation, err := r.makeEvaluation(row)
		if err != nil {
			return nil, err
		}
		result = append(result, evaluation)
	}

	return result, nil
}

func (r *evaluationRepository) CountEvaluationsByUserID(c context.Context, filter EvaluationFilter) (int, error) {
	requestID := contextPkg.GetRequestID(c)

	argsKV := map[string]interface{}{
		"user_id":   filter.UserID,
		"pose_name": filter.PoseName,
	}

	query, args, err := sqlx.Named(queryCountEvaluationsByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountEvaluationsByUserID named query preparation err")
		return 0, err
	}
	query = r.q.Rebind(query)

	var total int
	if err := r.q.QueryRowxContext(c, query, args...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountEvaluationsByUserID execution err")
		return 0, err
	}

	return total, nil
}

func (r *evaluationRepository) DeleteEvaluation(c context.Context, userID string, id string) error {
	requestID := contextPkg.GetRequestID(c)

	argsKV := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryDeleteEvaluation, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteEvaluation named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteEvaluation execution err")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pose.ErrEvaluationNotFound
	}

	return nil
}

func (r *evaluationRepository) makeEvaluation(row EvaluationDB) (entity.Evaluation, error) {
	evaluation := entity.Evaluation{
		ID:          row.ID,
		UserID:      row.UserID,
		PoseName:    row.PoseName,
		Tolerance:   row.Tolerance,
		ImageWidth:  int(row.ImageWidth.Int64),
		ImageHeight: int(row.ImageHeight.Int64),
		Feedback:    []string(row.Feedback),
		IsCorrect:   row.IsCorrect,
		ImageURL:    row.ImageURL.String,
		Estimator:   row.Estimator.String,
		CreatedAt:   row.CreatedAt,
	}

	if err := decodeColumn(row.Keypoints, &evaluation.Keypoints); err != nil {
		r.log.WithFields(logrus.Fields{"id": row.ID, "error": err.Error()}).Error("Corrupt keypoints column")
		return entity.Evaluation{}, err
	}
	if err := decodeColumn(row.NormalizedKeypoints, &evaluation.NormalizedKeypoints); err != nil {
		r.log.WithFields(logrus.Fields{"id": row.ID, "error": err.Error()}).Error("Corrupt normalized_keypoints column")
		return entity.Evaluation{}, err
	}
	if err := decodeColumn(row.Deviations, &evaluation.Deviations); err != nil {
		r.log.WithFields(logrus.Fields{"id": row.ID, "error": err.Error()}).Error("Corrupt deviations column")
		return entity.Evaluation{}, err
	}
	if evaluation.Feedback == nil {
		evaluation.Feedback = []string{}
	}

	return evaluation, nil
}

func decodeColumn(data []byte, dst interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func nonNilKeypoints(kps []poseEngine.Keypoint) []poseEngine.Keypoint {
	if kps == nil {
		return []poseEngine.Keypoint{}
	}
	return kps
}
