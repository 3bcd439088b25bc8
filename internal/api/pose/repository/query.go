package poseRepository

const (
	queryCreateEvaluation = `
INSERT INTO pose_evaluations (id, user_id, pose_name, tolerance, image_width, image_height,
                              keypoints, normalized_keypoints, deviations, feedback,
                              is_correct, image_url, estimator, created_at)
VALUES (:id, :user_id, :pose_name, :tolerance, :image_width, :image_height,
        :keypoints, :normalized_keypoints, :deviations, :feedback,
        :is_correct, :image_url, :estimator, :created_at)`

	queryGetEvaluationByID = `
SELECT id, user_id, pose_name, tolerance, image_width, image_height, keypoints,
       normalized_keypoints, deviations, feedback, is_correct, image_url, estimator, created_at
FROM pose_evaluations
    WHERE id = :id AND user_id = :user_id`

	queryListEvaluationsByUserID = `
SELECT id, user_id, pose_name, tolerance, image_width, image_height, keypoints,
       normalized_keypoints, deviations, feedback, is_correct, image_url, estimator, created_at
FROM pose_evaluations
    WHERE user_id = :user_id AND (:pose_name = '' OR pose_name = :pose_name)
ORDER BY created_at DESC, id DESC
LIMIT :limit OFFSET :offset`

	queryCountEvaluationsByUserID = `
SELECT COUNT(*)
FROM pose_evaluations
    WHERE user_id = :user_id AND (:pose_name = '' OR pose_name = :pose_name)`

	queryDeleteEvaluation = `
DELETE FROM pose_evaluations
WHERE id = :id AND user_id = :user_id`
)
