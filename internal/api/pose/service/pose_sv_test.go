package poseService

import (
	"PoseCoach/internal/api/pose"
	poseRepository "PoseCoach/internal/api/pose/repository"
	"PoseCoach/internal/entity"
	poseEngine "PoseCoach/pkg/pose"
	"PoseCoach/pkg/s3"
	"PoseCoach/pkg/utils"
	websocketPkg "PoseCoach/pkg/websocket"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type fakeEstimator struct {
	estimation *entity.PoseEstimation
	err        error
	name       string
	calls      int
}

func (f *fakeEstimator) EstimatePose(ctx context.Context, frame []byte) (*entity.PoseEstimation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.estimation
	return &copied, nil
}

func (f *fakeEstimator) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

type fakeCache struct {
	entries map[string]*entity.PoseEstimation
	sets    int
}

func (f *fakeCache) GetKeypoints(ctx context.Context, digest string) (*entity.PoseEstimation, error) {
	return f.entries[digest], nil
}

func (f *fakeCache) SetKeypoints(ctx context.Context, digest string, estimation *entity.PoseEstimation) error {
	if f.entries == nil {
		f.entries = map[string]*entity.PoseEstimation{}
	}
	f.entries[digest] = estimation
	f.sets++
	return nil
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }

func (f *fakeCache) Close() error { return nil }

type fakeS3 struct {
	uploadErr error
	uploaded  []string
	deleted   []string
}

func (f *fakeS3) UploadFrame(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded = append(f.uploaded, key)
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func (f *fakeS3) PresignUrl(fileUrl string) (string, error) {
	return fileUrl + "?signed=1", nil
}

func (f *fakeS3) DeleteFile(fileName string) error {
	f.deleted = append(f.deleted, fileName)
	return nil
}

type fakeEvaluationStore struct {
	createErr  error
	saved      []entity.Evaluation
	lastFilter poseRepository.EvaluationFilter
	deleted    []string
}

func (f *fakeEvaluationStore) CreateEvaluation(c context.Context, evaluation entity.Evaluation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.saved = append(f.saved, evaluation)
	return nil
}

func (f *fakeEvaluationStore) GetEvaluationByID(c context.Context, userID string, id string) (entity.Evaluation, error) {
	for _, e := range f.saved {
		if e.ID == id && e.UserID == userID {
			return e, nil
		}
	}
	return entity.Evaluation{}, pose.ErrEvaluationNotFound
}

func (f *fakeEvaluationStore) ListEvaluationsByUserID(c context.Context, filter poseRepository.EvaluationFilter) ([]entity.Evaluation, error) {
	f.lastFilter = filter
	var res []entity.Evaluation
	for _, e := range f.saved {
		if e.UserID == filter.UserID {
			res = append(res, e)
		}
	}
	return res, nil
}

func (f *fakeEvaluationStore) CountEvaluationsByUserID(c context.Context, filter poseRepository.EvaluationFilter) (int, error) {
	return len(f.saved), nil
}

func (f *fakeEvaluationStore) DeleteEvaluation(c context.Context, userID string, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRepository struct {
	store     *fakeEvaluationStore
	commits   int
	rollbacks int
}

func (f *fakeRepository) NewClient(tx bool) (poseRepository.Client, error) {
	return poseRepository.Client{
		Evaluations: f.store,
		Commit: func() error {
			f.commits++
			return nil
		},
		Rollback: func() error {
			f.rollbacks++
			return nil
		},
	}, nil
}

type testDeps struct {
	estimator *fakeEstimator
	cache     *fakeCache
	s3        *fakeS3
	repo      *fakeRepository
	service   PoseService
}

var testUser = entity.UserLoginData{ID: "user-1", Email: "yogi@example.com"}

func newTestService(t *testing.T) *testDeps {
	t.Helper()

	registry, err := poseEngine.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry error: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	deps := &testDeps{
		estimator: &fakeEstimator{estimation: &entity.PoseEstimation{
			Keypoints: []poseEngine.Keypoint{
				{BodyPart: poseEngine.LeftKnee, Point: poseEngine.Point{X: 45, Y: 80}, Score: 0.9},
			},
			Width:  100,
			Height: 100,
		}},
		cache: &fakeCache{},
		s3:    &fakeS3{},
		repo:  &fakeRepository{store: &fakeEvaluationStore{}},
	}

	deps.service = New(
		logger,
		deps.repo,
		poseEngine.NewEvaluator(registry, poseEngine.FormatDetailed),
		deps.estimator,
		deps.cache,
		deps.s3,
		utils.New(),
		pose.Settings{DefaultPoseName: "Tree Pose", Tolerance: 0.1, InputSize: 256},
	)

	return deps
}

func testImage(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode error: %v", err)
	}
	return buf.Bytes()
}

func TestEvaluateImageTreePose(t *testing.T) {
	deps := newTestService(t)

	res, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
		pose.EvaluateImageRequest{PoseName: "Tree Pose"}, testImage(t))
	if err != nil {
		t.Fatalf("EvaluateImage error: %v", err)
	}

	want := []string{"Move your left knee left by 15%."}
	if fmt.Sprint(res.Feedback) != fmt.Sprint(want) {
		t.Errorf("Expected feedback %v, got %v", want, res.Feedback)
	}
	if res.Correct {
		t.Error("Expected evaluation to be incorrect")
	}
	if res.Estimator != "fake" || res.Tolerance != 0.1 {
		t.Errorf("Unexpected estimator/tolerance: %q %v", res.Estimator, res.Tolerance)
	}
	if res.ID == "" {
		t.Error("Expected evaluation id")
	}

	saved := deps.repo.store.saved
	if len(saved) != 1 || saved[0].UserID != testUser.ID || saved[0].ID != res.ID {
		t.Fatalf("Expected one saved evaluation for user, got %+v", saved)
	}
	if deps.cache.sets != 1 {
		t.Errorf("Expected keypoints to be cached once, got %d", deps.cache.sets)
	}
	if len(deps.s3.uploaded) != 0 {
		t.Errorf("Expected no archive without request, got %v", deps.s3.uploaded)
	}
}

func TestEvaluateImageDefaultsPoseName(t *testing.T) {
	deps := newTestService(t)

	res, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
		pose.EvaluateImageRequest{}, testImage(t))
	if err != nil {
		t.Fatalf("EvaluateImage error: %v", err)
	}
	if res.PoseName != "Tree Pose" {
		t.Errorf("Expected default pose Tree Pose, got %q", res.PoseName)
	}
}

func TestEvaluateImageUnknownPose(t *testing.T) {
	deps := newTestService(t)

	_, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
		pose.EvaluateImageRequest{PoseName: "Crow Pose"}, testImage(t))
	if !errors.Is(err, poseEngine.ErrUnknownPose) {
		t.Fatalf("Expected ErrUnknownPose, got %v", err)
	}
	if deps.estimator.calls != 0 {
		t.Errorf("Expected estimator not to be called, got %d calls", deps.estimator.calls)
	}
	if len(deps.repo.store.saved) != 0 {
		t.Error("Expected nothing to be saved")
	}
}

func TestEvaluateImageUsesCache(t *testing.T) {
	deps := newTestService(t)
	ctx := context.Background()
	img := testImage(t)

	for i := 0; i < 2; i++ {
		if _, err := deps.service.Evaluation().EvaluateImage(ctx, testUser, pose.EvaluateImageRequest{}, img); err != nil {
			t.Fatalf("EvaluateImage error: %v", err)
		}
	}

	if deps.estimator.calls != 1 {
		t.Errorf("Expected one estimator call, got %d", deps.estimator.calls)
	}
}

func TestEvaluateImageCacheIsPerEstimator(t *testing.T) {
	deps := newTestService(t)
	ctx := context.Background()
	img := testImage(t)

	if _, err := deps.service.Evaluation().EvaluateImage(ctx, testUser, pose.EvaluateImageRequest{}, img); err != nil {
		t.Fatalf("EvaluateImage error: %v", err)
	}

	deps.estimator.name = "gemini"
	if _, err := deps.service.Evaluation().EvaluateImage(ctx, testUser, pose.EvaluateImageRequest{}, img); err != nil {
		t.Fatalf("EvaluateImage error: %v", err)
	}

	if deps.estimator.calls != 2 {
		t.Errorf("Expected a fresh estimation after switching estimator, got %d calls", deps.estimator.calls)
	}
	if len(deps.cache.entries) != 2 {
		t.Errorf("Expected one cache entry per estimator, got %d", len(deps.cache.entries))
	}
}

func TestEvaluateImageSaveFailureDeletesArchivedFrame(t *testing.T) {
	deps := newTestService(t)
	deps.repo.store.createErr = errors.New("connection reset")

	_, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
		pose.EvaluateImageRequest{Archive: true}, testImage(t))
	if err == nil {
		t.Fatal("Expected save error")
	}

	if len(deps.s3.uploaded) != 1 {
		t.Fatalf("Expected frame to be uploaded, got %v", deps.s3.uploaded)
	}
	want := "https://bucket.s3.amazonaws.com/" + deps.s3.uploaded[0]
	if len(deps.s3.deleted) != 1 || deps.s3.deleted[0] != want {
		t.Errorf("Expected %q to be deleted, got %v", want, deps.s3.deleted)
	}
}

func TestEvaluateImageInvalidImage(t *testing.T) {
	deps := newTestService(t)

	_, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
		pose.EvaluateImageRequest{}, []byte("not an image"))
	if !errors.Is(err, pose.ErrInvalidImage) {
		t.Fatalf("Expected ErrInvalidImage, got %v", err)
	}
}

func TestEvaluateImageEstimatorErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", errors.New("dial tcp: connection refused"), pose.ErrEstimatorUnavailable},
		{"rejected", fmt.Errorf("%w: blurry", websocketPkg.ErrEstimatorRejected), pose.ErrFrameRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestService(t)
			deps.estimator.err = tt.err

			_, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
				pose.EvaluateImageRequest{}, testImage(t))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEvaluateImageNoPerson(t *testing.T) {
	deps := newTestService(t)
	deps.estimator.estimation = &entity.PoseEstimation{Width: 256, Height: 256}

	_, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
		pose.EvaluateImageRequest{}, testImage(t))
	if !errors.Is(err, pose.ErrNoPersonDetected) {
		t.Fatalf("Expected ErrNoPersonDetected, got %v", err)
	}
	if deps.cache.sets != 0 {
		t.Error("Expected empty estimation not to be cached")
	}
}

func TestEvaluateImageArchive(t *testing.T) {
	deps := newTestService(t)

	res, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
		pose.EvaluateImageRequest{Archive: true}, testImage(t))
	if err != nil {
		t.Fatalf("EvaluateImage error: %v", err)
	}

	wantKey := s3.FrameKey(testUser.ID, res.ID)
	if len(deps.s3.uploaded) != 1 || deps.s3.uploaded[0] != wantKey {
		t.Errorf("Expected upload of %s, got %v", wantKey, deps.s3.uploaded)
	}
	if res.ImageURL == "" {
		t.Error("Expected image url to be set")
	}
}

func TestEvaluateImageArchiveDisabled(t *testing.T) {
	deps := newTestService(t)
	deps.s3.uploadErr = s3.ErrNotConfigured

	res, err := deps.service.Evaluation().EvaluateImage(context.Background(), testUser,
		pose.EvaluateImageRequest{Archive: true}, testImage(t))
	if err != nil {
		t.Fatalf("EvaluateImage error: %v", err)
	}
	if res.ImageURL != "" {
		t.Errorf("Expected no image url, got %q", res.ImageURL)
	}
	if len(deps.repo.store.saved) != 1 {
		t.Error("Expected evaluation to be saved without archive")
	}
}

func TestEvaluateKeypoints(t *testing.T) {
	deps := newTestService(t)
	tolerance := 0.1

	res, err := deps.service.Evaluation().EvaluateKeypoints(context.Background(), testUser, pose.EvaluateKeypointsRequest{
		PoseName:  "Tree Pose",
		Width:     100,
		Height:    100,
		Tolerance: &tolerance,
		Keypoints: []pose.KeypointRequest{{BodyPart: "left_knee", X: 45, Y: 80}},
	})
	if err != nil {
		t.Fatalf("EvaluateKeypoints error: %v", err)
	}

	if len(res.Feedback) != 1 || res.Feedback[0] != "Move your left knee left by 15%." {
		t.Errorf("Unexpected feedback %v", res.Feedback)
	}
	if deps.estimator.calls != 0 {
		t.Error("Expected estimator to be bypassed")
	}
}

func TestEvaluateKeypointsInvalidInput(t *testing.T) {
	zero := 0.0

	tests := []struct {
		name string
		req  pose.EvaluateKeypointsRequest
		want error
	}{
		{"zero tolerance", pose.EvaluateKeypointsRequest{Width: 100, Height: 100, Tolerance: &zero}, poseEngine.ErrInvalidTolerance},
		{"negative width", pose.EvaluateKeypointsRequest{Width: -1, Height: 100}, poseEngine.ErrInvalidDimension},
		{"unknown pose", pose.EvaluateKeypointsRequest{PoseName: "Crow Pose", Width: 100, Height: 100}, poseEngine.ErrUnknownPose},
		{"unknown part", pose.EvaluateKeypointsRequest{Width: 100, Height: 100,
			Keypoints: []pose.KeypointRequest{{BodyPart: "tail"}}}, poseEngine.ErrUnknownBodyPart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestService(t)

			_, err := deps.service.Evaluation().EvaluateKeypoints(context.Background(), testUser, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if len(deps.repo.store.saved) != 0 {
				t.Error("Expected nothing to be saved")
			}
		})
	}
}

func TestEvaluateFrameIsNotStored(t *testing.T) {
	deps := newTestService(t)

	res, err := deps.service.Evaluation().EvaluateFrame(context.Background(), testUser, "", testImage(t))
	if err != nil {
		t.Fatalf("EvaluateFrame error: %v", err)
	}
	if res.ID != "" || len(deps.repo.store.saved) != 0 {
		t.Errorf("Expected streamed frame not to be stored, got id %q", res.ID)
	}
	if len(res.Feedback) != 1 {
		t.Errorf("Expected one feedback message, got %v", res.Feedback)
	}
}

func TestTemplates(t *testing.T) {
	deps := newTestService(t)

	res := deps.service.Templates()
	if res.Version != 1 {
		t.Errorf("Expected version 1, got %d", res.Version)
	}

	names := make([]string, 0, len(res.Templates))
	for _, tpl := range res.Templates {
		names = append(names, tpl.Name)
	}
	want := "[Cobra Pose Downward Dog Tree Pose Warrior II]"
	if fmt.Sprint(names) != want {
		t.Errorf("Expected templates %s, got %v", want, names)
	}
}

func TestListEvaluationsPaging(t *testing.T) {
	deps := newTestService(t)
	deps.repo.store.saved = []entity.Evaluation{{ID: "a", UserID: testUser.ID}, {ID: "b", UserID: "other"}}

	res, err := deps.service.History().ListEvaluations(context.Background(), testUser.ID,
		pose.HistoryQuery{Page: 3, Limit: 5})
	if err != nil {
		t.Fatalf("ListEvaluations error: %v", err)
	}

	if f := deps.repo.store.lastFilter; f.Offset != 10 || f.Limit != 5 || f.UserID != testUser.ID {
		t.Errorf("Unexpected filter %+v", f)
	}
	if len(res.Evaluations) != 1 || res.Evaluations[0].ID != "a" {
		t.Errorf("Unexpected evaluations %+v", res.Evaluations)
	}

	res, err = deps.service.History().ListEvaluations(context.Background(), testUser.ID,
		pose.HistoryQuery{Page: 0, Limit: 1000})
	if err != nil {
		t.Fatalf("ListEvaluations error: %v", err)
	}
	if res.Page != 1 || res.Limit != defaultHistoryLimit {
		t.Errorf("Expected clamped paging, got page %d limit %d", res.Page, res.Limit)
	}
}

func TestGetEvaluationPresignsImage(t *testing.T) {
	deps := newTestService(t)
	deps.repo.store.saved = []entity.Evaluation{{ID: "a", UserID: testUser.ID, ImageURL: "https://bucket/x.jpg"}}

	res, err := deps.service.History().GetEvaluation(context.Background(), testUser.ID, "a")
	if err != nil {
		t.Fatalf("GetEvaluation error: %v", err)
	}
	if res.ImageURL != "https://bucket/x.jpg?signed=1" {
		t.Errorf("Expected presigned url, got %q", res.ImageURL)
	}

	if _, err := deps.service.History().GetEvaluation(context.Background(), "other", "a"); !errors.Is(err, pose.ErrEvaluationNotFound) {
		t.Errorf("Expected ErrEvaluationNotFound for another user, got %v", err)
	}
}

func TestDeleteEvaluation(t *testing.T) {
	deps := newTestService(t)
	deps.repo.store.saved = []entity.Evaluation{{ID: "a", UserID: testUser.ID, ImageURL: "https://bucket/x.jpg"}}

	if err := deps.service.History().DeleteEvaluation(context.Background(), testUser.ID, "a"); err != nil {
		t.Fatalf("DeleteEvaluation error: %v", err)
	}
	if deps.repo.commits != 1 || deps.repo.rollbacks != 0 {
		t.Errorf("Expected one commit, got commits=%d rollbacks=%d", deps.repo.commits, deps.repo.rollbacks)
	}
	if len(deps.s3.deleted) != 1 {
		t.Errorf("Expected archived frame to be deleted, got %v", deps.s3.deleted)
	}

	err := deps.service.History().DeleteEvaluation(context.Background(), testUser.ID, "missing")
	if !errors.Is(err, pose.ErrEvaluationNotFound) {
		t.Fatalf("Expected ErrEvaluationNotFound, got %v", err)
	}
	if deps.repo.rollbacks != 1 {
		t.Errorf("Expected rollback on missing evaluation, got %d", deps.repo.rollbacks)
	}
}
