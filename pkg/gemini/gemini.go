package gemini

import (
	"PoseCoach/internal/entity"
	"PoseCoach/pkg/pose"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/api/option"
)

var ErrNoKeypoints = errors.New("gemini returned no keypoints")

// IGemini estimates keypoints with a Gemini vision model. It is the fallback
// estimator when no MoveNet service is available.
type IGemini interface {
	EstimatePose(ctx context.Context, frame []byte) (*entity.PoseEstimation, error)
	Name() string
	Close()
}

type geminiClient struct {
	modelName string
	client    *genai.Client
}

func NewGeminiClient() (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		modelName: modelName,
		client:    client,
	}, nil
}

func (g *geminiClient) Name() string {
	return "gemini"
}

func (g *geminiClient) EstimatePose(ctx context.Context, frame []byte) (*entity.PoseEstimation, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	res, err := model.GenerateContent(ctx,
		genai.Text(buildPrompt(cfg.Width, cfg.Height)),
		genai.ImageData(format, frame),
	)
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from Gemini API")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, errors.New("unexpected response format from Gemini API")
	}

	return parseKeypointsResponse(string(text), cfg.Width, cfg.Height)
}

func (g *geminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func buildPrompt(width, height int) string {
	names := make([]string, 0, len(pose.BodyParts()))
	for _, p := range pose.BodyParts() {
		names = append(names, p.String())
	}

	return fmt.Sprintf(`
	Detect the single most prominent person in this %dx%d image and locate their body keypoints.
	Use pixel coordinates with the origin at the top-left corner.
	Allowed body_part values: %s.
	Omit body parts that are not visible.
	Output format:
	{
		"keypoints": [
			{"body_part": "left_knee", "x": 120.5, "y": 200.0, "score": 0.9}
		]
	}
	If no person is visible return {"keypoints": []}.
	Return ONLY the JSON response, without any additional text.
	`, width, height, strings.Join(names, ", "))
}

type keypointsResponse struct {
	Keypoints []struct {
		BodyPart string  `json:"body_part"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Score    float64 `json:"score"`
	} `json:"keypoints"`
}

// parseKeypointsResponse extracts the JSON object from the model answer and
// drops entries naming unknown body parts.
func parseKeypointsResponse(response string, width, height int) (*entity.PoseEstimation, error) {
	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")

	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, errors.New("cannot find valid JSON in response")
	}

	var parsed keypointsResponse
	if err := jsoniter.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	result := &entity.PoseEstimation{Width: width, Height: height}
	for _, kp := range parsed.Keypoints {
		part, err := pose.ParseBodyPart(kp.BodyPart)
		if err != nil {
			continue
		}
		result.Keypoints = append(result.Keypoints, pose.Keypoint{
			BodyPart: part,
			Point:    pose.Point{X: kp.X, Y: kp.Y},
			Score:    kp.Score,
		})
	}

	if len(result.Keypoints) == 0 {
		return nil, ErrNoKeypoints
	}

	return result, nil
}
