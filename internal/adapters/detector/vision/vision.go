// Package vision asks an openai vision model for civic defect classes
// only still images are supported
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mdms/internal/core/issuetype"
	"mdms/internal/core/mediakind"
	perr "mdms/internal/platform/errors"
	"mdms/internal/services/detect/domain"

	"github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o"

// Options configures the Detector
type Options struct {
	APIKey    string
	Model     string
	BaseURL   string // optional, for compatible gateways
	MaxTokens int
}

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Detector is the vision backend
type Detector struct {
	client    chatAPI
	model     string
	maxTokens int
}

// New builds a Detector, an api key is required
func New(o Options) (*Detector, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, perr.Validationf("vision: api key is required")
	}
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	return newWithClient(openai.NewClientWithConfig(cfg), o), nil
}

func newWithClient(c chatAPI, o Options) *Detector {
	if o.Model == "" {
		o.Model = defaultModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 500
	}
	return &Detector{client: c, model: o.Model, maxTokens: o.MaxTokens}
}

// Name reports the backend
func (*Detector) Name() string { return "vision" }

type wireResult struct {
	Detections []struct {
		ClassName  string   `json:"class_name"`
		Confidence *float64 `json:"confidence"`
	} `json:"detections"`
}

// Detect sends the image inline as a data url and parses the strict json reply
func (d *Detector) Detect(ctx context.Context, m domain.Media) ([]domain.Raw, error) {
	img, ok := m.Kind.(mediakind.Image)
	if !ok {
		return nil, perr.UnsupportedMediaf("vision backend handles images only")
	}
	url := fmt.Sprintf("data:%s;base64,%s", img.ContentType(), base64.StdEncoding.EncodeToString(m.Data))

	req := openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Report the civic defects visible in this photo."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: url}},
				},
			},
		},
		MaxTokens:   d.maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, perr.Wrap(err, perr.ErrorCodeDetectionTimeout, "vision: detector timed out")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeDetectionFailed, "vision: completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, perr.DetectionFailedf("vision: empty completion")
	}

	var out wireResult
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDetectionFailed, "vision: malformed reply")
	}
	raws := make([]domain.Raw, 0, len(out.Detections))
	for i, x := range out.Detections {
		if x.Confidence == nil {
			return nil, perr.DetectionFailedf("vision: detection %d has no confidence", i)
		}
		raws = append(raws, domain.Raw{Class: x.ClassName, Confidence: *x.Confidence})
	}
	return raws, nil
}

func prompt() string {
	classes := make([]string, 0, len(issuetype.All()))
	for _, t := range issuetype.All() {
		classes = append(classes, t.String())
	}
	return "You classify street photos for a municipal complaint desk. " +
		"Allowed classes: " + strings.Join(classes, ", ") + ". " +
		`Reply with json only: {"detections":[{"class_name":"<class>","confidence":<0..1>}]}. ` +
		`Use an empty list when none of the classes is visible.`
}
