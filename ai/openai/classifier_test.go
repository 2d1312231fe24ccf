package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/patentmark/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an llms.Model that returns a canned response.
type fakeModel struct {
	content  string
	err      error
	noChoice bool
	options  llms.CallOptions
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoice {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.content}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestClassifyParsesVerdict(t *testing.T) {
	model := &fakeModel{content: "json {\"has_binding_info\": true}"}
	c := newClassifierWithModel(model, ai.MarkupTask(), false)

	result, err := c.Classify(context.Background(), "IC50 = 5 nM for compound 3")
	require.NoError(t, err)
	assert.True(t, result.HasBindingInfo)
	assert.Equal(t, "json {\"has_binding_info\": true}", result.Raw)

	assert.Equal(t, 75, model.options.MaxTokens)
	assert.Equal(t, 0.5, model.options.Temperature)
	assert.False(t, model.options.JSONMode)
	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
}

func TestClassifyNegativeIsSuccess(t *testing.T) {
	model := &fakeModel{content: `{"has_binding_info": false}`}
	c := newClassifierWithModel(model, ai.MarkupTask(), true)

	result, err := c.Classify(context.Background(), "claims")
	require.NoError(t, err)
	assert.False(t, result.HasBindingInfo)
	assert.True(t, model.options.JSONMode)
}

func TestClassifyMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "I think there is binding data here."},
		{"missing key", `{"verdict": true}`},
		{"array", `[true]`},
		{"null", `null`},
		{"truncated", `{"has_binding_info": tr`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifierWithModel(&fakeModel{content: tt.content}, ai.MarkupTask(), false)
			_, err := c.Classify(context.Background(), "text")
			require.Error(t, err)
			assert.ErrorIs(t, err, ai.ErrMalformedResponse)
		})
	}
}

func TestClassifyEmptyResponse(t *testing.T) {
	c := newClassifierWithModel(&fakeModel{noChoice: true}, ai.MarkupTask(), false)
	_, err := c.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}

func TestClassifyStatusError(t *testing.T) {
	model := &fakeModel{err: errors.New("API returned unexpected status code: 429: rate limited")}
	c := newClassifierWithModel(model, ai.MarkupTask(), false)

	_, err := c.Classify(context.Background(), "text")
	var statusErr *ai.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 429, statusErr.Code)
	assert.True(t, statusErr.Retryable())
}

func TestClassifyPlainCallError(t *testing.T) {
	callErr := errors.New("dial tcp: connection refused")
	c := newClassifierWithModel(&fakeModel{err: callErr}, ai.MarkupTask(), false)

	_, err := c.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, callErr)
	var statusErr *ai.StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestBindingTaskFields(t *testing.T) {
	model := &fakeModel{content: `{"Ki_nM": null, "IC50_nM": "4.2", "ligand_name": "compound 7", "protein_name": "EGFR"}`}
	c := newClassifierWithModel(model, ai.BindingTask(), false)

	result, err := c.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.True(t, result.HasBindingInfo)
	assert.Equal(t, "4.2", result.Fields["IC50_nM"])
	assert.Equal(t, "EGFR", result.Fields["protein_name"])
	assert.Equal(t, 4096, model.options.MaxTokens)
}

func TestScrubText(t *testing.T) {
	assert.Equal(t, "a\nb\tc", scrubText("  a\x00\n\x07b\tc \x1b"))
}

func TestNewProviderValidates(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithModel("")))
	require.ErrorIs(t, err, ai.ErrInvalidConfig)

	provider, err := NewProvider(ai.NewConfig())
	require.NoError(t, err)
	defer provider.Close()

	invalid := ai.MarkupTask()
	invalid.MaxTokens = 0
	_, err = provider.Classifier(invalid)
	require.ErrorIs(t, err, ai.ErrInvalidTask)

	classifier, err := provider.Classifier(ai.MarkupTask())
	require.NoError(t, err)
	assert.NotNil(t, classifier)
}
