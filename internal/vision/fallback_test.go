package vision_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spotter/internal/domain"
	"spotter/internal/extraction"
	"spotter/internal/port"
	"spotter/internal/validator"
	"spotter/internal/vision"
	"spotter/mocks"
)

const (
	broccoliReply = "Lidl | EUR | 19/01 | 25/01\n" +
		"null | Broccoli | null | 0.89 | 1.29 | -31% | 500 g confezione | 1 kg = 1,78 € | 19/01 | 25/01 | Coltivato in Italia"
	pastaReply = "Lidl | EUR | 19/01 | 25/01\n" +
		"Combino | Pasta | Spaghetti | 0.79 | null | null | 500 g | null | null | null"
	coverReply = "Lidl | EUR | 19/01 | 25/01"
)

func forModel(name string) interface{} {
	return mock.MatchedBy(func(r port.VisionRequest) bool { return r.Model == name })
}

func testImage() port.VisionImage {
	return port.VisionImage{Path: "page-1.png", Bytes: []byte("png"), ContentType: "image/png"}
}

func TestChain_ModelErrorThenRejectThenAccept(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, forModel("A")).Return("", &vision.ModelError{Model: "A", StatusCode: 500, Err: errors.New("boom")})
	client.On("Complete", mock.Anything, forModel("B")).Return(pastaReply, nil)
	client.On("Complete", mock.Anything, forModel("C")).Return(broccoliReply, nil)

	chain, err := vision.NewChain([]string{"A", "B", "C"}, client, domain.ResponseModePipe, validator.NewAnchorValidator([]string{"broccoli"}))
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, vision.StateAccepted, out.State)
	assert.True(t, out.Accepted())
	assert.Equal(t, "C", out.Model)
	require.NotNil(t, out.Result)
	assert.Equal(t, "C", out.Result.ModelUsed)
	assert.Equal(t, "Broccoli", out.Result.Products[0].Name)

	client.AssertNumberOfCalls(t, "Complete", 3)
	require.Len(t, out.Attempts, 3)
	assert.Equal(t, "A", out.Attempts[0].Model)
	assert.Equal(t, 1, out.Attempts[0].Try)
	assert.Equal(t, validator.VerdictRejectNoAnchor, out.Attempts[1].Verdict)
	assert.Equal(t, validator.VerdictAccept, out.Attempts[2].Verdict)
	assert.Equal(t, 2, out.Attempts[2].Position)
}

func TestChain_TransientTwiceExhausts(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, forModel("A")).Return("", &vision.TransientError{Model: "A", Err: errors.New("timeout")})

	chain, err := vision.NewChain([]string{"A"}, client, domain.ResponseModePipe, nil)
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, vision.StateExhausted, out.State)
	assert.Nil(t, out.Result)
	client.AssertNumberOfCalls(t, "Complete", 2)
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, 1, out.Attempts[0].Try)
	assert.Equal(t, 2, out.Attempts[1].Try)
	assert.True(t, vision.IsTransient(out.LastError()))
}

func TestChain_TransientThenSuccessStaysOnModel(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, forModel("A")).Return("", &vision.TransientError{Model: "A", Err: errors.New("reset")}).Once()
	client.On("Complete", mock.Anything, forModel("A")).Return(broccoliReply, nil).Once()

	chain, err := vision.NewChain([]string{"A", "B"}, client, domain.ResponseModePipe, nil)
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, vision.StateAccepted, out.State)
	assert.Equal(t, "A", out.Model)
	client.AssertNumberOfCalls(t, "Complete", 2)
	client.AssertNotCalled(t, "Complete", mock.Anything, forModel("B"))
}

func TestChain_TransientTwiceThenNextModel(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, forModel("A")).Return("", &vision.TransientError{Model: "A", Err: errors.New("reset")})
	client.On("Complete", mock.Anything, forModel("B")).Return(broccoliReply, nil)

	chain, err := vision.NewChain([]string{"A", "B"}, client, domain.ResponseModePipe, nil)
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, "B", out.Model)
	require.Len(t, out.Attempts, 3)
	assert.Equal(t, 1, out.Attempts[2].Try)
}

func TestChain_AllEmptyPagesExhaust(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(coverReply, nil)

	chain, err := vision.NewChain([]string{"A", "B", "C"}, client, domain.ResponseModePipe, nil)
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, vision.StateExhausted, out.State)
	client.AssertNumberOfCalls(t, "Complete", 3)
	for _, a := range out.Attempts {
		assert.Equal(t, validator.VerdictRejectEmpty, a.Verdict)
		assert.NoError(t, a.Err)
	}
}

func TestChain_ParseErrorAdvances(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, forModel("A")).Return("I am unable to help with that.", nil)
	client.On("Complete", mock.Anything, forModel("B")).Return(`{"products": [{"name": "Broccoli", "current_price": 0.89}]}`, nil)

	chain, err := vision.NewChain([]string{"A", "B"}, client, domain.ResponseModeJSON, nil)
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, "B", out.Model)
	var perr *extraction.ParseError
	assert.True(t, errors.As(out.Attempts[0].Err, &perr))
	client.AssertNumberOfCalls(t, "Complete", 2)
}

func TestChain_SendsPromptForMode(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(r port.VisionRequest) bool {
		return r.Prompt == vision.BuildPrompt(domain.ResponseModePipe) && r.Image.Path == "page-1.png"
	})).Return(broccoliReply, nil)

	chain, err := vision.NewChain([]string{"A"}, client, domain.ResponseModePipe, nil)
	require.NoError(t, err)

	assert.True(t, chain.Run(context.Background(), testImage()).Accepted())
	client.AssertExpectations(t)
}

// promptExample returns the example block the pipe prompt shows the model.
func promptExample(t *testing.T) string {
	t.Helper()
	prompt := vision.BuildPrompt(domain.ResponseModePipe)
	_, rest, ok := strings.Cut(prompt, "EXAMPLE OUTPUT")
	require.True(t, ok)
	_, rest, _ = strings.Cut(rest, "\n")
	block, _, _ := strings.Cut(rest, "\n\n")
	return block
}

func TestChain_RejectsEchoedPromptExample(t *testing.T) {
	example := promptExample(t)
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, forModel("A")).Return(example, nil)
	client.On("Complete", mock.Anything, forModel("B")).Return(broccoliReply, nil)

	// Anchors that match the placeholder names still must not let an echo through.
	v := validator.NewAnchorValidator([]string{"broccoli", "prodotto"})
	chain, err := vision.NewChain([]string{"A", "B"}, client, domain.ResponseModePipe, v)
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, vision.StateAccepted, out.State)
	assert.Equal(t, "B", out.Model)
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, validator.VerdictRejectEcho, out.Attempts[0].Verdict)
}

func TestChain_EchoedExampleAloneExhausts(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(promptExample(t), nil)

	chain, err := vision.NewChain([]string{"A"}, client, domain.ResponseModePipe, nil)
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, vision.StateExhausted, out.State)
	assert.Nil(t, out.Result)
}

func TestChain_RejectsEchoedJSONExample(t *testing.T) {
	client := new(mocks.MockVisionClient)
	client.On("Complete", mock.Anything, forModel("A")).Return(`{"products": [{"name": "Product Name", "current_price": "7.99"}]}`, nil)
	client.On("Complete", mock.Anything, forModel("B")).Return(`{"products": [{"name": "Broccoli", "current_price": 0.89}]}`, nil)

	chain, err := vision.NewChain([]string{"A", "B"}, client, domain.ResponseModeJSON, nil)
	require.NoError(t, err)

	out := chain.Run(context.Background(), testImage())

	assert.Equal(t, "B", out.Model)
	assert.Equal(t, validator.VerdictRejectEcho, out.Attempts[0].Verdict)
}

func TestBuildPrompt_ExampleNamesNoRealProduct(t *testing.T) {
	for _, mode := range []domain.ResponseMode{domain.ResponseModePipe, domain.ResponseModeJSON} {
		prompt := strings.ToLower(vision.BuildPrompt(mode))
		for _, word := range []string{"broccoli", "porchetta", "banane"} {
			assert.NotContains(t, prompt, word, "mode %s", mode)
		}
	}
}

func TestChain_CancelledContext(t *testing.T) {
	client := new(mocks.MockVisionClient)

	chain, err := vision.NewChain([]string{"A", "B"}, client, domain.ResponseModePipe, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := chain.Run(ctx, testImage())

	assert.Equal(t, vision.StateExhausted, out.State)
	assert.Empty(t, out.Attempts)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestNewChain_Validation(t *testing.T) {
	client := new(mocks.MockVisionClient)

	_, err := vision.NewChain(nil, client, domain.ResponseModePipe, nil)
	assert.ErrorIs(t, err, domain.ErrNoModels)

	_, err = vision.NewChain([]string{"A"}, client, domain.ResponseMode("xml"), nil)
	assert.Error(t, err)
}

func TestChain_ModelsIsACopy(t *testing.T) {
	models := []string{"A", "B"}
	chain, err := vision.NewChain(models, new(mocks.MockVisionClient), domain.ResponseModePipe, nil)
	require.NoError(t, err)

	models[0] = "Z"
	got := chain.Models()
	got[1] = "Y"

	assert.Equal(t, []string{"A", "B"}, chain.Models())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "trying", vision.StateTrying.String())
	assert.Equal(t, "accepted", vision.StateAccepted.String())
	assert.Equal(t, "exhausted", vision.StateExhausted.String())
}
