package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageInput_MarshalJSON_TaggedBlocks(t *testing.T) {
	page := PageInput{Content: []ContentBlock{
		TextBlock{Text: "Olá <mundo>"},
		ImageBlock{DataURL: "data:image/jpeg;base64,AAAA"},
	}}

	data, err := json.Marshal(page)
	require.NoError(t, err)

	var raw map[string][]map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw["content"], 2)
	assert.Equal(t, "text", raw["content"][0]["type"])
	assert.Equal(t, "Olá <mundo>", raw["content"][0]["text"])
	assert.Equal(t, "image_base64", raw["content"][1]["type"])
	assert.Equal(t, "data:image/jpeg;base64,AAAA", raw["content"][1]["image_base64"])
}

func TestPageInput_UnmarshalJSON_RejectsUnknownType(t *testing.T) {
	var page PageInput
	err := json.Unmarshal([]byte(`{"content":[{"type":"video","url":"x"}]}`), &page)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestEmbeddingRequest_Decode(t *testing.T) {
	body := `{
	  "inputs": [
	    {"content": [{"type": "text", "text": "page one"}, {"type": "image_base64", "image_base64": "data:image/png;base64,QQ=="}]},
	    {"content": [{"type": "text", "text": "page two"}]}
	  ],
	  "model": "voyage-multimodal-3",
	  "truncation": false
	}`

	var req EmbeddingRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	require.Len(t, req.Inputs, 2)
	assert.Equal(t, "page one", req.Inputs[0].Text())
	assert.True(t, req.Inputs[0].HasImage())
	assert.Equal(t, "page two", req.Inputs[1].Text())
	assert.False(t, req.Inputs[1].HasImage())
	assert.Equal(t, "voyage-multimodal-3", req.Model)
	assert.False(t, req.Truncation)
}

func TestPageInput_TextUsesLastTextBlock(t *testing.T) {
	page := PageInput{Content: []ContentBlock{TextBlock{Text: "a"}, TextBlock{Text: "b"}}}
	assert.Equal(t, "b", page.Text())
	assert.Equal(t, "", PageInput{}.Text())
}

func TestEmbeddingResponse_Dimensions(t *testing.T) {
	assert.Equal(t, 0, EmbeddingResponse{}.Dimensions())
	resp := EmbeddingResponse{Data: []EmbeddingData{{Embedding: []float32{1, 2, 3}}}}
	assert.Equal(t, 3, resp.Dimensions())
}
