package domain

import (
	"encoding/json"
	"fmt"
)

// Content block type tags as they appear on the wire.
const (
	BlockTypeText  = "text"
	BlockTypeImage = "image_base64"
)

// ContentBlock is one element of a page payload.
// It is a closed union of TextBlock and ImageBlock.
type ContentBlock interface {
	// BlockType returns the wire type tag.
	BlockType() string
}

// TextBlock carries the extracted markdown text of a page.
type TextBlock struct {
	Text string
}

// BlockType implements ContentBlock.
func (TextBlock) BlockType() string { return BlockTypeText }

// ImageBlock carries an inline image as a base64 data URL
// (e.g. "data:image/jpeg;base64,...").
type ImageBlock struct {
	DataURL string
}

// BlockType implements ContentBlock.
func (ImageBlock) BlockType() string { return BlockTypeImage }

// wireBlock is the JSON shape shared by both block kinds.
type wireBlock struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// PageInput is the embedding input for one page: an ordered list of blocks.
type PageInput struct {
	Content []ContentBlock
}

// Text returns the text of the last text block, or "" if there is none.
func (p PageInput) Text() string {
	text := ""
	for _, b := range p.Content {
		if tb, ok := b.(TextBlock); ok {
			text = tb.Text
		}
	}
	return text
}

// HasImage reports whether the page carries at least one image block.
func (p PageInput) HasImage() bool {
	for _, b := range p.Content {
		if _, ok := b.(ImageBlock); ok {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the blocks in their tagged wire form.
func (p PageInput) MarshalJSON() ([]byte, error) {
	blocks := make([]wireBlock, 0, len(p.Content))
	for _, b := range p.Content {
		switch v := b.(type) {
		case TextBlock:
			blocks = append(blocks, wireBlock{Type: BlockTypeText, Text: v.Text})
		case ImageBlock:
			blocks = append(blocks, wireBlock{Type: BlockTypeImage, ImageBase64: v.DataURL})
		default:
			return nil, fmt.Errorf("%w: unsupported block %T", ErrInvalidPayload, b)
		}
	}
	return json.Marshal(struct {
		Content []wireBlock `json:"content"`
	}{Content: blocks})
}

// UnmarshalJSON decodes tagged blocks, rejecting unknown tags.
func (p *PageInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content []wireBlock `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Content = make([]ContentBlock, 0, len(raw.Content))
	for i, b := range raw.Content {
		switch b.Type {
		case BlockTypeText:
			p.Content = append(p.Content, TextBlock{Text: b.Text})
		case BlockTypeImage:
			p.Content = append(p.Content, ImageBlock{DataURL: b.ImageBase64})
		default:
			return fmt.Errorf("%w: block %d has unknown type %q", ErrInvalidPayload, i, b.Type)
		}
	}
	return nil
}

// EmbeddingRequest is the body sent to the embedding service and the
// content of the payload checkpoint file.
type EmbeddingRequest struct {
	Inputs     []PageInput `json:"inputs"`
	Model      string      `json:"model"`
	Truncation bool        `json:"truncation"`

	// InputType is "query" for search-time requests and empty for documents.
	InputType string `json:"input_type,omitempty"`
}

// EmbeddingData is one embedding in the response, aligned with the
// request input at the same position.
type EmbeddingData struct {
	Object    string    `json:"object,omitempty"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingUsage reports token consumption.
type EmbeddingUsage struct {
	TextTokens  int `json:"text_tokens,omitempty"`
	ImagePixels int `json:"image_pixels,omitempty"`
	TotalTokens int `json:"total_tokens,omitempty"`
}

// EmbeddingResponse is the decoded embedding-service reply.
type EmbeddingResponse struct {
	Object string          `json:"object,omitempty"`
	Data   []EmbeddingData `json:"data"`
	Model  string          `json:"model,omitempty"`
	Usage  EmbeddingUsage  `json:"usage"`
}

// Dimensions returns the length of the first embedding, or 0 if empty.
func (r EmbeddingResponse) Dimensions() int {
	if len(r.Data) == 0 {
		return 0
	}
	return len(r.Data[0].Embedding)
}
