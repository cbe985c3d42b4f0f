package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/logger"
)

const defaultImageExt = "jpg"

// ExtractResult is the output of ArtifactExtractor.Extract.
type ExtractResult struct {
	// Inputs is the page payload; pages without content are omitted.
	Inputs []domain.PageInput

	// PagesTotal is the number of pages in the parse output.
	PagesTotal int

	// ImagesSaved is the number of images written to disk.
	ImagesSaved int

	// PayloadPath is where the payload checkpoint was written.
	PayloadPath string
}

// ArtifactExtractor turns a finished parse job into local artifacts.
type ArtifactExtractor struct {
	parser    driven.DocumentParser
	artifacts driven.ArtifactStore
	model     string
	maxInline int
}

// NewArtifactExtractor creates an extractor. model is written into the
// payload as the embedding model; images larger than maxInline bytes
// (when positive) are saved but not inlined.
func NewArtifactExtractor(
	parser driven.DocumentParser,
	artifacts driven.ArtifactStore,
	model string,
	maxInline int,
) *ArtifactExtractor {
	return &ArtifactExtractor{
		parser:    parser,
		artifacts: artifacts,
		model:     model,
		maxInline: maxInline,
	}
}

// Cleanup removes every artifact of a previous run for docName.
func (e *ArtifactExtractor) Cleanup(docName string) error {
	removed, err := e.artifacts.RemoveImages(docName)
	if err != nil {
		return fmt.Errorf("remove images: %w", err)
	}
	if removed > 0 {
		logger.Debug("Removed %d old images for %s", removed, docName)
	}
	for _, kind := range []driven.ArtifactKind{driven.ArtifactPayload, driven.ArtifactEmbeddings} {
		if err := e.artifacts.Remove(kind, docName); err != nil {
			return fmt.Errorf("remove %s: %w", kind, err)
		}
	}
	return nil
}

// Extract fetches the job output, saves page images and writes the
// payload checkpoint. A failed result fetch is fatal; a failed image
// is logged and skipped.
func (e *ArtifactExtractor) Extract(ctx context.Context, jobID, docName string) (*ExtractResult, error) {
	logger.Info("Extracting structured output of job %s", jobID)
	out, err := e.parser.Result(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch parse result: %w", err)
	}

	res := &ExtractResult{
		Inputs:     make([]domain.PageInput, 0, len(out.Pages)),
		PagesTotal: len(out.Pages),
	}
	logger.Info("Processing %d pages", res.PagesTotal)

	for i, page := range out.Pages {
		pageNum := page.Page
		if pageNum <= 0 {
			pageNum = i + 1
		}

		var blocks []domain.ContentBlock
		if text := strings.TrimSpace(page.Markdown); text != "" {
			blocks = append(blocks, domain.TextBlock{Text: text})
		}

		for idx, img := range page.Images {
			block, saved, err := e.fetchImage(ctx, jobID, docName, pageNum, idx, img.Name)
			if err != nil {
				return nil, err
			}
			if saved {
				res.ImagesSaved++
			}
			if block != nil {
				blocks = append(blocks, *block)
			}
		}

		if len(blocks) == 0 {
			logger.Debug("Page %d has no content, omitted from payload", pageNum)
			continue
		}
		res.Inputs = append(res.Inputs, domain.PageInput{Content: blocks})
	}

	payload := domain.EmbeddingRequest{
		Inputs:     res.Inputs,
		Model:      e.model,
		Truncation: false,
	}
	res.PayloadPath, err = e.artifacts.WriteJSON(driven.ArtifactPayload, docName, payload)
	if err != nil {
		return nil, fmt.Errorf("write payload: %w", err)
	}

	logger.Info("Payload saved: %s (%d inputs, %d images)", res.PayloadPath, len(res.Inputs), res.ImagesSaved)
	return res, nil
}

// fetchImage downloads and saves one image. Only cancellation of ctx is
// returned as an error; other failures are logged and reported as not
// saved.
func (e *ArtifactExtractor) fetchImage(
	ctx context.Context,
	jobID, docName string,
	pageNum, idx int,
	name string,
) (*domain.ImageBlock, bool, error) {
	ext := imageExt(name)
	filename := domain.PageImageNameAt(docName, pageNum, idx, ext)
	logger.Debug("Downloading image %s -> %s", name, filename)

	data, err := e.parser.Image(ctx, jobID, name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		logger.Warn("Failed to download image %s: %v", name, err)
		return nil, false, nil
	}

	imgPath, err := e.artifacts.SaveImage(filename, data)
	if err != nil {
		logger.Warn("Failed to save image %s: %v", filename, err)
		return nil, false, nil
	}
	logger.Debug("Image saved: %s (%d bytes)", imgPath, len(data))

	if e.maxInline > 0 && len(data) > e.maxInline {
		logger.Warn("Image %s is %d bytes, over the %d byte inline limit; not embedded", filename, len(data), e.maxInline)
		return nil, true, nil
	}

	block := domain.ImageBlock{
		DataURL: "data:" + imageMIME(ext) + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
	return &block, true, nil
}

// imageExt returns the lower-case extension of an image name without the dot.
func imageExt(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if ext == "" {
		return defaultImageExt
	}
	return ext
}

// imageMIME maps an extension to its media type, defaulting to JPEG.
func imageMIME(ext string) string {
	typ := mime.TypeByExtension("." + ext)
	if !strings.HasPrefix(typ, "image/") {
		return "image/jpeg"
	}
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = typ[:i]
	}
	return typ
}
