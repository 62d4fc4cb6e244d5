package compose

import (
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"
)

// Sentinel errors for the rendering stage.
var (
	// ErrDocumentNotFound indicates the document path does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentInvalid indicates the document is structurally invalid or corrupted.
	ErrDocumentInvalid = errors.New("invalid or corrupted document")

	// ErrRenderExhausted indicates resource exhaustion during rasterization.
	ErrRenderExhausted = errors.New("resource exhaustion during rendering")
)

// DefaultDPI is a moderate preview quality for rendered pages.
const DefaultDPI = 150

// Page is one rasterized document page persisted to a temporary file.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// CID is the content identifier ("page_N") the HTML body references.
	CID string

	// Path is the temporary PNG file holding the raster.
	Path string
}

// RenderPages rasterizes every page of the document at the given DPI into
// uniquely named PNG files under dir.
//
// Pages render strictly one at a time; each page's raster is encoded to disk
// and released before the next page begins, so peak memory stays bounded by a
// single page. Temp filenames are unique per call, so concurrent invocations
// never collide.
//
// On error, files already written by this call are removed before returning.
// On success the caller owns the files and must remove them via CleanupPages.
func RenderPages(docPath, dir string, dpi float64) ([]Page, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	if _, err := os.Stat(docPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docPath)
	}

	doc, err := fitz.New(docPath)
	if err != nil {
		return nil, classifyFitz(err)
	}
	defer func() { _ = doc.Close() }()

	var pages []Page
	for i := 0; i < doc.NumPage(); i++ {
		page, err := renderOne(doc, i, dir, dpi)
		if err != nil {
			CleanupPages(pages)
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// renderOne rasterizes a single page and persists it. The raster is scoped to
// this call so its memory is reclaimable as soon as the file is written.
func renderOne(doc *fitz.Document, index int, dir string, dpi float64) (Page, error) {
	img, err := doc.ImageDPI(index, dpi)
	if err != nil {
		return Page{}, classifyFitz(err)
	}

	f, err := os.CreateTemp(dir, fmt.Sprintf("page-%d-*.png", index+1))
	if err != nil {
		return Page{}, fmt.Errorf("create page file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return Page{}, fmt.Errorf("encode page %d: %w", index+1, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return Page{}, fmt.Errorf("close page file: %w", err)
	}

	return Page{
		Number: index + 1,
		CID:    fmt.Sprintf("page_%d", index+1),
		Path:   f.Name(),
	}, nil
}

// CleanupPages removes every rendered page file. Safe on partial slices.
func CleanupPages(pages []Page) {
	for _, p := range pages {
		_ = os.Remove(p.Path)
	}
}

func classifyFitz(err error) error {
	switch {
	case errors.Is(err, fitz.ErrNoSuchFile):
		return fmt.Errorf("%w: %v", ErrDocumentNotFound, err)
	case errors.Is(err, fitz.ErrCreatePixmap), errors.Is(err, fitz.ErrPixmapSamples), errors.Is(err, fitz.ErrCreateContext):
		return fmt.Errorf("%w: %v", ErrRenderExhausted, err)
	default:
		return fmt.Errorf("%w: %v", ErrDocumentInvalid, err)
	}
}
