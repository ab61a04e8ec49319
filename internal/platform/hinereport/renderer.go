package hinereport

// Renderer serves every downloadable exam document.
type Renderer struct {
	*PDFRenderer
	*WorkbookRenderer
}

func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		PDFRenderer:      NewPDFRenderer(opts),
		WorkbookRenderer: NewWorkbookRenderer(),
	}
}
