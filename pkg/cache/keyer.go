package cache

// Keyer builds cache keys.
type Keyer interface {
	// DiagramKey keys a built diagram by the hash of its canonical input
	// rows and the build options.
	DiagramKey(rowsHash string, opts DiagramKeyOpts) string

	// PreviewKey keys a rendered preview by the hash of the diagram XML.
	PreviewKey(docHash string, opts PreviewKeyOpts) string
}

// DiagramKeyOpts are the build options that change a diagram.
type DiagramKeyOpts struct {
	StrictAppTypes bool `json:"strict_app_types"`
}

// PreviewKeyOpts are the render options that change a preview.
type PreviewKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard key layout.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DiagramKey implements Keyer.
func (DefaultKeyer) DiagramKey(rowsHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", rowsHash, opts)
}

// PreviewKey implements Keyer.
func (DefaultKeyer) PreviewKey(docHash string, opts PreviewKeyOpts) string {
	return hashKey("preview", docHash, opts)
}
