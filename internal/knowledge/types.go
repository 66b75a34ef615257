package knowledge

// Chunk is one bounded, retrievable unit of report text together with its
// embedding and positional metadata.
type Chunk struct {
	ReportID  string
	Index     int
	Content   string
	Embedding []float32
	Section   string
	StartChar int
	EndChar   int
	WordCount int
}

// Candidate is a raw row returned by a search capability before validation.
// The shape is deliberately loose: Similarity is a pointer so a missing score
// can be told apart from a zero score.
type Candidate struct {
	ID         string
	ReportID   string
	Content    string
	Section    string
	Similarity *float64
}

// Result is a validated search result ready for prompt assembly.
type Result struct {
	ID         string
	ReportID   string
	Content    string
	Section    string
	Similarity float64
}

// SearchOption configures retrieval behavior using the functional options
// pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK      int
	threshold float64
}

// WithTopK sets the maximum number of results to return. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithThreshold sets the minimum cosine similarity a stored chunk must reach
// to be considered. Default is 0.
func WithThreshold(t float64) SearchOption {
	return func(c *searchConfig) {
		c.threshold = t
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:      5,
		threshold: 0,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
