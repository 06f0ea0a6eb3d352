package embedprovider

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("recut/embedprovider")

// HashingEmbedder is the shipped default: a deterministic feature-hashing
// bag-of-words embedder (the hashing trick). It needs no model weights or
// network access, matching §1's framing of embedding-model loading as an
// external collaborator — this is the minimal default, not a claim of
// semantic quality.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder returns a HashingEmbedder producing vectors of the
// given dimensionality.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 256
	}

	return &HashingEmbedder{dims: dims}
}

// Dimensions implements Embedder.
func (e *HashingEmbedder) Dimensions() int { return e.dims }

// Embed implements Embedder by hashing each whitespace token into a bucket
// and L2-normalizing the resulting vector, so cosine and Euclidean distance
// agree for the clusterer.
func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	_, span := tracer.Start(ctx, "embed.batch")
	defer span.End()

	vectors := make([][]float64, len(texts))

	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}

	return vectors, nil
}

func (e *HashingEmbedder) embedOne(text string) []float64 {
	vec := make([]float64, e.dims)

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		bucket := int(h.Sum32()) % e.dims

		if bucket < 0 {
			bucket += e.dims
		}

		vec[bucket]++
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}

	for i := range vec {
		vec[i] /= norm
	}

	return vec
}
