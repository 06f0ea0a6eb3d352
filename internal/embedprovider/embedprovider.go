// Package embedprovider defines the embedding contract (§6): embed([text])
// -> [vector]. Dimensionality is opaque to the engine as long as it is
// constant across one call. Embedding-model loading is explicitly out of
// scope; one minimal deterministic default is shipped so embed->cluster->
// label (C11) has something to run against without a network dependency.
package embedprovider

import "context"

// Embedder is the engine's sole embedding touchpoint.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// Dimensions reports the fixed vector length this embedder produces.
	Dimensions() int
}
