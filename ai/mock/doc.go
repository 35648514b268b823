// Package mock provides a test double for ai.Embedder.
//
// MockEmbedder lets tests run without a network provider. By default it returns
// a deterministic vector derived from the text, so the same text always maps to
// the same vector. Custom behavior, such as simulated provider failures, is
// injected through EmbedTextFunc:
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("provider down")
//	}
//
// CallCount and Texts report what the code under test sent to the provider.
package mock
