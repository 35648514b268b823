// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides the embedding provider abstraction used by embedsync.
//
// The synchronization core depends only on the Embedder interface, so the
// provider client is constructed once at startup and injected into both the
// batch and the single-update drivers.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI and OpenAI-compatible APIs through langchaingo
//   - ai/mock: deterministic test double
//
// Public constructors return the ai.Embedder interface:
//
//	embedder, err := openai.NewEmbedder(ai.NewConfig(ai.WithAPIKey(key)))
//
// The mock constructor returns the concrete type so tests can inspect calls:
//
//	m := mock.NewMockEmbedder()
//	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("rate limited")
//	}
//	_ = m.CallCount()
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "Apartamento T3 no centro")
package ai
