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


// Package ai provides abstractions for the language-model classifiers used by
// patentmark.
//
// A Task describes one question asked of every chunk of a patent: the
// prompts, the output budget, and how to read the relevance verdict out of
// the model's JSON answer. Two tasks are predefined:
//
//   - MarkupTask: does the chunk contain ligand-protein binding data?
//   - BindingTask: extract the binding constants, assay, ligand and protein
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewClassifier) return
// INTERFACE types. Test utility constructors (mock.NewMockClassifier) return
// CONCRETE types so tests can inject behavior and count calls.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434/v1"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	classifier, err := provider.Classifier(ai.MarkupTask())
//	result, err := classifier.Classify(ctx, chunkText)
package ai
