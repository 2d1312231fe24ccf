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


// Package search finds marked-up documents that contain binding data.
//
// The Finder scans a checkpoint store and reports every document flagged as
// containing binding information, optionally narrowed to documents whose
// flagged chunks mention all words of a query. Stop words are ignored and
// matching is case-insensitive.
package search
