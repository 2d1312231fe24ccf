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


package chunker

import "fmt"

const (
	// DefaultWindowSize is the default window length in characters.
	DefaultWindowSize = 3000

	// DefaultNumWindowsHint is the default number of steps a window is divided into.
	DefaultNumWindowsHint = 5

	// DefaultMinLength is the default minimum text length worth classifying.
	DefaultMinLength = DefaultWindowSize
)

// Params controls how text is split into windows.
type Params struct {
	// WindowSize is the length of each window in characters.
	WindowSize int

	// NumWindowsHint divides WindowSize into the stepping distance.
	// Values below 1 are treated as 1 (no overlap).
	NumWindowsHint int

	// MinLength is the shortest text that is split at all.
	// Shorter texts produce no windows and are reported as too short.
	MinLength int
}

// DefaultParams returns the chunking parameters used for patents.
func DefaultParams() Params {
	return Params{
		WindowSize:     DefaultWindowSize,
		NumWindowsHint: DefaultNumWindowsHint,
		MinLength:      DefaultMinLength,
	}
}

// Window is a half-open [Start, End) range of character offsets.
type Window struct {
	Start int
	End   int
}

// Len returns the number of characters covered by the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Step returns the distance between consecutive window starts.
func (p Params) Step() int {
	return p.WindowSize / max(1, p.NumWindowsHint)
}

// Validate reports whether the parameters produce a usable step.
func (p Params) Validate() error {
	if p.WindowSize <= 0 {
		return fmt.Errorf("%w: window size %d must be positive", ErrInvalidParams, p.WindowSize)
	}
	if p.Step() <= 0 {
		return fmt.Errorf("%w: window size (%d) must be >= number of windows (%d)",
			ErrInvalidParams, p.WindowSize, max(1, p.NumWindowsHint))
	}
	if p.MinLength < 0 {
		return fmt.Errorf("%w: minimum length %d must not be negative", ErrInvalidParams, p.MinLength)
	}
	return nil
}

// TooShort reports whether a text of the given length is below the minimum.
// Empty text is always too short.
func (p Params) TooShort(length int) bool {
	return length == 0 || length < p.MinLength
}

// Windows computes the windows for a text of the given length.
// Returns no windows when the length is below MinLength.
func (p Params) Windows(length int) ([]Window, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.TooShort(length) {
		return nil, nil
	}

	step := p.Step()
	windows := make([]Window, 0, length/step+1)
	for start := 0; start < length; start += step {
		end := start + p.WindowSize
		if end >= length {
			windows = append(windows, Window{Start: start, End: length})
			break
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows, nil
}

// Split divides text into windows and returns them with their text.
// Offsets are in runes, not bytes.
func Split(text string, p Params) ([]Window, []string, error) {
	runes := []rune(text)
	windows, err := p.Windows(len(runes))
	if err != nil {
		return nil, nil, err
	}
	texts := make([]string, len(windows))
	for i, w := range windows {
		texts[i] = string(runes[w.Start:w.End])
	}
	return windows, texts, nil
}
