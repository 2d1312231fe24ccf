// Package chunker splits document text into deterministic, overlapping windows.
//
// Windows are measured in characters (Unicode code points). The step between
// window starts is WindowSize / NumWindowsHint, so a hint of 5 makes every
// character of the interior of a document appear in about five windows.
// The last window always ends exactly at the end of the text.
package chunker
