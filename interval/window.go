// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package interval

// Split partitions e into consecutive, non-overlapping windows of at most
// width positions.  Every window but the last has exactly width positions;
// their union is e.  An empty entry yields no windows.
//
// REQUIRES: width > 0.
func Split(e Entry, width PosType) []Entry {
	if width <= 0 {
		panic("interval.Split: width must be positive")
	}
	if e.End <= e.Start0 {
		return nil
	}
	windows := make([]Entry, 0, (int64(e.Len())+int64(width)-1)/int64(width))
	for start := e.Start0; start < e.End; {
		end := e.End
		// Compare in int64 so start+width can't overflow near PosTypeMax.
		if int64(start)+int64(width) < int64(end) {
			end = start + width
		}
		windows = append(windows, Entry{
			ChrName: e.ChrName,
			Start0:  start,
			End:     end,
		})
		start = end
	}
	return windows
}
