// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab sizes match fzf's own defaults.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

var initScheme sync.Once

// initFuzzy fills fzf's character classes and bonus tables. FuzzyMatchV2
// classifies nothing until this has run.
func initFuzzy() {
	initScheme.Do(func() { algo.Init("default") })
}

// fuzzyScore returns the best fzf score of query across the row's
// indexed cells. query must already be lowercase; matching is case
// insensitive and folds accented latin letters, so "jose" matches
// "José".
func (e *Engine) fuzzyScore(row Row, query string) (int, bool) {
	pattern := algo.NormalizeRunes([]rune(query))
	best, matched := 0, false
	for _, cell := range e.cells(row) {
		if cell == "" {
			continue
		}
		chars := util.ToChars([]byte(cell))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, e.slab)
		if result.Start < 0 || result.Score <= 0 {
			continue
		}
		if !matched || result.Score > best {
			best = result.Score
			matched = true
		}
	}
	return best, matched
}
