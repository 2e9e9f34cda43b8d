// Package parser reads word-list files. Each entry is a block of prefixed
// fields:
//
//	D: jmdict-1358280
//	E: 毎朝パンを食べる。
//	T: I eat bread every morning.
//	I: images/bread.png
//	---
//
// D: starts a new entry. E: and T: may continue over several lines. Text
// before the first D: is ignored.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/lexideck/internal/domain"
)

const (
	dictionaryPrefix  = "D:"
	examplePrefix     = "E:"
	translationPrefix = "T:"
	imagePrefix       = "I:"
	separator         = "---"
)

type state int

const (
	seeking state = iota
	readingDictionaryID
	readingExample
	readingTranslation
	readingImage
)

var prefixes = []struct {
	prefix string
	state  state
}{
	{dictionaryPrefix, readingDictionaryID},
	{examplePrefix, readingExample},
	{translationPrefix, readingTranslation},
	{imagePrefix, readingImage},
}

// Entry is one parsed word-list entry.
type Entry struct {
	DictionaryID string `validate:"required,max=128,nospace"`
	Enrichment   domain.Enrichment
	// Line is the line number of the entry's D: line.
	Line int
}

// ParseFile reads a file from the given path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all entries.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var block []string
	currentState := seeking
	lineNo := 0

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch currentState {
		case readingDictionaryID:
			current.DictionaryID = content
		case readingExample:
			current.Enrichment.ExampleText = content
		case readingTranslation:
			current.Enrichment.TranslatedText = content
		case readingImage:
			current.Enrichment.ImageRef = content
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Line > 0 {
			entries = append(entries, current)
		}
		current = Entry{}
		currentState = seeking
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finishEntry()
			continue
		}

		next, content, ok := matchPrefix(line)
		if !ok {
			if currentState != seeking {
				block = append(block, line)
			}
			continue
		}

		flushBlock()
		if next == readingDictionaryID {
			if currentState != seeking {
				finishEntry()
			}
			current.Line = lineNo
		} else if currentState == seeking {
			// A field without a D: line belongs to no entry.
			continue
		}
		currentState = next
		block = append(block, content)
	}

	finishEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func matchPrefix(line string) (state, string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.state, strings.TrimPrefix(line[len(p.prefix):], " "), true
		}
	}
	return seeking, "", false
}
