/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"embed"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

//go:embed words/*.txt
var wordFiles embed.FS

// categoryRandom is the sentinel clients send to request a random category.
// The catalog itself only ever holds concrete categories.
const categoryRandom = "random"

// categoryJoke is an inside-joke list that never comes up on a random draw,
// only when requested explicitly.
const categoryJoke = "chorradas"

type catalog struct {
	categories map[string][]string
	names      []string // sorted, for deterministic iteration
}

func loadCatalog() (*catalog, error) {
	entries, err := wordFiles.ReadDir("words")
	if err != nil {
		return nil, err
	}

	c := &catalog{categories: make(map[string][]string, len(entries))}

	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".txt")

		file, err := wordFiles.Open("words/" + entry.Name())
		if err != nil {
			return nil, err
		}

		var words []string
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				words = append(words, line)
			}
		}
		file.Close()
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("empty word list: %s", entry.Name())
		}

		c.categories[name] = words
		c.names = append(c.names, name)
	}

	sort.Strings(c.names)

	return c, nil
}

func (c *catalog) has(category string) bool {
	_, ok := c.categories[category]
	return ok
}

// words returns the full list for a category, or nil if unknown.
func (c *catalog) words(category string) []string {
	return c.categories[category]
}

func (c *catalog) randomWord(category string) string {
	list := c.categories[category]
	if len(list) == 0 {
		return ""
	}
	return list[rand.Intn(len(list))]
}

// randomCategory draws a concrete category, never the joke list.
func (c *catalog) randomCategory() string {
	eligible := make([]string, 0, len(c.names))
	for _, name := range c.names {
		if name != categoryJoke {
			eligible = append(eligible, name)
		}
	}
	return eligible[rand.Intn(len(eligible))]
}

// resolveCategory maps a requested category to the concrete one used for
// the round. Unknown categories fall back to a random draw, same as the
// sentinel.
func (c *catalog) resolveCategory(requested string) string {
	if requested == "" || requested == categoryRandom || !c.has(requested) {
		return c.randomCategory()
	}
	return requested
}
