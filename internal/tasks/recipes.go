// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"

	"mvdan.cc/sh/v3/syntax"
)

// Recipe names. Each maps to recipes/<name>.bash.
const (
	RecipeComposerInstall = "composer_install"
	RecipeAppInstall      = "app_install"
	RecipeSearchInstall   = "search_install"
	RecipeSearchIndex     = "search_index"
)

//go:embed recipes/*.bash
var embeddedRecipes embed.FS

// DefaultRecipes returns the recipes a full provisioning run needs.
func DefaultRecipes() []string {
	return []string{RecipeComposerInstall, RecipeAppInstall, RecipeSearchInstall, RecipeSearchIndex}
}

// EmbeddedRecipes exposes the built-in recipe tree.
func EmbeddedRecipes() fs.FS {
	sub, err := fs.Sub(embeddedRecipes, "recipes")
	if err != nil {
		panic(err)
	}
	return sub
}

// loadRecipes reads and parses every named recipe from fsys.
func loadRecipes(fsys fs.FS, names []string) (map[string][]byte, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	out := make(map[string][]byte, len(names))
	for _, name := range names {
		file := name + ".bash"
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRecipeNotFound, name, err)
		}
		if _, err := parser.Parse(bytes.NewReader(data), file); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRecipe, name, err)
		}
		out[name] = data
	}
	return out, nil
}
