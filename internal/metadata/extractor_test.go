package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragloader/pkg/models"
)

func testSnapshot() *models.RepositorySnapshot {
	return &models.RepositorySnapshot{
		URL:         "https://github.com/acme/payments.git",
		Name:        "payments",
		LocalPath:   "/tmp/payments",
		Branch:      "main",
		CommitHash:  "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
		ShortHash:   "a1b2c3d",
		Message:     "add ledger service",
		AuthorName:  "Dev One",
		AuthorEmail: "dev@example.com",
		CommitTime:  time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestModuleName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/services/auth.py", "src.services.auth"},
		{"main.py", "main"},
		{"lib/utils/strings.ts", "lib.utils.strings"},
		{"Dockerfile", "Dockerfile"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleName(tt.path))
		})
	}
}

func TestExtractPopulatesIdentityAndDerivedFields(t *testing.T) {
	dir := t.TempDir()
	content := "import os\nfrom fastapi import FastAPI\n\n# bootstrap\napp = FastAPI()\n"
	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e := NewExtractor(dir)
	md := e.Extract(models.CandidateFile{
		Path:         path,
		RelativePath: "app.py",
		Language:     "python",
		Size:         int64(len(content)),
	}, testSnapshot())

	assert.Equal(t, "codebase", md.Source)
	assert.Equal(t, "python", md.Language)
	assert.Equal(t, "app", md.Module)
	assert.Equal(t, "payments", md.RepoName)
	assert.Equal(t, "a1b2c3d", md.ShortHash)
	assert.Equal(t, "add ledger service", md.CommitMsg)
	assert.Equal(t, "2025-03-14 09:30:00 +0000", md.CommitDate)

	assert.Equal(t, []string{"fastapi", "os"}, md.Imports)
	assert.Equal(t, 2, md.ImportCount)
	assert.Equal(t, 5, md.LinesTotal)
	assert.Equal(t, 1, md.LinesBlank)
	assert.Equal(t, 1, md.LinesComment)
	assert.Equal(t, 3, md.LinesCode)
}

func TestExtractNeverFailsOnUnreadableFile(t *testing.T) {
	e := NewExtractor(t.TempDir())
	md := e.Extract(models.CandidateFile{
		Path:         "/nonexistent/gone.py",
		RelativePath: "gone.py",
		Language:     "python",
	}, testSnapshot())

	assert.Equal(t, "gone.py", md.FilePath)
	assert.Equal(t, "gone", md.Module)
	assert.Empty(t, md.Imports)
	assert.Zero(t, md.LinesTotal)
}

func TestExtractImportsPython(t *testing.T) {
	content := `import os
import sys
from collections import defaultdict
from app.services.auth import login
# import commented_out
x = "import not_an_import"
`
	imports := ExtractImports(content, "python")
	assert.Equal(t, []string{"app.services.auth", "collections", "os", "sys"}, imports)
}

func TestExtractImportsTypeScript(t *testing.T) {
	content := `import { useState } from 'react';
import axios from "axios";
const fs = require('fs');
// import { dead } from 'dead';
`
	imports := ExtractImports(content, "typescript")
	assert.Equal(t, []string{"axios", "fs", "react"}, imports)
}

func TestExtractImportsGo(t *testing.T) {
	content := `package main

import "fmt"

import (
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)
`
	imports := ExtractImports(content, "go")
	assert.Equal(t, []string{"fmt", "github.com/go-git/go-git/v5", "os", "strings"}, imports)
}

func TestExtractImportsC(t *testing.T) {
	content := "#include <stdio.h>\n#include \"local.h\"\nint main(void) { return 0; }\n"
	imports := ExtractImports(content, "c")
	assert.Equal(t, []string{"local.h", "stdio.h"}, imports)
}

func TestExtractImportsUnknownLanguage(t *testing.T) {
	assert.Empty(t, ExtractImports("whatever content", "plantuml"))
}

func TestCountLinesHashComments(t *testing.T) {
	content := `# header comment
import os

# section
# more commentary
def f():
    return os.getcwd()

x = f()
y = x`
	stats := CountLines(content, "python")
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 2, stats.Blank)
	assert.Equal(t, 3, stats.Comment)
	assert.Equal(t, 5, stats.Code)
}

func TestCountLinesBlockComments(t *testing.T) {
	content := `/*
 * banner
 */
int main(void) {
    // inline
    return 0;
}`
	stats := CountLines(content, "c")
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 4, stats.Comment)
	assert.Equal(t, 3, stats.Code)
	assert.Equal(t, 0, stats.Blank)
}

func TestTopLevelPackages(t *testing.T) {
	got := TopLevelPackages([]string{
		"fastapi.routing",
		"fastapi",
		"pydantic",
		"github.com/go-git/go-git/v5",
		"std::vec",
	})
	assert.Equal(t, []string{"fastapi", "github", "pydantic", "std"}, got)
}
