package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoviz/internal/codebase"
	"repoviz/internal/extract"
)

func result(functions, classes, calls int) *extract.Result {
	res := extract.Empty()
	for i := 0; i < functions; i++ {
		res.Functions = append(res.Functions, extract.Function{Name: strings.Repeat("f", i+1)})
	}
	for i := 0; i < classes; i++ {
		res.Classes = append(res.Classes, extract.Class{Name: "C"})
	}
	res.CallSites = calls
	return res
}

func fileWithLines(path string, lines int, res *extract.Result) *codebase.SourceFile {
	content := ""
	if lines > 0 {
		content = strings.Repeat("x\n", lines-1) + "x"
	}
	return codebase.NewSourceFile(codebase.FileInput{Path: path, Content: content}, res, Complexity(res))
}

func TestComplexity(t *testing.T) {
	assert.Equal(t, 0.0, Complexity(nil))
	assert.Equal(t, 0.0, Complexity(extract.Empty()))
	assert.InDelta(t, 3+2*2+0.1*10, Complexity(result(3, 2, 10)), 1e-9)
}

func TestComplexity_Monotone(t *testing.T) {
	base := Complexity(result(4, 1, 7))
	plusFunction := Complexity(result(5, 1, 7))
	plusClass := Complexity(result(4, 2, 7))

	fnStep := plusFunction - base
	assert.GreaterOrEqual(t, fnStep, 0.0)
	assert.InDelta(t, 2*fnStep, plusClass-base, 1e-9, "a class weighs twice a function")
}

func TestAggregate_TwoFiles(t *testing.T) {
	files := []*codebase.SourceFile{
		fileWithLines("a.js", 10, result(2, 0, 0)),
		fileWithLines("lib/b.py", 20, result(1, 1, 5)),
	}

	s, err := Aggregate(files)
	require.NoError(t, err)

	assert.Equal(t, 30, s.TotalLines)
	assert.Equal(t, 2, s.TotalFiles)
	assert.Equal(t, 3, s.TotalFunctions)
	assert.Equal(t, 1, s.TotalClasses)
	// (2 + 3.5) / 2
	assert.Equal(t, 2.75, s.AvgComplexity)
	assert.Equal(t, 3.5, s.MaxComplexity)
	assert.Equal(t, []string{"js", "py"}, s.Languages)
	assert.Equal(t, "lib/b.py", s.LargestFile)
	assert.Equal(t, map[string]int{"JavaScript": 1, "Python": 1}, s.FilesByLanguage)
}

func TestAggregate_RoundsAverage(t *testing.T) {
	files := []*codebase.SourceFile{
		fileWithLines("a.js", 1, result(1, 0, 0)),
		fileWithLines("b.js", 1, result(0, 0, 0)),
		fileWithLines("c.js", 1, result(0, 0, 0)),
	}

	s, err := Aggregate(files)
	require.NoError(t, err)

	assert.Equal(t, 0.33, s.AvgComplexity)
	assert.Equal(t, []string{"js"}, s.Languages, "languages are deduplicated")
}

func TestAggregate_EmptyIsAnError(t *testing.T) {
	s, err := Aggregate(nil)

	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrEmptyFileSet)
}

func TestTopComplex(t *testing.T) {
	files := []*codebase.SourceFile{
		fileWithLines("b.js", 1, result(1, 0, 0)),
		fileWithLines("a.js", 1, result(1, 0, 0)),
		fileWithLines("c.js", 1, result(0, 3, 0)),
	}

	top := TopComplex(files, 2)

	require.Len(t, top, 2)
	assert.Equal(t, "c.js", top[0].Path)
	assert.Equal(t, "a.js", top[1].Path, "ties sort by path")
	assert.Len(t, TopComplex(files, 10), 3)
}
