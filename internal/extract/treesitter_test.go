//go:build cgo

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeSitter_JavaScript(t *testing.T) {
	src := `import React from 'react'
import { helper } from './util'
const api = require('./api')
export function load() {}
export const save = async (x) => x
class Store extends Base { get(id) { return id } }
module.exports = Store
`
	x, err := NewTreeSitterExtractor(nil)
	require.NoError(t, err)

	res := x.Extract(src, "store.js", "js")

	assert.Equal(t, []string{"load", "save", "get"}, fnNames(res))
	assert.True(t, res.Functions[1].Async)
	require.Len(t, res.Classes, 1)
	assert.Equal(t, "Base", res.Classes[0].Extends)
	assert.Equal(t, []string{"react", "./util", "./api"}, importSources(res))
	assert.Equal(t, ImportRequire, res.Imports[2].Kind)
	assert.Equal(t, []string{"load", "save", "Store"}, exportNames(res))
	assert.Greater(t, res.CallSites, 0)
}

func TestTreeSitter_Python(t *testing.T) {
	src := `import os, sys as system
from .models import User

class View(Base):
    async def get(self):
        return os.getcwd()

def get():
    pass
`
	x, err := NewTreeSitterExtractor(nil)
	require.NoError(t, err)

	res := x.Extract(src, "views.py", "py")

	assert.Equal(t, []string{"get"}, fnNames(res))
	assert.True(t, res.Functions[0].Async)
	assert.Equal(t, []string{"View"}, classNames(res))
	assert.Equal(t, "Base", res.Classes[0].Extends)
	assert.Equal(t, []string{"os", "sys", ".models"}, importSources(res))
}

func TestTreeSitter_FallsBackOnSyntaxErrors(t *testing.T) {
	x, err := NewTreeSitterExtractor(nil)
	require.NoError(t, err)

	res := x.Extract("function ok() {}\nfunction broken( {", "a.js", "js")

	assert.Contains(t, fnNames(res), "ok")
}

func TestTreeSitter_OtherExtensionsUseRegex(t *testing.T) {
	x, err := NewTreeSitterExtractor(nil)
	require.NoError(t, err)

	assert.True(t, x.Extract("fn main() {}", "main.rs", "rs").IsEmpty())
}
