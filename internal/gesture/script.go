// Package gesture parses and replays gesture scripts: line-oriented
// recordings of pointer, key and timer input driven against an engine.
//
//	# scale the rectangle from its right edge
//	load sample
//	select "Rectangle"
//	tick 16
//	drag 400 275 to 450 275 shift
//	expect bounds "Rectangle" 200 200 250 150
//	key z ctrl
package gesture

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Number", Pattern: `[-+]?[0-9]+(?:\.[0-9]+)?`},
	{Name: "Mod", Pattern: `\b(?:shift|ctrl|alt)\b`},
	{Name: "Keyword", Pattern: `\b(?:load|sample|press|move|release|drag|to|key|tick|select|all|none|zoom|guide|vertical|horizontal|undo|redo|cancel|expect|selection|state|bounds|shapes)\b`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[;']`},
})

// Script is a parsed gesture script.
type Script struct {
	Steps []*Step `@@*`
}

// Step is one script line. Exactly one field is set.
type Step struct {
	Pos lexer.Position

	LoadSample bool         `  @("load" "sample")`
	Press      *PointerStep `| "press" @@`
	Move       *PointerStep `| "move" @@`
	Release    *PointerStep `| "release" @@`
	Drag       *DragStep    `| "drag" @@`
	Key        *KeyStep     `| "key" @@`
	Tick       *float64     `| "tick" @Number`
	Select     *SelectStep  `| "select" @@`
	Zoom       *float64     `| "zoom" @Number`
	Guide      *GuideStep   `| "guide" @@`
	Undo       bool         `| @"undo"`
	Redo       bool         `| @"redo"`
	Cancel     bool         `| @"cancel"`
	Expect     *Expectation `| "expect" @@`
}

type PointerStep struct {
	X    float64  `@Number`
	Y    float64  `@Number`
	Mods []string `@Mod*`
}

// DragStep is press, one move and release in a single line.
type DragStep struct {
	X1   float64  `@Number`
	Y1   float64  `@Number`
	X2   float64  `"to" @Number`
	Y2   float64  `@Number`
	Mods []string `@Mod*`
}

type KeyStep struct {
	Name string   `@(Ident | Punct)`
	Mods []string `@Mod*`
}

type SelectStep struct {
	All   bool     `  @"all"`
	None  bool     `| @"none"`
	Names []string `| @String+`
}

type GuideStep struct {
	Orientation string  `@("vertical" | "horizontal")`
	Position    float64 `@Number`
}

// Expectation checks engine state; a mismatch stops the replay.
type Expectation struct {
	Selection *int          `  "selection" @Number`
	Shapes    *int          `| "shapes" @Number`
	State     *string       `| "state" @Ident`
	Bounds    *BoundsExpect `| "bounds" @@`
}

type BoundsExpect struct {
	Name   string  `@String`
	X      float64 `@Number`
	Y      float64 `@Number`
	Width  float64 `@Number`
	Height float64 `@Number`
}

var scriptParser = participle.MustBuild[Script](
	participle.Lexer(scriptLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses a script from r. name is used in error positions.
func Parse(name string, r io.Reader) (*Script, error) {
	s, err := scriptParser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse gesture script: %w", err)
	}
	return s, nil
}

// ParseString parses a script held in memory.
func ParseString(name, src string) (*Script, error) {
	s, err := scriptParser.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("parse gesture script: %w", err)
	}
	return s, nil
}

// ParseFile parses the script at path.
func ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gesture script: %w", err)
	}
	defer f.Close()
	return Parse(path, f)
}
