//go:build ignore
// +build ignore

package main

import (
	"log"

	"github.com/shurcooL/vfsgen"
)

func main() {
	err := vfsgen.Generate(Assets, vfsgen.Options{
		Filename:     "assets_vfsdata.go",
		PackageName:  "main",
		BuildTags:    "embed",
		VariableName: "Assets",
	})
	if err != nil {
		log.Fatalln(err)
	}
}
